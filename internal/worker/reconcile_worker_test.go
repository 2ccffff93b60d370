package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"finboard/internal/amqp"
	"finboard/internal/core"
)

type fakeStore struct {
	accounts map[string]core.Account
	txs      map[string][]core.Transaction
	updates  map[string]decimal.Decimal
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]core.Account),
		txs:      make(map[string][]core.Transaction),
		updates:  make(map[string]decimal.Decimal),
	}
}

func (s *fakeStore) GetAccount(_ context.Context, id string) (core.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, errors.New("account not found")
	}
	return a, nil
}

func (s *fakeStore) ListTransactions(_ context.Context, accountID string) ([]core.Transaction, error) {
	return s.txs[accountID], nil
}

func (s *fakeStore) ListAccountIDs(_ context.Context, limit int) ([]string, error) {
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		if len(ids) == limit {
			break
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) UpdateCurrentBalance(_ context.Context, accountID string, balance decimal.Decimal) error {
	s.updates[accountID] = balance
	a := s.accounts[accountID]
	a.CurrentBalance = balance
	s.accounts[accountID] = a
	return nil
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestReconcileAccountConsistent(t *testing.T) {
	store := newFakeStore()
	store.accounts["a1"] = core.Account{
		ID:             "a1",
		OpeningBalance: d("1000"),
		CurrentBalance: d("1300"),
	}
	store.txs["a1"] = []core.Transaction{
		{Type: core.Income, Amount: d("500"), Date: "2024-01-10"},
		{Type: core.Expense, Amount: d("200"), Date: "2024-01-12"},
	}

	w := NewReconcileWorker(store, 10)
	if err := w.ReconcileAccount(context.Background(), "a1"); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if _, updated := store.updates["a1"]; updated {
		t.Fatalf("consistent balance should not be rewritten")
	}
}

func TestReconcileAccountRepairsDrift(t *testing.T) {
	store := newFakeStore()
	store.accounts["a1"] = core.Account{
		ID:             "a1",
		OpeningBalance: d("1000"),
		CurrentBalance: d("999"), // stale cache
	}
	store.txs["a1"] = []core.Transaction{
		{Type: core.Income, Amount: d("500"), Date: "2024-01-10"},
		{Type: core.Expense, Amount: d("200"), Date: "2024-01-12"},
	}

	w := NewReconcileWorker(store, 10)
	if err := w.ReconcileAccount(context.Background(), "a1"); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	got, updated := store.updates["a1"]
	if !updated {
		t.Fatalf("drifted balance should be repaired")
	}
	if !got.Equal(d("1300")) {
		t.Fatalf("repaired balance = %v, want 1300", got)
	}
}

func TestHandleMutationMessage(t *testing.T) {
	store := newFakeStore()
	store.accounts["a1"] = core.Account{ID: "a1", OpeningBalance: d("0"), CurrentBalance: d("5")}
	store.txs["a1"] = []core.Transaction{
		{Type: core.Income, Amount: d("7"), Date: "2024-02-02"},
	}

	w := NewReconcileWorker(store, 10)
	msg := amqp.NewTransactionMutatedMessage("a1", "t1", amqp.OpCreated)
	if err := w.HandleMutationMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if got := store.accounts["a1"].CurrentBalance; !got.Equal(d("7")) {
		t.Fatalf("balance = %v, want 7", got)
	}

	if err := w.HandleMutationMessage(context.Background(), amqp.NewTransactionMutatedMessage("missing", "t2", amqp.OpDeleted)); err == nil {
		t.Fatalf("unknown account should surface an error for requeue")
	}
}

func TestSweepAccountsContinuesPastFailures(t *testing.T) {
	store := newFakeStore()
	store.accounts["good"] = core.Account{ID: "good", OpeningBalance: d("0"), CurrentBalance: d("1")}
	store.txs["good"] = nil // derived balance is 0, cache says 1

	w := NewReconcileWorker(store, 10)
	if err := w.SweepAccounts(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := store.accounts["good"].CurrentBalance; !got.IsZero() {
		t.Fatalf("sweep should repair balance, got %v", got)
	}
}
