package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finboard.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestCreateAndGetAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateAccount(ctx, core.Account{
		Name:           "My Savings",
		Type:           "bank",
		BankName:       "State Bank",
		OpeningBalance: dec(t, "1000"),
		Currency:       "USD",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("account should receive a generated ID")
	}
	if !created.CurrentBalance.Equal(dec(t, "1000")) {
		t.Fatalf("current balance should start at opening balance, got %v", created.CurrentBalance)
	}

	got, err := repo.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Name != "My Savings" || !got.OpeningBalance.Equal(dec(t, "1000")) {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestTransactionAdjustsCachedBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	acct, err := repo.CreateAccount(ctx, core.Account{Name: "a", OpeningBalance: dec(t, "1000"), Currency: "USD"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		AccountID: acct.ID, Type: core.Income, Category: "salary",
		Amount: dec(t, "500"), Date: "2024-01-10",
	}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	expense, err := repo.CreateTransaction(ctx, core.Transaction{
		AccountID: acct.ID, Type: core.Expense, Category: "food",
		Amount: dec(t, "200"), Date: "2024-01-12",
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	got, err := repo.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.CurrentBalance.Equal(dec(t, "1300")) {
		t.Fatalf("cached balance = %v, want 1300", got.CurrentBalance)
	}

	// The cached value must agree with the aggregator's derivation.
	txs, err := repo.ListTransactions(ctx, acct.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	derived := core.ComputeCurrentBalance(got.OpeningBalance, txs)
	if !derived.Equal(got.CurrentBalance) {
		t.Fatalf("cached %v disagrees with derived %v", got.CurrentBalance, derived)
	}

	// Deleting reverses the contribution.
	if _, err := repo.DeleteTransaction(ctx, expense.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	got, _ = repo.GetAccount(ctx, acct.ID)
	if !got.CurrentBalance.Equal(dec(t, "1500")) {
		t.Fatalf("cached balance after delete = %v, want 1500", got.CurrentBalance)
	}
}

func TestListTransactionsScopedToAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a1, _ := repo.CreateAccount(ctx, core.Account{Name: "a1", Currency: "USD"})
	a2, _ := repo.CreateAccount(ctx, core.Account{Name: "a2", Currency: "EUR"})

	for _, accountID := range []string{a1.ID, a1.ID, a2.ID} {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{
			AccountID: accountID, Type: core.Expense, Category: "misc",
			Amount: dec(t, "1"), Date: "2024-03-01",
		}); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	txs, err := repo.ListTransactions(ctx, a1.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions for a1, want 2", len(txs))
	}

	all, err := repo.ListAllTransactions(ctx)
	if err != nil {
		t.Fatalf("list all transactions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d transactions overall, want 3", len(all))
	}
}

func TestUpdateCurrentBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	acct, _ := repo.CreateAccount(ctx, core.Account{Name: "a", OpeningBalance: dec(t, "10"), Currency: "USD"})

	if err := repo.UpdateCurrentBalance(ctx, acct.ID, dec(t, "42.42")); err != nil {
		t.Fatalf("update balance: %v", err)
	}
	got, _ := repo.GetAccount(ctx, acct.ID)
	if !got.CurrentBalance.Equal(dec(t, "42.42")) {
		t.Fatalf("balance = %v, want 42.42", got.CurrentBalance)
	}

	if err := repo.UpdateCurrentBalance(ctx, "missing", dec(t, "1")); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows for unknown account, got %v", err)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	acct, _ := repo.CreateAccount(ctx, core.Account{Name: "a", Currency: "USD"})
	tx, _ := repo.CreateTransaction(ctx, core.Transaction{
		AccountID: acct.ID, Type: core.Expense, Category: "misc",
		Amount: dec(t, "5"), Date: "2024-01-01",
	})

	if err := repo.DeleteAccount(ctx, acct.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, tx.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("transactions should cascade on account delete, got %v", err)
	}
}
