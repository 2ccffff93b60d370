// Package worker keeps the denormalized current_balance column honest.
// The ledger aggregator derives the canonical balance from the full
// transaction history; this worker compares it with the cached value
// and repairs any drift.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"finboard/internal/amqp"
	"finboard/internal/core"
)

// BalanceStore is the slice of storage the worker needs.
type BalanceStore interface {
	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListTransactions(ctx context.Context, accountID string) ([]core.Transaction, error)
	ListAccountIDs(ctx context.Context, limit int) ([]string, error)
	UpdateCurrentBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
}

// ReconcileWorker verifies cached account balances against the ledger.
type ReconcileWorker struct {
	store     BalanceStore
	batchSize int
}

func NewReconcileWorker(store BalanceStore, batchSize int) *ReconcileWorker {
	return &ReconcileWorker{
		store:     store,
		batchSize: batchSize,
	}
}

// HandleMutationMessage reconciles the account named by a single AMQP
// mutation message.
func (w *ReconcileWorker) HandleMutationMessage(ctx context.Context, msg *amqp.TransactionMutatedMessage) error {
	slog.InfoContext(ctx, "Processing mutation message",
		"account_id", msg.AccountID,
		"transaction_id", msg.TransactionID,
		"op", msg.Op)

	if err := w.ReconcileAccount(ctx, msg.AccountID); err != nil {
		return fmt.Errorf("reconcile account %s: %w", msg.AccountID, err)
	}
	return nil
}

// ReconcileAccount recomputes an account's balance from its full
// transaction history and repairs the cached value if it drifted.
func (w *ReconcileWorker) ReconcileAccount(ctx context.Context, accountID string) error {
	account, err := w.store.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	txs, err := w.store.ListTransactions(ctx, accountID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	derived := core.ComputeCurrentBalance(account.OpeningBalance, txs)
	if derived.Equal(account.CurrentBalance) {
		slog.DebugContext(ctx, "Balance consistent",
			"account_id", accountID,
			"balance", derived.String())
		return nil
	}

	drift := account.CurrentBalance.Sub(derived)
	slog.WarnContext(ctx, "Balance drift detected",
		"account_id", accountID,
		"cached", account.CurrentBalance.String(),
		"derived", derived.String(),
		"drift", drift.String(),
		"transactions", len(txs))

	if err := w.store.UpdateCurrentBalance(ctx, accountID, derived); err != nil {
		return fmt.Errorf("repair balance: %w", err)
	}

	slog.InfoContext(ctx, "Balance repaired",
		"account_id", accountID,
		"balance", derived.String())
	return nil
}

// SweepAccounts reconciles up to batchSize accounts. It backs the AMQP
// path in case messages are lost; individual failures are logged and do
// not stop the sweep.
func (w *ReconcileWorker) SweepAccounts(ctx context.Context) error {
	ids, err := w.store.ListAccountIDs(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Sweeping account balances", "count", len(ids))

	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.ReconcileAccount(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to reconcile account",
				"account_id", id,
				"error", err)
		}
	}
	return nil
}
