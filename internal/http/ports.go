package http

import (
	"context"

	"finboard/internal/core"
)

// Ports the server depends on. Storage and messaging implementations
// live in their own packages; the server only sees these slices.
type (
	// Store is the persistence surface the handlers use.
	Store interface {
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		GetAccount(ctx context.Context, id string) (core.Account, error)
		ListAccounts(ctx context.Context) ([]core.Account, error)
		DeleteAccount(ctx context.Context, id string) error

		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) (core.Transaction, error)
		ListTransactions(ctx context.Context, accountID string) ([]core.Transaction, error)
		ListAllTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// EventPublisher announces transaction mutations to the
	// reconciliation worker. May be nil when messaging is disabled.
	EventPublisher interface {
		PublishTransactionMutated(ctx context.Context, accountID, transactionID, op string) error
	}
)
