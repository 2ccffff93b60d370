// Package storage persists accounts and transactions in SQLite. The
// denormalized current_balance column is owned here: every transaction
// insert or delete adjusts it inside the same database transaction, and
// the reconciliation worker verifies it against the ledger aggregator.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finboard/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateAccount inserts a new account. The current balance starts equal
// to the opening balance.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ID = uuid.NewString()
	a.CurrentBalance = a.OpeningBalance

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, account_name, account_type, bank_name, opening_balance, current_balance, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Type, a.BankName, a.OpeningBalance.String(), a.CurrentBalance.String(), a.Currency)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"account_id", a.ID,
		"account_name", a.Name,
		"currency", a.Currency)

	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_name, account_type, bank_name, opening_balance, current_balance, currency
		FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_name, account_type, bank_name, opening_balance, current_balance, currency
		FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]core.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateTransaction inserts a transaction and adjusts the owning
// account's cached balance in the same database transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, transaction_type, category, amount, transaction_date, description, payment_method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, string(t.Type), t.Category, t.Amount.String(), t.Date, t.Description, t.PaymentMethod)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	if err := adjustBalance(ctx, dbTx, t.AccountID, core.SignedAmount(t)); err != nil {
		return core.Transaction{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"account_id", t.AccountID,
		"type", string(t.Type),
		"category", t.Category,
		"amount", t.Amount.String())

	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, transaction_type, category, amount, transaction_date, description, payment_method
		FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// DeleteTransaction removes a transaction and reverses its contribution
// to the account's cached balance. The deleted record is returned so
// callers can publish a mutation event for it.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := r.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}

	if err := adjustBalance(ctx, dbTx, t.AccountID, core.SignedAmount(t).Neg()); err != nil {
		return core.Transaction{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"transaction_id", t.ID,
		"account_id", t.AccountID)

	return t, nil
}

// ListTransactions returns the full history for one account, most recent
// date first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, accountID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, transaction_type, category, amount, transaction_date, description, payment_method
		FROM transactions WHERE account_id = ?
		ORDER BY transaction_date DESC, created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListAllTransactions returns every transaction across all accounts,
// feeding the cross-account reports view.
func (r *SQLiteRepository) ListAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, transaction_type, category, amount, transaction_date, description, payment_method
		FROM transactions ORDER BY transaction_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListAccountIDs returns up to limit account IDs for the periodic
// reconciliation sweep.
func (r *SQLiteRepository) ListAccountIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM accounts ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateCurrentBalance overwrites the cached balance. Used by the
// reconciliation worker when it detects drift.
func (r *SQLiteRepository) UpdateCurrentBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET current_balance = ? WHERE id = ?`,
		balance.String(), accountID)
	if err != nil {
		return fmt.Errorf("update current balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// adjustBalance applies a signed delta to the cached balance inside an
// open database transaction.
func adjustBalance(ctx context.Context, dbTx *sql.Tx, accountID string, delta decimal.Decimal) error {
	var raw string
	err := dbTx.QueryRowContext(ctx, `SELECT current_balance FROM accounts WHERE id = ?`, accountID).Scan(&raw)
	if err != nil {
		return fmt.Errorf("read current balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("parse current balance %q: %w", raw, err)
	}

	_, err = dbTx.ExecContext(ctx, `UPDATE accounts SET current_balance = ? WHERE id = ?`,
		balance.Add(delta).String(), accountID)
	if err != nil {
		return fmt.Errorf("write current balance: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (core.Account, error) {
	var a core.Account
	var opening, current string
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.BankName, &opening, &current, &a.Currency)
	if err != nil {
		return core.Account{}, err
	}
	if a.OpeningBalance, err = decimal.NewFromString(opening); err != nil {
		return core.Account{}, fmt.Errorf("parse opening balance %q: %w", opening, err)
	}
	if a.CurrentBalance, err = decimal.NewFromString(current); err != nil {
		return core.Account{}, fmt.Errorf("parse current balance %q: %w", current, err)
	}
	return a, nil
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var t core.Transaction
	var typ, amount string
	err := row.Scan(&t.ID, &t.AccountID, &typ, &t.Category, &amount, &t.Date, &t.Description, &t.PaymentMethod)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	txs := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
