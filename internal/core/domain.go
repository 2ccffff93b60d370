package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Account is a snapshot of an account record as read from storage.
	// CurrentBalance is a denormalized cache maintained by the storage
	// layer; the aggregator verifies it but never mutates it.
	Account struct {
		ID             string
		Name           string
		Type           string
		BankName       string
		OpeningBalance decimal.Decimal
		CurrentBalance decimal.Decimal
		Currency       string
	}

	// Transaction is a single income or expense record. Amount is always
	// a non-negative magnitude; the sign is implied by Type. Date keeps
	// the raw storage string so exports can truncate it without any
	// timezone conversion.
	Transaction struct {
		ID            string
		AccountID     string
		Type          TransactionType
		Category      string
		Amount        decimal.Decimal
		Date          string
		Description   string
		PaymentMethod string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyName       = errors.New("empty account name")
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// ParseDate parses the date portion of a stored date string. Anything
// past the first 10 bytes (a time component, an offset) is ignored.
func ParseDate(s string) (time.Time, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	return time.Parse("2006-01-02", s)
}

func (tt TransactionType) Valid() bool {
	return tt == Income || tt == Expense
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if _, err := ParseDate(t.Date); err != nil {
		return ErrInvalidDate
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}
