package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-05", true},
		{"2024-01-05T12:30:00Z", true},
		{"2024-01-05T12:30:00+05:30", true},
		{"2024-13-05", false},
		{"05/01/2024", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:     Expense,
		Category: "food",
		Amount:   dec("12.34"),
		Date:     "2024-01-05",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(Transaction) Transaction
		want error
	}{
		{"bad type", func(tr Transaction) Transaction { tr.Type = "transfer"; return tr }, ErrInvalidType},
		{"empty category", func(tr Transaction) Transaction { tr.Category = "  "; return tr }, ErrEmptyCategory},
		{"negative amount", func(tr Transaction) Transaction { tr.Amount = dec("-1"); return tr }, ErrInvalidAmount},
		{"bad date", func(tr Transaction) Transaction { tr.Date = "yesterday"; return tr }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mut(good).Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	long := good
	long.Description = strings.Repeat("x", 201)
	if err := long.Validate(); err == nil {
		t.Fatalf("expected error for oversized description")
	}
}

func TestAccountValidate(t *testing.T) {
	good := Account{Name: "My Savings", Currency: "USD"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Account{Name: "", Currency: "USD"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName")
	}
	if err := (Account{Name: "a", Currency: "EURO"}).Validate(); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency")
	}
}
