package core

import (
	"strings"
	"testing"
	"time"
)

func TestTransactionsCSVShape(t *testing.T) {
	txs := []Transaction{
		{Type: Expense, Category: "food", Amount: dec("20"), Date: "2024-01-05", Description: "groceries", PaymentMethod: "card"},
		{Type: Income, Category: "salary", Amount: dec("1000"), Date: "2024-01-31", Description: "january", PaymentMethod: "bank_transfer"},
	}
	out := TransactionsCSV(txs, dec("100"), dec("1080"))

	lines := strings.Split(out, "\n")
	if len(lines) != len(txs)+1 {
		t.Fatalf("got %d lines, want %d (header + rows)", len(lines), len(txs)+1)
	}
	for i, line := range lines {
		if n := len(strings.Split(line, ",")); n != 8 {
			t.Fatalf("line %d has %d columns, want 8", i, n)
		}
	}
	if lines[0] != "Date,Type,Category,Description,Amount,Payment Method,Initial Balance,Current Balance" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	want := `"2024-01-05","expense","food","groceries","20.00","card","100.00","1080.00"`
	if lines[1] != want {
		t.Fatalf("row = %s, want %s", lines[1], want)
	}
}

func TestTransactionsCSVTruncatesRawDate(t *testing.T) {
	// The stored string is cut, never reparsed; a timestamp with an
	// offset keeps the stored calendar day regardless of timezone.
	txs := []Transaction{
		{Type: Expense, Category: "food", Amount: dec("1"), Date: "2024-01-05T23:30:00+11:00"},
	}
	out := TransactionsCSV(txs, dec("0"), dec("-1"))
	if !strings.Contains(out, `"2024-01-05"`) {
		t.Fatalf("date not truncated to raw first 10 bytes: %s", out)
	}
}

func TestTransactionsCSVEmpty(t *testing.T) {
	out := TransactionsCSV(nil, dec("0"), dec("0"))
	if strings.Count(out, "\n") != 0 || !strings.HasPrefix(out, "Date,") {
		t.Fatalf("empty snapshot should produce header-only output, got %q", out)
	}
}

func TestCSVFilename(t *testing.T) {
	now := time.Date(2024, 7, 9, 15, 4, 5, 0, time.UTC)
	if got := CSVFilename(now); got != "transactions-2024-07-09.csv" {
		t.Fatalf("filename = %s", got)
	}
}

func TestTransactionsHTML(t *testing.T) {
	txs := []Transaction{
		{Type: Expense, Category: "food", Amount: dec("20"), Date: "2024-01-05", Description: "a <b> tag", PaymentMethod: "cash"},
	}
	out := TransactionsHTML(txs, dec("10"), dec("-10"))

	for _, want := range []string{
		"<h1>Transactions</h1>",
		"<th>Payment Method</th>",
		"<td>2024-01-05</td>",
		"<td>20.00</td>",
		"a &lt;b&gt; tag", // description is escaped
		"<td>-10.00</td>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("document missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "<tr>"); got != 2 {
		t.Fatalf("got %d rows, want header + 1", got)
	}
}
