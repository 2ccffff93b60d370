package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// The ledger aggregator: pure functions over a transaction snapshot.
// Every function recomputes from scratch on each call and owns no state;
// callers re-fetch and re-invoke after any mutation.

type (
	// DateRange bounds a filter; either side may be empty ("") to leave
	// that end unbounded. Bounds are YYYY-MM-DD and inclusive.
	DateRange struct {
		From string
		To   string
	}

	// Totals holds income and expense sums over a snapshot.
	Totals struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// MonthBucket is one point of the monthly income/expense series.
	MonthBucket struct {
		Month   string // YYYY-MM
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// CategoryAmount is one slice of the expense-by-category breakdown.
	CategoryAmount struct {
		Category string
		Value    decimal.Decimal
	}
)

// IsZero reports whether the range imposes no constraint.
func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// FilterByDateRange returns the transactions whose date falls within the
// range, both bounds inclusive. An empty range returns the input slice
// unchanged. A transaction whose date fails to parse is kept: an
// unparseable date imposes no constraint, matching the upstream
// garbage-in/garbage-out boundary.
func FilterByDateRange(txs []Transaction, r DateRange) []Transaction {
	if r.IsZero() {
		return txs
	}

	var from, to time.Time
	var haveFrom, haveTo bool
	if r.From != "" {
		if t, err := ParseDate(r.From); err == nil {
			from, haveFrom = t, true
		}
	}
	if r.To != "" {
		if t, err := ParseDate(r.To); err == nil {
			to, haveTo = t, true
		}
	}
	if !haveFrom && !haveTo {
		return txs
	}

	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		d, err := ParseDate(tx.Date)
		if err != nil {
			out = append(out, tx)
			continue
		}
		if haveFrom && d.Before(from) {
			continue
		}
		if haveTo && d.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// SignedAmount is +amount for income and -amount for expense.
func SignedAmount(t Transaction) decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// ComputeTotals sums income and expense magnitudes over the snapshot.
// Both totals are zero for an empty snapshot.
func ComputeTotals(txs []Transaction) Totals {
	totals := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			totals.Income = totals.Income.Add(tx.Amount)
		case Expense:
			totals.Expense = totals.Expense.Add(tx.Amount)
		}
	}
	return totals
}

// Net is the signed contribution of the snapshot: income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// ComputeCurrentBalance derives the balance the storage layer should be
// caching: opening balance plus the net signed contribution of the full
// transaction history. It is the canonical reconciliation function for
// the denormalized current_balance column.
func ComputeCurrentBalance(opening decimal.Decimal, txs []Transaction) decimal.Decimal {
	balance := opening
	for _, tx := range txs {
		balance = balance.Add(SignedAmount(tx))
	}
	return balance
}

// MonthlySeries buckets transactions by calendar month and accumulates
// income and expense per bucket. Only months with at least one
// transaction appear. Buckets are sorted ascending by the zero-padded
// YYYY-MM key, which coincides with chronological order.
func MonthlySeries(txs []Transaction) []MonthBucket {
	index := make(map[string]int)
	series := make([]MonthBucket, 0)

	for _, tx := range txs {
		key := monthKey(tx.Date)
		i, ok := index[key]
		if !ok {
			i = len(series)
			index[key] = i
			series = append(series, MonthBucket{Month: key, Income: decimal.Zero, Expense: decimal.Zero})
		}
		switch tx.Type {
		case Income:
			series[i].Income = series[i].Income.Add(tx.Amount)
		case Expense:
			series[i].Expense = series[i].Expense.Add(tx.Amount)
		}
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Month < series[j].Month
	})
	return series
}

// monthKey derives the YYYY-MM bucket key. An unparseable date buckets
// under the zero time's key rather than failing the whole series.
func monthKey(date string) string {
	d, err := ParseDate(date)
	if err != nil {
		d = time.Time{}
	}
	return d.Format("2006-01")
}

// CategoryBreakdown groups expense transactions by their exact category
// string and sums each group. Income is never included. Categories keep
// first-seen order; labels are opaque and never normalized here.
func CategoryBreakdown(txs []Transaction) []CategoryAmount {
	index := make(map[string]int)
	breakdown := make([]CategoryAmount, 0)

	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(breakdown)
			index[tx.Category] = i
			breakdown = append(breakdown, CategoryAmount{Category: tx.Category, Value: decimal.Zero})
		}
		breakdown[i].Value = breakdown[i].Value.Add(tx.Amount)
	}
	return breakdown
}
