package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	logger "finboard/internal/log"
)

type totalsResponse struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

type monthBucketResponse struct {
	Month   string `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type categoryAmountResponse struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

type accountSummaryResponse struct {
	AccountID         string                   `json:"account_id"`
	CurrentBalance    string                   `json:"current_balance"`
	Totals            totalsResponse           `json:"totals"`
	MonthlySeries     []monthBucketResponse    `json:"monthly_series"`
	CategoryBreakdown []categoryAmountResponse `json:"category_breakdown"`
}

type reportsResponse struct {
	TotalBalance      string                   `json:"total_balance"`
	Totals            totalsResponse           `json:"totals"`
	MonthlySeries     []monthBucketResponse    `json:"monthly_series"`
	CategoryBreakdown []categoryAmountResponse `json:"category_breakdown"`
}

func toTotalsResponse(t core.Totals) totalsResponse {
	return totalsResponse{
		Income:  core.FormatAmount(t.Income),
		Expense: core.FormatAmount(t.Expense),
		Net:     core.FormatAmount(t.Net()),
	}
}

func toSeriesResponse(series []core.MonthBucket) []monthBucketResponse {
	out := make([]monthBucketResponse, 0, len(series))
	for _, b := range series {
		out = append(out, monthBucketResponse{
			Month:   b.Month,
			Income:  core.FormatAmount(b.Income),
			Expense: core.FormatAmount(b.Expense),
		})
	}
	return out
}

func toBreakdownResponse(breakdown []core.CategoryAmount) []categoryAmountResponse {
	out := make([]categoryAmountResponse, 0, len(breakdown))
	for _, c := range breakdown {
		out = append(out, categoryAmountResponse{
			Category: c.Category,
			Value:    core.FormatAmount(c.Value),
		})
	}
	return out
}

// serveCached writes a cached JSON payload if present; otherwise it
// computes one, caches it, and writes it.
func (s *Server) serveCached(w http.ResponseWriter, key string, compute func() (any, error)) {
	if payload, ok := s.reportCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}

	v, err := compute()
	if err != nil {
		s.log.Error("failed to build report", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode report")
		return
	}
	s.reportCache.Set(key, payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) handleAccountSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	accountID := r.PathValue("id")
	account, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "failed to load account", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	rng := parseDateRange(r)
	key := "account:" + accountID + ":summary:" + rng.From + ":" + rng.To

	s.serveCached(w, key, func() (any, error) {
		txs, err := s.store.ListTransactions(ctx, accountID)
		if err != nil {
			return nil, err
		}
		txs = core.FilterByDateRange(txs, rng)

		return accountSummaryResponse{
			AccountID:         accountID,
			CurrentBalance:    core.FormatAmount(account.CurrentBalance),
			Totals:            toTotalsResponse(core.ComputeTotals(txs)),
			MonthlySeries:     toSeriesResponse(core.MonthlySeries(txs)),
			CategoryBreakdown: toBreakdownResponse(core.CategoryBreakdown(txs)),
		}, nil
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rng := parseDateRange(r)
	key := "reports:global:" + rng.From + ":" + rng.To

	s.serveCached(w, key, func() (any, error) {
		accounts, err := s.store.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		txs, err := s.store.ListAllTransactions(ctx)
		if err != nil {
			return nil, err
		}
		txs = core.FilterByDateRange(txs, rng)

		totalBalance := decimal.Zero
		for _, a := range accounts {
			totalBalance = totalBalance.Add(a.CurrentBalance)
		}

		return reportsResponse{
			TotalBalance:      core.FormatAmount(totalBalance),
			Totals:            toTotalsResponse(core.ComputeTotals(txs)),
			MonthlySeries:     toSeriesResponse(core.MonthlySeries(txs)),
			CategoryBreakdown: toBreakdownResponse(core.CategoryBreakdown(txs)),
		}, nil
	})
}
