package http

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"finboard/internal/core"
	logger "finboard/internal/log"
)

// loadAccountExport fetches the account and its transactions filtered
// by the request's date range, shared by the export handlers.
func (s *Server) loadAccountExport(ctx context.Context, w http.ResponseWriter, r *http.Request) (core.Account, []core.Transaction, bool) {
	accountID := r.PathValue("id")
	account, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "account not found")
		return core.Account{}, nil, false
	}
	if err != nil {
		s.log.ErrorContext(ctx, "failed to load account", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return core.Account{}, nil, false
	}

	txs, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to list transactions", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return core.Account{}, nil, false
	}

	return account, core.FilterByDateRange(txs, parseDateRange(r)), true
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	account, txs, ok := s.loadAccountExport(ctx, w, r)
	if !ok {
		return
	}

	body := core.TransactionsCSV(txs, account.OpeningBalance, account.CurrentBalance)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.CSVFilename(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))

	s.log.InfoContext(ctx, "transactions exported",
		logger.FieldAccountID, account.ID,
		logger.FieldOperation, logger.OpExport,
		"format", "csv",
		"rows", len(txs))
}

func (s *Server) handleExportPrint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	account, txs, ok := s.loadAccountExport(ctx, w, r)
	if !ok {
		return
	}

	body := core.TransactionsHTML(txs, account.OpeningBalance, account.CurrentBalance)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheet == nil {
		writeError(w, http.StatusServiceUnavailable, "sheets export is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	account, txs, ok := s.loadAccountExport(ctx, w, r)
	if !ok {
		return
	}

	rows := append([][]string{core.ExportHeader()}, core.ExportRows(txs, account.OpeningBalance, account.CurrentBalance)...)
	appended, err := s.sheet.AppendRows(ctx, rows)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to append rows to sheet",
			logger.FieldAccountID, account.ID,
			logger.FieldError, err)
		writeError(w, http.StatusBadGateway, "failed to export to sheet")
		return
	}

	s.log.InfoContext(ctx, "transactions exported",
		logger.FieldAccountID, account.ID,
		logger.FieldOperation, logger.OpExport,
		"format", "sheets",
		"rows", appended)
	writeJSON(w, http.StatusOK, map[string]int{"appended_rows": appended})
}
