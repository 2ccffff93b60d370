package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	logger "finboard/internal/log"
)

var paymentMethods = map[string]bool{
	"":              true, // optional
	"cash":          true,
	"card":          true,
	"bank_transfer": true,
	"check":         true,
	"online":        true,
}

type createTransactionRequest struct {
	TransactionType string `json:"transaction_type"`
	Category        string `json:"category"`
	Amount          string `json:"amount"`
	TransactionDate string `json:"transaction_date"`
	Description     string `json:"description"`
	PaymentMethod   string `json:"payment_method"`
}

type transactionResponse struct {
	ID              string `json:"id"`
	AccountID       string `json:"account_id"`
	TransactionType string `json:"transaction_type"`
	Category        string `json:"category"`
	Amount          string `json:"amount"`
	TransactionDate string `json:"transaction_date"`
	Description     string `json:"description,omitempty"`
	PaymentMethod   string `json:"payment_method,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		AccountID:       t.AccountID,
		TransactionType: string(t.Type),
		Category:        t.Category,
		Amount:          core.FormatAmount(t.Amount),
		TransactionDate: t.Date,
		Description:     t.Description,
		PaymentMethod:   t.PaymentMethod,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	accountID := r.PathValue("id")
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		s.log.ErrorContext(ctx, "failed to load account", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	if !paymentMethods[req.PaymentMethod] {
		writeError(w, http.StatusUnprocessableEntity, "unknown payment_method")
		return
	}

	tx := core.Transaction{
		AccountID:     accountID,
		Type:          core.TransactionType(req.TransactionType),
		Category:      req.Category,
		Amount:        amount,
		Date:          req.TransactionDate,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	}
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to create transaction", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	s.invalidateReports(accountID)
	s.publishMutation(ctx, accountID, created.ID, amqp.OpCreated)

	s.log.InfoContext(ctx, "transaction created",
		logger.FieldTransactionID, created.ID,
		logger.FieldAccountID, accountID,
		logger.FieldAmount, core.FormatAmount(created.Amount),
		logger.FieldOperation, logger.OpCreate)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	accountID := r.PathValue("id")
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		s.log.ErrorContext(ctx, "failed to load account", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	txs, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to list transactions", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	txs = core.FilterByDateRange(txs, parseDateRange(r))

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := r.PathValue("id")
	deleted, err := s.store.DeleteTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "failed to delete transaction", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	s.invalidateReports(deleted.AccountID)
	s.publishMutation(ctx, deleted.AccountID, id, amqp.OpDeleted)

	s.log.InfoContext(ctx, "transaction deleted",
		logger.FieldTransactionID, id,
		logger.FieldAccountID, deleted.AccountID,
		logger.FieldOperation, logger.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

// publishMutation notifies the reconciliation worker. Publish failures
// are logged, never surfaced: the periodic sweep covers missed events.
func (s *Server) publishMutation(ctx context.Context, accountID, transactionID, op string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionMutated(ctx, accountID, transactionID, op); err != nil {
		s.log.WarnContext(ctx, "failed to publish mutation event",
			logger.FieldAccountID, accountID,
			logger.FieldTransactionID, transactionID,
			logger.FieldError, err)
	}
}
