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

var accountTypes = map[string]bool{
	"bank":        true,
	"cash":        true,
	"credit_card": true,
	"investment":  true,
	"loan":        true,
	"other":       true,
}

type createAccountRequest struct {
	AccountName    string `json:"account_name"`
	AccountType    string `json:"account_type"`
	BankName       string `json:"bank_name"`
	OpeningBalance string `json:"opening_balance"`
	Currency       string `json:"currency"`
}

type accountResponse struct {
	ID             string `json:"id"`
	AccountName    string `json:"account_name"`
	AccountType    string `json:"account_type"`
	BankName       string `json:"bank_name,omitempty"`
	OpeningBalance string `json:"opening_balance"`
	CurrentBalance string `json:"current_balance"`
	Currency       string `json:"currency"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		AccountName:    a.Name,
		AccountType:    a.Type,
		BankName:       a.BankName,
		OpeningBalance: core.FormatAmount(a.OpeningBalance),
		CurrentBalance: core.FormatAmount(a.CurrentBalance),
		Currency:       a.Currency,
	}
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !accountTypes[req.AccountType] {
		writeError(w, http.StatusUnprocessableEntity, "unknown account_type")
		return
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		parsed, err := decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid opening_balance")
			return
		}
		opening = parsed
	}

	account := core.Account{
		Name:           req.AccountName,
		Type:           req.AccountType,
		BankName:       req.BankName,
		OpeningBalance: opening,
		Currency:       req.Currency,
	}
	if err := account.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateAccount(ctx, account)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to create account", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	s.log.InfoContext(ctx, "account created",
		logger.FieldAccountID, created.ID,
		logger.FieldOperation, logger.OpCreate)
	writeJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to list accounts", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	account, err := s.store.GetAccount(ctx, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "failed to get account", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := r.PathValue("id")
	err := s.store.DeleteAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		s.log.ErrorContext(ctx, "failed to delete account", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}

	s.invalidateReports(id)
	s.log.InfoContext(ctx, "account deleted",
		logger.FieldAccountID, id,
		logger.FieldOperation, logger.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}
