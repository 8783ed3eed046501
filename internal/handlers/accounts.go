package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"bankledger/internal/services"
)

type createAccountRequest struct {
	AccountNumber string          `json:"account_number"`
	BankCode      string          `json:"bank_code"`
	AccountType   string          `json:"account_type"`
	Balance       json.RawMessage `json:"balance"`
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	accounts, err := h.accounts.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	normalized := make([]map[string]any, 0, len(accounts))
	for _, account := range accounts {
		normalized = append(normalized, accountJSON(account))
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opening := decimal.Zero
	if len(req.Balance) > 0 && string(req.Balance) != "null" {
		amount, err := parseAmount(req.Balance)
		if err != nil {
			respondError(w, http.StatusBadRequest, "balance: "+err.Error())
			return
		}
		opening = amount
	}
	account, err := h.accounts.Create(r.Context(), userID, services.CreateAccountInput{
		AccountNumber:  req.AccountNumber,
		BankCode:       req.BankCode,
		AccountType:    req.AccountType,
		OpeningBalance: opening,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, accountJSON(account))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, accountJSON(account))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	rows, err := h.accounts.SelfCheck(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, consistencyJSON(rows))
}
