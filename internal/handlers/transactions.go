package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bankledger/internal/services"
	"bankledger/internal/statement"
)

type transactionRequest struct {
	Account   *string         `json:"account"`
	Amount    json.RawMessage `json:"transaction_amount"`
	Direction *string         `json:"deposit_and_withdrawal_type"`
	Method    *string         `json:"transaction_type"`
	History   *string         `json:"account_factor_history"`
}

func (req transactionRequest) hasAmount() bool {
	return len(req.Amount) > 0 && string(req.Amount) != "null"
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.transactions.List(r.Context(), userID, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, transactionJSON(row))
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "transaction_amount: "+err.Error())
		return
	}
	created, err := h.transactions.Create(r.Context(), userID, services.CreateTransactionInput{
		AccountID: deref(req.Account),
		Amount:    amount,
		Direction: deref(req.Direction),
		Method:    deref(req.Method),
		History:   deref(req.History),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, transactionJSON(created))
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	row, err := h.transactions.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transactionJSON(row))
}

func (h *Handler) ReplaceTransaction(w http.ResponseWriter, r *http.Request) {
	h.updateTransaction(w, r, false)
}

func (h *Handler) PatchTransaction(w http.ResponseWriter, r *http.Request) {
	h.updateTransaction(w, r, true)
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request, partial bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !partial {
		switch {
		case req.Account == nil:
			respondError(w, http.StatusBadRequest, "account is required")
			return
		case !req.hasAmount():
			respondError(w, http.StatusBadRequest, "transaction_amount is required")
			return
		case req.Direction == nil:
			respondError(w, http.StatusBadRequest, "deposit_and_withdrawal_type is required")
			return
		case req.Method == nil:
			respondError(w, http.StatusBadRequest, "transaction_type is required")
			return
		}
	}
	in := services.UpdateTransactionInput{
		AccountID: req.Account,
		Direction: req.Direction,
		Method:    req.Method,
		History:   req.History,
	}
	if req.hasAmount() {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "transaction_amount: "+err.Error())
			return
		}
		in.Amount = &amount
	}
	updated, err := h.transactions.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transactionJSON(updated))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.transactions.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportTransactions renders the filtered list as a PDF or XLSX statement.
// Without an explicit limit every matching transaction is included.
func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	format := query.Get("format")
	if format == "" {
		format = statement.FormatPDF
	}
	contentType, extension, err := statement.ContentType(format)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := parseTransactionFilter(query)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if query.Get("limit") == "" && query.Get("page") == "" {
		filter.Limit, filter.Offset = 0, 0
	}
	user, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	accounts, err := h.accounts.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	rows, err := h.transactions.List(r.Context(), userID, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	numbers := make(map[string]string, len(accounts))
	for _, account := range accounts {
		numbers[account.ID] = account.AccountNumber
	}
	now := time.Now().UTC()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="statement-%s.%s"`, now.Format("20060102"), extension))
	if err := statement.Write(w, format, statement.Statement{
		Holder:       user.Email,
		GeneratedAt:  now,
		Accounts:     numbers,
		Transactions: rows,
	}); err != nil {
		log.Printf("render %s statement: %v", format, err)
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
