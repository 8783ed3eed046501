package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"bankledger/internal/middleware"
	"bankledger/internal/models"
	"bankledger/internal/money"
	"bankledger/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service sentinels to status codes. Anything
// unrecognised is logged and hidden behind a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAccountNumberTaken),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrInvalidLink),
		errors.Is(err, services.ErrInvalidActivationToken),
		errors.Is(err, services.ErrMissingRefreshToken):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUnauthorizedAccount),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrAccountReassignment):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("request failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}

func userJSON(user models.User) map[string]any {
	return map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"nickname":     user.Nickname,
		"name":         user.Name,
		"phone_number": user.PhoneNumber,
		"is_active":    user.IsActive,
		"is_staff":     user.IsStaff,
		"last_login":   user.LastLogin,
		"created_at":   user.CreatedAt,
	}
}

func accountJSON(account models.Account) map[string]any {
	return map[string]any{
		"id":             account.ID,
		"user":           account.UserID,
		"account_number": account.AccountNumber,
		"bank_code":      account.BankCode,
		"bank_name":      models.BankCodes[account.BankCode],
		"account_type":   account.AccountType,
		"balance":        money.Format(account.Balance),
		"created_at":     account.CreatedAt,
	}
}

func transactionJSON(t models.Transaction) map[string]any {
	return map[string]any{
		"id":                          t.ID,
		"account":                     t.AccountID,
		"transaction_amount":          money.Format(t.Amount),
		"amount_after_transaction":    money.Format(t.AmountAfter),
		"account_factor_history":      t.History,
		"deposit_and_withdrawal_type": t.Direction,
		"transaction_type":            t.Method,
		"transaction_timestamp":       t.Timestamp,
	}
}

func consistencyJSON(rows []models.Consistency) []map[string]any {
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, map[string]any{
			"account_id":     row.AccountID,
			"account_number": row.AccountNumber,
			"balance":        money.Format(row.Balance),
			"ledger_sum":     money.Format(row.LedgerSum),
			"difference":     money.Format(row.Difference()),
		})
	}
	return normalized
}
