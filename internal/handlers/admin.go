package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bankledger/internal/auth"
	"bankledger/internal/middleware"
	"bankledger/internal/store"
	"bankledger/internal/websocket"
)

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := parsePaging(query)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	users, err := h.users.ListUsers(r.Context(), strings.TrimSpace(query.Get("search")), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	normalized := make([]map[string]any, 0, len(users))
	for _, user := range users {
		normalized = append(normalized, userJSON(user))
	}
	respondJSON(w, http.StatusOK, normalized)
}

type userFlagsRequest struct {
	IsActive *bool `json:"is_active"`
	IsStaff  *bool `json:"is_staff"`
}

func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req userFlagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.SetUserFlags(r.Context(), actorID, chi.URLParam(r, "id"), store.UserFlags{
		IsActive: req.IsActive,
		IsStaff:  req.IsStaff,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userJSON(user))
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePaging(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// Reconcile reports stored balance against the transaction ledger for every
// account. ?mismatched=true keeps only accounts that disagree.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	mismatchedOnly := false
	if raw := r.URL.Query().Get("mismatched"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "mismatched must be a boolean")
			return
		}
		mismatchedOnly = value
	}
	rows, err := h.accounts.Reconcile(r.Context(), mismatchedOnly)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, consistencyJSON(rows))
}

// WSBalances takes the access token from ?token=, the Authorization header or
// the access_token cookie, since browsers cannot set headers on upgrade.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.TokenFromRequest(r)
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	active, err := h.admin.IsActive(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !active {
		respondError(w, http.StatusUnauthorized, "user not found or inactive")
		return
	}
	websocket.ServeWS(w, r, h.upgrader, h.hub, claims.UserID)
}
