package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bankledger/internal/middleware"
	"bankledger/internal/services"
)

const refreshCookie = "refresh_token"

type signupRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Nickname    string  `json:"nickname"`
	Name        string  `json:"name"`
	PhoneNumber *string `json:"phone_number"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
		Name:     req.Name,
		Phone:    req.PhoneNumber,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, userJSON(user))
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Activate(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "token")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "account activated"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tokens, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.setCookie(w, middleware.AccessCookie, tokens.Access, h.cfg.TokenTTL)
	h.setCookie(w, refreshCookie, tokens.Refresh, time.Until(tokens.RefreshExpiresAt))
	respondJSON(w, http.StatusOK, map[string]string{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshToken prefers the request body and falls back to the cookie.
func refreshToken(r *http.Request, req refreshRequest) string {
	if req.Refresh != "" {
		return req.Refresh
	}
	if cookie, err := r.Cookie(refreshCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	access, err := h.users.Refresh(r.Context(), refreshToken(r, req))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.setCookie(w, middleware.AccessCookie, access, h.cfg.TokenTTL)
	respondJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.Logout(r.Context(), refreshToken(r, req)); err != nil {
		respondServiceError(w, err)
		return
	}
	h.clearCookie(w, middleware.AccessCookie)
	h.clearCookie(w, refreshCookie)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
