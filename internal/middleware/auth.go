package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"bankledger/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// AccessCookie carries the access token for browser clients.
const AccessCookie = "access_token"

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

type ActiveChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

// Auth accepts an access token from the Authorization header or, failing
// that, from the access_token cookie. The token's user must still exist and
// be active.
func Auth(secret string, users ActiveChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := TokenFromRequest(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
				return
			}
			if token == "" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}
			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			active, err := users.IsActive(r.Context(), claims.UserID)
			if err != nil {
				log.Printf("active check for %s: %v", claims.UserID, err)
				writeError(w, http.StatusInternalServerError, "unable to verify user")
				return
			}
			if !active {
				writeError(w, http.StatusUnauthorized, "user not found or inactive")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// TokenFromRequest reports whether any credential was supplied. A malformed
// Authorization header yields an empty token with ok set.
func TokenFromRequest(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", true
		}
		return strings.TrimSpace(parts[1]), true
	}
	if cookie, err := r.Cookie(AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
