package middleware

import (
	"context"
	"log"
	"net/http"
)

type StaffChecker interface {
	IsStaff(ctx context.Context, userID string) (bool, error)
}

// RequireStaff must run after Auth.
func RequireStaff(checker StaffChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			isStaff, err := checker.IsStaff(r.Context(), userID)
			if err != nil {
				log.Printf("staff check for %s: %v", userID, err)
				writeError(w, http.StatusInternalServerError, "unable to verify staff")
				return
			}
			if !isStaff {
				writeError(w, http.StatusForbidden, "staff privileges required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
