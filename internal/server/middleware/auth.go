// Package middleware holds the request gates: session authentication and
// the Airtable token freshness guard.
package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/pysugar/airform/internal/auth/session"
	"github.com/pysugar/airform/internal/db"
	"github.com/pysugar/airform/internal/db/models"
	"gorm.io/gorm"
)

type contextKey string

const accountKey contextKey = "account"

// WithAccount stores the authenticated account on the context.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

// AccountFrom returns the authenticated account, if any.
func AccountFrom(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(accountKey).(*models.Account)
	return account, ok
}

// RequireSession validates the Bearer session token and loads the account
// fresh from the database on every request, so revocations and profile
// edits take effect immediately.
func RequireSession(database *gorm.DB, sessions *session.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				Unauthorized(w, "Not authorized, no token")
				return
			}

			accountID, err := sessions.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Printf("⚠️ Rejected session token: %v", err)
				Unauthorized(w, "Not authorized, token failed")
				return
			}

			account, err := db.FindAccountByID(database, accountID)
			if err != nil {
				Unauthorized(w, "Not authorized, user not found")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

// Unauthorized writes the uniform unauthenticated response.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
