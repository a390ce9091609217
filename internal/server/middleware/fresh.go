package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/pysugar/airform/internal/auth/token"
)

// RequireFreshToken transparently refreshes a stale Airtable token before
// the handler runs. Must sit behind RequireSession. A failed refresh means
// the Airtable grant is gone: the request is answered as unauthenticated
// so the user logs in again, never as a server error.
func RequireFreshToken(tokens *token.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFrom(r.Context())
			if !ok {
				Unauthorized(w, "User not authenticated.")
				return
			}

			refreshed, err := tokens.EnsureFresh(r.Context(), account.ID)
			if err != nil {
				var refreshErr *token.RefreshFailedError
				if errors.Is(err, token.ErrNoRefreshToken) || errors.As(err, &refreshErr) {
					Unauthorized(w, "Airtable session expired. Please log in again.")
					return
				}
				log.Printf("❌ Freshness guard failed for account %s: %v", account.ID, err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), refreshed)))
		})
	}
}
