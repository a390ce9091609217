package handlers

import (
	"net/http"
	"strings"

	"github.com/pysugar/airform/internal/server/middleware"
)

// MeHandler returns the authenticated account's profile. Token material
// never leaves the server.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.AccountFrom(r.Context())
		if !ok {
			middleware.Unauthorized(w, "User not authenticated.")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"id":                account.ID,
			"email":             account.Email,
			"displayName":       account.DisplayName,
			"profilePictureUrl": account.ProfilePictureURL,
			"scopes":            strings.Fields(account.Scopes),
		})
	}
}
