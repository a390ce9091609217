package airtable

import (
	"log"
	"net/http"
)

// HandleLogin initiates the OAuth flow by redirecting the browser to
// Airtable's consent page. The PKCE verifier rides inside the `state`
// parameter, so nothing is kept server-side across the round trip.
func HandleLogin(client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempt, err := client.Begin()
		if err != nil {
			log.Printf("❌ Failed to begin Airtable login: %v", err)
			http.Error(w, "Could not initiate login with Airtable", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, attempt.AuthorizationURL, http.StatusTemporaryRedirect)
	}
}
