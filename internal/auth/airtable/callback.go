package airtable

import (
	"log"
	"net/http"
	"net/url"

	"github.com/pysugar/airform/internal/auth/session"
	"github.com/pysugar/airform/internal/db"
	"gorm.io/gorm"
)

// HandleCallback processes the OAuth callback from Airtable: recover the
// verifier from state, exchange the code, resolve the identity, upsert the
// account, mint a session, and send the browser back to the frontend.
//
// Provider-facing failures are logged with full context here; the browser
// only ever sees a generic error code. A session is never issued unless
// the account upsert succeeded.
func HandleCallback(database *gorm.DB, client *Client, sessions *session.Manager, frontendURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		// Airtable reports user denial and its own errors via query params.
		if errCode := q.Get("error"); errCode != "" {
			redirectWithError(w, r, frontendURL, errCode, q.Get("error_description"))
			return
		}

		state, err := decodeState(q.Get("state"))
		if err != nil {
			log.Printf("❌ Airtable callback with bad state: %v", err)
			redirectWithError(w, r, frontendURL, "internal_error", "")
			return
		}

		code := q.Get("code")
		if code == "" {
			log.Printf("❌ Airtable callback without code")
			redirectWithError(w, r, frontendURL, "internal_error", "")
			return
		}

		tok, err := client.ExchangeCode(r.Context(), code, state.PKCE)
		if err != nil {
			log.Printf("❌ Airtable code exchange failed: %v", err)
			redirectWithError(w, r, frontendURL, "internal_error", "")
			return
		}

		identity, err := client.Resolve(r.Context(), tok.AccessToken)
		if err != nil {
			log.Printf("❌ Airtable identity fetch failed: %v", err)
			redirectWithError(w, r, frontendURL, "internal_error", "")
			return
		}

		account, err := db.UpsertAccount(database, db.IdentityUpdate{
			AirtableUserID:    identity.AirtableUserID,
			Email:             identity.Email,
			DisplayName:       identity.DisplayName,
			ProfilePictureURL: identity.ProfilePictureURL,
		}, db.TokenUpdate{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			ExpiresAt:    tok.ExpiresAt,
			Scopes:       tok.Scopes,
		})
		if err != nil {
			log.Printf("❌ Failed to upsert account for %s: %v", identity.Email, err)
			redirectWithError(w, r, frontendURL, "internal_error", "")
			return
		}

		sessionToken, err := sessions.Issue(account.ID)
		if err != nil {
			log.Printf("❌ Failed to issue session for account %s: %v", account.ID, err)
			redirectWithError(w, r, frontendURL, "internal_error", "")
			return
		}

		log.Printf("✅ Airtable login for %s (account %s)", account.Email, account.ID)
		http.Redirect(w, r,
			frontendURL+"/auth/callback?token="+url.QueryEscape(sessionToken),
			http.StatusTemporaryRedirect)
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, frontendURL, code, description string) {
	v := url.Values{}
	v.Set("error", code)
	if description != "" {
		v.Set("error_description", description)
	}
	http.Redirect(w, r, frontendURL+"/auth/callback?"+v.Encode(), http.StatusTemporaryRedirect)
}
