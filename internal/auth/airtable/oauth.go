// Package airtable implements the OAuth 2.0 + PKCE login flow against
// Airtable: building the authorization URL, exchanging and refreshing
// tokens, and resolving the authenticated user's identity.
package airtable

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	authEndpoint   = "https://airtable.com/oauth2/v1/authorize"
	tokenEndpoint  = "https://airtable.com/oauth2/v1/token"
	whoamiEndpoint = "https://api.airtable.com/v0/meta/whoami"

	// requestTimeout is the hard ceiling on every provider call. A request
	// exceeding it is cancelled, not left to linger.
	requestTimeout = 15 * time.Second
)

// Scopes the app asks for: reading/writing records, reading base schemas,
// the user's email, and webhook management.
var Scopes = []string{
	"data.records:read",
	"data.records:write",
	"schema.bases:read",
	"user.email:read",
	"webhook:manage",
}

// Client is the OAuth client for Airtable. Credentials are fixed at
// construction and never mutated afterwards.
type Client struct {
	cfg       *oauth2.Config
	http      *http.Client
	whoamiURL string
}

// NewClient creates an Airtable OAuth client from the registered app
// credentials.
func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return NewClientWithEndpoints(clientID, clientSecret, redirectURI,
		authEndpoint, tokenEndpoint, whoamiEndpoint)
}

// NewClientWithEndpoints is NewClient with overridable provider URLs;
// tests point them at local fakes. Airtable authenticates token requests
// with HTTP Basic, never with credentials in the form body, hence
// AuthStyleInHeader.
func NewClientWithEndpoints(clientID, clientSecret, redirectURI, authURL, tokenURL, whoamiURL string) *Client {
	return &Client{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		http:      &http.Client{Timeout: requestTimeout},
		whoamiURL: whoamiURL,
	}
}
