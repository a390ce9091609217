package airtable

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

// loginState travels base64url-encoded inside the OAuth `state` parameter.
// Encoding the PKCE verifier into the redirect round trip keeps the flow
// stateless: the callback recovers the verifier from `state` instead of a
// server-side session store.
type loginState struct {
	CSRF string `json:"csrf"`
	PKCE string `json:"pkce"`
}

// LoginAttempt is the ephemeral state of one login initiation. It is handed
// to the browser via the authorization URL and destroyed on first use.
type LoginAttempt struct {
	AuthorizationURL string
	CodeVerifier     string
	CSRFState        string
}

// Begin starts a login attempt: a fresh PKCE verifier, an independent CSRF
// value, and the authorization URL carrying the S256 challenge and the
// packed state.
func (c *Client) Begin() (*LoginAttempt, error) {
	verifier := oauth2.GenerateVerifier()

	csrf, err := randomToken(16)
	if err != nil {
		return nil, fmt.Errorf("airtable: generating csrf state: %w", err)
	}

	state, err := encodeState(loginState{CSRF: csrf, PKCE: verifier})
	if err != nil {
		return nil, fmt.Errorf("airtable: encoding login state: %w", err)
	}

	return &LoginAttempt{
		AuthorizationURL: c.cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)),
		CodeVerifier:     verifier,
		CSRFState:        csrf,
	}, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func encodeState(s loginState) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// decodeState unpacks the `state` parameter returned by the provider. Any
// malformed state aborts the callback; there is nothing to recover.
func decodeState(state string) (*loginState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return nil, fmt.Errorf("airtable: state is not base64url: %w", err)
	}
	var s loginState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("airtable: state is not valid JSON: %w", err)
	}
	if s.CSRF == "" || s.PKCE == "" {
		return nil, fmt.Errorf("airtable: state is missing csrf or pkce")
	}
	return &s, nil
}
