package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

// newTestClient points the OAuth client at a local fake provider.
func newTestClient(tokenURL, whoamiURL string) *Client {
	return NewClientWithEndpoints("client-id", "client-secret",
		"http://localhost:8080/auth/airtable/callback",
		"http://unused/authorize", tokenURL, whoamiURL)
}

func tokenResponse(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func TestExchangeCode_Success(t *testing.T) {
	var gotGrantType, gotCode, gotVerifier, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotGrantType = r.PostForm.Get("grant_type")
		gotCode = r.PostForm.Get("code")
		gotVerifier = r.PostForm.Get("code_verifier")
		gotAuth = r.Header.Get("Authorization")
		tokenResponse(w, map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"scope":         "data.records:read user.email:read",
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	before := time.Now()
	tok, err := c.ExchangeCode(context.Background(), "code-123", "verifier-abc")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	if gotGrantType != "authorization_code" {
		t.Errorf("grant_type = %q", gotGrantType)
	}
	if gotCode != "code-123" {
		t.Errorf("code = %q", gotCode)
	}
	if gotVerifier != "verifier-abc" {
		t.Errorf("code_verifier = %q", gotVerifier)
	}
	user, pass, ok := (&http.Request{Header: http.Header{"Authorization": {gotAuth}}}).BasicAuth()
	if !ok || user != "client-id" || pass != "client-secret" {
		t.Errorf("expected HTTP Basic client auth, got %q", gotAuth)
	}

	if tok.AccessToken != "at-1" || tok.RefreshToken != "rt-1" {
		t.Errorf("unexpected token pair: %+v", tok)
	}
	wantExpiry := before.Add(3600 * time.Second)
	if tok.ExpiresAt.Before(wantExpiry.Add(-30*time.Second)) || tok.ExpiresAt.After(wantExpiry.Add(30*time.Second)) {
		t.Errorf("ExpiresAt = %v, want ~%v", tok.ExpiresAt, wantExpiry)
	}
	if len(tok.Scopes) != 2 || tok.Scopes[0] != "data.records:read" {
		t.Errorf("Scopes = %v", tok.Scopes)
	}
}

func TestExchangeCode_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.ExchangeCode(context.Background(), "bad-code", "verifier")

	var xErr *TokenExchangeError
	if !errors.As(err, &xErr) {
		t.Fatalf("expected *TokenExchangeError, got %T: %v", err, err)
	}
	if xErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", xErr.StatusCode)
	}
	if xErr.Body != `{"error":"invalid_grant"}` {
		t.Errorf("Body = %q", xErr.Body)
	}
}

func TestExchangeCode_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.ExchangeCode(context.Background(), "code", "verifier")

	var pErr *ProtocolError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
}

func TestExchangeCode_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	c := newTestClient(srv.URL, "")
	_, err := c.ExchangeCode(context.Background(), "code", "verifier")

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
}

func TestRefresh_RotatesTokens(t *testing.T) {
	var gotGrantType, gotRefreshToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotGrantType = r.PostForm.Get("grant_type")
		gotRefreshToken = r.PostForm.Get("refresh_token")
		tokenResponse(w, map[string]any{
			"access_token":  "at-2",
			"refresh_token": "rt-2",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	tok, err := c.Refresh(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if gotGrantType != "refresh_token" || gotRefreshToken != "rt-1" {
		t.Errorf("grant_type = %q, refresh_token = %q", gotGrantType, gotRefreshToken)
	}
	if tok.AccessToken != "at-2" || tok.RefreshToken != "rt-2" {
		t.Errorf("unexpected token pair: %+v", tok)
	}
}

func TestRefresh_KeepsOldTokenWhenOmitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenResponse(w, map[string]any{
			"access_token": "at-3",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	tok, err := c.Refresh(context.Background(), "rt-old")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	// The OAuth library carries the prior refresh token forward when the
	// provider omits one, so rotation is never lossy.
	if tok.RefreshToken != "rt-old" {
		t.Errorf("RefreshToken = %q, want rt-old", tok.RefreshToken)
	}
}

func TestClassifyTokenError_URLError(t *testing.T) {
	err := classifyTokenError(&url.Error{Op: "Post", URL: "http://x", Err: errors.New("refused")})
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
}
