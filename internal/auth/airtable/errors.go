package airtable

import "fmt"

// TransportError is a network failure or hard timeout talking to Airtable.
// Callers may retry at their discretion; nothing retries internally.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("airtable: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is an unexpected response shape, e.g. a 2xx body that does
// not parse as JSON. Fatal for the call in question.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("airtable: unexpected response: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// TokenExchangeError means the token endpoint rejected the request. It
// carries the provider status and raw body for server-side diagnostics;
// neither ever reaches the browser.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("airtable: token exchange failed: status %d: %s", e.StatusCode, e.Body)
}

// IdentityFetchError means the whoami endpoint rejected the request.
type IdentityFetchError struct {
	StatusCode int
	Body       string
}

func (e *IdentityFetchError) Error() string {
	return fmt.Sprintf("airtable: identity fetch failed: status %d: %s", e.StatusCode, e.Body)
}
