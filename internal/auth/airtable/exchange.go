package airtable

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// TokenData is the outcome of a code exchange or refresh. ExpiresAt is
// computed by the OAuth library as now + expires_in at the moment the
// response arrives; it is never trusted from any other source.
type TokenData struct {
	AccessToken  string
	RefreshToken string // empty when the provider omitted it
	ExpiresAt    time.Time
	Scopes       []string
}

// ExchangeCode trades an authorization code (plus its PKCE verifier) for a
// token pair at Airtable's token endpoint.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*TokenData, error) {
	return c.retrieve(ctx, func(ctx context.Context) (*oauth2.Token, error) {
		return c.cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	})
}

// Refresh trades a refresh token for a new token pair. Airtable rotates
// refresh tokens, so the response usually carries a new one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenData, error) {
	return c.retrieve(ctx, func(ctx context.Context) (*oauth2.Token, error) {
		// No access token is set, so Token() performs the refresh grant
		// immediately instead of returning a cached token.
		src := c.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		return src.Token()
	})
}

func (c *Client) retrieve(ctx context.Context, fn func(context.Context) (*oauth2.Token, error)) (*TokenData, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := fn(ctx)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if tok.AccessToken == "" {
		return nil, &ProtocolError{Err: errors.New("no access_token in token response")}
	}

	return &TokenData{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Scopes:       scopesFromToken(tok),
	}, nil
}

// classifyTokenError maps x/oauth2 failures onto the error taxonomy:
// provider rejections keep their status and raw body, network trouble and
// timeouts become TransportError, everything else (including a 2xx body
// that would not parse) is a ProtocolError.
func classifyTokenError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := 0
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		if status >= 400 {
			return &TokenExchangeError{StatusCode: status, Body: string(rErr.Body)}
		}
		return &ProtocolError{Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransportError{Err: err}
	}
	var uErr *url.Error
	if errors.As(err, &uErr) {
		return &TransportError{Err: err}
	}

	return &ProtocolError{Err: err}
}

func scopesFromToken(tok *oauth2.Token) []string {
	if s, ok := tok.Extra("scope").(string); ok {
		return strings.Fields(s)
	}
	return nil
}
