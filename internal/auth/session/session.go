// Package session mints and verifies the application's own signed session
// credential. The token is stateless: it binds only the local account id
// and its validity is entirely a function of the signature and expiry.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed lifetime of a session token from issuance.
const TTL = 7 * 24 * time.Hour

// ErrInvalidSession covers every verification failure: malformed token,
// bad signature, expired token. Callers treat all of them as
// unauthenticated, never as a server error.
var ErrInvalidSession = errors.New("session: invalid or expired token")

// Manager signs and verifies session tokens with a single process-wide
// secret.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Issue mints a signed session token for a local account id.
func (m *Manager) Issue(accountID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks the signature and expiry and returns the bound account id.
// The account itself is looked up fresh by the caller on every request so
// edits and revocations take effect immediately.
func (m *Manager) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}
