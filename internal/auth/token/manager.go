// Package token guards the freshness of stored Airtable token pairs. Every
// integration-dependent request passes through EnsureFresh before the
// stored access token is used.
package token

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pysugar/airform/internal/auth/airtable"
	"github.com/pysugar/airform/internal/db"
	"github.com/pysugar/airform/internal/db/models"
	"gorm.io/gorm"
)

// refreshSkew is the safety margin against clock skew and in-flight
// latency: a token expiring within it counts as stale already.
const refreshSkew = 60 * time.Second

// ErrNoRefreshToken means the account has no stored refresh token. This is
// terminal for the request: the caller must re-authenticate, no retry.
var ErrNoRefreshToken = errors.New("token: no refresh token stored, re-authentication required")

// RefreshFailedError wraps a failed refresh exchange. Same terminal
// handling as ErrNoRefreshToken.
type RefreshFailedError struct {
	Err error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("token: refresh failed: %v", e.Err)
}

func (e *RefreshFailedError) Unwrap() error { return e.Err }

// Manager refreshes stale token pairs through the OAuth client and
// persists the result on the account record.
type Manager struct {
	db    *gorm.DB
	oauth *airtable.Client
	locks sync.Map // account id -> *sync.Mutex
}

func NewManager(database *gorm.DB, oauth *airtable.Client) *Manager {
	return &Manager{db: database, oauth: oauth}
}

// EnsureFresh returns the account with a usable access token, refreshing
// it first when expiry is within the skew margin. Refreshes for the same
// account are serialized behind a per-account mutex: the provider
// invalidates a refresh token on first use, so two racing requests must
// not both spend it. After taking the lock the account is re-read, so at
// most one refresh happens per stale window.
func (m *Manager) EnsureFresh(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := db.FindAccountByID(m.db, accountID)
	if err != nil {
		return nil, err
	}
	if isFresh(account) {
		return account, nil
	}

	mu := m.lockFor(accountID)
	mu.Lock()
	defer mu.Unlock()

	// A concurrent request may have refreshed while we waited on the lock.
	account, err = db.FindAccountByID(m.db, accountID)
	if err != nil {
		return nil, err
	}
	if isFresh(account) {
		return account, nil
	}

	if account.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	log.Printf("⚠️ Airtable token for %s expires soon, refreshing", account.Email)
	tok, err := m.oauth.Refresh(ctx, account.RefreshToken)
	if err != nil {
		log.Printf("❌ Airtable token refresh failed for %s: %v", account.Email, err)
		return nil, &RefreshFailedError{Err: err}
	}

	db.ApplyTokenUpdate(account, db.TokenUpdate{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt,
		Scopes:       tok.Scopes,
	})
	if err := m.db.Save(account).Error; err != nil {
		return nil, fmt.Errorf("token: persisting refreshed pair: %w", err)
	}

	log.Printf("✅ Refreshed Airtable token for %s (expires %s)", account.Email, account.ExpiresAt.Format(time.RFC3339))
	return account, nil
}

func (m *Manager) lockFor(accountID string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func isFresh(account *models.Account) bool {
	return time.Until(account.ExpiresAt) > refreshSkew
}
