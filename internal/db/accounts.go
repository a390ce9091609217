package db

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pysugar/airform/internal/db/models"
	"gorm.io/gorm"
)

// IdentityUpdate is the provider identity applied on upsert.
type IdentityUpdate struct {
	AirtableUserID    string
	Email             string
	DisplayName       string
	ProfilePictureURL string
}

// TokenUpdate is a freshly issued or refreshed token pair.
type TokenUpdate struct {
	AccessToken  string
	RefreshToken string // empty when the provider omitted it
	ExpiresAt    time.Time
	Scopes       []string
}

// UpsertAccount reconciles an Airtable identity with the local account
// record. The row is keyed by the unique Airtable user id: a returning
// identity always updates the same account, never creates a second one.
// Idempotent for identical inputs, timestamps aside.
func UpsertAccount(database *gorm.DB, identity IdentityUpdate, tok TokenUpdate) (*models.Account, error) {
	var account models.Account
	err := database.Where("airtable_user_id = ?", identity.AirtableUserID).First(&account).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		account = models.Account{
			ID:             uuid.New().String(),
			AirtableUserID: identity.AirtableUserID,
		}
	case err != nil:
		return nil, err
	}

	account.Email = identity.Email
	account.DisplayName = identity.DisplayName
	account.ProfilePictureURL = identity.ProfilePictureURL
	ApplyTokenUpdate(&account, tok)

	if err := database.Save(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ApplyTokenUpdate overwrites the account's token fields in place. The
// stored refresh token is only replaced when the provider sent a new one;
// an absent refresh token on a refresh response must not clobber it.
func ApplyTokenUpdate(account *models.Account, tok TokenUpdate) {
	account.AccessToken = tok.AccessToken
	account.ExpiresAt = tok.ExpiresAt
	account.Scopes = strings.Join(tok.Scopes, " ")
	if tok.RefreshToken != "" {
		account.RefreshToken = tok.RefreshToken
	}
}

// FindAccountByID loads an account by its local id.
func FindAccountByID(database *gorm.DB, id string) (*models.Account, error) {
	var account models.Account
	if err := database.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
