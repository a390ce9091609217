package models

import "time"

// Account stores the Airtable identity and OAuth token pair for a local user.
// Exactly one Account exists per Airtable user id; every successful login or
// refresh updates the same row in place.
type Account struct {
	ID                string `gorm:"primaryKey"` // UUID
	AirtableUserID    string `gorm:"uniqueIndex"`
	Email             string `gorm:"uniqueIndex"`
	DisplayName       string
	ProfilePictureURL string
	AccessToken       string
	RefreshToken      string
	ExpiresAt         time.Time
	Scopes            string // space-separated granted scopes
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
