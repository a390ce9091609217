package models

import "time"

// FormResponse is one submission of a published form. AirtableRecordID links
// it to the record created in the bound table so webhook notifications can
// sync record changes back.
type FormResponse struct {
	ID                string `gorm:"primaryKey"` // UUID
	FormID            string `gorm:"index"`
	AirtableRecordID  string `gorm:"index"`
	Answers           string // JSON object keyed by Airtable field id
	DeletedInAirtable bool   `gorm:"default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
