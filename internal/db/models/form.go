package models

import "time"

// Form binds a published form to one Airtable table. Questions is a JSON
// array of FormQuestion; sqlite has no native JSON column so it is stored
// as text and (de)serialized at the edges.
type Form struct {
	ID              string `gorm:"primaryKey"` // UUID
	OwnerID         string `gorm:"index"`      // Account.ID
	Name            string
	AirtableBaseID  string `gorm:"index:idx_base_table"`
	AirtableTableID string `gorm:"index:idx_base_table"`
	Questions       string // JSON array of FormQuestion
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FormQuestion describes one question of a form, bound to an Airtable field.
type FormQuestion struct {
	AirtableFieldID  string            `json:"airtableFieldId"`
	Label            string            `json:"label"`
	Type             string            `json:"type"`
	Required         bool              `json:"required"`
	Choices          []Choice          `json:"choices,omitempty"`
	ConditionalRules *ConditionalRules `json:"conditionalRules,omitempty"`
}

// Choice is one selectable option of a select-type question.
type Choice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ConditionalRules controls conditional display of a question. The backend
// stores the rules verbatim; evaluation happens in the form viewer.
type ConditionalRules struct {
	Logic      string      `json:"logic"` // "AND" | "OR"
	Conditions []Condition `json:"conditions"`
}

// Condition is a single conditional-display predicate.
type Condition struct {
	QuestionKey string `json:"questionKey"`
	Operator    string `json:"operator"` // "equals" | "notEquals" | "contains"
	Value       any    `json:"value"`
}
