package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/pysugar/airform/internal/db/models"
	"gorm.io/gorm"
)

// Notification is the subset of an Airtable change notification the sync
// cares about. The raw body is only parsed after signature verification.
type Notification struct {
	Webhook struct {
		Type string `json:"type"`
		Base struct {
			ID string `json:"id"`
		} `json:"base"`
		Table struct {
			ID string `json:"id"`
		} `json:"table"`
	} `json:"webhook"`
	Payload struct {
		ChangedRecords []ChangedRecord `json:"changedRecords"`
		DeletedRecords []DeletedRecord `json:"deletedRecords"`
	} `json:"payload"`
}

// ChangedRecord carries the full current field values of an updated record.
type ChangedRecord struct {
	ID      string `json:"id"`
	Current struct {
		Fields map[string]any `json:"fields"`
	} `json:"current"`
}

// DeletedRecord identifies a record removed from the table.
type DeletedRecord struct {
	ID string `json:"id"`
}

// ProcessNotification applies a verified notification to the stored
// responses of the form bound to the notification's base and table.
// Updates overwrite the response answers; deletions mark the response as
// deleted in Airtable rather than removing it.
func ProcessNotification(database *gorm.DB, rawBody []byte) error {
	var n Notification
	if err := json.Unmarshal(rawBody, &n); err != nil {
		return fmt.Errorf("webhook: invalid notification payload: %w", err)
	}

	baseID := n.Webhook.Base.ID
	tableID := n.Webhook.Table.ID

	var form models.Form
	err := database.Where("airtable_base_id = ? AND airtable_table_id = ?", baseID, tableID).First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("⚠️ No form bound to base %s table %s, ignoring notification", baseID, tableID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("webhook: looking up form: %w", err)
	}

	switch n.Webhook.Type {
	case "table.update":
		for _, rec := range n.Payload.ChangedRecords {
			answers, err := json.Marshal(rec.Current.Fields)
			if err != nil {
				return fmt.Errorf("webhook: encoding record %s fields: %w", rec.ID, err)
			}
			res := database.Model(&models.FormResponse{}).
				Where("form_id = ? AND airtable_record_id = ?", form.ID, rec.ID).
				Update("answers", string(answers))
			if res.Error != nil {
				return fmt.Errorf("webhook: updating response for record %s: %w", rec.ID, res.Error)
			}
			if res.RowsAffected > 0 {
				log.Printf("🔄 Updated response for record %s in form %s", rec.ID, form.ID)
			}
		}
	case "table.destroy":
		for _, rec := range n.Payload.DeletedRecords {
			res := database.Model(&models.FormResponse{}).
				Where("form_id = ? AND airtable_record_id = ?", form.ID, rec.ID).
				Update("deleted_in_airtable", true)
			if res.Error != nil {
				return fmt.Errorf("webhook: marking response deleted for record %s: %w", rec.ID, res.Error)
			}
			if res.RowsAffected > 0 {
				log.Printf("🗑 Marked response for record %s in form %s as deleted", rec.ID, form.ID)
			}
		}
	default:
		log.Printf("⚠️ Unhandled webhook type: %s", n.Webhook.Type)
	}

	return nil
}
