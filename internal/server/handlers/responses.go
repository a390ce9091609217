package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pysugar/airform/internal/airtable"
	"github.com/pysugar/airform/internal/auth/token"
	"github.com/pysugar/airform/internal/db/models"
	"github.com/pysugar/airform/internal/server/middleware"
	"gorm.io/gorm"
)

type createResponseRequest struct {
	Answers map[string]any `json:"answers"`
}

type responseView struct {
	ID                string         `json:"id"`
	FormID            string         `json:"formId"`
	AirtableRecordID  string         `json:"airtableRecordId,omitempty"`
	Answers           map[string]any `json:"answers"`
	DeletedInAirtable bool           `json:"deletedInAirtable"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// CreateResponseHandler accepts a public form submission: the record is
// created in the owner's Airtable table with the owner's (refreshed)
// token, then mirrored locally. The submitter never authenticates.
func CreateResponseHandler(database *gorm.DB, tokens *token.Manager, client *airtable.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "formID")

		var req createResponseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Answers) == 0 {
			writeMessage(w, http.StatusBadRequest, "Form ID and answers are required.")
			return
		}

		var form models.Form
		err := database.Where("id = ?", formID).First(&form).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeMessage(w, http.StatusNotFound, "Form not found.")
			return
		}
		if err != nil {
			log.Printf("❌ Failed to load form %s: %v", formID, err)
			writeMessage(w, http.StatusInternalServerError, "Failed to submit response.")
			return
		}

		owner, err := tokens.EnsureFresh(r.Context(), form.OwnerID)
		if err != nil {
			// The owner's Airtable grant is broken; the anonymous
			// submitter cannot fix that, so answer with a gateway error.
			log.Printf("❌ Owner token unavailable for form %s: %v", form.ID, err)
			writeMessage(w, http.StatusBadGateway, "Form is temporarily unavailable.")
			return
		}

		record, err := client.CreateRecord(r.Context(), owner.AccessToken, form.AirtableBaseID, form.AirtableTableID, req.Answers)
		if err != nil {
			log.Printf("❌ Failed to create Airtable record for form %s: %v", form.ID, err)
			writeMessage(w, http.StatusBadGateway, "Failed to submit response.")
			return
		}

		answersJSON, err := json.Marshal(req.Answers)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid answers.")
			return
		}

		response := models.FormResponse{
			ID:               uuid.New().String(),
			FormID:           form.ID,
			AirtableRecordID: record.ID,
			Answers:          string(answersJSON),
		}
		if err := database.Create(&response).Error; err != nil {
			log.Printf("❌ Failed to store response for form %s: %v", form.ID, err)
			writeMessage(w, http.StatusInternalServerError, "Failed to submit response.")
			return
		}

		writeJSON(w, http.StatusCreated, responseView{
			ID:               response.ID,
			FormID:           response.FormID,
			AirtableRecordID: response.AirtableRecordID,
			Answers:          req.Answers,
			CreatedAt:        response.CreatedAt,
		})
	}
}

// ListResponsesHandler lists a form's submissions for its owner.
func ListResponsesHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.AccountFrom(r.Context())
		if !ok {
			middleware.Unauthorized(w, "User not authenticated.")
			return
		}

		formID := chi.URLParam(r, "formID")

		var form models.Form
		err := database.Where("id = ?", formID).First(&form).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeMessage(w, http.StatusNotFound, "Form not found.")
			return
		}
		if err != nil {
			log.Printf("❌ Failed to load form %s: %v", formID, err)
			writeMessage(w, http.StatusInternalServerError, "Failed to list responses.")
			return
		}
		if form.OwnerID != account.ID {
			writeMessage(w, http.StatusForbidden, "Not your form.")
			return
		}

		var responses []models.FormResponse
		if err := database.Where("form_id = ?", form.ID).Order("created_at DESC").Find(&responses).Error; err != nil {
			log.Printf("❌ Failed to list responses for form %s: %v", form.ID, err)
			writeMessage(w, http.StatusInternalServerError, "Failed to list responses.")
			return
		}

		views := make([]responseView, 0, len(responses))
		for _, res := range responses {
			var answers map[string]any
			if res.Answers != "" {
				if err := json.Unmarshal([]byte(res.Answers), &answers); err != nil {
					log.Printf("⚠️ Skipping response %s with corrupt answers: %v", res.ID, err)
					continue
				}
			}
			views = append(views, responseView{
				ID:                res.ID,
				FormID:            res.FormID,
				AirtableRecordID:  res.AirtableRecordID,
				Answers:           answers,
				DeletedInAirtable: res.DeletedInAirtable,
				CreatedAt:         res.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"responses": views})
	}
}
