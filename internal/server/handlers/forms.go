package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pysugar/airform/internal/db/models"
	"github.com/pysugar/airform/internal/fields"
	"github.com/pysugar/airform/internal/server/middleware"
	"gorm.io/gorm"
)

type createFormRequest struct {
	Name            string                `json:"name"`
	AirtableBaseID  string                `json:"airtableBaseId"`
	AirtableTableID string                `json:"airtableTableId"`
	Questions       []models.FormQuestion `json:"questions"`
}

type formView struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	AirtableBaseID  string                `json:"airtableBaseId"`
	AirtableTableID string                `json:"airtableTableId"`
	Questions       []models.FormQuestion `json:"questions"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

func viewOf(form *models.Form) (formView, error) {
	var questions []models.FormQuestion
	if form.Questions != "" {
		if err := json.Unmarshal([]byte(form.Questions), &questions); err != nil {
			return formView{}, err
		}
	}
	return formView{
		ID:              form.ID,
		Name:            form.Name,
		AirtableBaseID:  form.AirtableBaseID,
		AirtableTableID: form.AirtableTableID,
		Questions:       questions,
		CreatedAt:       form.CreatedAt,
		UpdatedAt:       form.UpdatedAt,
	}, nil
}

// CreateFormHandler creates a form bound to one Airtable table.
func CreateFormHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.AccountFrom(r.Context())
		if !ok {
			middleware.Unauthorized(w, "User not authenticated.")
			return
		}

		var req createFormRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		if req.Name == "" || req.AirtableBaseID == "" || req.AirtableTableID == "" {
			writeMessage(w, http.StatusBadRequest, "Name, base id and table id are required.")
			return
		}
		if len(req.Questions) == 0 {
			writeMessage(w, http.StatusBadRequest, "A form needs at least one question.")
			return
		}
		for _, q := range req.Questions {
			if q.AirtableFieldID == "" || q.Label == "" {
				writeMessage(w, http.StatusBadRequest, "Every question needs an Airtable field id and a label.")
				return
			}
			if !fields.KnownQuestionType(q.Type) {
				writeMessage(w, http.StatusBadRequest, "Unsupported question type: "+q.Type)
				return
			}
		}

		questionsJSON, err := json.Marshal(req.Questions)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid questions.")
			return
		}

		form := models.Form{
			ID:              uuid.New().String(),
			OwnerID:         account.ID,
			Name:            req.Name,
			AirtableBaseID:  req.AirtableBaseID,
			AirtableTableID: req.AirtableTableID,
			Questions:       string(questionsJSON),
		}
		if err := database.Create(&form).Error; err != nil {
			log.Printf("❌ Failed to create form for %s: %v", account.Email, err)
			writeMessage(w, http.StatusInternalServerError, "Failed to create form.")
			return
		}

		view, err := viewOf(&form)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Failed to create form.")
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

// ListFormsHandler lists the authenticated user's forms.
func ListFormsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.AccountFrom(r.Context())
		if !ok {
			middleware.Unauthorized(w, "User not authenticated.")
			return
		}

		var forms []models.Form
		if err := database.Where("owner_id = ?", account.ID).Order("created_at DESC").Find(&forms).Error; err != nil {
			log.Printf("❌ Failed to list forms for %s: %v", account.Email, err)
			writeMessage(w, http.StatusInternalServerError, "Failed to list forms.")
			return
		}

		views := make([]formView, 0, len(forms))
		for i := range forms {
			view, err := viewOf(&forms[i])
			if err != nil {
				log.Printf("⚠️ Skipping form %s with corrupt questions: %v", forms[i].ID, err)
				continue
			}
			views = append(views, view)
		}
		writeJSON(w, http.StatusOK, map[string]any{"forms": views})
	}
}

// GetFormHandler serves one form. Public: the form viewer fetches it
// without a session.
func GetFormHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "formID")

		var form models.Form
		err := database.Where("id = ?", formID).First(&form).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeMessage(w, http.StatusNotFound, "Form not found.")
			return
		}
		if err != nil {
			log.Printf("❌ Failed to load form %s: %v", formID, err)
			writeMessage(w, http.StatusInternalServerError, "Failed to load form.")
			return
		}

		view, err := viewOf(&form)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Failed to load form.")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
