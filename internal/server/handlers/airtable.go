package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/airform/internal/airtable"
	"github.com/pysugar/airform/internal/fields"
	"github.com/pysugar/airform/internal/server/middleware"
)

// BasesHandler lists the Airtable bases the user's token can see.
func BasesHandler(client *airtable.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.AccountFrom(r.Context())
		if !ok {
			middleware.Unauthorized(w, "User not authenticated.")
			return
		}

		bases, err := client.ListBases(r.Context(), account.AccessToken)
		if err != nil {
			log.Printf("❌ Failed to fetch Airtable bases for %s: %v", account.Email, err)
			writeMessage(w, http.StatusBadGateway, "Failed to fetch Airtable bases.")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"bases": bases})
	}
}

type fieldView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	QuestionType string `json:"questionType,omitempty"`
	HasChoices   bool   `json:"hasChoices,omitempty"`
	Buildable    bool   `json:"buildable"`
}

type tableView struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	PrimaryFieldID string      `json:"primaryFieldId"`
	Fields         []fieldView `json:"fields"`
}

// TablesHandler lists the table schemas of one base, annotating each field
// with the question type the form builder would render it as.
func TablesHandler(client *airtable.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := middleware.AccountFrom(r.Context())
		if !ok {
			middleware.Unauthorized(w, "User not authenticated.")
			return
		}

		baseID := chi.URLParam(r, "baseID")
		tables, err := client.ListTables(r.Context(), account.AccessToken, baseID)
		if err != nil {
			log.Printf("❌ Failed to fetch tables of base %s for %s: %v", baseID, account.Email, err)
			writeMessage(w, http.StatusBadGateway, "Failed to fetch Airtable tables.")
			return
		}

		views := make([]tableView, 0, len(tables))
		for _, t := range tables {
			v := tableView{ID: t.ID, Name: t.Name, PrimaryFieldID: t.PrimaryFieldID}
			for _, f := range t.Fields {
				fv := fieldView{ID: f.ID, Name: f.Name, Type: f.Type}
				if m, ok := fields.QuestionTypeFor(f.Type); ok {
					fv.QuestionType = m.QuestionType
					fv.HasChoices = m.HasChoices
					fv.Buildable = true
				}
				v.Fields = append(v.Fields, fv)
			}
			views = append(views, v)
		}

		writeJSON(w, http.StatusOK, map[string]any{"tables": views})
	}
}
