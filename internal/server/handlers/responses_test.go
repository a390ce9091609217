package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pysugar/airform/internal/airtable"
	airtableauth "github.com/pysugar/airform/internal/auth/airtable"
	"github.com/pysugar/airform/internal/auth/token"
	"github.com/pysugar/airform/internal/db/models"
	"gorm.io/gorm"
)

func seedOwnerWithForm(t *testing.T, database *gorm.DB, expiresAt time.Time, refreshToken string) (*models.Account, *models.Form) {
	t.Helper()
	owner := &models.Account{
		ID:             uuid.New().String(),
		AirtableUserID: uuid.New().String(),
		Email:          "ada@example.com",
		AccessToken:    "at-owner",
		RefreshToken:   refreshToken,
		ExpiresAt:      expiresAt,
	}
	if err := database.Create(owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	form := &models.Form{
		ID:              uuid.New().String(),
		OwnerID:         owner.ID,
		Name:            "Feedback",
		AirtableBaseID:  "appBase1",
		AirtableTableID: "tblTable1",
		Questions:       "[]",
	}
	if err := database.Create(form).Error; err != nil {
		t.Fatalf("seed form: %v", err)
	}
	return owner, form
}

func unusedOAuthClient() *airtableauth.Client {
	return airtableauth.NewClientWithEndpoints("id", "secret", "http://localhost/cb",
		"http://unused/authorize", "http://unused/token", "http://unused/whoami")
}

func TestCreateResponseHandler_SubmitsWithOwnerToken(t *testing.T) {
	database := newTestDB(t)
	_, form := seedOwnerWithForm(t, database, time.Now().Add(time.Hour), "rt-owner")

	var gotAuth, gotPath string
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Write([]byte(`{"id":"recNew","createdTime":"2026-01-02T03:04:05.000Z","fields":{"fldName":"Ada"}}`))
	}))
	defer apiSrv.Close()

	tokens := token.NewManager(database, unusedOAuthClient())
	client := airtable.NewClientWithBaseURL(apiSrv.URL)

	r := chi.NewRouter()
	r.Post("/api/forms/{formID}/responses", CreateResponseHandler(database, tokens, client))

	body := []byte(`{"answers": {"fldName": "Ada"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/forms/"+form.ID+"/responses", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotAuth != "Bearer at-owner" {
		t.Errorf("Airtable call used %q, want the owner's token", gotAuth)
	}
	if gotPath != "/appBase1/tblTable1" {
		t.Errorf("path = %q", gotPath)
	}

	var view responseView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.AirtableRecordID != "recNew" {
		t.Errorf("record id = %q", view.AirtableRecordID)
	}

	var stored models.FormResponse
	if err := database.First(&stored, "id = ?", view.ID).Error; err != nil {
		t.Fatalf("load response: %v", err)
	}
	if stored.FormID != form.ID || stored.AirtableRecordID != "recNew" {
		t.Errorf("unexpected stored response: %+v", stored)
	}
}

func TestCreateResponseHandler_OwnerGrantBroken(t *testing.T) {
	database := newTestDB(t)
	// Expired token and no refresh token: the owner must re-authenticate,
	// which the anonymous submitter cannot do for them.
	_, form := seedOwnerWithForm(t, database, time.Now().Add(-time.Minute), "")

	tokens := token.NewManager(database, unusedOAuthClient())
	client := airtable.NewClientWithBaseURL("http://unused")

	r := chi.NewRouter()
	r.Post("/api/forms/{formID}/responses", CreateResponseHandler(database, tokens, client))

	body := []byte(`{"answers": {"fldName": "Ada"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/forms/"+form.ID+"/responses", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var count int64
	database.Model(&models.FormResponse{}).Count(&count)
	if count != 0 {
		t.Errorf("response stored despite failed submission")
	}
}

func TestCreateResponseHandler_Validation(t *testing.T) {
	database := newTestDB(t)
	_, form := seedOwnerWithForm(t, database, time.Now().Add(time.Hour), "rt")

	tokens := token.NewManager(database, unusedOAuthClient())
	client := airtable.NewClientWithBaseURL("http://unused")

	r := chi.NewRouter()
	r.Post("/api/forms/{formID}/responses", CreateResponseHandler(database, tokens, client))

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "empty answers", path: "/api/forms/" + form.ID + "/responses", body: `{"answers":{}}`, want: http.StatusBadRequest},
		{name: "not json", path: "/api/forms/" + form.ID + "/responses", body: "nope", want: http.StatusBadRequest},
		{name: "unknown form", path: "/api/forms/" + uuid.New().String() + "/responses", body: `{"answers":{"f":"v"}}`, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestListResponsesHandler_OwnerOnly(t *testing.T) {
	database := newTestDB(t)
	owner, form := seedOwnerWithForm(t, database, time.Now().Add(time.Hour), "rt")

	response := &models.FormResponse{
		ID:               uuid.New().String(),
		FormID:           form.ID,
		AirtableRecordID: "recABC",
		Answers:          `{"fldName":"Ada"}`,
	}
	if err := database.Create(response).Error; err != nil {
		t.Fatalf("seed response: %v", err)
	}

	r := chi.NewRouter()
	r.With(asAccount(owner)).Get("/api/forms/{formID}/responses", ListResponsesHandler(database))

	req := httptest.NewRequest(http.MethodGet, "/api/forms/"+form.ID+"/responses", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Responses []responseView `json:"responses"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Responses) != 1 || out.Responses[0].Answers["fldName"] != "Ada" {
		t.Errorf("unexpected responses: %+v", out.Responses)
	}

	// Someone else's session is forbidden, not just filtered.
	stranger := formOwner()
	r2 := chi.NewRouter()
	r2.With(asAccount(stranger)).Get("/api/forms/{formID}/responses", ListResponsesHandler(database))

	req = httptest.NewRequest(http.MethodGet, "/api/forms/"+form.ID+"/responses", nil)
	rec = httptest.NewRecorder()
	r2.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
