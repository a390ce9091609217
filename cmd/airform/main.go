package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pysugar/airform/internal/airtable"
	airtableauth "github.com/pysugar/airform/internal/auth/airtable"
	"github.com/pysugar/airform/internal/auth/session"
	"github.com/pysugar/airform/internal/auth/token"
	"github.com/pysugar/airform/internal/config"
	"github.com/pysugar/airform/internal/db"
	"github.com/pysugar/airform/internal/fields"
	"github.com/pysugar/airform/internal/logging"
	"github.com/pysugar/airform/internal/server/handlers"
	"github.com/pysugar/airform/internal/server/middleware"
	"github.com/pysugar/airform/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := fields.Init(); err != nil {
		log.Fatalf("Failed to load field catalog: %v", err)
	}

	oauthClient := airtableauth.NewClient(cfg.AirtableClientID, cfg.AirtableClientSecret, cfg.AirtableRedirectURI)
	dataClient := airtable.NewClient()
	sessions := session.NewManager(cfg.JWTSecret)
	tokens := token.NewManager(database, oauthClient)

	r := chi.NewRouter()
	r.Use(logging.RequestIDMiddleware)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// OAuth flow
	r.Get("/auth/airtable", airtableauth.HandleLogin(oauthClient))
	r.Get("/auth/airtable/callback", airtableauth.HandleCallback(database, oauthClient, sessions, cfg.FrontendURL))

	// Inbound Airtable notifications (HMAC verified, no session)
	r.Post("/webhooks/airtable", handlers.WebhookHandler(database, cfg.AirtableWebhookSecret))

	r.Route("/api", func(r chi.Router) {
		// Public: the form viewer and submissions need no session.
		r.Get("/forms/{formID}", handlers.GetFormHandler(database))
		r.Post("/forms/{formID}/responses", handlers.CreateResponseHandler(database, tokens, dataClient))

		// Session-protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(database, sessions))

			r.Get("/me", handlers.MeHandler())
			r.Post("/forms", handlers.CreateFormHandler(database))
			r.Get("/forms", handlers.ListFormsHandler(database))
			r.Get("/forms/{formID}/responses", handlers.ListResponsesHandler(database))

			// Routes that call Airtable also pass the freshness guard.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireFreshToken(tokens))
				r.Get("/airtable/bases", handlers.BasesHandler(dataClient))
				r.Get("/airtable/bases/{baseID}/tables", handlers.TablesHandler(dataClient))
			})
		})
	})

	addr := cfg.Addr()
	log.Printf("🚀 AirForm %s starting on http://%s", version.Version, addr)
	log.Printf("🔐 Airtable login: http://%s/auth/airtable", addr)
	log.Printf("📬 Webhook endpoint: http://%s/webhooks/airtable", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
