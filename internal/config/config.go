// Package config loads process configuration from the environment once at
// startup. All provider credentials and signing secrets are required; the
// process must not come up without them.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every startup setting. Values are read once and treated as
// immutable afterwards.
type Config struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8080"`

	DatabasePath string `env:"AIRFORM_DB" envDefault:"airform.db"`

	// FrontendURL is where the browser is sent back to after the OAuth
	// round trip, e.g. https://forms.example.com
	FrontendURL string `env:"FRONTEND_URL,required"`

	AirtableClientID      string `env:"AIRTABLE_CLIENT_ID,required"`
	AirtableClientSecret  string `env:"AIRTABLE_CLIENT_SECRET,required"`
	AirtableRedirectURI   string `env:"AIRTABLE_REDIRECT_URI,required"`
	AirtableWebhookSecret string `env:"AIRTABLE_WEBHOOK_SECRET,required"`

	// JWTSecret signs application session tokens. Independent of any
	// Airtable credential.
	JWTSecret string `env:"JWT_SECRET,required"`
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads .env (if present) and parses the environment. It returns an
// error naming the missing variables so main can exit with a clear message.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if strings.TrimSpace(cfg.FrontendURL) == "" {
		return nil, fmt.Errorf("invalid environment: FRONTEND_URL is empty")
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	return &cfg, nil
}
