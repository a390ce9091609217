// Package airtable is the client for Airtable's data and metadata APIs,
// used with an account's (already refreshed) access token.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.airtable.com/v0"
	requestTimeout = 15 * time.Second
)

// APIError is a non-2xx answer from the Airtable API. Status and body are
// kept for server-side logs; user-facing handlers reduce it to a generic
// message.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable api error: status %d: %s", e.StatusCode, e.Body)
}

// Client calls the Airtable API. All calls are bounded by a 15 second
// timeout and carry the caller's bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return NewClientWithBaseURL(defaultBaseURL)
}

// NewClientWithBaseURL is NewClient with an overridable API root; tests
// point it at a local fake.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
	}
}

// Base is one Airtable base the user can bind a form to.
type Base struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PermissionLevel string `json:"permissionLevel"`
}

// Field is one column of an Airtable table.
type Field struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Options json.RawMessage `json:"options,omitempty"`
}

// Table is the schema of one table inside a base.
type Table struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	PrimaryFieldID string  `json:"primaryFieldId"`
	Fields         []Field `json:"fields"`
}

// Record is a created or fetched Airtable record.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime time.Time      `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

// ListBases fetches all bases the token can see.
func (c *Client) ListBases(ctx context.Context, accessToken string) ([]Base, error) {
	var out struct {
		Bases []Base `json:"bases"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/meta/bases", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out.Bases, nil
}

// ListTables fetches the table schemas of a base.
func (c *Client) ListTables(ctx context.Context, accessToken, baseID string) ([]Table, error) {
	var out struct {
		Tables []Table `json:"tables"`
	}
	endpoint := fmt.Sprintf("%s/meta/bases/%s/tables", c.baseURL, url.PathEscape(baseID))
	if err := c.do(ctx, http.MethodGet, endpoint, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out.Tables, nil
}

// CreateRecord creates one record in a table and returns it.
func (c *Client) CreateRecord(ctx context.Context, accessToken, baseID, tableID string, fields map[string]any) (*Record, error) {
	payload := map[string]any{"fields": fields}
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(baseID), url.PathEscape(tableID))
	var rec Record
	if err := c.do(ctx, http.MethodPost, endpoint, accessToken, payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, accessToken string, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("airtable: encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("airtable: reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("airtable: decoding response: %w", err)
		}
	}
	return nil
}
