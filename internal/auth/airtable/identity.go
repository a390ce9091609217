package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Identity is the stable external identity of the logged-in Airtable user.
type Identity struct {
	AirtableUserID    string
	Email             string
	DisplayName       string
	ProfilePictureURL string
}

// Resolve calls Airtable's whoami endpoint with an access token. The
// display name falls back to the email when Airtable omits a name.
func (c *Client) Resolve(ctx context.Context, accessToken string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.whoamiURL, nil)
	if err != nil {
		return nil, &ProtocolError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &IdentityFetchError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		ProfilePicURL string `json:"profilePicUrl"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ProtocolError{Err: err}
	}
	if payload.ID == "" || payload.Email == "" {
		return nil, &ProtocolError{Err: errors.New("whoami response is missing id or email")}
	}

	name := payload.Name
	if name == "" {
		name = payload.Email
	}

	return &Identity{
		AirtableUserID:    payload.ID,
		Email:             payload.Email,
		DisplayName:       name,
		ProfilePictureURL: payload.ProfilePicURL,
	}, nil
}
