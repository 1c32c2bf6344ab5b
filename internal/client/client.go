// Package client implements the HTTP client for the device API: device
// registration, assigned-playlist fetches, and heartbeats. It satisfies the
// player's Source and Reporter contracts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kwrenn/signet/internal/models"
	"github.com/kwrenn/signet/internal/player"
)

const defaultHTTPTimeout = 15 * time.Second

// Common client errors
var (
	// ErrPairingRejected indicates the server did not accept the pairing code
	ErrPairingRejected = errors.New("pairing code rejected")
	// ErrDeviceNotFound indicates the device id is unknown to the server
	ErrDeviceNotFound = errors.New("device not found")
)

// Client satisfies both playback engine contracts.
var (
	_ player.Source   = (*Client)(nil)
	_ player.Reporter = (*Client)(nil)
)

// Client talks to the device API service
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a device API client. token may be empty until the
// device registers.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetToken sets the API credential used for subsequent requests
func (c *Client) SetToken(token string) {
	c.token = token
}

// RegisterResult is the device identity issued at pairing
type RegisterResult struct {
	DeviceID uuid.UUID `json:"device_id"`
	Name     string    `json:"name"`
	APIToken string    `json:"api_token"`
}

type registerRequest struct {
	PairingCode string `json:"pairing_code"`
	Name        string `json:"name,omitempty"`
}

// Register exchanges a pairing code for a device identity and API token
func (c *Client) Register(ctx context.Context, pairingCode, name string) (*RegisterResult, error) {
	body, err := json.Marshal(registerRequest{PairingCode: pairingCode, Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to encode register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/devices/register", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrPairingRejected
	default:
		return nil, fmt.Errorf("register failed with status %d", resp.StatusCode)
	}

	var result RegisterResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode register response: %w", err)
	}
	if result.APIToken != "" {
		c.token = result.APIToken
	}
	return &result, nil
}

// playlistEnvelope matches the GET /devices/:id/playlist response shape. A
// null playlist means nothing is assigned.
type playlistEnvelope struct {
	Playlist *models.Playlist `json:"playlist"`
}

// Fetch implements player.Source: it returns the playlist currently
// assigned to the device, or nil (with a nil error) when unassigned.
func (c *Client) Fetch(ctx context.Context, deviceID string) (*models.Playlist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/devices/%s/playlist", c.baseURL, deviceID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build playlist request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("playlist request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrDeviceNotFound
	default:
		return nil, fmt.Errorf("playlist fetch failed with status %d", resp.StatusCode)
	}

	var envelope playlistEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode playlist response: %w", err)
	}
	return envelope.Playlist, nil
}

type heartbeatResponse struct {
	Success    bool   `json:"success"`
	ServerTime string `json:"serverTime,omitempty"`
}

// Send implements player.Reporter: it posts a heartbeat with the current
// playback status. Errors are returned for the engine to log; they carry no
// playback consequence.
func (c *Client) Send(ctx context.Context, deviceID string, status player.Status) error {
	body, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode heartbeat: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/devices/%s/heartbeat", c.baseURL, deviceID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build heartbeat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("heartbeat failed with status %d", resp.StatusCode)
	}

	var hr heartbeatResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return fmt.Errorf("failed to decode heartbeat response: %w", err)
	}
	if !hr.Success {
		return errors.New("heartbeat not accepted by server")
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// drainAndClose fully reads the body so the connection can be reused
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body) // nolint:errcheck
	_ = body.Close()                 // nolint:errcheck
}
