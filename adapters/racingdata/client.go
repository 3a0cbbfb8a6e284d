// Package racingdata provides an HTTP client for the racing-data API:
// Basic-authenticated GETs returning JSON racecards and results.
package racingdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/XavierBriggs/Paddock/pkg/contracts"
	"github.com/XavierBriggs/Paddock/pkg/models"
)

const (
	defaultBaseURL = "https://api.theracingapi.com"
	requestTimeout = 15 * time.Second
)

// Client talks to the racing-data API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

var _ contracts.RacingDataSource = (*Client)(nil)

// NewClient creates a racing-data client with the given Basic auth
// credentials.
func NewClient(username, password string) *Client {
	return &Client{
		baseURL:  defaultBaseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// FetchRacecards returns the day's racecards. Day is "today" or
// "tomorrow".
func (c *Client) FetchRacecards(ctx context.Context, day string) ([]models.Racecard, error) {
	body, err := c.get(ctx, fmt.Sprintf("/v1/racecards/free?day=%s", day))
	if err != nil {
		return nil, fmt.Errorf("fetch racecards: %w", err)
	}

	var resp struct {
		Racecards []models.Racecard `json:"racecards"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse racecards response: %w", err)
	}
	return resp.Racecards, nil
}

// FetchResults returns the day's race results.
func (c *Client) FetchResults(ctx context.Context, day string) ([]models.RaceOutcome, error) {
	body, err := c.get(ctx, fmt.Sprintf("/v1/results/%s/free", day))
	if err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}

	var resp struct {
		Results []models.RaceOutcome `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse results response: %w", err)
	}
	return resp.Results, nil
}

// Proxy performs a raw pass-through GET of an API path and returns the
// upstream status and body unmodified. Backs the /api/* surface.
func (c *Client) Proxy(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	status, body, err := c.Proxy(ctx, path)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", status, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
