// Package ranking queries the leaderboard service.
package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Period selects a ranking window.
type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// ErrEmptyMessage is returned when the service answers without a message.
var ErrEmptyMessage = errors.New("ranking response has no message")

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ranking service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("ranking service returned %d: %s", e.StatusCode, e.Body)
}

// Client is a ranking service client.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type rankingResponse struct {
	Message string `json:"message"`
}

// Fetch returns the formatted ranking message for period.
func (c *Client) Fetch(ctx context.Context, period Period) (string, error) {
	switch period {
	case Weekly, Monthly:
	default:
		return "", fmt.Errorf("unknown ranking period %q", period)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ranking/"+string(period), nil)
	if err != nil {
		return "", fmt.Errorf("build ranking request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s ranking: %w", period, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out rankingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode %s ranking: %w", period, err)
	}
	if out.Message == "" {
		return "", ErrEmptyMessage
	}
	return out.Message, nil
}
