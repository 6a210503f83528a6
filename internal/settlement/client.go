package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var _ Settler = (*Client)(nil)

// Client calls the external settlement function over HTTP. The function
// recomputes points and standings for every prediction on the match and is
// idempotent, so a retried call cannot double-count.
type Client struct {
	url        string
	authToken  string
	httpClient *http.Client
}

// NewClient creates a settlement client for the given function URL.
func NewClient(url, authToken string) *Client {
	return &Client{
		url:       url,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Settle(ctx context.Context, matchID string) error {
	payload, err := json.Marshal(map[string]string{"match_id": matchID})
	if err != nil {
		return fmt.Errorf("failed to marshal settle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build settle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("settle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("settle function returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
