// Package controller is a thin JSON HTTP client bound to one Floodlight
// controller, used by every Sensor's prepare phase. It does not know
// about the store or sensor semantics — it only fetches and decodes.
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/retry"
)

// Client fetches JSON from a controller's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func (cfg *Config) Validate() error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return nil
}

// New builds a Client against the controller's base URL, e.g.
// "http://localhost:8080/wm/".
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Get fetches path (relative to the base URL) and decodes the JSON
// response into v, retrying transient failures with backoff. The
// caller's context deadline (the sensor's 10s prepare budget) still
// bounds the whole call; retry only fills gaps within it.
func (c *Client) Get(ctx context.Context, path string, v any) error {
	return retry.Do(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("failed to build request for %s: %w", path, err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &retry.StatusError{Code: resp.StatusCode, Path: path}
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
		return nil
	})
}
