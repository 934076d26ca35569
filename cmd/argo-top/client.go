package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/api"
	"github.com/rxtech-lab/argo-runtime/internal/types"
)

const requestTimeout = 3 * time.Second

// Snapshot is everything the dashboard renders in one refresh.
type Snapshot struct {
	Portfolio  types.PortfolioSnapshot
	Strategies []api.StrategySummary
	Engine     types.EngineStats
	KillSwitch api.KillSwitchState
	FetchedAt  time.Time
}

// Fetcher reads the runtime's control plane.
type Fetcher interface {
	Fetch(ctx context.Context) (Snapshot, error)
	SetKillSwitch(ctx context.Context, enabled bool, reason string) (api.KillSwitchState, error)
}

// Client is a Fetcher over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Fetcher = (*Client)(nil)

// NewClient targets a control plane such as http://127.0.0.1:8080.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// BaseURL returns the normalized control plane address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	if err := c.do(ctx, http.MethodGet, "/portfolio", nil, &snap.Portfolio); err != nil {
		return Snapshot{}, err
	}

	if err := c.do(ctx, http.MethodGet, "/strategies", nil, &snap.Strategies); err != nil {
		return Snapshot{}, err
	}

	if err := c.do(ctx, http.MethodGet, "/engine/stats", nil, &snap.Engine); err != nil {
		return Snapshot{}, err
	}

	if err := c.do(ctx, http.MethodGet, "/risk/kill-switch", nil, &snap.KillSwitch); err != nil {
		return Snapshot{}, err
	}

	snap.FetchedAt = time.Now()

	return snap, nil
}

func (c *Client) SetKillSwitch(ctx context.Context, enabled bool, reason string) (api.KillSwitchState, error) {
	var state api.KillSwitchState

	err := c.do(ctx, http.MethodPost, "/risk/kill-switch", api.KillSwitchRequest{Enabled: enabled, Reason: reason}, &state)

	return state, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &payload)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return fmt.Errorf("%s %s: %s", method, path, resp.Status)
		}

		return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}

	return nil
}
