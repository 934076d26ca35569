package api

import "github.com/rxtech-lab/argo-runtime/internal/types"

// StrategySummary is one entry of GET /strategies.
type StrategySummary struct {
	Name     string            `json:"name"`
	Symbol   string            `json:"symbol"`
	Position types.PnLSnapshot `json:"position"`
	Equity   float64           `json:"equity"`
}

// KillSwitchRequest is the body of POST /risk/kill-switch.
type KillSwitchRequest struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
}

// KillSwitchState is returned by both kill switch endpoints.
type KillSwitchState struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
