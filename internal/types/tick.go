package types

import "time"

// Tick is a single last-traded-price update for one instrument.
type Tick struct {
	Symbol    string         `json:"symbol" yaml:"symbol"`
	LastPrice float64        `json:"last_price" yaml:"last_price"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Raw       map[string]any `json:"raw,omitempty" yaml:"raw,omitempty"`
}
