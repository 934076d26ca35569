// Package feed turns external market data into types.Tick values and pushes
// them into a Sink, usually the dispatch engine's OnTick.
package feed

import (
	"context"

	"github.com/rxtech-lab/argo-runtime/internal/types"
)

// Sink receives normalized ticks. It returns false when the tick was dropped.
type Sink func(tick types.Tick) bool

// Source produces ticks until ctx is cancelled or it fails for good.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}

// Stats are the counters a source exposes.
type Stats struct {
	Messages   uint64 `json:"messages" yaml:"messages"`
	Ticks      uint64 `json:"ticks" yaml:"ticks"`
	Dropped    uint64 `json:"dropped" yaml:"dropped"`
	Reconnects uint64 `json:"reconnects" yaml:"reconnects"`
}
