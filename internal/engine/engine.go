// Package engine defines the strategy dispatch engine: the component that
// fans ticks out to registered strategies on a bounded worker pool.
package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/strategy"
	"github.com/rxtech-lab/argo-runtime/internal/types"
)

// Default configuration values.
const (
	DefaultWorkers   = 8
	DefaultQueueSize = 10000
)

// Config sizes the dispatch engine.
type Config struct {
	// Workers is the number of goroutines executing strategy callbacks.
	Workers int `json:"workers" yaml:"workers" validate:"gte=0" jsonschema:"description=Number of strategy worker goroutines,default=8"`

	// QueueSize bounds both the tick queue and the worker job buffer.
	QueueSize int `json:"queue_size" yaml:"queue_size" validate:"gte=0" jsonschema:"description=Maximum number of buffered ticks,default=10000"`
}

// DefaultConfig returns 8 workers and a 10000-tick queue.
func DefaultConfig() Config {
	return Config{
		Workers:   DefaultWorkers,
		QueueSize: DefaultQueueSize,
	}
}

// OnStrategyErrorCallback is called when a strategy callback returns an error
// or panics.
type OnStrategyErrorCallback func(strategyName string, tick types.Tick, err error)

// OnTickDroppedCallback is called when a tick or a strategy job is discarded.
// err carries ErrCodeEngineStopped or ErrCodeQueueFull.
type OnTickDroppedCallback func(tick types.Tick, err error)

// OnStatusUpdateCallback is called when the engine starts or stops.
type OnStatusUpdateCallback func(status types.EngineStatus)

// Callbacks are optional observers of the engine. Nil fields are skipped.
type Callbacks struct {
	OnStrategyError *OnStrategyErrorCallback
	OnTickDropped   *OnTickDroppedCallback
	OnStatusUpdate  *OnStatusUpdateCallback
}

// DispatchEngine runs strategies against a live tick stream.
type DispatchEngine interface {
	// Register adds a strategy, installs its risk policy and starts it when
	// the engine is running. minInterval throttles how often it sees ticks.
	Register(s strategy.Strategy, minInterval time.Duration) error

	// Unregister removes a strategy, stopping it when the engine is running.
	Unregister(name string) error

	// List returns the registered strategy names in registration order.
	List() []string

	// Start launches the consumer and the worker pool. Idempotent.
	Start(ctx context.Context) error

	// Stop halts dispatch. With wait it joins the consumer and drains the
	// pool. Idempotent.
	Stop(wait bool)

	// OnTick enqueues a tick without blocking. Returns false when the tick
	// was dropped.
	OnTick(tick types.Tick) bool

	// OnOrderUpdate hands a broker update to the portfolio for routing.
	OnOrderUpdate(ctx context.Context, update types.OrderUpdate)

	// Stats returns the engine counters.
	Stats() types.EngineStats
}
