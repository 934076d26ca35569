package strategies

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/strategy"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"go.uber.org/zap"
)

const (
	KindBasic = "basic"

	DefaultBasicSymbol = "NSE|1594"
)

// BasicParams is empty; the basic strategy takes no parameters.
type BasicParams struct{}

// Basic logs the ticks it receives. Useful for checking a feed end to end.
type Basic struct {
	*strategy.Base
}

// NewBasic creates a basic strategy. An empty symbol defaults to NSE|1594.
func NewBasic(meta types.StrategyMeta, cfg strategy.ContextConfig, policy optional.Option[types.RiskPolicy], log *logger.Logger) *Basic {
	if meta.Symbol == "" {
		meta.Symbol = DefaultBasicSymbol
	}

	return &Basic{Base: strategy.NewBase(meta, cfg, policy, log)}
}

func newBasicFactory(meta types.StrategyMeta, cfg strategy.ContextConfig, policy optional.Option[types.RiskPolicy], log *logger.Logger) (strategy.Strategy, error) {
	return NewBasic(meta, cfg, policy, log), nil
}

func (b *Basic) OnTick(_ context.Context, tick types.Tick, _ strategy.OrderPlacer) error {
	if !b.Observe(tick) {
		return nil
	}

	b.Logger().Info("tick received",
		zap.String("symbol", tick.Symbol),
		zap.Float64("last_price", tick.LastPrice),
		zap.Time("timestamp", tick.Timestamp),
	)

	return nil
}
