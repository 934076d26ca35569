// Package strategy defines the contract between the dispatch engine and a
// trading strategy, plus the per-strategy Context it trades against.
package strategy

import (
	"context"
	"sync/atomic"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"go.uber.org/zap"
)

// OrderPlacer is how a strategy submits orders. The engine hands each strategy
// a placer bound to its name and current position.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResponse, error)
}

// Strategy is a user trading algorithm driven by the dispatch engine.
type Strategy interface {
	// Name is the unique registration key.
	Name() string
	// Context returns the strategy's private state.
	Context() *Context
	// RiskPolicy is the policy to install when the strategy is registered.
	RiskPolicy() optional.Option[types.RiskPolicy]
	Start(ctx context.Context, orders OrderPlacer) error
	Stop(ctx context.Context, orders OrderPlacer) error
	// OnTick runs on a worker goroutine. Ticks for every symbol are delivered.
	OnTick(ctx context.Context, tick types.Tick, orders OrderPlacer) error
	// OnOrderUpdate applies a fill and returns the realized PnL it produced.
	OnOrderUpdate(ctx context.Context, update types.OrderUpdate) (float64, error)
}

// Base implements the bookkeeping parts of Strategy. Embed it and override
// OnTick.
type Base struct {
	ctx     *Context
	policy  optional.Option[types.RiskPolicy]
	running atomic.Bool
	log     *logger.Logger
}

// NewBase creates the embedded state for a strategy.
func NewBase(meta types.StrategyMeta, cfg ContextConfig, policy optional.Option[types.RiskPolicy], log *logger.Logger) *Base {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Base{
		ctx:     NewContext(meta, cfg),
		policy:  policy,
		running: atomic.Bool{},
		log:     log.Named(meta.Name),
	}
}

func (b *Base) Name() string {
	return b.ctx.meta.Name
}

func (b *Base) Context() *Context {
	return b.ctx
}

func (b *Base) RiskPolicy() optional.Option[types.RiskPolicy] {
	return b.policy
}

// Logger returns the strategy-scoped logger.
func (b *Base) Logger() *logger.Logger {
	return b.log
}

// Running reports whether Start has been called without a matching Stop.
func (b *Base) Running() bool {
	return b.running.Load()
}

func (b *Base) Start(_ context.Context, _ OrderPlacer) error {
	b.running.Store(true)
	b.log.Info("strategy started", zap.String("symbol", b.ctx.Symbol()))

	return nil
}

func (b *Base) Stop(_ context.Context, _ OrderPlacer) error {
	b.running.Store(false)
	b.log.Info("strategy stopped")

	return nil
}

// OnTick records the tick when it belongs to the strategy's symbol.
func (b *Base) OnTick(_ context.Context, tick types.Tick, _ OrderPlacer) error {
	b.Observe(tick)

	return nil
}

// Observe appends a tick for the strategy's own symbol and marks the open
// position to its price. Returns false for other symbols.
func (b *Base) Observe(tick types.Tick) bool {
	if symbol := b.ctx.Symbol(); symbol != "" && tick.Symbol != symbol {
		return false
	}

	b.ctx.AppendTick(tick)
	b.ctx.MarkToMarket(tick.LastPrice)

	return true
}

// OnOrderUpdate applies fills for the strategy's symbol. Updates that name a
// different symbol or cannot be parsed are ignored.
func (b *Base) OnOrderUpdate(_ context.Context, update types.OrderUpdate) (float64, error) {
	if symbol := update.Symbol(); symbol != "" && b.ctx.Symbol() != "" && symbol != b.ctx.Symbol() {
		return 0, nil
	}

	delta, ok := b.ctx.UpdateFromOrder(update)
	if !ok {
		b.log.Debug("ignoring malformed order update", zap.Any("update", map[string]any(update)))

		return 0, nil
	}

	b.log.Debug("fill applied",
		zap.String("order_id", update.OrderID()),
		zap.Float64("realized_delta", delta),
	)

	return delta, nil
}

// PlaceLimit submits a cash-product limit order for the strategy's symbol,
// tagged with the strategy name.
func (b *Base) PlaceLimit(ctx context.Context, orders OrderPlacer, side types.Side, price float64, qty int64, exchange string) (types.OrderResponse, error) {
	req := types.OrderRequest{
		OrderID:      "",
		Side:         side,
		ProductType:  types.DefaultProductType,
		Exchange:     exchange,
		Symbol:       b.ctx.Symbol(),
		Quantity:     qty,
		PriceType:    types.PriceTypeLimit,
		Price:        optional.Some(price),
		TriggerPrice: optional.None[float64](),
		Retention:    types.DefaultRetention,
		Remarks:      "",
		Meta:         map[string]string{types.MetaStrategyName: b.Name()},
	}

	return orders.PlaceOrder(ctx, req)
}
