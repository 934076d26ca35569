package strategies

import (
	"context"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/indicator"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/strategy"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"go.uber.org/zap"
)

const KindMomentum = "momentum"

// Signal is the last action a crossover strategy took.
type Signal string

const (
	SignalNone Signal = ""
	SignalLong Signal = "LONG"
	SignalExit Signal = "EXIT"
)

// stateLastSignal is the Context state key holding the last Signal.
const stateLastSignal = "last_signal"

// MomentumParams configures the moving-average crossover.
type MomentumParams struct {
	Short    int    `yaml:"short" validate:"gte=1" jsonschema:"title=Short Window,description=Ticks in the fast moving average,minimum=1,default=5"`
	Long     int    `yaml:"long" validate:"gtfield=Short" jsonschema:"title=Long Window,description=Ticks in the slow moving average,minimum=2,default=20"`
	Qty      int64  `yaml:"qty" validate:"gt=0" jsonschema:"title=Quantity,description=Order quantity,minimum=1,default=1"`
	Exchange string `yaml:"exchange" validate:"required" jsonschema:"title=Exchange,description=Exchange the orders are routed to,default=NSE"`
}

// DefaultMomentumParams returns 5/20 windows, quantity 1 on NSE.
func DefaultMomentumParams() MomentumParams {
	return MomentumParams{
		Short:    5,
		Long:     20,
		Qty:      1,
		Exchange: "NSE",
	}
}

// Momentum goes long when the short SMA is above the long SMA and exits when
// it falls back below.
type Momentum struct {
	*strategy.Base

	params MomentumParams
	// serializes the signal decision when ticks overlap on workers
	mu sync.Mutex
}

// NewMomentum creates a momentum strategy with explicit parameters.
func NewMomentum(meta types.StrategyMeta, params MomentumParams, cfg strategy.ContextConfig, policy optional.Option[types.RiskPolicy], log *logger.Logger) *Momentum {
	if cfg.WindowSize < params.Long+5 {
		cfg.WindowSize = params.Long + 5
	}

	return &Momentum{
		Base:   strategy.NewBase(meta, cfg, policy, log),
		params: params,
		mu:     sync.Mutex{},
	}
}

func newMomentumFactory(meta types.StrategyMeta, cfg strategy.ContextConfig, policy optional.Option[types.RiskPolicy], log *logger.Logger) (strategy.Strategy, error) {
	params := DefaultMomentumParams()
	if err := decodeParams(meta.Params, &params); err != nil {
		return nil, err
	}

	return NewMomentum(meta, params, cfg, policy, log), nil
}

// Params returns the decoded parameters.
func (m *Momentum) Params() MomentumParams {
	return m.params
}

// LastSignal returns the last action taken.
func (m *Momentum) LastSignal() Signal {
	v, ok := m.Context().State(stateLastSignal)
	if !ok {
		return SignalNone
	}

	signal, _ := v.(Signal)

	return signal
}

func (m *Momentum) OnTick(ctx context.Context, tick types.Tick, orders strategy.OrderPlacer) error {
	if !m.Observe(tick) {
		return nil
	}

	prices := m.Context().Prices(m.params.Long + 5)
	if len(prices) < m.params.Long {
		return nil
	}

	shortSMA, err := indicator.SMA(prices[len(prices)-m.params.Short:])
	if err != nil {
		return err
	}

	longSMA, err := indicator.SMA(prices[len(prices)-m.params.Long:])
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	last := m.LastSignal()
	price := prices[len(prices)-1]

	switch {
	case shortSMA > longSMA && last != SignalLong:
		m.Logger().Info("bullish crossover",
			zap.Float64("short_sma", shortSMA),
			zap.Float64("long_sma", longSMA),
			zap.Float64("price", price),
		)

		return m.submit(ctx, orders, types.SideBuy, price, SignalLong)
	case shortSMA < longSMA && last == SignalLong:
		m.Logger().Info("bearish crossover",
			zap.Float64("short_sma", shortSMA),
			zap.Float64("long_sma", longSMA),
			zap.Float64("price", price),
		)

		return m.submit(ctx, orders, types.SideSell, price, SignalExit)
	}

	return nil
}

// submit advances the signal before placing, so a rejected or failed order is
// not retried on every following tick.
func (m *Momentum) submit(ctx context.Context, orders strategy.OrderPlacer, side types.Side, price float64, signal Signal) error {
	m.Context().SetState(stateLastSignal, signal)

	resp, err := m.PlaceLimit(ctx, orders, side, price, m.params.Qty, m.params.Exchange)
	if err != nil {
		return err
	}

	if resp.Rejected {
		m.Logger().Warn("order rejected", zap.String("reason", resp.Reason))
	}

	return nil
}
