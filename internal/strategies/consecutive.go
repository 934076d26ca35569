package strategies

import (
	"context"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/strategy"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"go.uber.org/zap"
)

const KindConsecutive = "consecutive"

// ConsecutiveParams configures the run length that triggers an order.
type ConsecutiveParams struct {
	Count    int    `yaml:"count" validate:"gte=1" jsonschema:"title=Count,description=Consecutive price moves in one direction before trading,minimum=1,default=2"`
	Qty      int64  `yaml:"qty" validate:"gt=0" jsonschema:"title=Quantity,description=Order quantity,minimum=1,default=1"`
	Exchange string `yaml:"exchange" validate:"required" jsonschema:"title=Exchange,description=Exchange the orders are routed to,default=NSE"`
}

// DefaultConsecutiveParams returns two moves, quantity 1 on NSE.
func DefaultConsecutiveParams() ConsecutiveParams {
	return ConsecutiveParams{
		Count:    2,
		Qty:      1,
		Exchange: "NSE",
	}
}

// Consecutive buys after Count rising ticks and sells after Count falling
// ticks. A run triggers once; the next order needs a fresh run.
type Consecutive struct {
	*strategy.Base

	params ConsecutiveParams
	mu     sync.Mutex
	// ticks seen since the last signal, the signal tick included
	consumed int
}

// NewConsecutive creates a consecutive-move strategy with explicit parameters.
func NewConsecutive(meta types.StrategyMeta, params ConsecutiveParams, cfg strategy.ContextConfig, policy optional.Option[types.RiskPolicy], log *logger.Logger) *Consecutive {
	if cfg.WindowSize < params.Count+1 {
		cfg.WindowSize = params.Count + 1
	}

	return &Consecutive{
		Base:     strategy.NewBase(meta, cfg, policy, log),
		params:   params,
		mu:       sync.Mutex{},
		consumed: 0,
	}
}

func newConsecutiveFactory(meta types.StrategyMeta, cfg strategy.ContextConfig, policy optional.Option[types.RiskPolicy], log *logger.Logger) (strategy.Strategy, error) {
	params := DefaultConsecutiveParams()
	if err := decodeParams(meta.Params, &params); err != nil {
		return nil, err
	}

	return NewConsecutive(meta, params, cfg, policy, log), nil
}

// Params returns the decoded parameters.
func (c *Consecutive) Params() ConsecutiveParams {
	return c.params
}

func (c *Consecutive) OnTick(ctx context.Context, tick types.Tick, orders strategy.OrderPlacer) error {
	if !c.Observe(tick) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.consumed++
	if c.consumed <= c.params.Count {
		return nil
	}

	prices := c.Context().Prices(c.params.Count + 1)

	var side types.Side

	switch direction(prices) {
	case 1:
		side = types.SideBuy
	case -1:
		side = types.SideSell
	default:
		return nil
	}

	// the next run starts at this tick
	c.consumed = 1
	price := prices[len(prices)-1]

	c.Logger().Info("consecutive moves",
		zap.String("side", string(side)),
		zap.Int("count", c.params.Count),
		zap.Float64("price", price),
	)

	resp, err := c.PlaceLimit(ctx, orders, side, price, c.params.Qty, c.params.Exchange)
	if err != nil {
		return err
	}

	if resp.Rejected {
		c.Logger().Warn("order rejected", zap.String("reason", resp.Reason))
	}

	return nil
}

// direction returns 1 when prices strictly rise, -1 when they strictly fall
// and 0 otherwise.
func direction(prices []float64) int {
	if len(prices) < 2 {
		return 0
	}

	up, down := true, true

	for i := 1; i < len(prices); i++ {
		if prices[i] <= prices[i-1] {
			up = false
		}

		if prices[i] >= prices[i-1] {
			down = false
		}
	}

	switch {
	case up:
		return 1
	case down:
		return -1
	default:
		return 0
	}
}
