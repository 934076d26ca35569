package strategy

import (
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/indicator"
	"github.com/rxtech-lab/argo-runtime/internal/performance"
	"github.com/rxtech-lab/argo-runtime/internal/pnl"
	"github.com/rxtech-lab/argo-runtime/internal/types"
)

const DefaultWindowSize = 200

// ContextConfig sizes the per-strategy state.
type ContextConfig struct {
	WindowSize     int
	StartingEquity float64
	SampleMode     performance.SampleMode
	SampleInterval time.Duration
	RecordTrades   bool
}

// DefaultContextConfig returns a 200-tick window, no starting equity, fill sampling
// and the trade ledger enabled.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		WindowSize:     DefaultWindowSize,
		StartingEquity: 0,
		SampleMode:     performance.SampleModeFills,
		SampleInterval: performance.DefaultSampleInterval,
		RecordTrades:   true,
	}
}

// Context is the mutable state owned by exactly one strategy: recent ticks,
// the position ledger, the equity sampler and a free-form state bag.
type Context struct {
	meta types.StrategyMeta

	mu       sync.Mutex
	window   *RollingWindow[types.Tick]
	lastTick optional.Option[types.Tick]
	state    map[string]any

	startingEquity float64
	pnl            *pnl.Engine
	performance    *performance.Sampler
}

// NewContext creates the state for a strategy.
func NewContext(meta types.StrategyMeta, cfg ContextConfig) *Context {
	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	interval := cfg.SampleInterval
	if interval <= 0 {
		interval = performance.DefaultSampleInterval
	}

	mode := cfg.SampleMode
	if mode == "" {
		mode = performance.SampleModeFills
	}

	var pnlOpts []pnl.Option
	if cfg.RecordTrades {
		pnlOpts = append(pnlOpts, pnl.WithTradeLedger())
	}

	return &Context{
		meta:           meta,
		mu:             sync.Mutex{},
		window:         NewRollingWindow[types.Tick](windowSize),
		lastTick:       optional.None[types.Tick](),
		state:          make(map[string]any),
		startingEquity: cfg.StartingEquity,
		pnl:            pnl.NewEngine(pnlOpts...),
		performance: performance.NewSampler(cfg.StartingEquity,
			performance.WithMode(mode),
			performance.WithInterval(interval),
		),
	}
}

// Meta returns the owning strategy's metadata.
func (c *Context) Meta() types.StrategyMeta {
	return c.meta
}

// Symbol returns the instrument the strategy trades.
func (c *Context) Symbol() string {
	return c.meta.Symbol
}

// PnL exposes the position ledger.
func (c *Context) PnL() *pnl.Engine {
	return c.pnl
}

// Performance exposes the equity sampler.
func (c *Context) Performance() *performance.Sampler {
	return c.performance
}

// AppendTick pushes a tick into the window.
func (c *Context) AppendTick(tick types.Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.window.Append(tick)
	c.lastTick = optional.Some(tick)
}

// LastTick returns the most recent tick, if any.
func (c *Context) LastTick() (types.Tick, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tick, err := c.lastTick.Take()

	return tick, err == nil
}

// Prices returns up to n most recent last prices, oldest first.
// n <= 0 returns the whole window.
func (c *Context) Prices(n int) []float64 {
	ticks := c.ticks(n)

	out := make([]float64, len(ticks))
	for i, t := range ticks {
		out[i] = t.LastPrice
	}

	return out
}

// Bars returns price/volume pairs for the window, reading volume from the
// raw "v" or "volume" field.
func (c *Context) Bars(n int) []indicator.Bar {
	ticks := c.ticks(n)

	out := make([]indicator.Bar, len(ticks))
	for i, t := range ticks {
		out[i] = indicator.Bar{Price: t.LastPrice, Volume: rawVolume(t.Raw)}
	}

	return out
}

func (c *Context) ticks(n int) []types.Tick {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 {
		return c.window.All()
	}

	return c.window.Last(n)
}

// SetState stores an arbitrary value for the strategy.
func (c *Context) SetState(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state[key] = value
}

// State reads a value stored with SetState.
func (c *Context) State(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.state[key]

	return v, ok
}

// Equity is starting equity plus realized and unrealized PnL.
func (c *Context) Equity() float64 {
	snap := c.pnl.Snapshot()

	return c.startingEquity + snap.Realized + snap.Unrealized
}

// UpdateFromOrder applies a broker fill to the ledger and offers an equity
// sample. Updates without a recognizable side, a positive quantity or a price
// are ignored. Returns the realized PnL the fill produced.
func (c *Context) UpdateFromOrder(update types.OrderUpdate) (float64, bool) {
	side, ok := update.Side()
	if !ok {
		return 0, false
	}

	qty := update.Quantity()
	if qty <= 0 {
		return 0, false
	}

	price, ok := update.Price()
	if !ok {
		return 0, false
	}

	delta, after := c.pnl.ApplyFillDelta(side, price, qty)

	c.performance.Record(c.startingEquity+after.Realized+after.Unrealized, after.Qty != 0)

	return delta, true
}

// UpdateUnrealized marks the position to marketPrice and offers an equity sample.
func (c *Context) UpdateUnrealized(marketPrice float64) {
	snap := c.pnl.MarkUnrealizedSnapshot(marketPrice)

	c.performance.Record(c.startingEquity+snap.Realized+snap.Unrealized, snap.Qty != 0)
}

// MarkToMarket marks the position to a tick price. Equity is only sampled
// when the sampler is not fill-driven.
func (c *Context) MarkToMarket(price float64) {
	if c.performance.Mode() != performance.SampleModeFills {
		c.UpdateUnrealized(price)

		return
	}

	c.pnl.MarkUnrealized(price)
}

// PerformanceReport combines the equity statistics with ledger trade stats.
func (c *Context) PerformanceReport(annualization optional.Option[float64]) types.StrategyReport {
	return types.StrategyReport{
		Name:        c.meta.Name,
		Symbol:      c.meta.Symbol,
		Position:    c.pnl.Snapshot(),
		Performance: c.performance.Report(annualization),
		TradeStats:  ComputeTradeStats(c.pnl.Trades()),
		EquityCurve: c.performance.EquityCurve(),
	}
}

// ComputeTradeStats derives win/loss statistics from closing ledger entries.
// Break-even closes count as losses.
func ComputeTradeStats(trades []types.TradeRecord) types.TradeStats {
	stats := types.TradeStats{
		TradeCount:   len(trades),
		ClosedTrades: 0,
		Wins:         0,
		Losses:       0,
		WinRate:      0,
		AvgWin:       0,
		AvgLoss:      0,
		Expectancy:   0,
	}

	var sumWin, sumLoss float64

	for _, t := range trades {
		if !t.IsClose() {
			continue
		}

		if t.PnL > 0 {
			stats.Wins++
			sumWin += t.PnL
		} else {
			stats.Losses++
			sumLoss += t.PnL
		}
	}

	stats.ClosedTrades = stats.Wins + stats.Losses
	if stats.ClosedTrades == 0 {
		return stats
	}

	if stats.Wins > 0 {
		stats.AvgWin = sumWin / float64(stats.Wins)
	}

	if stats.Losses > 0 {
		stats.AvgLoss = sumLoss / float64(stats.Losses)
	}

	stats.WinRate = float64(stats.Wins) / float64(stats.ClosedTrades)
	stats.Expectancy = stats.WinRate*stats.AvgWin + (1-stats.WinRate)*stats.AvgLoss

	return stats
}

func rawVolume(raw map[string]any) float64 {
	for _, key := range []string{"v", "volume"} {
		if f, ok := types.OrderUpdate(raw).Float(key); ok {
			return f
		}
	}

	return 0
}
