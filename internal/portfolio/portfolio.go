// Package portfolio aggregates positions and PnL across registered
// strategies and routes broker order updates to the strategy that owns them.
package portfolio

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/journal"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/strategy"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultStartingEquity = 100000.0

const remarksStrategyToken = "strategy="

// Routing is the outcome of one order update. Deltas holds the realized PnL
// produced in each strategy that applied the update.
type Routing struct {
	Strategy  string
	Broadcast bool
	Deltas    map[string]float64
}

// Option configures a Portfolio.
type Option func(*Portfolio)

// WithStartingEquity sets the equity baseline.
func WithStartingEquity(equity float64) Option {
	return func(p *Portfolio) {
		p.startingEquity = equity
	}
}

// WithRecorder journals every equity point.
func WithRecorder(recorder journal.Recorder) Option {
	return func(p *Portfolio) {
		p.recorder = recorder
	}
}

// WithClock overrides the equity point timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Portfolio) {
		p.now = now
	}
}

// Portfolio is the registry of live strategies plus the portfolio equity curve.
type Portfolio struct {
	mu             sync.RWMutex
	strategies     map[string]strategy.Strategy
	order          []string
	startingEquity float64
	curve          []types.EquityPoint
	recorder       journal.Recorder
	now            func() time.Time
	log            *logger.Logger
}

// New creates a portfolio whose curve starts with one point at the starting
// equity.
func New(log *logger.Logger, opts ...Option) *Portfolio {
	if log == nil {
		log = logger.NewNopLogger()
	}

	p := &Portfolio{
		mu:             sync.RWMutex{},
		strategies:     make(map[string]strategy.Strategy),
		order:          make([]string, 0),
		startingEquity: DefaultStartingEquity,
		curve:          make([]types.EquityPoint, 0),
		recorder:       nil,
		now:            time.Now,
		log:            log.Named("portfolio"),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.recordEquity(context.Background(), p.startingEquity)

	return p
}

// StartingEquity returns the configured baseline.
func (p *Portfolio) StartingEquity() float64 {
	return p.startingEquity
}

// Add registers a strategy. Names must be unique.
func (p *Portfolio) Add(s strategy.Strategy) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := s.Name()
	if _, exists := p.strategies[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %q already registered in portfolio", name)
	}

	p.strategies[name] = s
	p.order = append(p.order, name)
	p.log.Info("strategy added", zap.String("strategy", name))

	return nil
}

// Remove drops a strategy. Unknown names are ignored.
func (p *Portfolio) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.strategies[name]; !exists {
		return
	}

	delete(p.strategies, name)

	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)

			break
		}
	}

	p.log.Info("strategy removed", zap.String("strategy", name))
}

// Get looks up a strategy by name.
func (p *Portfolio) Get(name string) (strategy.Strategy, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.strategies[name]

	return s, ok
}

// List returns the strategy names in registration order.
func (p *Portfolio) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.order))
	copy(out, p.order)

	return out
}

// ResolveStrategyName finds the owning strategy of an update: meta
// strategy_name, then meta strategy, then the token after "strategy=" in
// remarks or note. Returns "" when nothing matches.
func ResolveStrategyName(update types.OrderUpdate) string {
	if meta := update.Meta(); meta != nil {
		if name := meta[types.MetaStrategyName]; name != "" {
			return name
		}

		if name := meta[types.MetaStrategy]; name != "" {
			return name
		}
	}

	remarks := update.Remarks()

	idx := strings.Index(remarks, remarksStrategyToken)
	if idx < 0 {
		return ""
	}

	fields := strings.Fields(remarks[idx+len(remarksStrategyToken):])
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// OnOrderUpdate routes an update to its owning strategy, or to every strategy
// when the owner is unknown, then records a new equity point. In a broadcast
// only strategies trading the update's symbol count as having applied it.
func (p *Portfolio) OnOrderUpdate(ctx context.Context, update types.OrderUpdate) Routing {
	routing := Routing{Strategy: "", Broadcast: false, Deltas: make(map[string]float64)}

	name := ResolveStrategyName(update)

	p.mu.RLock()
	target, routed := p.strategies[name]
	targets := p.snapshotStrategies()
	p.mu.RUnlock()

	if routed {
		routing.Strategy = name

		delta, err := p.deliver(ctx, target, update)
		if err != nil {
			// the update was not applied, so the curve is left as is
			return routing
		}

		routing.Deltas[name] = delta
	} else {
		routing.Broadcast = true
		symbol := update.Symbol()

		for _, s := range targets {
			delta, err := p.deliver(ctx, s, update)
			if err != nil {
				continue
			}

			if symbol == "" || s.Context().Symbol() == "" || s.Context().Symbol() == symbol {
				routing.Deltas[s.Name()] = delta
			}
		}
	}

	p.recordEquity(ctx, p.totalEquity())

	return routing
}

func (p *Portfolio) deliver(ctx context.Context, s strategy.Strategy, update types.OrderUpdate) (delta float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrCodeStrategyRuntimeError, "panic: %v", r)
			p.log.Error("strategy panicked on order update", zap.String("strategy", s.Name()), zap.Any("panic", r))
		}
	}()

	delta, err = s.OnOrderUpdate(ctx, update)
	if err != nil {
		p.log.Error("error routing order update", zap.String("strategy", s.Name()), zap.Error(err))
	}

	return delta, err
}

// Snapshot returns the current cross-strategy rollup.
func (p *Portfolio) Snapshot() types.PortfolioSnapshot {
	p.mu.RLock()
	names := make([]string, len(p.order))
	copy(names, p.order)
	targets := p.snapshotStrategies()
	lastEquity := p.lastEquity()
	curveLen := len(p.curve)
	p.mu.RUnlock()

	realized, unrealized := totals(targets)

	return types.PortfolioSnapshot{
		Strategies:        names,
		PositionsBySymbol: aggregatePositions(targets),
		TotalRealized:     realized,
		TotalUnrealized:   unrealized,
		LastEquity:        lastEquity,
		EquityCurveLen:    curveLen,
	}
}

// PerformanceReport returns the rollup plus the full equity curve.
func (p *Portfolio) PerformanceReport() types.PortfolioReport {
	p.mu.RLock()
	targets := p.snapshotStrategies()
	lastEquity := p.lastEquity()
	curve := make([]types.EquityPoint, len(p.curve))
	copy(curve, p.curve)
	p.mu.RUnlock()

	realized, unrealized := totals(targets)

	return types.PortfolioReport{
		LastEquity:  lastEquity,
		Positions:   aggregatePositions(targets),
		Realized:    realized,
		Unrealized:  unrealized,
		EquityCurve: curve,
	}
}

// EquityCurve returns a copy of the portfolio curve.
func (p *Portfolio) EquityCurve() []types.EquityPoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]types.EquityPoint, len(p.curve))
	copy(out, p.curve)

	return out
}

// WriteReport writes PerformanceReport to a YAML file.
func (p *Portfolio) WriteReport(path string) error {
	if path == "" {
		return errors.New(errors.ErrCodeMissingParameter, "report path is empty")
	}

	return types.WriteReport(path, p.PerformanceReport())
}

func (p *Portfolio) totalEquity() float64 {
	p.mu.RLock()
	targets := p.snapshotStrategies()
	p.mu.RUnlock()

	realized, unrealized := totals(targets)

	return p.startingEquity + realized + unrealized
}

func (p *Portfolio) recordEquity(ctx context.Context, equity float64) {
	point := types.EquityPoint{Timestamp: p.now(), Equity: equity}

	p.mu.Lock()
	p.curve = append(p.curve, point)
	p.mu.Unlock()

	if p.recorder == nil {
		return
	}

	if err := p.recorder.RecordEquity(ctx, journal.ScopePortfolio, point); err != nil {
		p.log.Warn("failed to journal equity point", zap.Error(err))
	}
}

// lastEquity must be called with mu held.
func (p *Portfolio) lastEquity() float64 {
	if len(p.curve) == 0 {
		return p.startingEquity
	}

	return p.curve[len(p.curve)-1].Equity
}

// snapshotStrategies must be called with mu held.
func (p *Portfolio) snapshotStrategies() []strategy.Strategy {
	out := make([]strategy.Strategy, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.strategies[name])
	}

	return out
}

func totals(strategies []strategy.Strategy) (float64, float64) {
	var realized, unrealized float64

	for _, s := range strategies {
		snap := s.Context().PnL().Snapshot()
		realized += snap.Realized
		unrealized += snap.Unrealized
	}

	return realized, unrealized
}

// aggregatePositions sums per-strategy ledgers by symbol. The symbol average
// price is notional / qty, 0 when flat.
func aggregatePositions(strategies []strategy.Strategy) map[string]types.SymbolPosition {
	notional := make(map[string]decimal.Decimal)
	out := make(map[string]types.SymbolPosition)

	for _, s := range strategies {
		symbol := s.Context().Symbol()
		if symbol == "" {
			continue
		}

		snap := s.Context().PnL().Snapshot()

		pos, ok := out[symbol]
		if !ok {
			pos = types.SymbolPosition{Qty: 0, Notional: 0, AvgPrice: 0, Strategies: make(map[string]types.StrategyPosition)}
			notional[symbol] = decimal.Zero
		}

		pos.Strategies[s.Name()] = types.StrategyPosition{Qty: snap.Qty, AvgPrice: snap.AvgPrice}
		pos.Qty += snap.Qty
		notional[symbol] = notional[symbol].Add(decimal.NewFromInt(snap.Qty).Mul(decimal.NewFromFloat(snap.AvgPrice)))
		out[symbol] = pos
	}

	for symbol, pos := range out {
		pos.Notional = notional[symbol].InexactFloat64()

		if pos.Qty != 0 {
			pos.AvgPrice = notional[symbol].Div(decimal.NewFromInt(pos.Qty)).InexactFloat64()
		}

		out[symbol] = pos
	}

	return out
}
