// Package risk gates orders against per-strategy limits and owns the global
// kill switch.
package risk

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LossWindow is how long realized PnL accumulates before the daily total resets.
const LossWindow = 24 * time.Hour

// State is a read-only copy of a strategy's rolling loss state.
type State struct {
	RealizedToday float64   `json:"realized_today"`
	WindowStart   time.Time `json:"window_start"`
}

type strategyState struct {
	mu            sync.Mutex
	realizedToday float64
	windowStart   time.Time
}

// Engine holds per-strategy policies and rolling realized PnL.
type Engine struct {
	mu       sync.RWMutex
	policies map[string]types.RiskPolicy
	states   map[string]*strategyState

	kill       atomic.Bool
	killReason atomic.Value

	now func() time.Time
	log *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source for window resets.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine with no policies and the kill switch off.
func NewEngine(log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	e := &Engine{
		mu:         sync.RWMutex{},
		policies:   make(map[string]types.RiskPolicy),
		states:     make(map[string]*strategyState),
		kill:       atomic.Bool{},
		killReason: atomic.Value{},
		now:        time.Now,
		log:        log.Named("risk"),
	}
	e.killReason.Store("")

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SetPolicy installs the policy for a strategy.
func (e *Engine) SetPolicy(strategyName string, policy types.RiskPolicy) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.policies[strategyName] = policy
	if _, ok := e.states[strategyName]; !ok {
		e.states[strategyName] = e.newState()
	}
}

// Policy returns the installed policy, or false when the default applies.
func (e *Engine) Policy(strategyName string) (types.RiskPolicy, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.policies[strategyName]

	return p, ok
}

func (e *Engine) effectivePolicy(strategyName string) types.RiskPolicy {
	if p, ok := e.Policy(strategyName); ok {
		return p
	}

	return types.DefaultRiskPolicy()
}

// State returns a copy of the strategy's rolling loss state.
func (e *Engine) State(strategyName string) State {
	st := e.state(strategyName)

	st.mu.Lock()
	defer st.mu.Unlock()

	return State{RealizedToday: st.realizedToday, WindowStart: st.windowStart}
}

func (e *Engine) newState() *strategyState {
	return &strategyState{mu: sync.Mutex{}, realizedToday: 0, windowStart: e.now()}
}

func (e *Engine) state(strategyName string) *strategyState {
	e.mu.RLock()
	st, ok := e.states[strategyName]
	e.mu.RUnlock()

	if ok {
		return st
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if st, ok = e.states[strategyName]; !ok {
		st = e.newState()
		e.states[strategyName] = st
	}

	return st
}

// EnableKillSwitch blocks every order until disabled.
func (e *Engine) EnableKillSwitch(reason string) {
	e.killReason.Store(reason)
	e.kill.Store(true)
	e.log.Warn("kill switch enabled", zap.String("reason", reason))
}

// DisableKillSwitch lets orders through again.
func (e *Engine) DisableKillSwitch() {
	e.kill.Store(false)
	e.killReason.Store("")
	e.log.Info("kill switch disabled")
}

// KillSwitchActive reports the kill switch state.
func (e *Engine) KillSwitchActive() bool {
	return e.kill.Load()
}

// KillSwitchReason returns the reason given when the switch was engaged.
func (e *Engine) KillSwitchReason() string {
	reason, _ := e.killReason.Load().(string)

	return reason
}

// CheckOrder returns a *Violation when the order must not be sent.
// currentPosition is the strategy's signed net quantity before the order.
// Orders that name no strategy are only subject to the kill switch.
func (e *Engine) CheckOrder(order types.OrderRequest, currentPosition int64) error {
	if e.kill.Load() {
		return newKillSwitchViolation("global kill switch is on")
	}

	name := order.StrategyName()
	if name == "" {
		e.log.Debug("order has no strategy name, skipping checks", zap.String("symbol", order.Symbol))

		return nil
	}

	policy := e.effectivePolicy(name)

	qty := order.Quantity
	if qty == 0 {
		return newViolation("order quantity is zero")
	}

	if order.Side == types.SideSell && !policy.AllowShort {
		return newViolation("shorting is not allowed for strategy %s", name)
	}

	if abs(qty) > policy.MaxQtyPerOrder {
		return newViolation("order qty %d exceeds max per-order %d", qty, policy.MaxQtyPerOrder)
	}

	if notional, ok := order.Notional(); ok && notional.GreaterThan(decimal.NewFromFloat(policy.MaxNotional)) {
		return newViolation("order notional %s exceeds max %s", notional.String(), decimal.NewFromFloat(policy.MaxNotional).String())
	}

	prospective := currentPosition + order.SignedQuantity()
	if abs(prospective) > policy.MaxPositionQty {
		return newViolation("prospective position %d exceeds max position %d", prospective, policy.MaxPositionQty)
	}

	st := e.state(name)

	st.mu.Lock()
	e.maybeReset(st)
	realized := st.realizedToday
	st.mu.Unlock()

	if realized <= -math.Abs(policy.MaxDailyLoss) {
		return newViolation("strategy %s has already hit max daily loss %g", name, policy.MaxDailyLoss)
	}

	e.log.Debug("order passed risk checks", zap.String("strategy", name))

	return nil
}

// OnFill adds realizedDelta to the strategy's rolling total. A total at or
// below the negated max daily loss engages the kill switch.
func (e *Engine) OnFill(strategyName string, realizedDelta float64) {
	if strategyName == "" {
		e.log.Debug("fill has no strategy name, skipping risk update")

		return
	}

	policy := e.effectivePolicy(strategyName)
	st := e.state(strategyName)

	st.mu.Lock()
	e.maybeReset(st)
	st.realizedToday += realizedDelta
	total := st.realizedToday
	st.mu.Unlock()

	e.log.Debug("realized pnl updated",
		zap.String("strategy", strategyName),
		zap.Float64("realized_today", total),
	)

	if total <= -math.Abs(policy.MaxDailyLoss) {
		e.log.Warn("strategy exceeded max daily loss",
			zap.String("strategy", strategyName),
			zap.Float64("max_daily_loss", policy.MaxDailyLoss),
		)
		e.EnableKillSwitch("max daily loss exceeded by " + strategyName)
	}
}

// maybeReset must be called with st.mu held.
func (e *Engine) maybeReset(st *strategyState) {
	now := e.now()
	if now.Sub(st.windowStart) > LossWindow {
		st.realizedToday = 0
		st.windowStart = now
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
