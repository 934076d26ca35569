package engine_v1

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/engine"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/order"
	"github.com/rxtech-lab/argo-runtime/internal/portfolio"
	"github.com/rxtech-lab/argo-runtime/internal/strategy"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const stopJoinTimeout = 5 * time.Second

var _ engine.DispatchEngine = (*DispatchEngineV1)(nil)

// registration wraps a strategy with its throttle and its bound order placer.
type registration struct {
	strategy    strategy.Strategy
	minInterval time.Duration
	placer      *boundPlacer

	mu      sync.Mutex
	lastRun time.Time
}

// tryMark reports whether the strategy may run at now and, if so, records
// the run before the job is submitted.
func (r *registration) tryMark(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastRun.IsZero() && now.Sub(r.lastRun) < r.minInterval {
		return false
	}

	r.lastRun = now

	return true
}

// boundPlacer submits orders on behalf of one strategy, tagging them with its
// name and its current position.
type boundPlacer struct {
	orders   *order.Manager
	strategy strategy.Strategy
}

func (p *boundPlacer) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResponse, error) {
	if p.orders == nil {
		return types.OrderResponse{}, errors.New(errors.ErrCodeEngineNotRunning, "no order manager attached")
	}

	var position int64
	if sc := p.strategy.Context(); sc != nil {
		position = sc.PnL().Snapshot().Qty
	}

	return p.orders.PlaceOrder(ctx, req,
		order.WithStrategyName(p.strategy.Name()),
		order.WithCurrentPosition(position),
	)
}

type job struct {
	reg  *registration
	tick types.Tick
}

type counters struct {
	received  atomic.Uint64
	dropped   atomic.Uint64
	throttled atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
}

// Option configures a DispatchEngineV1.
type Option func(*DispatchEngineV1)

// WithPortfolio attaches the aggregator that receives order updates and
// tracks registered strategies.
func WithPortfolio(p *portfolio.Portfolio) Option {
	return func(e *DispatchEngineV1) {
		e.portfolio = p
	}
}

// WithCallbacks installs engine observers.
func WithCallbacks(callbacks engine.Callbacks) Option {
	return func(e *DispatchEngineV1) {
		e.callbacks = callbacks
	}
}

// WithClock overrides the time source of the throttle.
func WithClock(now func() time.Time) Option {
	return func(e *DispatchEngineV1) {
		e.now = now
	}
}

// DispatchEngineV1 is a queue-fed, pool-executed DispatchEngine.
type DispatchEngineV1 struct {
	config    engine.Config
	orders    *order.Manager
	portfolio *portfolio.Portfolio
	callbacks engine.Callbacks
	now       func() time.Time
	log       *logger.Logger

	mu         sync.RWMutex
	strategies map[string]*registration
	names      []string

	// lifecycle serializes Start and Stop.
	lifecycle    sync.Mutex
	running      atomic.Bool
	stopped      atomic.Bool
	queue        chan types.Tick
	jobs         chan job
	stopCh       chan struct{}
	consumerDone chan struct{}
	group        *errgroup.Group
	runCtx       context.Context
	cancel       context.CancelFunc

	stats counters
}

// NewDispatchEngineV1 creates a stopped engine. Zero config values fall back
// to the defaults.
func NewDispatchEngineV1(config engine.Config, orders *order.Manager, log *logger.Logger, opts ...Option) *DispatchEngineV1 {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if config.Workers <= 0 {
		config.Workers = engine.DefaultWorkers
	}

	if config.QueueSize <= 0 {
		config.QueueSize = engine.DefaultQueueSize
	}

	e := &DispatchEngineV1{
		config:       config,
		orders:       orders,
		portfolio:    nil,
		callbacks:    engine.Callbacks{OnStrategyError: nil, OnTickDropped: nil, OnStatusUpdate: nil},
		now:          time.Now,
		log:          log.Named("engine"),
		mu:           sync.RWMutex{},
		strategies:   make(map[string]*registration),
		names:        make([]string, 0),
		lifecycle:    sync.Mutex{},
		running:      atomic.Bool{},
		stopped:      atomic.Bool{},
		queue:        make(chan types.Tick, config.QueueSize),
		jobs:         nil,
		stopCh:       nil,
		consumerDone: nil,
		group:        nil,
		runCtx:       context.Background(),
		cancel:       nil,
		stats:        counters{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Portfolio returns the attached aggregator, or nil.
func (e *DispatchEngineV1) Portfolio() *portfolio.Portfolio {
	return e.portfolio
}

// Strategy looks up a registered strategy.
func (e *DispatchEngineV1) Strategy(name string) (strategy.Strategy, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	reg, ok := e.strategies[name]
	if !ok {
		return nil, false
	}

	return reg.strategy, true
}

func (e *DispatchEngineV1) Register(s strategy.Strategy, minInterval time.Duration) error {
	name := s.Name()

	e.mu.Lock()
	if _, exists := e.strategies[name]; exists {
		e.mu.Unlock()

		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %q already registered", name)
	}

	if e.portfolio != nil {
		if err := e.portfolio.Add(s); err != nil {
			e.mu.Unlock()

			return err
		}
	}

	reg := &registration{
		strategy:    s,
		minInterval: minInterval,
		placer:      &boundPlacer{orders: e.orders, strategy: s},
		mu:          sync.Mutex{},
		lastRun:     time.Time{},
	}
	e.strategies[name] = reg
	e.names = append(e.names, name)
	e.mu.Unlock()

	e.log.Info("strategy registered", zap.String("strategy", name), zap.Duration("min_interval", minInterval))

	if policy, err := s.RiskPolicy().Take(); err == nil && e.orders != nil {
		if err := e.orders.SetRiskPolicy(name, policy); err != nil {
			e.log.Error("failed to apply risk policy", zap.String("strategy", name), zap.Error(err))
		}
	}

	e.lifecycle.Lock()
	if e.running.Load() {
		e.startStrategy(e.runCtx, reg)
	}
	e.lifecycle.Unlock()

	return nil
}

func (e *DispatchEngineV1) Unregister(name string) error {
	e.mu.Lock()
	reg, ok := e.strategies[name]
	if !ok {
		e.mu.Unlock()

		return errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q is not registered", name)
	}

	delete(e.strategies, name)

	for i, n := range e.names {
		if n == name {
			e.names = append(e.names[:i], e.names[i+1:]...)

			break
		}
	}
	e.mu.Unlock()

	if e.portfolio != nil {
		e.portfolio.Remove(name)
	}

	e.lifecycle.Lock()
	if e.running.Load() {
		e.stopStrategy(e.runCtx, reg)
	}
	e.lifecycle.Unlock()

	e.log.Info("strategy unregistered", zap.String("strategy", name))

	return nil
}

func (e *DispatchEngineV1) List() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]string, len(e.names))
	copy(out, e.names)

	return out
}

func (e *DispatchEngineV1) Start(ctx context.Context) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.running.Load() {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	e.runCtx = runCtx
	e.cancel = cancel
	e.group = group
	e.jobs = make(chan job, e.config.QueueSize)
	e.stopCh = make(chan struct{})
	e.consumerDone = make(chan struct{})

	jobs := e.jobs
	for i := 0; i < e.config.Workers; i++ {
		group.Go(func() error {
			e.worker(groupCtx, jobs)

			return nil
		})
	}

	e.stopped.Store(false)
	e.running.Store(true)

	e.log.Info("engine starting", zap.Int("strategies", len(e.List())), zap.Int("workers", e.config.Workers))

	for _, reg := range e.registrations() {
		e.startStrategy(runCtx, reg)
	}

	go e.consume(e.stopCh, e.jobs, e.consumerDone)

	e.notifyStatus(types.EngineStatusRunning)

	return nil
}

func (e *DispatchEngineV1) Stop(wait bool) {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if !e.running.Load() {
		return
	}

	e.log.Info("engine stopping")
	e.stopped.Store(true)
	e.running.Store(false)
	close(e.stopCh)

	for _, reg := range e.registrations() {
		e.stopStrategy(e.runCtx, reg)
	}

	// a consumer left running would read ticks meant for the next run
	select {
	case <-e.consumerDone:
	case <-time.After(stopJoinTimeout):
		e.log.Warn("engine consumer did not stop in time")
	}

	if !wait {
		// queued jobs are abandoned; workers exit once they see the closed jobs channel
		e.cancel()
		e.notifyStatus(types.EngineStatusStopped)

		return
	}

	if err := e.group.Wait(); err != nil {
		e.log.Error("worker pool exited with error", zap.Error(err))
	}

	e.cancel()
	e.log.Info("engine stopped")
	e.notifyStatus(types.EngineStatusStopped)
}

func (e *DispatchEngineV1) OnTick(tick types.Tick) bool {
	if e.stopped.Load() {
		e.drop(tick, errors.New(errors.ErrCodeEngineStopped, "engine stopped"))

		return false
	}

	select {
	case e.queue <- tick:
		e.stats.received.Add(1)

		return true
	default:
		e.log.Warn("tick queue full; dropping tick", zap.String("symbol", tick.Symbol))
		e.drop(tick, errors.New(errors.ErrCodeQueueFull, "queue full"))

		return false
	}
}

func (e *DispatchEngineV1) OnOrderUpdate(ctx context.Context, update types.OrderUpdate) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("portfolio update failed", zap.Any("panic", r))
		}
	}()

	if e.portfolio == nil {
		e.log.Warn("received order update but no portfolio is attached")

		return
	}

	routing := e.portfolio.OnOrderUpdate(ctx, update)
	if e.orders == nil {
		return
	}

	for name, delta := range routing.Deltas {
		e.orders.NotifyFill(ctx, name, update, delta)
	}
}

func (e *DispatchEngineV1) Stats() types.EngineStats {
	status := types.EngineStatusStopped
	if e.running.Load() {
		status = types.EngineStatusRunning
	}

	return types.EngineStats{
		Status:     status,
		Strategies: len(e.List()),
		QueueLen:   len(e.queue),
		Received:   e.stats.received.Load(),
		Dropped:    e.stats.dropped.Load(),
		Throttled:  e.stats.throttled.Load(),
		Executed:   e.stats.executed.Load(),
		Failed:     e.stats.failed.Load(),
	}
}

// consume moves ticks from the queue into the pool until stop is closed.
// It owns the jobs channel and closes it on exit.
func (e *DispatchEngineV1) consume(stop <-chan struct{}, jobs chan<- job, done chan<- struct{}) {
	defer close(done)
	defer close(jobs)

	for {
		select {
		case <-stop:
			return
		case tick := <-e.queue:
			e.dispatch(tick, jobs)
		}
	}
}

func (e *DispatchEngineV1) dispatch(tick types.Tick, jobs chan<- job) {
	now := e.now()

	for _, reg := range e.registrations() {
		if !reg.tryMark(now) {
			e.stats.throttled.Add(1)

			continue
		}

		select {
		case jobs <- job{reg: reg, tick: tick}:
		default:
			e.log.Warn("worker pool saturated; dropping strategy job",
				zap.String("strategy", reg.strategy.Name()),
				zap.String("symbol", tick.Symbol),
			)
			e.drop(tick, errors.Newf(errors.ErrCodeQueueFull, "worker pool saturated for %s", reg.strategy.Name()))
		}
	}
}

func (e *DispatchEngineV1) worker(ctx context.Context, jobs <-chan job) {
	for j := range jobs {
		if ctx.Err() != nil {
			continue
		}

		e.execute(ctx, j)
	}
}

func (e *DispatchEngineV1) execute(ctx context.Context, j job) {
	name := j.reg.strategy.Name()

	defer func() {
		if r := recover(); r != nil {
			e.stats.failed.Add(1)
			e.log.Error("strategy panicked in on_tick", zap.String("strategy", name), zap.Any("panic", r))
			e.notifyStrategyError(name, j.tick, errors.Newf(errors.ErrCodeStrategyRuntimeError, "panic: %v", r))
		}
	}()

	if err := j.reg.strategy.OnTick(ctx, j.tick, j.reg.placer); err != nil {
		e.stats.failed.Add(1)
		e.log.Error("error during on_tick", zap.String("strategy", name), zap.Error(err))
		e.notifyStrategyError(name, j.tick, err)

		return
	}

	e.stats.executed.Add(1)
}

func (e *DispatchEngineV1) startStrategy(ctx context.Context, reg *registration) {
	name := reg.strategy.Name()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("strategy panicked on start", zap.String("strategy", name), zap.Any("panic", r))
		}
	}()

	if err := reg.strategy.Start(ctx, reg.placer); err != nil {
		e.log.Error("error while starting strategy", zap.String("strategy", name), zap.Error(err))

		return
	}

	e.log.Debug("strategy started", zap.String("strategy", name))
}

func (e *DispatchEngineV1) stopStrategy(ctx context.Context, reg *registration) {
	name := reg.strategy.Name()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("strategy panicked on stop", zap.String("strategy", name), zap.Any("panic", r))
		}
	}()

	if err := reg.strategy.Stop(ctx, reg.placer); err != nil {
		e.log.Error("error while stopping strategy", zap.String("strategy", name), zap.Error(err))

		return
	}

	e.log.Debug("strategy stopped", zap.String("strategy", name))
}

func (e *DispatchEngineV1) registrations() []*registration {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*registration, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, e.strategies[name])
	}

	return out
}

func (e *DispatchEngineV1) drop(tick types.Tick, err error) {
	e.stats.dropped.Add(1)

	if e.callbacks.OnTickDropped != nil {
		(*e.callbacks.OnTickDropped)(tick, err)
	}
}

func (e *DispatchEngineV1) notifyStrategyError(name string, tick types.Tick, err error) {
	if e.callbacks.OnStrategyError != nil {
		(*e.callbacks.OnStrategyError)(name, tick, err)
	}
}

func (e *DispatchEngineV1) notifyStatus(status types.EngineStatus) {
	if e.callbacks.OnStatusUpdate != nil {
		(*e.callbacks.OnStatusUpdate)(status)
	}
}
