// Package app assembles the runtime from a config: broker, order manager,
// portfolio, dispatch engine, tick source, journal and HTTP control plane.
package app

import (
	"context"
	"io"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/api"
	"github.com/rxtech-lab/argo-runtime/internal/broker"
	"github.com/rxtech-lab/argo-runtime/internal/config"
	"github.com/rxtech-lab/argo-runtime/internal/engine"
	"github.com/rxtech-lab/argo-runtime/internal/engine/engine_v1"
	"github.com/rxtech-lab/argo-runtime/internal/feed"
	"github.com/rxtech-lab/argo-runtime/internal/journal"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/order"
	"github.com/rxtech-lab/argo-runtime/internal/portfolio"
	"github.com/rxtech-lab/argo-runtime/internal/risk"
	"github.com/rxtech-lab/argo-runtime/internal/strategies"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	drainPollInterval = 10 * time.Millisecond
	drainTimeout      = 5 * time.Second
)

// priceMarker is implemented by brokers that simulate executions against the
// tick stream.
type priceMarker interface {
	Mark(ctx context.Context, symbol string, price float64)
}

// Option configures an App.
type Option func(*options)

type options struct {
	broker broker.Broker
	source feed.Source
}

// WithBroker replaces the configured broker.
func WithBroker(b broker.Broker) Option {
	return func(o *options) {
		o.broker = b
	}
}

// WithSource replaces the configured tick source.
func WithSource(source feed.Source) Option {
	return func(o *options) {
		o.source = source
	}
}

// App is one assembled runtime.
type App struct {
	cfg       config.Config
	log       *logger.Logger
	journal   *journal.Journal
	broker    broker.Broker
	orders    *order.Manager
	portfolio *portfolio.Portfolio
	engine    *engine_v1.DispatchEngineV1
	source    feed.Source
	server    *api.Server
}

// New builds every component and registers the configured strategies. The
// engine is not started.
func New(cfg config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	o := options{broker: nil, source: nil}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		cfg:       cfg,
		log:       log.Named("app"),
		journal:   nil,
		broker:    o.broker,
		orders:    nil,
		portfolio: nil,
		engine:    nil,
		source:    o.source,
		server:    nil,
	}

	if err := a.build(log); err != nil {
		a.close()

		return nil, err
	}

	return a, nil
}

func (a *App) build(log *logger.Logger) error {
	var recorder journal.Recorder

	if a.cfg.Journal.Enabled {
		j, err := journal.Open(a.cfg.Journal.Path, log)
		if err != nil {
			return err
		}

		a.journal = j
		recorder = j
	}

	if a.broker == nil {
		b, err := newBroker(a.cfg.Broker, log)
		if err != nil {
			return err
		}

		a.broker = b
	}

	var orderOpts []order.Option
	if recorder != nil {
		orderOpts = append(orderOpts, order.WithJournal(recorder))
	}

	a.orders = order.NewManager(a.broker, risk.NewEngine(log), log, orderOpts...)

	portfolioOpts := []portfolio.Option{portfolio.WithStartingEquity(a.cfg.Portfolio.StartingEquity)}
	if recorder != nil {
		portfolioOpts = append(portfolioOpts, portfolio.WithRecorder(recorder))
	}

	a.portfolio = portfolio.New(log, portfolioOpts...)
	a.engine = engine_v1.NewDispatchEngineV1(a.cfg.Engine, a.orders, log,
		engine_v1.WithPortfolio(a.portfolio),
		engine_v1.WithCallbacks(a.callbacks()),
	)

	if notifier, ok := a.broker.(broker.FillNotifier); ok {
		notifier.OnFill(a.engine.OnOrderUpdate)
	}

	for _, sc := range a.cfg.Strategies {
		if err := a.register(sc, log); err != nil {
			return err
		}
	}

	if a.source == nil && a.cfg.Feed.Enabled {
		a.source = newSource(a.cfg.Feed, log)
	}

	if a.cfg.API.Enabled {
		a.server = api.NewServer(a.engine, a.portfolio, a.orders, log)
	}

	return nil
}

func (a *App) register(sc config.StrategyConfig, log *logger.Logger) error {
	ctxCfg, err := sc.ContextConfig()
	if err != nil {
		return err
	}

	s, err := strategies.New(sc.Kind, sc.Meta(), ctxCfg, sc.Policy(), log)
	if err != nil {
		return err
	}

	return a.engine.Register(s, sc.MinInterval)
}

func newBroker(cfg config.BrokerConfig, log *logger.Logger) (broker.Broker, error) {
	switch cfg.Kind {
	case config.BrokerBinance:
		if cfg.Binance == nil {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "binance broker config is missing")
		}

		return broker.NewBinance(*cfg.Binance, log)
	case config.BrokerPaper, "":
		opts := []broker.PaperOption{broker.WithInitialPrices(cfg.InitialPrices)}
		if cfg.Cash > 0 {
			opts = append(opts, broker.WithCash(cfg.Cash))
		}

		return broker.NewPaper(log, opts...), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown broker kind %q", cfg.Kind)
	}
}

func newSource(cfg config.FeedConfig, log *logger.Logger) feed.Source {
	if cfg.SourceKind() == config.FeedSourceBinance {
		return feed.NewBinanceSource(cfg.Binance.Symbols, log)
	}

	return feed.NewClient(cfg.WS, log)
}

func (a *App) callbacks() engine.Callbacks {
	onStrategyError := engine.OnStrategyErrorCallback(func(strategyName string, tick types.Tick, err error) {
		a.log.Warn("strategy failed on tick",
			zap.String("strategy", strategyName),
			zap.String("symbol", tick.Symbol),
			zap.Error(err),
		)
	})
	onTickDropped := engine.OnTickDroppedCallback(func(tick types.Tick, err error) {
		a.log.Debug("tick dropped",
			zap.String("symbol", tick.Symbol),
			zap.Int("code", int(errors.GetCode(err))),
			zap.Error(err),
		)
	})
	onStatusUpdate := engine.OnStatusUpdateCallback(func(status types.EngineStatus) {
		a.log.Info("engine status changed", zap.String("status", string(status)))
	})

	return engine.Callbacks{
		OnStrategyError: &onStrategyError,
		OnTickDropped:   &onTickDropped,
		OnStatusUpdate:  &onStatusUpdate,
	}
}

// Engine returns the dispatch engine.
func (a *App) Engine() *engine_v1.DispatchEngineV1 {
	return a.engine
}

// Portfolio returns the aggregator.
func (a *App) Portfolio() *portfolio.Portfolio {
	return a.portfolio
}

// Orders returns the order manager.
func (a *App) Orders() *order.Manager {
	return a.orders
}

// Journal returns the journal, or nil when disabled.
func (a *App) Journal() *journal.Journal {
	return a.journal
}

// sink marks the broker, then enqueues the tick.
func (a *App) sink(ctx context.Context) feed.Sink {
	marker, marks := a.broker.(priceMarker)

	return func(tick types.Tick) bool {
		if marks && tick.LastPrice > 0 {
			marker.Mark(ctx, tick.Symbol, tick.LastPrice)
		}

		return a.engine.OnTick(tick)
	}
}

// Run starts the engine, the tick source and the control plane, and blocks
// until ctx is cancelled or one of them fails. Everything is shut down and
// flushed before it returns.
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	group, groupCtx := errgroup.WithContext(ctx)

	if err := a.engine.Start(groupCtx); err != nil {
		return err
	}

	if a.source != nil {
		sink := a.sink(groupCtx)

		group.Go(func() error {
			return a.source.Run(groupCtx, sink)
		})
	}

	if a.server != nil {
		group.Go(func() error {
			return a.server.Run(groupCtx, a.cfg.API.Addr)
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()

		return nil
	})

	a.log.Info("runtime started",
		zap.Strings("strategies", a.engine.List()),
		zap.Bool("feed", a.source != nil),
		zap.Bool("api", a.server != nil),
	)

	err := group.Wait()
	if err != nil {
		a.log.Error("runtime stopped with error", zap.Error(err))
	}

	return err
}

// Replay feeds a recorded tick file through the engine, waits for the
// queued ticks to be processed and shuts down.
func (a *App) Replay(ctx context.Context, path string, speed float64, progress io.Writer) (feed.ReplayResult, error) {
	defer a.shutdown()

	if err := a.engine.Start(ctx); err != nil {
		return feed.ReplayResult{}, err
	}

	replayer := feed.NewReplayer(feed.ReplayConfig{Path: path, Speed: speed, Progress: progress}, a.log)

	result, err := replayer.Run(ctx, a.sink(ctx))
	if err != nil {
		return result, err
	}

	a.drain(ctx)

	a.log.Info("replay finished",
		zap.Int("total", result.Total),
		zap.Int("delivered", result.Delivered),
		zap.Int("dropped", result.Dropped),
	)

	return result, nil
}

// drain waits until the engine queue is empty.
func (a *App) drain(ctx context.Context) {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	deadline := time.After(drainTimeout)

	for a.engine.Stats().QueueLen > 0 {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			a.log.Warn("engine queue not drained", zap.Int("queue_len", a.engine.Stats().QueueLen))

			return
		case <-ticker.C:
		}
	}
}

func (a *App) shutdown() {
	a.engine.Stop(true)

	if path := a.cfg.Portfolio.ReportPath; path != "" {
		if err := a.portfolio.WriteReport(path); err != nil {
			a.log.Warn("failed to write portfolio report", zap.Error(err))
		} else {
			a.log.Info("portfolio report written", zap.String("path", path))
		}
	}

	if a.journal != nil && a.cfg.Journal.ExportDir != "" {
		if err := a.journal.ExportParquet(a.cfg.Journal.ExportDir); err != nil {
			a.log.Warn("failed to export journal", zap.Error(err))
		}
	}

	a.close()
}

func (a *App) close() {
	if a.journal == nil {
		return
	}

	if err := a.journal.Close(); err != nil {
		a.log.Warn("failed to close journal", zap.Error(err))
	}
}
