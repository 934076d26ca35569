package feed

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"go.uber.org/zap"
)

// WsAggTradeServeFunc starts an aggregate-trade stream. binance.WsAggTradeServe
// satisfies it.
type WsAggTradeServeFunc func(symbol string, handler binance.WsAggTradeHandler, errHandler binance.ErrHandler) (doneC, stopC chan struct{}, err error)

// BinanceOption configures a BinanceSource.
type BinanceOption func(*BinanceSource)

// WithAggTradeServe replaces the stream starter, for tests.
func WithAggTradeServe(serve WsAggTradeServeFunc) BinanceOption {
	return func(b *BinanceSource) {
		b.serve = serve
	}
}

// BinanceSource emits one tick per public aggregate trade of each symbol.
type BinanceSource struct {
	symbols []string
	serve   WsAggTradeServeFunc
	log     *logger.Logger

	messages atomic.Uint64
	ticks    atomic.Uint64
	dropped  atomic.Uint64
}

var _ Source = (*BinanceSource)(nil)

// NewBinanceSource creates a source for symbols such as BTCUSDT.
func NewBinanceSource(symbols []string, log *logger.Logger, opts ...BinanceOption) *BinanceSource {
	if log == nil {
		log = logger.NewNopLogger()
	}

	b := &BinanceSource{
		symbols:  symbols,
		serve:    binance.WsAggTradeServe,
		log:      log.Named("binance-feed"),
		messages: atomic.Uint64{},
		ticks:    atomic.Uint64{},
		dropped:  atomic.Uint64{},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Stats returns the source counters. Reconnects is always 0.
func (b *BinanceSource) Stats() Stats {
	return Stats{
		Messages:   b.messages.Load(),
		Ticks:      b.ticks.Load(),
		Dropped:    b.dropped.Load(),
		Reconnects: 0,
	}
}

// Run streams until ctx is cancelled or one of the streams ends.
func (b *BinanceSource) Run(ctx context.Context, sink Sink) error {
	if len(b.symbols) == 0 {
		return errors.New(errors.ErrCodeMissingParameter, "no binance symbols configured")
	}

	var (
		stops []chan struct{}
		dones []chan struct{}
	)

	stopAll := sync.OnceFunc(func() {
		for _, stopC := range stops {
			close(stopC)
		}
	})

	for _, symbol := range b.symbols {
		doneC, stopC, err := b.serve(symbol, b.handle(sink), b.handleError(symbol))
		if err != nil {
			stopAll()

			return errors.Wrapf(errors.ErrCodeFeedConnectFailed, err, "failed to start %s aggregate trade stream", symbol)
		}

		stops = append(stops, stopC)
		dones = append(dones, doneC)
	}

	b.log.Info("binance streams started", zap.Strings("symbols", b.symbols))

	ended := make(chan struct{}, len(dones))
	for _, doneC := range dones {
		go func(doneC chan struct{}) {
			<-doneC
			ended <- struct{}{}
		}(doneC)
	}

	select {
	case <-ctx.Done():
		stopAll()
		b.log.Info("binance streams stopped")

		return nil
	case <-ended:
		stopAll()

		return errors.New(errors.ErrCodeFeedReadFailed, "binance stream closed unexpectedly")
	}
}

func (b *BinanceSource) handle(sink Sink) binance.WsAggTradeHandler {
	return func(event *binance.WsAggTradeEvent) {
		b.messages.Add(1)

		tick, ok := aggTradeTick(event)
		if !ok {
			b.log.Debug("ignoring aggregate trade", zap.Any("event", event))

			return
		}

		b.ticks.Add(1)

		if !sink(tick) {
			b.dropped.Add(1)
		}
	}
}

func (b *BinanceSource) handleError(symbol string) binance.ErrHandler {
	return func(err error) {
		b.log.Warn("binance stream error", zap.String("symbol", symbol), zap.Error(err))
	}
}

func aggTradeTick(event *binance.WsAggTradeEvent) (types.Tick, bool) {
	if event == nil || event.Symbol == "" {
		return types.Tick{}, false
	}

	price, err := strconv.ParseFloat(event.Price, 64)
	if err != nil || price <= 0 {
		return types.Tick{}, false
	}

	qty, _ := strconv.ParseFloat(event.Quantity, 64)

	return types.Tick{
		Symbol:    event.Symbol,
		LastPrice: price,
		Timestamp: time.UnixMilli(event.TradeTime).UTC(),
		Raw: map[string]any{
			"v":              qty,
			"agg_trade_id":   event.AggTradeID,
			"is_buyer_maker": event.IsBuyerMaker,
		},
	}, true
}
