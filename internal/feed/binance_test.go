package feed

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// fakeAggTradeService replays canned events per symbol.
type fakeAggTradeService struct {
	mu         sync.Mutex
	events     map[string][]*binance.WsAggTradeEvent
	streamErrs []error
	failSymbol string
	endEarly   bool
	started    []string
	stopped    []string
}

func (f *fakeAggTradeService) serve(symbol string, handler binance.WsAggTradeHandler, errHandler binance.ErrHandler) (chan struct{}, chan struct{}, error) {
	if symbol == f.failSymbol {
		return nil, nil, stderrors.New("dial failed")
	}

	f.mu.Lock()
	f.started = append(f.started, symbol)
	f.mu.Unlock()

	doneC := make(chan struct{})
	stopC := make(chan struct{})

	go func() {
		defer close(doneC)

		for _, event := range f.events[symbol] {
			handler(event)
		}

		for _, err := range f.streamErrs {
			errHandler(err)
		}

		if f.endEarly {
			return
		}

		<-stopC

		f.mu.Lock()
		f.stopped = append(f.stopped, symbol)
		f.mu.Unlock()
	}()

	return doneC, stopC, nil
}

type BinanceSourceTestSuite struct {
	suite.Suite
}

func TestBinanceSourceSuite(t *testing.T) {
	suite.Run(t, new(BinanceSourceTestSuite))
}

func (suite *BinanceSourceTestSuite) TestStreamsTicks() {
	fake := &fakeAggTradeService{
		events: map[string][]*binance.WsAggTradeEvent{
			"BTCUSDT": {
				{Symbol: "BTCUSDT", Price: "42000.50", Quantity: "0.5", TradeTime: 1704067200000, AggTradeID: 1},
				{Symbol: "BTCUSDT", Price: "bad", Quantity: "1", TradeTime: 1704067200001},
				{Symbol: "BTCUSDT", Price: "42001.00", Quantity: "0.1", TradeTime: 1704067200002, AggTradeID: 2},
			},
			"ETHUSDT": {
				{Symbol: "ETHUSDT", Price: "2200", Quantity: "3", TradeTime: 1704067200003, AggTradeID: 9},
			},
		},
		streamErrs: []error{stderrors.New("transient")},
	}

	source := NewBinanceSource([]string{"BTCUSDT", "ETHUSDT"}, nil, WithAggTradeServe(fake.serve))

	var (
		mu    sync.Mutex
		ticks []types.Tick
	)

	got := make(chan struct{})
	sink := func(tick types.Tick) bool {
		mu.Lock()
		defer mu.Unlock()

		ticks = append(ticks, tick)
		if len(ticks) == 3 {
			close(got)
		}

		return true
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() { errCh <- source.Run(ctx, sink) }()

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		suite.Fail("timed out waiting for ticks")
	}

	cancel()
	suite.NoError(<-errCh)

	mu.Lock()
	defer mu.Unlock()

	bySymbol := map[string][]types.Tick{}
	for _, t := range ticks {
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	suite.Require().Len(bySymbol["BTCUSDT"], 2)
	suite.Equal(42000.50, bySymbol["BTCUSDT"][0].LastPrice)
	suite.Equal(time.UnixMilli(1704067200000).UTC(), bySymbol["BTCUSDT"][0].Timestamp)
	suite.Equal(0.5, bySymbol["BTCUSDT"][0].Raw["v"])
	suite.Require().Len(bySymbol["ETHUSDT"], 1)

	stats := source.Stats()
	suite.Equal(uint64(4), stats.Messages)
	suite.Equal(uint64(3), stats.Ticks)
}

func (suite *BinanceSourceTestSuite) TestStartFailureStopsStartedStreams() {
	fake := &fakeAggTradeService{failSymbol: "ETHUSDT"}
	source := NewBinanceSource([]string{"BTCUSDT", "ETHUSDT"}, nil, WithAggTradeServe(fake.serve))

	err := source.Run(context.Background(), func(types.Tick) bool { return true })
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeFeedConnectFailed))

	suite.Eventually(func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()

		return len(fake.stopped) == 1 && fake.stopped[0] == "BTCUSDT"
	}, time.Second, 10*time.Millisecond)
}

func (suite *BinanceSourceTestSuite) TestStreamEndingIsAnError() {
	fake := &fakeAggTradeService{endEarly: true}
	source := NewBinanceSource([]string{"BTCUSDT"}, nil, WithAggTradeServe(fake.serve))

	err := source.Run(context.Background(), func(types.Tick) bool { return true })
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeFeedReadFailed))
}

func (suite *BinanceSourceTestSuite) TestNoSymbols() {
	source := NewBinanceSource(nil, nil)

	err := source.Run(context.Background(), func(types.Tick) bool { return true })
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *BinanceSourceTestSuite) TestAggTradeTick() {
	_, ok := aggTradeTick(nil)
	suite.False(ok)

	_, ok = aggTradeTick(&binance.WsAggTradeEvent{Symbol: "BTCUSDT", Price: "0"})
	suite.False(ok)

	tick, ok := aggTradeTick(&binance.WsAggTradeEvent{Symbol: "BTCUSDT", Price: "1.5", Quantity: "x", IsBuyerMaker: true})
	suite.True(ok)
	suite.Equal(0.0, tick.Raw["v"])
	suite.Equal(true, tick.Raw["is_buyer_maker"])
}
