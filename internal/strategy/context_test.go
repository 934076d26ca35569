package strategy

import (
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/performance"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/stretchr/testify/suite"
)

type ContextTestSuite struct {
	suite.Suite
	ctx *Context
}

func TestContextSuite(t *testing.T) {
	suite.Run(t, new(ContextTestSuite))
}

func (suite *ContextTestSuite) SetupTest() {
	cfg := DefaultContextConfig()
	cfg.WindowSize = 5
	cfg.StartingEquity = 10000
	suite.ctx = NewContext(types.StrategyMeta{Name: "mom", Symbol: "NSE|123", Params: nil}, cfg)
}

func tick(symbol string, price float64) types.Tick {
	return types.Tick{Symbol: symbol, LastPrice: price, Timestamp: time.Now(), Raw: nil}
}

func (suite *ContextTestSuite) TestPricesAndWindow() {
	_, ok := suite.ctx.LastTick()
	suite.False(ok)

	for i := 1; i <= 7; i++ {
		suite.ctx.AppendTick(tick("NSE|123", float64(i)))
	}

	suite.Equal([]float64{3, 4, 5, 6, 7}, suite.ctx.Prices(0))
	suite.Equal([]float64{6, 7}, suite.ctx.Prices(2))

	last, ok := suite.ctx.LastTick()
	suite.True(ok)
	suite.Equal(7.0, last.LastPrice)
}

func (suite *ContextTestSuite) TestBarsReadVolume() {
	suite.ctx.AppendTick(types.Tick{Symbol: "NSE|123", LastPrice: 10, Timestamp: time.Now(), Raw: map[string]any{"v": "150"}})
	suite.ctx.AppendTick(types.Tick{Symbol: "NSE|123", LastPrice: 11, Timestamp: time.Now(), Raw: map[string]any{"volume": 20}})
	suite.ctx.AppendTick(tick("NSE|123", 12))

	bars := suite.ctx.Bars(0)
	suite.Len(bars, 3)
	suite.Equal(150.0, bars[0].Volume)
	suite.Equal(20.0, bars[1].Volume)
	suite.Equal(0.0, bars[2].Volume)
}

func (suite *ContextTestSuite) TestUpdateFromOrderRoundTrip() {
	delta, ok := suite.ctx.UpdateFromOrder(types.OrderUpdate{"side": "BUY", "qty": "10", "price": "100"})
	suite.True(ok)
	suite.Equal(0.0, delta)

	delta, ok = suite.ctx.UpdateFromOrder(types.OrderUpdate{"transactionType": "S", "filledQty": 10, "fillPrice": 110.0})
	suite.True(ok)
	suite.InDelta(100.0, delta, 1e-9)

	snap := suite.ctx.PnL().Snapshot()
	suite.Equal(int64(0), snap.Qty)
	suite.InDelta(100.0, snap.Realized, 1e-9)
	suite.InDelta(10100.0, suite.ctx.Equity(), 1e-9)

	// baseline plus two fills
	suite.Equal(3, suite.ctx.Performance().Len())
}

func (suite *ContextTestSuite) TestUpdateFromOrderIgnoresMalformed() {
	cases := []types.OrderUpdate{
		{"qty": 10, "price": 100},
		{"side": "HOLD", "qty": 10, "price": 100},
		{"side": "B", "qty": 0, "price": 100},
		{"side": "B", "qty": 10},
	}

	for _, update := range cases {
		_, ok := suite.ctx.UpdateFromOrder(update)
		suite.False(ok)
	}

	suite.Equal(int64(0), suite.ctx.PnL().Snapshot().Qty)
	suite.Equal(1, suite.ctx.Performance().Len())
}

// Concurrent fills for one strategy must report deltas that add up to the
// ledger, since the risk engine accumulates them.
func (suite *ContextTestSuite) TestConcurrentFillDeltasMatchLedger() {
	for round := 0; round < 50; round++ {
		c := NewContext(types.StrategyMeta{Name: "mom", Symbol: "NSE|123", Params: nil}, DefaultContextConfig())

		_, ok := c.UpdateFromOrder(types.OrderUpdate{"side": "BUY", "qty": 1000, "price": 10.0})
		suite.Require().True(ok)

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			total float64
		)

		for i := 0; i < 16; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					delta, _ := c.UpdateFromOrder(types.OrderUpdate{"side": "SELL", "qty": 1, "price": 11.0})
					mu.Lock()
					total += delta
					mu.Unlock()
				}
			}()
		}

		wg.Wait()

		snap := c.PnL().Snapshot()
		suite.Require().InDelta(snap.Realized, total, 1e-6, "round %d", round)
		suite.Equal(int64(200), snap.Qty)
	}
}

func (suite *ContextTestSuite) TestUpdateUnrealizedSamplesInAllMode() {
	cfg := DefaultContextConfig()
	cfg.StartingEquity = 1000
	cfg.SampleMode = performance.SampleModeAll
	ctx := NewContext(types.StrategyMeta{Name: "s", Symbol: "X", Params: nil}, cfg)

	ctx.UpdateFromOrder(types.NewFill("1", types.SideBuy, "X", 2, 50, "s"))
	ctx.UpdateUnrealized(60)

	suite.InDelta(20.0, ctx.PnL().Snapshot().Unrealized, 1e-9)
	curve := ctx.Performance().EquityCurve()
	suite.Len(curve, 3)
	suite.InDelta(1020.0, curve[2].Equity, 1e-9)
}

func (suite *ContextTestSuite) TestState() {
	_, ok := suite.ctx.State("signal")
	suite.False(ok)

	suite.ctx.SetState("signal", "LONG")
	v, ok := suite.ctx.State("signal")
	suite.True(ok)
	suite.Equal("LONG", v)
}

func (suite *ContextTestSuite) TestPerformanceReportIncludesTradeStats() {
	suite.ctx.UpdateFromOrder(types.NewFill("1", types.SideBuy, "NSE|123", 10, 100, "mom"))
	suite.ctx.UpdateFromOrder(types.NewFill("2", types.SideSell, "NSE|123", 10, 110, "mom"))
	suite.ctx.UpdateFromOrder(types.NewFill("3", types.SideBuy, "NSE|123", 10, 110, "mom"))
	suite.ctx.UpdateFromOrder(types.NewFill("4", types.SideSell, "NSE|123", 10, 105, "mom"))

	report := suite.ctx.PerformanceReport(optional.None[float64]())
	suite.Equal("mom", report.Name)
	suite.Equal("NSE|123", report.Symbol)
	suite.Equal(4, report.TradeStats.TradeCount)
	suite.Equal(2, report.TradeStats.ClosedTrades)
	suite.Equal(1, report.TradeStats.Wins)
	suite.Equal(1, report.TradeStats.Losses)
	suite.InDelta(0.5, report.TradeStats.WinRate, 1e-9)
	suite.InDelta(100.0, report.TradeStats.AvgWin, 1e-9)
	suite.InDelta(-50.0, report.TradeStats.AvgLoss, 1e-9)
	suite.InDelta(25.0, report.TradeStats.Expectancy, 1e-9)
	suite.Len(report.EquityCurve, 5)
}

func (suite *ContextTestSuite) TestTradeStatsBreakEvenIsLoss() {
	stats := ComputeTradeStats([]types.TradeRecord{
		{Kind: types.TradeKindLongOpen, Qty: 1, Price: 10, EntryPrice: 0, ExitPrice: 0, PnL: 0, Timestamp: time.Time{}},
		{Kind: types.TradeKindLongClose, Qty: 1, Price: 10, EntryPrice: 10, ExitPrice: 10, PnL: 0, Timestamp: time.Time{}},
	})

	suite.Equal(1, stats.Losses)
	suite.Equal(0, stats.Wins)
	suite.Equal(0.0, stats.WinRate)
}

func (suite *ContextTestSuite) TestTradeStatsEmpty() {
	stats := ComputeTradeStats(nil)
	suite.Equal(0, stats.ClosedTrades)
	suite.Equal(0.0, stats.Expectancy)
}
