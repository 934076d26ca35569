package broker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type PaperBrokerTestSuite struct {
	suite.Suite
	paper *Paper
	fills []types.OrderUpdate
	ctx   context.Context
	now   time.Time
}

func TestPaperBrokerSuite(t *testing.T) {
	suite.Run(t, new(PaperBrokerTestSuite))
}

func (suite *PaperBrokerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	suite.fills = nil

	seq := 0
	suite.paper = NewPaper(nil,
		WithInitialPrices(map[string]float64{"INFY": 1500}),
		WithCash(100000),
		WithPaperClock(func() time.Time { return suite.now }),
		WithIDGenerator(func() string {
			seq++

			return fmt.Sprintf("ORD-%d", seq)
		}),
	)
	suite.paper.OnFill(func(_ context.Context, update types.OrderUpdate) {
		suite.fills = append(suite.fills, update)
	})
}

func limitOrder(symbol string, side types.Side, qty int64, price float64) types.OrderRequest {
	return types.OrderRequest{
		OrderID:      "",
		Side:         side,
		ProductType:  types.DefaultProductType,
		Exchange:     "NSE",
		Symbol:       symbol,
		Quantity:     qty,
		PriceType:    types.PriceTypeLimit,
		Price:        optional.Some(price),
		TriggerPrice: optional.None[float64](),
		Retention:    types.DefaultRetention,
		Remarks:      "strategy=alpha",
		Meta:         map[string]string{types.MetaStrategyName: "alpha"},
	}
}

// ============================================================================
// Placement and fills
// ============================================================================

func (suite *PaperBrokerTestSuite) TestLimitOrderFillsImmediately() {
	resp, err := suite.paper.PlaceOrder(suite.ctx, limitOrder("TCS", types.SideBuy, 10, 3500))
	suite.Require().NoError(err)
	suite.Equal("Ok", resp["stat"])
	suite.Equal("ORD-1", resp["norenordno"])

	suite.Require().Len(suite.fills, 1)
	fill := suite.fills[0]
	side, _ := fill.Side()
	price, _ := fill.Price()
	suite.Equal(types.SideBuy, side)
	suite.Equal(int64(10), fill.Quantity())
	suite.Equal(3500.0, price)
	suite.Equal("TCS", fill.Symbol())
	suite.Equal("ORD-1", fill.OrderID())
	suite.Equal("alpha", fill.Meta()[types.MetaStrategyName])
	suite.Equal("strategy=alpha", fill.Remarks())

	status, err := suite.paper.OrderStatus(suite.ctx, "ORD-1")
	suite.NoError(err)
	suite.Equal(StatusComplete, status["status"])
	suite.Equal(3500.0, status["avgprc"])
}

func (suite *PaperBrokerTestSuite) TestMarketOrderUsesLastMark() {
	req := limitOrder("INFY", types.SideSell, 2, 0)
	req.PriceType = types.PriceTypeMarket
	req.Price = optional.None[float64]()

	_, err := suite.paper.PlaceOrder(suite.ctx, req)
	suite.Require().NoError(err)

	price, _ := suite.fills[0].Price()
	suite.Equal(1500.0, price)
}

func (suite *PaperBrokerTestSuite) TestMarketOrderWithoutMarkFails() {
	req := limitOrder("WIPRO", types.SideBuy, 1, 0)
	req.PriceType = types.PriceTypeMarket
	req.Price = optional.None[float64]()

	_, err := suite.paper.PlaceOrder(suite.ctx, req)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataMissing))
	suite.Empty(suite.fills)

	book, _ := suite.paper.OrderBook(suite.ctx)
	suite.Empty(book)
}

func (suite *PaperBrokerTestSuite) TestInvalidOrders() {
	_, err := suite.paper.PlaceOrder(suite.ctx, limitOrder("", types.SideBuy, 1, 10))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrder))

	_, err = suite.paper.PlaceOrder(suite.ctx, limitOrder("TCS", types.SideBuy, 0, 10))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrder))

	noPrice := limitOrder("TCS", types.SideBuy, 1, 0)
	noPrice.Price = optional.None[float64]()
	_, err = suite.paper.PlaceOrder(suite.ctx, noPrice)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrder))
}

// ============================================================================
// Stop orders
// ============================================================================

func stopOrder(side types.Side, trigger float64) types.OrderRequest {
	req := limitOrder("INFY", side, 5, trigger)
	req.PriceType = types.PriceTypeStopMarket
	req.Price = optional.None[float64]()
	req.TriggerPrice = optional.Some(trigger)

	return req
}

func (suite *PaperBrokerTestSuite) TestStopOrderRestsUntilTriggered() {
	_, err := suite.paper.PlaceOrder(suite.ctx, stopOrder(types.SideSell, 1450))
	suite.Require().NoError(err)
	suite.Empty(suite.fills)

	status, _ := suite.paper.OrderStatus(suite.ctx, "ORD-1")
	suite.Equal(StatusTriggerPending, status["status"])

	suite.paper.Mark(suite.ctx, "INFY", 1460)
	suite.Empty(suite.fills)

	suite.paper.Mark(suite.ctx, "INFY", 1449)
	suite.Require().Len(suite.fills, 1)
	price, _ := suite.fills[0].Price()
	suite.Equal(1449.0, price)

	history, err := suite.paper.SingleOrderHistory(suite.ctx, "ORD-1")
	suite.NoError(err)
	suite.Len(history, 2)
	suite.Equal(StatusTriggerPending, history[0]["status"])
	suite.Equal(StatusComplete, history[1]["status"])
}

func (suite *PaperBrokerTestSuite) TestStopLimitFillsAtLimit() {
	req := stopOrder(types.SideBuy, 1550)
	req.PriceType = types.PriceTypeStopLimit
	req.Price = optional.Some(1555.0)

	_, err := suite.paper.PlaceOrder(suite.ctx, req)
	suite.Require().NoError(err)

	suite.paper.Mark(suite.ctx, "INFY", 1551)
	suite.Require().Len(suite.fills, 1)
	price, _ := suite.fills[0].Price()
	suite.Equal(1555.0, price)
}

func (suite *PaperBrokerTestSuite) TestModifyAndCancel() {
	_, err := suite.paper.PlaceOrder(suite.ctx, stopOrder(types.SideSell, 1400))
	suite.Require().NoError(err)

	_, err = suite.paper.ModifyOrder(suite.ctx, ModifyRequest{
		OrderID:      "ORD-1",
		Exchange:     "NSE",
		Symbol:       "INFY",
		Quantity:     7,
		PriceType:    "",
		Price:        optional.None[float64](),
		TriggerPrice: optional.Some(1490.0),
		Meta:         nil,
	})
	suite.Require().NoError(err)

	status, _ := suite.paper.OrderStatus(suite.ctx, "ORD-1")
	suite.Equal(int64(7), status["qty"])
	suite.Equal(1490.0, status["trgprc"])

	_, err = suite.paper.CancelOrder(suite.ctx, "ORD-1")
	suite.NoError(err)

	suite.paper.Mark(suite.ctx, "INFY", 1000)
	suite.Empty(suite.fills)

	_, err = suite.paper.CancelOrder(suite.ctx, "ORD-1")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrderState))

	_, err = suite.paper.ExitOrder(suite.ctx, "missing", "C")
	suite.True(errors.HasCode(err, errors.ErrCodeOrderNotFound))
}

func (suite *PaperBrokerTestSuite) TestModifyToLimitExecutes() {
	_, err := suite.paper.PlaceOrder(suite.ctx, stopOrder(types.SideBuy, 1600))
	suite.Require().NoError(err)

	_, err = suite.paper.ModifyOrder(suite.ctx, ModifyRequest{
		OrderID:      "ORD-1",
		Exchange:     "NSE",
		Symbol:       "INFY",
		Quantity:     0,
		PriceType:    types.PriceTypeLimit,
		Price:        optional.Some(1501.0),
		TriggerPrice: optional.None[float64](),
		Meta:         nil,
	})
	suite.Require().NoError(err)
	suite.Require().Len(suite.fills, 1)
	suite.Equal(int64(5), suite.fills[0].Quantity())
}

// ============================================================================
// Books and queries
// ============================================================================

func (suite *PaperBrokerTestSuite) TestPositionsTradesHoldingsLimits() {
	_, _ = suite.paper.PlaceOrder(suite.ctx, limitOrder("INFY", types.SideBuy, 10, 1500))
	_, _ = suite.paper.PlaceOrder(suite.ctx, limitOrder("INFY", types.SideSell, 4, 1510))
	suite.paper.Mark(suite.ctx, "INFY", 1520)

	positions, err := suite.paper.Positions(suite.ctx)
	suite.NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal(int64(6), positions[0]["netqty"])
	suite.Equal(1500.0, positions[0]["netavgprc"])
	suite.InDelta(40.0, positions[0]["rpnl"].(float64), 1e-9)
	suite.InDelta(120.0, positions[0]["urmtom"].(float64), 1e-9)

	trades, _ := suite.paper.TradeBook(suite.ctx)
	suite.Len(trades, 2)

	holdings, _ := suite.paper.Holdings(suite.ctx)
	suite.Require().Len(holdings, 1)
	suite.Equal(int64(6), holdings[0]["holdqty"])

	limits, _ := suite.paper.Limits(suite.ctx, LimitsRequest{ProductType: "", Segment: "", Exchange: ""})
	suite.InDelta(100000-15000+6040, limits["cash"].(float64), 1e-9)
	suite.InDelta(9000.0, limits["marginused"].(float64), 1e-9)

	_, err = suite.paper.ConvertPosition(suite.ctx, ConvertRequest{Exchange: "NSE", Symbol: "INFY", PositionType: "DAY", NewProductType: "I"})
	suite.NoError(err)

	holdings, _ = suite.paper.Holdings(suite.ctx)
	suite.Empty(holdings)

	_, err = suite.paper.ConvertPosition(suite.ctx, ConvertRequest{Exchange: "NSE", Symbol: "TCS", PositionType: "DAY", NewProductType: "I"})
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *PaperBrokerTestSuite) TestMarketDepth() {
	depth, err := suite.paper.MarketDepth(suite.ctx, "NSE", "INFY")
	suite.NoError(err)
	suite.Equal(1500.0, depth["lp"])

	_, err = suite.paper.MarketDepth(suite.ctx, "NSE", "UNKNOWN")
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataMissing))
}

func (suite *PaperBrokerTestSuite) TestTimePriceSeriesBuckets() {
	prices := []float64{100, 105, 98, 102, 110}
	for i, p := range prices {
		suite.now = time.Date(2024, 3, 1, 9, 15, i*20, 0, time.UTC)
		suite.paper.Mark(suite.ctx, "TCS", p)
	}

	bars, err := suite.paper.TimePriceSeries(suite.ctx, SeriesRequest{Exchange: "NSE", Symbol: "TCS", Interval: time.Minute, Start: time.Time{}, End: time.Time{}})
	suite.NoError(err)
	suite.Require().Len(bars, 2)
	suite.Equal(100.0, bars[0]["into"])
	suite.Equal(105.0, bars[0]["inth"])
	suite.Equal(98.0, bars[0]["intl"])
	suite.Equal(98.0, bars[0]["intc"])
	suite.Equal(102.0, bars[1]["into"])
	suite.Equal(110.0, bars[1]["intc"])

	raw, _ := suite.paper.TimePriceSeries(suite.ctx, SeriesRequest{Exchange: "NSE", Symbol: "TCS", Interval: 0, Start: time.Time{}, End: time.Time{}})
	suite.Len(raw, 5)

	none, err := suite.paper.TimePriceSeries(suite.ctx, SeriesRequest{Exchange: "NSE", Symbol: "NOPE", Interval: 0, Start: time.Time{}, End: time.Time{}})
	suite.NoError(err)
	suite.Nil(none)
}
