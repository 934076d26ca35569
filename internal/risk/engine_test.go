package risk

import (
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RiskEngineTestSuite struct {
	suite.Suite
	engine *Engine
	now    time.Time
}

func TestRiskEngineSuite(t *testing.T) {
	suite.Run(t, new(RiskEngineTestSuite))
}

func (suite *RiskEngineTestSuite) SetupTest() {
	suite.now = time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	suite.engine = NewEngine(nil, WithClock(func() time.Time { return suite.now }))
	suite.engine.SetPolicy("test_strat", types.RiskPolicy{
		MaxQtyPerOrder: 10,
		MaxNotional:    1e9,
		MaxPositionQty: 20,
		MaxDailyLoss:   1000,
		AllowShort:     true,
	})
}

func order(strategy string, side types.Side, qty int64, price optional.Option[float64]) types.OrderRequest {
	req := types.OrderRequest{
		OrderID:      "",
		Side:         side,
		ProductType:  "C",
		Exchange:     "NSE",
		Symbol:       "TEST",
		Quantity:     qty,
		PriceType:    types.PriceTypeLimit,
		Price:        price,
		TriggerPrice: optional.None[float64](),
		Retention:    "DAY",
		Remarks:      "",
		Meta:         nil,
	}
	if strategy != "" {
		req = req.WithStrategy(strategy)
	}

	return req
}

func (suite *RiskEngineTestSuite) requireViolation(err error, contains string) {
	suite.Require().Error(err)
	suite.True(IsViolation(err))
	suite.True(errors.HasCode(err, errors.ErrCodeRiskViolation))

	v, ok := AsViolation(err)
	suite.Require().True(ok)
	suite.Contains(v.Reason, contains)
}

func (suite *RiskEngineTestSuite) requireKillSwitch(err error) {
	suite.Require().Error(err)
	suite.True(IsViolation(err))
	suite.True(errors.HasCode(err, errors.ErrCodeKillSwitchActive))
	suite.False(errors.HasCode(err, errors.ErrCodeRiskViolation))

	v, ok := AsViolation(err)
	suite.Require().True(ok)
	suite.Contains(v.Reason, "kill switch")
}

// ============================================================================
// CheckOrder
// ============================================================================

func (suite *RiskEngineTestSuite) TestQtyLimits() {
	err := suite.engine.CheckOrder(order("test_strat", types.SideBuy, 15, optional.Some(100.0)), 0)
	suite.requireViolation(err, "exceeds max per-order 10")

	suite.NoError(suite.engine.CheckOrder(order("test_strat", types.SideBuy, 5, optional.Some(100.0)), 0))
}

func (suite *RiskEngineTestSuite) TestZeroQuantity() {
	err := suite.engine.CheckOrder(order("test_strat", types.SideBuy, 0, optional.Some(100.0)), 0)
	suite.requireViolation(err, "zero")
}

func (suite *RiskEngineTestSuite) TestPositionLimit() {
	err := suite.engine.CheckOrder(order("test_strat", types.SideBuy, 10, optional.Some(100.0)), 15)
	suite.requireViolation(err, "prospective position 25")

	suite.NoError(suite.engine.CheckOrder(order("test_strat", types.SideSell, 10, optional.Some(100.0)), 15))

	err = suite.engine.CheckOrder(order("test_strat", types.SideSell, 10, optional.Some(100.0)), -15)
	suite.requireViolation(err, "prospective position -25")
}

func (suite *RiskEngineTestSuite) TestShortDisallowed() {
	policy := types.DefaultRiskPolicy()
	policy.AllowShort = false
	suite.engine.SetPolicy("long_only", policy)

	err := suite.engine.CheckOrder(order("long_only", types.SideSell, 1, optional.Some(10.0)), 5)
	suite.requireViolation(err, "shorting")
}

func (suite *RiskEngineTestSuite) TestNotionalOnlyWithPrice() {
	policy := types.DefaultRiskPolicy()
	policy.MaxNotional = 500
	suite.engine.SetPolicy("small", policy)

	err := suite.engine.CheckOrder(order("small", types.SideBuy, 10, optional.Some(100.0)), 0)
	suite.requireViolation(err, "notional 1000")

	suite.NoError(suite.engine.CheckOrder(order("small", types.SideBuy, 10, optional.None[float64]()), 0))
}

func (suite *RiskEngineTestSuite) TestUnknownStrategyUsesDefaults() {
	suite.NoError(suite.engine.CheckOrder(order("unknown", types.SideBuy, 1000, optional.Some(1.0)), 0))

	err := suite.engine.CheckOrder(order("unknown", types.SideBuy, 1001, optional.Some(1.0)), 0)
	suite.requireViolation(err, "max per-order 1000")
}

func (suite *RiskEngineTestSuite) TestMissingStrategySkipsChecks() {
	suite.NoError(suite.engine.CheckOrder(order("", types.SideBuy, 1_000_000, optional.Some(1e6)), 0))
}

// ============================================================================
// Kill switch and daily loss
// ============================================================================

func (suite *RiskEngineTestSuite) TestKillSwitchBlocksEverything() {
	suite.engine.EnableKillSwitch("manual")
	suite.True(suite.engine.KillSwitchActive())
	suite.Equal("manual", suite.engine.KillSwitchReason())

	suite.requireKillSwitch(suite.engine.CheckOrder(order("test_strat", types.SideBuy, 1, optional.Some(1.0)), 0))
	suite.requireKillSwitch(suite.engine.CheckOrder(order("", types.SideBuy, 1, optional.Some(1.0)), 0))

	suite.engine.DisableKillSwitch()
	suite.False(suite.engine.KillSwitchActive())
	suite.NoError(suite.engine.CheckOrder(order("test_strat", types.SideBuy, 1, optional.Some(1.0)), 0))
}

func (suite *RiskEngineTestSuite) TestDailyLossBreachEngagesKillSwitch() {
	suite.engine.OnFill("test_strat", -600)
	suite.False(suite.engine.KillSwitchActive())

	suite.engine.OnFill("test_strat", -400)
	suite.True(suite.engine.KillSwitchActive())
	suite.InDelta(-1000.0, suite.engine.State("test_strat").RealizedToday, 1e-9)

	suite.requireKillSwitch(suite.engine.CheckOrder(order("test_strat", types.SideBuy, 1, optional.Some(1.0)), 0))

	// The switch is global: a strategy with no losses of its own is halted too.
	suite.engine.SetPolicy("other_strat", types.DefaultRiskPolicy())
	suite.Zero(suite.engine.State("other_strat").RealizedToday)
	suite.requireKillSwitch(suite.engine.CheckOrder(order("other_strat", types.SideBuy, 1, optional.Some(1.0)), 0))

	suite.engine.DisableKillSwitch()
	suite.NoError(suite.engine.CheckOrder(order("other_strat", types.SideBuy, 1, optional.Some(1.0)), 0))
	suite.requireViolation(suite.engine.CheckOrder(order("test_strat", types.SideBuy, 1, optional.Some(1.0)), 0), "max daily loss")
}

func (suite *RiskEngineTestSuite) TestLossWindowResetsAfter24h() {
	suite.engine.OnFill("test_strat", -999)
	suite.NoError(suite.engine.CheckOrder(order("test_strat", types.SideBuy, 1, optional.Some(1.0)), 0))

	suite.now = suite.now.Add(LossWindow + time.Minute)
	suite.engine.OnFill("test_strat", -500)

	state := suite.engine.State("test_strat")
	suite.InDelta(-500.0, state.RealizedToday, 1e-9)
	suite.Equal(suite.now, state.WindowStart)
	suite.False(suite.engine.KillSwitchActive())
}

func (suite *RiskEngineTestSuite) TestCheckOrderResetsStaleWindow() {
	suite.engine.OnFill("test_strat", -999)
	suite.now = suite.now.Add(LossWindow + time.Second)

	suite.NoError(suite.engine.CheckOrder(order("test_strat", types.SideBuy, 1, optional.Some(1.0)), 0))
	suite.Equal(0.0, suite.engine.State("test_strat").RealizedToday)
}

func (suite *RiskEngineTestSuite) TestOnFillWithoutStrategyIsNoop() {
	suite.engine.OnFill("", -1e12)
	suite.False(suite.engine.KillSwitchActive())
}

func (suite *RiskEngineTestSuite) TestConcurrentFills() {
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			suite.engine.OnFill("test_strat", 1)
		}()
	}
	wg.Wait()

	suite.InDelta(100.0, suite.engine.State("test_strat").RealizedToday, 1e-9)
}

func (suite *RiskEngineTestSuite) TestPolicyLookup() {
	_, ok := suite.engine.Policy("nope")
	suite.False(ok)

	p, ok := suite.engine.Policy("test_strat")
	suite.True(ok)
	suite.Equal(int64(10), p.MaxQtyPerOrder)
}
