package pnl

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/types"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

// ============================================================================
// Fill application
// ============================================================================

func (suite *EngineTestSuite) TestPartialClose() {
	e := NewEngine()
	e.ApplyFill(types.SideBuy, 10, 100)
	e.ApplyFill(types.SideSell, 12, 40)

	snap := e.Snapshot()
	suite.InDelta(80.0, snap.Realized, 1e-9)
	suite.Equal(int64(60), snap.Qty)
	suite.InDelta(10.0, snap.AvgPrice, 1e-9)
}

func (suite *EngineTestSuite) TestFullCloseThenFlipToShort() {
	e := NewEngine()
	e.ApplyFill(types.SideBuy, 5, 100)
	e.ApplyFill(types.SideSell, 6, 150)

	snap := e.Snapshot()
	suite.InDelta(100.0, snap.Realized, 1e-9)
	suite.Equal(int64(-50), snap.Qty)
	suite.InDelta(6.0, snap.AvgPrice, 1e-9)
}

func (suite *EngineTestSuite) TestFlipShortToLong() {
	e := NewEngine()
	e.ApplyFill(types.SideSell, 50, 80)
	e.ApplyFill(types.SideBuy, 40, 100)

	snap := e.Snapshot()
	suite.InDelta(800.0, snap.Realized, 1e-9)
	suite.Equal(int64(20), snap.Qty)
	suite.InDelta(40.0, snap.AvgPrice, 1e-9)
}

func (suite *EngineTestSuite) TestWeightedAverageOnAdd() {
	e := NewEngine()
	e.ApplyFill(types.SideBuy, 10, 100)
	e.ApplyFill(types.SideBuy, 13, 50)

	snap := e.Snapshot()
	suite.Equal(int64(150), snap.Qty)
	suite.InDelta(11.0, snap.AvgPrice, 1e-9)

	short := NewEngine()
	short.ApplyFill(types.SideSell, 20, 10)
	short.ApplyFill(types.SideSell, 23, 20)
	suite.Equal(int64(-30), short.Snapshot().Qty)
	suite.InDelta(22.0, short.Snapshot().AvgPrice, 1e-9)
}

func (suite *EngineTestSuite) TestExactCloseResetsAverage() {
	e := NewEngine()
	e.ApplyFill(types.SideBuy, 10, 5)
	e.MarkUnrealized(20)
	e.ApplyFill(types.SideSell, 8, 5)

	snap := e.Snapshot()
	suite.Equal(int64(0), snap.Qty)
	suite.Equal(0.0, snap.AvgPrice)
	suite.Equal(0.0, snap.Unrealized)
	suite.InDelta(-10.0, snap.Realized, 1e-9)
}

func (suite *EngineTestSuite) TestIgnoredFills() {
	e := NewEngine()
	e.ApplyFill(types.SideBuy, 10, 0)
	e.ApplyFill(types.SideBuy, 10, -5)
	e.ApplyFill(types.Side("X"), 10, 5)

	suite.Equal(types.PnLSnapshot{}, e.Snapshot())
}

// ============================================================================
// Unrealized
// ============================================================================

func (suite *EngineTestSuite) TestUnrealizedOnlyFromMark() {
	e := NewEngine()
	e.ApplyFill(types.SideBuy, 10, 100)
	suite.Equal(0.0, e.Snapshot().Unrealized)

	e.MarkUnrealized(12)
	suite.InDelta(200.0, e.Snapshot().Unrealized, 1e-9)
	suite.Equal(0.0, e.Snapshot().Realized)
	suite.Equal(10.0, e.Snapshot().AvgPrice)

	// a fill clears the mark until the next one
	e.ApplyFill(types.SideBuy, 11, 10)
	suite.Equal(0.0, e.Snapshot().Unrealized)

	short := NewEngine()
	short.ApplyFill(types.SideSell, 50, 10)
	short.MarkUnrealized(45)
	suite.InDelta(50.0, short.Snapshot().Unrealized, 1e-9)
}

func (suite *EngineTestSuite) TestOnTrade() {
	e := NewEngine()
	snap := e.OnTrade(types.SideBuy, 10, 10, optional.None[float64]())
	suite.Equal(0.0, snap.Unrealized)

	snap = e.OnTrade(types.SideBuy, 10, 10, optional.Some(11.0))
	suite.Equal(int64(20), snap.Qty)
	suite.InDelta(20.0, snap.Unrealized, 1e-9)
}

// ============================================================================
// Ledger
// ============================================================================

func (suite *EngineTestSuite) TestTradeLedger() {
	fixed := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	e := NewEngine(WithTradeLedger(), WithClock(func() time.Time { return fixed }))

	e.ApplyFill(types.SideBuy, 10, 10)
	e.ApplyFill(types.SideBuy, 12, 10)
	e.ApplyFill(types.SideSell, 15, 30)
	e.ApplyFill(types.SideSell, 14, 5)
	e.ApplyFill(types.SideBuy, 13, 15)

	trades := e.Trades()
	kinds := make([]types.TradeKind, 0, len(trades))
	for _, tr := range trades {
		kinds = append(kinds, tr.Kind)
		suite.Equal(fixed, tr.Timestamp)
	}

	suite.Equal([]types.TradeKind{
		types.TradeKindLongOpen,
		types.TradeKindLongAdd,
		types.TradeKindLongClose,
		types.TradeKindShortOpen,
		types.TradeKindShortAdd,
		types.TradeKindCover,
	}, kinds)
	suite.InDelta(80.0, trades[2].PnL, 1e-9)
	suite.True(trades[2].IsClose())
	suite.False(trades[0].IsClose())

	suite.Empty(NewEngine().Trades())
}

// ============================================================================
// Invariants
// ============================================================================

func (suite *EngineTestSuite) TestFlatInvariantUnderRandomFills() {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		e := NewEngine()
		for i := 0; i < 30; i++ {
			side := types.SideBuy
			if rng.Intn(2) == 0 {
				side = types.SideSell
			}

			e.ApplyFill(side, 50+rng.Float64()*50, int64(rng.Intn(20)))
			if rng.Intn(3) == 0 {
				e.MarkUnrealized(50 + rng.Float64()*50)
			}

			snap := e.Snapshot()
			if snap.Qty == 0 {
				suite.Equal(0.0, snap.AvgPrice)
				suite.Equal(0.0, snap.Unrealized)
			}
		}
	}
}

func (suite *EngineTestSuite) TestConcurrentFillsAndSnapshots() {
	e := NewEngine()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				e.ApplyFill(types.SideBuy, 10, 1)
				e.ApplyFill(types.SideSell, 10, 1)
			}
		}()

		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				e.MarkUnrealized(11)
				snap := e.Snapshot()
				if snap.Qty == 0 {
					suite.Equal(0.0, snap.AvgPrice)
				}
			}
		}()
	}

	wg.Wait()
	suite.Equal(int64(0), e.Snapshot().Qty)
	suite.Equal(0.0, e.Snapshot().Realized)
}

func (suite *EngineTestSuite) TestApplyFillDelta() {
	e := NewEngine()

	delta, snap := e.ApplyFillDelta(types.SideBuy, 10, 100)
	suite.Equal(0.0, delta)
	suite.Equal(int64(100), snap.Qty)

	delta, snap = e.ApplyFillDelta(types.SideSell, 12, 40)
	suite.InDelta(80.0, delta, 1e-9)
	suite.Equal(types.PnLSnapshot{Qty: 60, AvgPrice: 10, Realized: 80, Unrealized: 0}, snap)

	delta, snap = e.ApplyFillDelta(types.SideSell, 12, 0)
	suite.Equal(0.0, delta)
	suite.Equal(e.Snapshot(), snap)

	suite.Equal(types.PnLSnapshot{Qty: 60, AvgPrice: 10, Realized: 80, Unrealized: 120}, e.MarkUnrealizedSnapshot(12))
}

func (suite *EngineTestSuite) TestConcurrentDeltasSumToRealized() {
	e := NewEngine()
	e.ApplyFill(types.SideBuy, 10, 1000)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total float64
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				delta, _ := e.ApplyFillDelta(types.SideSell, 11, 1)
				mu.Lock()
				total += delta
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	suite.InDelta(e.Snapshot().Realized, total, 1e-6)
	suite.InDelta(1000.0, total, 1e-6)
}

func (suite *EngineTestSuite) TestSnapshotIdempotent() {
	e := NewEngine()
	e.ApplyFill(types.SideBuy, 10, 7)
	e.MarkUnrealized(12)

	suite.Equal(e.Snapshot(), e.Snapshot())
}
