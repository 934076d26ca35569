// Package pnl keeps the net position ledger of a single strategy.
package pnl

import (
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/types"
)

// Option configures an Engine.
type Option func(*Engine)

// WithTradeLedger keeps a record of every open, add and close event.
func WithTradeLedger() Option {
	return func(e *Engine) {
		e.recordTrades = true
	}
}

// WithClock overrides the time source used for ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine tracks signed quantity, weighted-average entry price, realized and
// unrealized PnL. Invariant: qty == 0 implies avgPrice == 0 and unrealized == 0.
type Engine struct {
	mu sync.Mutex

	qty        int64
	avgPrice   float64
	realized   float64
	unrealized float64

	recordTrades bool
	trades       []types.TradeRecord
	now          func() time.Time
}

// NewEngine creates a flat ledger.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		mu:           sync.Mutex{},
		qty:          0,
		avgPrice:     0,
		realized:     0,
		unrealized:   0,
		recordTrades: false,
		trades:       nil,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ApplyFill applies an executed quantity. The opposite side is closed first
// at the pre-fill average price; any remainder opens or adds on the fill's
// side. Non-positive quantities and unknown sides are ignored. Unrealized PnL
// is cleared until the next MarkUnrealized.
func (e *Engine) ApplyFill(side types.Side, price float64, qty int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.applyFill(side, price, qty)
}

// ApplyFillDelta applies a fill like ApplyFill and returns, under the same
// lock, the realized PnL the fill produced and the resulting ledger.
func (e *Engine) ApplyFillDelta(side types.Side, price float64, qty int64) (float64, types.PnLSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.realized
	e.applyFill(side, price, qty)

	return e.realized - before, e.snapshot()
}

// MarkUnrealizedSnapshot marks like MarkUnrealized and returns the ledger it produced.
func (e *Engine) MarkUnrealizedSnapshot(marketPrice float64) types.PnLSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.markUnrealized(marketPrice)

	return e.snapshot()
}

// MarkUnrealized recomputes unrealized PnL against marketPrice.
func (e *Engine) MarkUnrealized(marketPrice float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.markUnrealized(marketPrice)
}

// OnTrade applies a fill and re-marks unrealized PnL in one step, at
// marketPrice when given and at the fill price otherwise.
func (e *Engine) OnTrade(side types.Side, price float64, qty int64, marketPrice optional.Option[float64]) types.PnLSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.applyFill(side, price, qty)
	e.markUnrealized(marketPrice.TakeOr(price))

	return e.snapshot()
}

// Snapshot returns a consistent copy of the ledger.
func (e *Engine) Snapshot() types.PnLSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.snapshot()
}

// Trades returns a copy of the trade ledger. Empty unless WithTradeLedger was set.
func (e *Engine) Trades() []types.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.TradeRecord, len(e.trades))
	copy(out, e.trades)

	return out
}

func (e *Engine) snapshot() types.PnLSnapshot {
	return types.PnLSnapshot{
		Qty:        e.qty,
		AvgPrice:   e.avgPrice,
		Realized:   e.realized,
		Unrealized: e.unrealized,
	}
}

func (e *Engine) applyFill(side types.Side, price float64, qty int64) {
	if qty <= 0 {
		return
	}

	switch side {
	case types.SideBuy:
		e.applyBuy(price, qty)
	case types.SideSell:
		e.applySell(price, qty)
	default:
		return
	}

	e.unrealized = 0
}

func (e *Engine) applyBuy(price float64, qty int64) {
	if e.qty < 0 {
		closing := min(qty, -e.qty)
		pnl := (e.avgPrice - price) * float64(closing)
		e.realized += pnl
		e.record(types.TradeRecord{Kind: types.TradeKindCover, Qty: closing, Price: price, EntryPrice: e.avgPrice, ExitPrice: price, PnL: pnl})

		e.qty += closing
		qty -= closing

		if e.qty == 0 {
			e.avgPrice = 0
		}
	}

	if qty == 0 {
		return
	}

	if e.qty == 0 {
		e.qty = qty
		e.avgPrice = price
		e.record(types.TradeRecord{Kind: types.TradeKindLongOpen, Qty: qty, Price: price})

		return
	}

	notional := e.avgPrice*float64(e.qty) + price*float64(qty)
	e.qty += qty
	e.avgPrice = notional / float64(e.qty)
	e.record(types.TradeRecord{Kind: types.TradeKindLongAdd, Qty: qty, Price: price})
}

func (e *Engine) applySell(price float64, qty int64) {
	if e.qty > 0 {
		closing := min(qty, e.qty)
		pnl := (price - e.avgPrice) * float64(closing)
		e.realized += pnl
		e.record(types.TradeRecord{Kind: types.TradeKindLongClose, Qty: closing, Price: price, EntryPrice: e.avgPrice, ExitPrice: price, PnL: pnl})

		e.qty -= closing
		qty -= closing

		if e.qty == 0 {
			e.avgPrice = 0
		}
	}

	if qty == 0 {
		return
	}

	if e.qty == 0 {
		e.qty = -qty
		e.avgPrice = price
		e.record(types.TradeRecord{Kind: types.TradeKindShortOpen, Qty: qty, Price: price})

		return
	}

	notional := e.avgPrice*float64(-e.qty) + price*float64(qty)
	e.qty -= qty
	e.avgPrice = notional / float64(-e.qty)
	e.record(types.TradeRecord{Kind: types.TradeKindShortAdd, Qty: qty, Price: price})
}

func (e *Engine) markUnrealized(marketPrice float64) {
	switch {
	case e.qty > 0:
		e.unrealized = (marketPrice - e.avgPrice) * float64(e.qty)
	case e.qty < 0:
		e.unrealized = (e.avgPrice - marketPrice) * float64(-e.qty)
	default:
		e.unrealized = 0
	}
}

func (e *Engine) record(trade types.TradeRecord) {
	if !e.recordTrades {
		return
	}

	trade.Timestamp = e.now()
	e.trades = append(e.trades, trade)
}
