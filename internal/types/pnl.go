package types

import "time"

// PnLSnapshot is a point-in-time copy of a position ledger.
type PnLSnapshot struct {
	Qty        int64   `json:"qty" yaml:"qty"`
	AvgPrice   float64 `json:"avg_price" yaml:"avg_price"`
	Realized   float64 `json:"realized" yaml:"realized"`
	Unrealized float64 `json:"unrealized" yaml:"unrealized"`
}

// TradeKind labels an entry in the optional trade ledger.
type TradeKind string

const (
	TradeKindLongOpen  TradeKind = "LONG_OPEN"
	TradeKindLongAdd   TradeKind = "LONG_ADD"
	TradeKindLongClose TradeKind = "LONG_CLOSE"
	TradeKindShortOpen TradeKind = "SHORT_OPEN"
	TradeKindShortAdd  TradeKind = "SHORT_ADD"
	TradeKindCover     TradeKind = "COVER"
)

// TradeRecord is one ledger entry. EntryPrice, ExitPrice and PnL are only
// set for closing entries.
type TradeRecord struct {
	Kind       TradeKind `json:"kind" yaml:"kind"`
	Qty        int64     `json:"qty" yaml:"qty"`
	Price      float64   `json:"price" yaml:"price"`
	EntryPrice float64   `json:"entry_price,omitempty" yaml:"entry_price,omitempty"`
	ExitPrice  float64   `json:"exit_price,omitempty" yaml:"exit_price,omitempty"`
	PnL        float64   `json:"pnl,omitempty" yaml:"pnl,omitempty"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// IsClose reports whether the entry realized PnL.
func (t TradeRecord) IsClose() bool {
	return t.Kind == TradeKindLongClose || t.Kind == TradeKindCover
}
