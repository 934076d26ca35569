package types

import "time"

// OrderEventStatus is the outcome of an order submission.
type OrderEventStatus string

const (
	OrderEventPlaced   OrderEventStatus = "placed"
	OrderEventRejected OrderEventStatus = "rejected"
	OrderEventFailed   OrderEventStatus = "failed"
)

// OrderEvent is one journaled order submission.
type OrderEvent struct {
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	Strategy  string           `json:"strategy" yaml:"strategy"`
	OrderID   string           `json:"order_id" yaml:"order_id"`
	Symbol    string           `json:"symbol" yaml:"symbol"`
	Side      Side             `json:"side" yaml:"side"`
	Quantity  int64            `json:"quantity" yaml:"quantity"`
	Price     float64          `json:"price" yaml:"price"`
	PriceType PriceType        `json:"price_type" yaml:"price_type"`
	Status    OrderEventStatus `json:"status" yaml:"status"`
	Reason    string           `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// FillEvent is one journaled execution.
type FillEvent struct {
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
	Strategy      string    `json:"strategy" yaml:"strategy"`
	OrderID       string    `json:"order_id" yaml:"order_id"`
	Symbol        string    `json:"symbol" yaml:"symbol"`
	Side          Side      `json:"side" yaml:"side"`
	Quantity      int64     `json:"quantity" yaml:"quantity"`
	Price         float64   `json:"price" yaml:"price"`
	RealizedDelta float64   `json:"realized_delta" yaml:"realized_delta"`
}

// NewFillEvent reads the normalized fields of update.
func NewFillEvent(ts time.Time, strategy string, update OrderUpdate, realizedDelta float64) FillEvent {
	side, _ := update.Side()
	price, _ := update.Price()

	return FillEvent{
		Timestamp:     ts,
		Strategy:      strategy,
		OrderID:       update.OrderID(),
		Symbol:        update.Symbol(),
		Side:          side,
		Quantity:      update.Quantity(),
		Price:         price,
		RealizedDelta: realizedDelta,
	}
}
