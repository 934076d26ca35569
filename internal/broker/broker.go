// Package broker defines the order-routing boundary and its implementations.
package broker

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/internal/types"
)

// Response is a raw broker reply. Field names follow the broker's wire format.
type Response = map[string]any

// ModifyRequest changes quantity or price of a working order.
type ModifyRequest struct {
	OrderID      string                   `json:"order_id" validate:"required"`
	Exchange     string                   `json:"exchange"`
	Symbol       string                   `json:"symbol"`
	Quantity     int64                    `json:"quantity" validate:"gte=0"`
	PriceType    types.PriceType          `json:"price_type"`
	Price        optional.Option[float64] `json:"price"`
	TriggerPrice optional.Option[float64] `json:"trigger_price"`
	Meta         map[string]string        `json:"meta,omitempty"`
}

// ConvertRequest moves a position between product types.
type ConvertRequest struct {
	Exchange       string `json:"exchange"`
	Symbol         string `json:"symbol" validate:"required"`
	PositionType   string `json:"position_type"`
	NewProductType string `json:"new_product_type" validate:"required"`
}

// LimitsRequest filters the margin/limits query. Empty fields mean "all".
type LimitsRequest struct {
	ProductType string `json:"product_type"`
	Segment     string `json:"segment"`
	Exchange    string `json:"exchange"`
}

// SeriesRequest asks for historical price points.
type SeriesRequest struct {
	Exchange string
	Symbol   string
	Interval time.Duration
	Start    time.Time
	End      time.Time
}

// Broker is the contract every order-routing implementation satisfies.
type Broker interface {
	PlaceOrder(ctx context.Context, req types.OrderRequest) (Response, error)
	ModifyOrder(ctx context.Context, req ModifyRequest) (Response, error)
	CancelOrder(ctx context.Context, orderID string) (Response, error)
	// ExitOrder closes a cover or bracket order.
	ExitOrder(ctx context.Context, orderID string, productType string) (Response, error)
	OrderBook(ctx context.Context) ([]Response, error)
	SingleOrderHistory(ctx context.Context, orderID string) ([]Response, error)
	Positions(ctx context.Context) ([]Response, error)
	ConvertPosition(ctx context.Context, req ConvertRequest) (Response, error)
	TradeBook(ctx context.Context) ([]Response, error)
	Holdings(ctx context.Context) ([]Response, error)
	Limits(ctx context.Context, req LimitsRequest) (Response, error)
	OrderStatus(ctx context.Context, orderID string) (Response, error)
	MarketDepth(ctx context.Context, exchange string, symbol string) (Response, error)
	TimePriceSeries(ctx context.Context, req SeriesRequest) ([]Response, error)
}

// FillHandler receives execution reports. It is called without broker locks held.
type FillHandler func(ctx context.Context, update types.OrderUpdate)

// FillNotifier is implemented by brokers that report executions in-process.
type FillNotifier interface {
	OnFill(handler FillHandler)
}
