package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
	"github.com/shopspring/decimal"
)

// Side is the order direction as the broker expects it.
type Side string

const (
	SideBuy  Side = "B"
	SideSell Side = "S"
)

// PriceType is the broker price type of an order.
type PriceType string

const (
	PriceTypeLimit      PriceType = "LMT"
	PriceTypeMarket     PriceType = "MKT"
	PriceTypeStopLimit  PriceType = "SL-LMT"
	PriceTypeStopMarket PriceType = "SL-MKT"
)

const (
	// MetaStrategyName is the metadata key carrying the owning strategy.
	MetaStrategyName = "strategy_name"
	// MetaStrategy is the short alias some brokers echo back.
	MetaStrategy = "strategy"

	DefaultRetention   = "DAY"
	DefaultProductType = "C"
)

// ParseSide normalizes BUY/B/SELL/S in any case.
func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "B", "BUY":
		return SideBuy, true
	case "S", "SELL":
		return SideSell, true
	default:
		return "", false
	}
}

// Sign returns +1 for buys and -1 otherwise. An unset side counts as a
// reduction in prospective position checks.
func (s Side) Sign() int64 {
	if s == SideBuy {
		return 1
	}

	return -1
}

// OrderRequest is an order intent on its way to the broker.
type OrderRequest struct {
	OrderID      string                   `json:"order_id,omitempty" yaml:"order_id,omitempty"`
	Side         Side                     `json:"side" yaml:"side" validate:"required,oneof=B S"`
	ProductType  string                   `json:"product_type" yaml:"product_type"`
	Exchange     string                   `json:"exchange" yaml:"exchange"`
	Symbol       string                   `json:"symbol" yaml:"symbol" validate:"required"`
	Quantity     int64                    `json:"quantity" yaml:"quantity" validate:"gte=0"`
	PriceType    PriceType                `json:"price_type" yaml:"price_type" validate:"omitempty,oneof=LMT MKT SL-LMT SL-MKT"`
	Price        optional.Option[float64] `json:"price" yaml:"price"`
	TriggerPrice optional.Option[float64] `json:"trigger_price" yaml:"trigger_price"`
	Retention    string                   `json:"retention" yaml:"retention"`
	Remarks      string                   `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	Meta         map[string]string        `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Validate checks the structural fields of the order.
func (o OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order request", err)
	}

	return nil
}

// StrategyName returns the owning strategy from Meta, or "".
func (o OrderRequest) StrategyName() string {
	if o.Meta == nil {
		return ""
	}

	if name := o.Meta[MetaStrategyName]; name != "" {
		return name
	}

	return o.Meta[MetaStrategy]
}

// WithStrategy returns a copy of o tagged with the strategy name.
func (o OrderRequest) WithStrategy(name string) OrderRequest {
	meta := make(map[string]string, len(o.Meta)+1)
	for k, v := range o.Meta {
		meta[k] = v
	}

	meta[MetaStrategyName] = name
	o.Meta = meta

	return o
}

// SignedQuantity is Quantity with the side's sign applied.
func (o OrderRequest) SignedQuantity() int64 {
	return o.Side.Sign() * o.Quantity
}

// Notional returns |price × quantity| when a price is set.
func (o OrderRequest) Notional() (decimal.Decimal, bool) {
	if o.Price.IsNone() {
		return decimal.Zero, false
	}

	price := decimal.NewFromFloat(o.Price.Unwrap())

	return price.Mul(decimal.NewFromInt(o.Quantity)).Abs(), true
}

// OrderResponse is what the order path hands back to the caller. A risk
// rejection is data, not an error.
type OrderResponse struct {
	Success  bool           `json:"success"`
	OrderID  string         `json:"order_id,omitempty"`
	Rejected bool           `json:"rejected,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	Raw      map[string]any `json:"raw,omitempty"`
}

// Rejection builds the response for an order refused before submission.
func Rejection(reason string) OrderResponse {
	return OrderResponse{
		Success:  false,
		OrderID:  "",
		Rejected: true,
		Reason:   reason,
		Raw:      nil,
	}
}
