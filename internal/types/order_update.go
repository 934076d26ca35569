package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// OrderUpdate is a fill or order-status message from the broker boundary.
// Brokers disagree on field names, so the accessors below try each known
// alias in turn.
type OrderUpdate map[string]any

var (
	sideKeys     = []string{"transactionType", "transaction_type", "trantype", "buy_or_sell", "side"}
	quantityKeys = []string{"filledQty", "filled_qty", "fillshares", "quantity", "qty"}
	priceKeys    = []string{"fillPrice", "fill_price", "flprc", "avgprc", "price"}
	symbolKeys   = []string{"tradingsymbol", "tsym", "symbol"}
	orderIDKeys  = []string{"norenordno", "order_id", "orderId"}
)

// NewFill builds an update in the canonical field names.
func NewFill(orderID string, side Side, symbol string, qty int64, price float64, strategy string) OrderUpdate {
	update := OrderUpdate{
		"order_id":    orderID,
		"buy_or_sell": string(side),
		"symbol":      symbol,
		"filled_qty":  qty,
		"fill_price":  price,
	}
	if strategy != "" {
		update["meta"] = map[string]string{MetaStrategyName: strategy}
	}

	return update
}

// Side returns the normalized direction, or false when missing or unknown.
func (u OrderUpdate) Side() (Side, bool) {
	for _, key := range sideKeys {
		if raw, ok := u[key]; ok {
			if s, ok := raw.(string); ok {
				return ParseSide(s)
			}
		}
	}

	return "", false
}

// Quantity returns the filled quantity, or 0 when absent or unparseable.
func (u OrderUpdate) Quantity() int64 {
	for _, key := range quantityKeys {
		if raw, ok := u[key]; ok {
			if f, ok := toFloat(raw); ok {
				return int64(f)
			}
		}
	}

	return 0
}

// Price returns the fill price when present.
func (u OrderUpdate) Price() (float64, bool) {
	for _, key := range priceKeys {
		if raw, ok := u[key]; ok {
			if f, ok := toFloat(raw); ok {
				return f, true
			}
		}
	}

	return 0, false
}

// Float reads a single numeric field.
func (u OrderUpdate) Float(key string) (float64, bool) {
	raw, ok := u[key]
	if !ok {
		return 0, false
	}

	return toFloat(raw)
}

// Symbol returns the instrument identifier.
func (u OrderUpdate) Symbol() string {
	return u.firstString(symbolKeys)
}

// OrderID returns the broker order number.
func (u OrderUpdate) OrderID() string {
	return u.firstString(orderIDKeys)
}

// Remarks returns the free-text remarks or note field.
func (u OrderUpdate) Remarks() string {
	return u.firstString([]string{"remarks", "note"})
}

// Meta returns the metadata map as strings. Accepts map[string]string and
// map[string]any payloads.
func (u OrderUpdate) Meta() map[string]string {
	switch meta := u["meta"].(type) {
	case map[string]string:
		return meta
	case map[string]any:
		out := make(map[string]string, len(meta))
		for k, v := range meta {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}

		return out
	default:
		return nil
	}
}

func (u OrderUpdate) firstString(keys []string) string {
	for _, key := range keys {
		if s, ok := u[key].(string); ok && s != "" {
			return s
		}
	}

	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)

		return f, err == nil
	default:
		return 0, false
	}
}
