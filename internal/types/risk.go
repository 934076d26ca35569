package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
)

// RiskPolicy holds the per-strategy pre-trade limits.
type RiskPolicy struct {
	MaxQtyPerOrder int64   `json:"max_qty_per_order" yaml:"max_qty_per_order" validate:"gt=0" jsonschema:"description=Maximum absolute quantity per order,default=1000"`
	MaxNotional    float64 `json:"max_notional" yaml:"max_notional" validate:"gt=0" jsonschema:"description=Maximum price x quantity per order,default=1000000000"`
	MaxPositionQty int64   `json:"max_position_qty" yaml:"max_position_qty" validate:"gt=0" jsonschema:"description=Maximum absolute net position,default=10000"`
	MaxDailyLoss   float64 `json:"max_daily_loss" yaml:"max_daily_loss" validate:"gt=0" jsonschema:"description=Rolling 24h realized loss that engages the kill switch,default=1000000000"`
	AllowShort     bool    `json:"allow_short" yaml:"allow_short" jsonschema:"description=Allow sell orders that open or extend a short,default=true"`
}

// DefaultRiskPolicy returns the limits applied when a strategy declares none.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		MaxQtyPerOrder: 1000,
		MaxNotional:    1e9,
		MaxPositionQty: 10000,
		MaxDailyLoss:   1e9,
		AllowShort:     true,
	}
}

// Validate checks that every limit is positive.
func (p RiskPolicy) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRiskPolicy, "invalid risk policy", err)
	}

	return nil
}
