// Package strategy decides when to reset liquidity and how to split capital between
// a straddling base order and a single-sided limit order.
package strategy

import (
	"errors"
	"fmt"
)

var ErrInvalidParams = errors.New("invalid strategy params")

// Params are the fractional band widths. The Large variants widen the side whose
// exposure the strategy wants to keep.
type Params struct {
	BaseOrderWidth       float64 `yaml:"base_order_width" json:"base_order_width"`
	BaseOrderWidthLarge  float64 `yaml:"base_order_width_large" json:"base_order_width_large"`
	LimitOrderWidth      float64 `yaml:"limit_order_width" json:"limit_order_width"`
	LimitOrderWidthLarge float64 `yaml:"limit_order_width_large" json:"limit_order_width_large"`
	Alpha                float64 `yaml:"alpha" json:"alpha"`
	AlphaLarge           float64 `yaml:"alpha_large" json:"alpha_large"`
}

// Validate requires every width to be positive.
func (p Params) Validate() error {
	widths := []struct {
		name  string
		value float64
	}{
		{"base_order_width", p.BaseOrderWidth},
		{"base_order_width_large", p.BaseOrderWidthLarge},
		{"limit_order_width", p.LimitOrderWidth},
		{"limit_order_width_large", p.LimitOrderWidthLarge},
		{"alpha", p.Alpha},
		{"alpha_large", p.AlphaLarge},
	}
	for _, w := range widths {
		if !(w.value > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParams, w.name, w.value)
		}
	}
	return nil
}
