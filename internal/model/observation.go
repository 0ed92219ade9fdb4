package model

import (
	"math"
	"time"
)

// Observation is the per-step market and strategy snapshot owned by the driver.
type Observation struct {
	Time        time.Time `json:"time"`
	Price       float64   `json:"price"`
	Tick        int       `json:"tick"`
	TickSpacing int       `json:"tick_spacing"`
	Decimals0   uint8     `json:"decimals0"`
	Decimals1   uint8     `json:"decimals1"`

	LiquidityIn0 float64 `json:"liquidity_in0"`
	LiquidityIn1 float64 `json:"liquidity_in1"`

	Ranges       []LiquidityRange `json:"liquidity_ranges,omitempty"`
	StrategyInfo *StrategyInfo    `json:"strategy_info,omitempty"`

	LeftOver0        float64 `json:"token0_left_over"`
	LeftOver1        float64 `json:"token1_left_over"`
	Fees0            float64 `json:"token0_fees"`
	Fees1            float64 `json:"token1_fees"`
	FeesUncollected0 float64 `json:"token0_fees_uncollected"`
	FeesUncollected1 float64 `json:"token1_fees_uncollected"`

	ResetPoint  bool        `json:"reset_point"`
	ResetReason ResetReason `json:"reset_reason"`
}

// DecimalAdjustment converts a human price into the raw token1/token0 ratio.
func (o Observation) DecimalAdjustment() float64 {
	return math.Pow(10, float64(int(o.Decimals1)-int(o.Decimals0)))
}

// CloneRanges returns a copy of the range slice so callers never alias driver state.
func CloneRanges(ranges []LiquidityRange) []LiquidityRange {
	if ranges == nil {
		return nil
	}
	out := make([]LiquidityRange, len(ranges))
	copy(out, ranges)
	return out
}
