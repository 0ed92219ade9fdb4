package model

import "time"

// Summary is the flat reporting record derived from an observation.
type Summary struct {
	Time        time.Time   `json:"time"`
	Price       float64     `json:"price"`
	ResetPoint  bool        `json:"reset_point"`
	ResetReason ResetReason `json:"reset_reason"`

	BaseRangeLower  float64 `json:"base_range_lower"`
	BaseRangeUpper  float64 `json:"base_range_upper"`
	LimitRangeLower float64 `json:"limit_range_lower"`
	LimitRangeUpper float64 `json:"limit_range_upper"`
	ResetRangeLower float64 `json:"reset_range_lower"`
	ResetRangeUpper float64 `json:"reset_range_upper"`
	LatestSignal    Signal  `json:"latest_signal"`
	PriceAtReset    float64 `json:"price_at_reset"`

	Fees0            float64 `json:"token0_fees"`
	Fees1            float64 `json:"token1_fees"`
	FeesUncollected0 float64 `json:"token0_fees_uncollected"`
	FeesUncollected1 float64 `json:"token1_fees_uncollected"`

	LeftOver0  float64 `json:"token0_left_over"`
	LeftOver1  float64 `json:"token1_left_over"`
	Allocated0 float64 `json:"token0_allocated"`
	Allocated1 float64 `json:"token1_allocated"`
	Total0     float64 `json:"token0_total"`
	Total1     float64 `json:"token1_total"`

	ValuePosition  float64 `json:"value_position_in_token0"`
	ValueAllocated float64 `json:"value_allocated_in_token0"`
	ValueLeftOver  float64 `json:"value_left_over_in_token0"`
	BaseValue      float64 `json:"base_position_value_in_token0"`
	LimitValue     float64 `json:"limit_position_value_in_token0"`
}
