package model

import "time"

// Signal is the external directional bias: -1 bearish on token0, 0 neutral, +1 bullish.
type Signal int

const (
	SignalShort   Signal = -1
	SignalNeutral Signal = 0
	SignalLong    Signal = 1
)

// ResetReason records why a step tore down and redeployed liquidity.
type ResetReason string

const (
	ResetNone       ResetReason = "none"
	ResetNewSignal  ResetReason = "new_signal"
	ResetLeaveRange ResetReason = "leave_range"
)

// SignalPoint is one entry of the external signal series.
type SignalPoint struct {
	Time  time.Time `json:"time"`
	Value Signal    `json:"signal"`
}
