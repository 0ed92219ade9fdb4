// Package ticks converts continuous price bounds into pool-aligned tick indices.
package ticks

import "math"

var logBase = math.Log(1.0001)

// ForPriceBound maps a human price to the nearest tick that is a multiple of spacing.
// decimalAdjustment rescales the human price into the raw token1/token0 ratio.
func ForPriceBound(price, decimalAdjustment float64, spacing int) int {
	raw := math.Round(math.Log(decimalAdjustment*price) / logBase)
	step := float64(spacing)
	return int(math.Round(raw/step) * step)
}

// ForRange converts both bounds independently. A zero-width result is widened by one tick.
func ForRange(lower, upper, decimalAdjustment float64, spacing int) (int, int) {
	tickA := ForPriceBound(lower, decimalAdjustment, spacing)
	tickB := ForPriceBound(upper, decimalAdjustment, spacing)
	if tickA == tickB {
		tickB = tickA + 1
	}
	return tickA, tickB
}

// ShiftAbove moves the range up by whole spacing steps until lower > current.
func ShiftAbove(lower, upper, current, spacing int) (int, int) {
	if lower > current {
		return lower, upper
	}
	shift := ((current-lower)/spacing + 1) * spacing
	return lower + shift, upper + shift
}

// ShiftBelow moves the range down by whole spacing steps until upper < current.
func ShiftBelow(lower, upper, current, spacing int) (int, int) {
	if upper < current {
		return lower, upper
	}
	shift := ((upper-current)/spacing + 1) * spacing
	return lower - shift, upper - shift
}

// PriceAtTick returns the human price for a tick.
func PriceAtTick(tick int, decimalAdjustment float64) float64 {
	return math.Pow(1.0001, float64(tick)) / decimalAdjustment
}
