// Package report flattens a strategy observation into a reporting record.
package report

import (
	"errors"

	"liquidityPilot/internal/model"
)

// ErrIncomplete is returned before the first allocation.
var ErrIncomplete = errors.New("observation has no allocation to summarize")

// Summarize values every token1 quantity in token0 by dividing by price.
func Summarize(obs model.Observation) (model.Summary, error) {
	if len(obs.Ranges) < 2 || obs.StrategyInfo == nil {
		return model.Summary{}, ErrIncomplete
	}
	base := obs.Ranges[model.BaseOrder]
	limit := obs.Ranges[model.LimitOrder]

	var allocated0, allocated1 float64
	for _, r := range obs.Ranges {
		allocated0 += r.Token0
		allocated1 += r.Token1
	}
	total0 := allocated0 + obs.LeftOver0 + obs.FeesUncollected0
	total1 := allocated1 + obs.LeftOver1 + obs.FeesUncollected1

	inToken0 := func(amount0, amount1 float64) float64 {
		return amount0 + amount1/obs.Price
	}

	return model.Summary{
		Time:        obs.Time,
		Price:       obs.Price,
		ResetPoint:  obs.ResetPoint,
		ResetReason: obs.ResetReason,

		BaseRangeLower:  base.LowerPrice,
		BaseRangeUpper:  base.UpperPrice,
		LimitRangeLower: limit.LowerPrice,
		LimitRangeUpper: limit.UpperPrice,
		ResetRangeLower: obs.StrategyInfo.ResetRangeLower,
		ResetRangeUpper: obs.StrategyInfo.ResetRangeUpper,
		LatestSignal:    obs.StrategyInfo.LatestSignal,
		PriceAtReset:    base.Price,

		Fees0:            obs.Fees0,
		Fees1:            obs.Fees1,
		FeesUncollected0: obs.FeesUncollected0,
		FeesUncollected1: obs.FeesUncollected1,

		LeftOver0:  obs.LeftOver0,
		LeftOver1:  obs.LeftOver1,
		Allocated0: allocated0,
		Allocated1: allocated1,
		Total0:     total0,
		Total1:     total1,

		ValuePosition:  inToken0(total0, total1),
		ValueAllocated: inToken0(allocated0, allocated1),
		ValueLeftOver:  inToken0(obs.LeftOver0, obs.LeftOver1),
		BaseValue:      inToken0(base.Token0, base.Token1),
		LimitValue:     inToken0(limit.Token0, limit.Token1),
	}, nil
}
