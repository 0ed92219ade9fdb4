package strategy

import (
	"math"
	"math/big"

	"liquidityPilot/internal/model"
	"liquidityPilot/internal/ticks"
	"liquidityPilot/internal/uniswap"
)

// AMM converts between token amounts and pool liquidity for a tick range.
type AMM interface {
	GetLiquidity(currentTick, tickA, tickB int, amount0, amount1 float64, decimals0, decimals1 uint8) *big.Int
	GetAmounts(currentTick, tickA, tickB int, liquidity *big.Int, decimals0, decimals1 uint8) (float64, float64)
}

// Allocation is the result of one reallocation.
type Allocation struct {
	Ranges    [2]model.LiquidityRange
	Info      model.StrategyInfo
	LeftOver0 float64
	LeftOver1 float64
}

// Allocator builds the base and limit ranges from available capital.
type Allocator struct {
	params Params
	amm    AMM
}

func NewAllocator(params Params, amm AMM) *Allocator {
	if amm == nil {
		amm = uniswap.Math{}
	}
	return &Allocator{params: params, amm: amm}
}

// Reallocate places all of obs.LiquidityIn0/1 into a base order straddling the price
// and a single-sided limit order. Capital that neither order absorbs is returned as left-over.
func (a *Allocator) Reallocate(obs model.Observation, sig model.Signal) Allocation {
	var info model.StrategyInfo
	if obs.StrategyInfo != nil {
		info = *obs.StrategyInfo
	}
	info.ResetRangeMid = obs.Price
	info.ResetRangeLower, info.ResetRangeUpper = band(obs.Price, sig, a.params.Alpha, a.params.AlphaLarge)

	remaining0, remaining1 := obs.LiquidityIn0, obs.LiquidityIn1

	baseLower, baseUpper := band(obs.Price, sig, a.params.BaseOrderWidth, a.params.BaseOrderWidthLarge)
	tickA, tickB := ticks.ForRange(baseLower, baseUpper, obs.DecimalAdjustment(), obs.TickSpacing)
	base := a.place(obs, tickA, tickB, remaining0, remaining1, baseLower, baseUpper)
	remaining0 -= base.Token0
	remaining1 -= base.Token1

	limit := a.limitOrder(obs, sig, remaining0, remaining1)
	remaining0 -= limit.Token0
	remaining1 -= limit.Token1

	info.LatestSignal = sig

	return Allocation{
		Ranges:    [2]model.LiquidityRange{base, limit},
		Info:      info,
		LeftOver0: math.Max(remaining0, 0),
		LeftOver1: math.Max(remaining1, 0),
	}
}

// limitOrder deploys whichever token dominates the remainder on the side of the price
// where it is not yet needed.
func (a *Allocator) limitOrder(obs model.Observation, sig model.Signal, remaining0, remaining1 float64) model.LiquidityRange {
	adj := obs.DecimalAdjustment()

	if remaining0*obs.Price > remaining1 {
		width := a.params.LimitOrderWidth
		if sig < 0 {
			width = a.params.LimitOrderWidthLarge
		}
		lower := obs.Price
		upper := obs.Price * (1 + width)
		tickA, tickB := ticks.ForRange(lower, upper, adj, obs.TickSpacing)
		tickA, tickB = ticks.ShiftAbove(tickA, tickB, obs.Tick, obs.TickSpacing)
		return a.place(obs, tickA, tickB, remaining0, 0, lower, upper)
	}

	width := a.params.LimitOrderWidth
	if sig > 0 {
		width = a.params.LimitOrderWidthLarge
	}
	lower := obs.Price / (1 + width)
	upper := obs.Price
	tickA, tickB := ticks.ForRange(lower, upper, adj, obs.TickSpacing)
	tickA, tickB = ticks.ShiftBelow(tickA, tickB, obs.Tick, obs.TickSpacing)
	return a.place(obs, tickA, tickB, 0, remaining1, lower, upper)
}

func (a *Allocator) place(obs model.Observation, tickA, tickB int, amount0, amount1, lowerPrice, upperPrice float64) model.LiquidityRange {
	liquidity := a.amm.GetLiquidity(obs.Tick, tickA, tickB, amount0, amount1, obs.Decimals0, obs.Decimals1)
	used0, used1 := a.amm.GetAmounts(obs.Tick, tickA, tickB, liquidity, obs.Decimals0, obs.Decimals1)

	return model.LiquidityRange{
		Price:      obs.Price,
		LowerTick:  tickA,
		UpperTick:  tickB,
		LowerPrice: lowerPrice,
		UpperPrice: upperPrice,
		Time:       obs.Time,
		ResetTime:  obs.Time,
		Token0:     used0,
		Token1:     used1,
		Liquidity:  liquidity,
	}
}

// band returns (price/(1+w), price*(1+w)). The wide width goes above the price
// when sig < 0 and below it when sig > 0.
func band(price float64, sig model.Signal, narrow, wide float64) (float64, float64) {
	switch {
	case sig < 0:
		return price / (1 + narrow), price * (1 + wide)
	case sig > 0:
		return price / (1 + wide), price * (1 + narrow)
	default:
		return price / (1 + narrow), price * (1 + narrow)
	}
}
