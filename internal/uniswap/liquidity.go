// Package uniswap implements the concentrated-liquidity amount/liquidity conversions.
package uniswap

import (
	"math"
	"math/big"
)

const precision = 256

// SqrtRatioAtTick returns sqrt(1.0001^tick) in raw token1/token0 units.
func SqrtRatioAtTick(tick int) *big.Float {
	return newFloat(math.Pow(1.0001, float64(tick)/2))
}

// GetLiquidity returns the largest integer liquidity that (amount0, amount1) can fund
// over [tickA, tickB] with the pool at currentTick. Amounts are human units.
func GetLiquidity(currentTick, tickA, tickB int, amount0, amount1 float64, decimals0, decimals1 uint8) *big.Int {
	sqrtP := SqrtRatioAtTick(currentTick)
	sqrtA, sqrtB := orderedSqrt(tickA, tickB)

	raw0 := toRaw(amount0, decimals0)
	raw1 := toRaw(amount1, decimals1)

	var liq *big.Float
	switch {
	case sqrtP.Cmp(sqrtA) <= 0:
		liq = liquidity0(sqrtA, sqrtB, raw0)
	case sqrtP.Cmp(sqrtB) < 0:
		l0 := liquidity0(sqrtP, sqrtB, raw0)
		l1 := liquidity1(sqrtA, sqrtP, raw1)
		liq = l0
		if l1.Cmp(l0) < 0 {
			liq = l1
		}
	default:
		liq = liquidity1(sqrtA, sqrtB, raw1)
	}

	if liq.Sign() <= 0 {
		return big.NewInt(0)
	}
	out, _ := liq.Int(nil)
	return out
}

// GetAmounts returns the human token amounts backing liquidity over [tickA, tickB].
func GetAmounts(currentTick, tickA, tickB int, liquidity *big.Int, decimals0, decimals1 uint8) (float64, float64) {
	if liquidity == nil || liquidity.Sign() == 0 {
		return 0, 0
	}
	sqrtP := SqrtRatioAtTick(currentTick)
	sqrtA, sqrtB := orderedSqrt(tickA, tickB)
	liq := new(big.Float).SetPrec(precision).SetInt(liquidity)

	raw0 := new(big.Float).SetPrec(precision)
	raw1 := new(big.Float).SetPrec(precision)
	switch {
	case sqrtP.Cmp(sqrtA) <= 0:
		raw0 = amount0(sqrtA, sqrtB, liq)
	case sqrtP.Cmp(sqrtB) < 0:
		raw0 = amount0(sqrtP, sqrtB, liq)
		raw1 = amount1(sqrtA, sqrtP, liq)
	default:
		raw1 = amount1(sqrtA, sqrtB, liq)
	}

	return fromRaw(raw0, decimals0), fromRaw(raw1, decimals1)
}

func orderedSqrt(tickA, tickB int) (*big.Float, *big.Float) {
	if tickA > tickB {
		tickA, tickB = tickB, tickA
	}
	return SqrtRatioAtTick(tickA), SqrtRatioAtTick(tickB)
}

// liquidity0 = x * a * b / (b - a)
func liquidity0(sqrtA, sqrtB, raw0 *big.Float) *big.Float {
	num := mul(mul(raw0, sqrtA), sqrtB)
	return quo(num, sub(sqrtB, sqrtA))
}

// liquidity1 = y / (b - a)
func liquidity1(sqrtA, sqrtB, raw1 *big.Float) *big.Float {
	return quo(raw1, sub(sqrtB, sqrtA))
}

// amount0 = L * (b - a) / (a * b)
func amount0(sqrtA, sqrtB, liq *big.Float) *big.Float {
	return quo(mul(liq, sub(sqrtB, sqrtA)), mul(sqrtA, sqrtB))
}

// amount1 = L * (b - a)
func amount1(sqrtA, sqrtB, liq *big.Float) *big.Float {
	return mul(liq, sub(sqrtB, sqrtA))
}

func toRaw(amount float64, decimals uint8) *big.Float {
	if amount <= 0 {
		return newFloat(0)
	}
	return mul(newFloat(amount), scale(decimals))
}

func fromRaw(raw *big.Float, decimals uint8) float64 {
	out, _ := quo(raw, scale(decimals)).Float64()
	return out
}

func scale(decimals uint8) *big.Float {
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Float).SetPrec(precision).SetInt(pow)
}

func newFloat(v float64) *big.Float {
	return new(big.Float).SetPrec(precision).SetFloat64(v)
}

func mul(a, b *big.Float) *big.Float { return new(big.Float).SetPrec(precision).Mul(a, b) }
func quo(a, b *big.Float) *big.Float { return new(big.Float).SetPrec(precision).Quo(a, b) }
func sub(a, b *big.Float) *big.Float { return new(big.Float).SetPrec(precision).Sub(a, b) }

// Math exposes the package functions as a value for callers that take the AMM as a dependency.
type Math struct{}

func (Math) GetLiquidity(currentTick, tickA, tickB int, amount0, amount1 float64, decimals0, decimals1 uint8) *big.Int {
	return GetLiquidity(currentTick, tickA, tickB, amount0, amount1, decimals0, decimals1)
}

func (Math) GetAmounts(currentTick, tickA, tickB int, liquidity *big.Int, decimals0, decimals1 uint8) (float64, float64) {
	return GetAmounts(currentTick, tickA, tickB, liquidity, decimals0, decimals1)
}
