package market

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"liquidityPilot/internal/model"
)

var q96 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

// Accumulator collects swaps for one pool window.
type Accumulator struct {
	WindowStart  uint64
	WindowEnd    uint64
	SwapCount    uint64
	In0          *big.Int
	In1          *big.Int
	Tick         int32
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	LastTS       uint64
}

func NewAccumulator(windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		In0:         big.NewInt(0),
		In1:         big.NewInt(0),
	}
}

// AddEvent folds a typed event into the window. Non-swap events are ignored.
func (a *Accumulator) AddEvent(record model.TypedEventRecord) error {
	if !strings.EqualFold(record.EventName, "swap") {
		return nil
	}
	var swap model.SwapEventData
	if err := json.Unmarshal(record.Decoded, &swap); err != nil {
		return fmt.Errorf("decode swap: %w", err)
	}
	return a.applySwap(swap, record.Timestamp)
}

func (a *Accumulator) applySwap(swap model.SwapEventData, ts uint64) error {
	amount0, err := parseBigInt(swap.Amount0)
	if err != nil {
		return err
	}
	amount1, err := parseBigInt(swap.Amount1)
	if err != nil {
		return err
	}
	sqrtPrice, err := parseBigInt(swap.SqrtPriceX96)
	if err != nil {
		return err
	}
	liquidity, err := parseBigInt(swap.Liquidity)
	if err != nil {
		return err
	}

	// positive amounts flow into the pool and pay the fee
	if amount0.Sign() > 0 {
		a.In0.Add(a.In0, amount0)
	}
	if amount1.Sign() > 0 {
		a.In1.Add(a.In1, amount1)
	}

	if ts >= a.LastTS {
		a.LastTS = ts
		a.Tick = swap.Tick
		a.SqrtPriceX96 = sqrtPrice
		a.Liquidity = liquidity
	}
	a.SwapCount++
	return nil
}

// Step converts the window into a backtest step stamped at the window end.
func (a *Accumulator) Step(decimals0, decimals1 uint8) model.Step {
	step := model.Step{
		Time:    time.Unix(int64(a.WindowEnd), 0).UTC(),
		Tick:    int(a.Tick),
		Volume0: toHuman(a.In0, decimals0),
		Volume1: toHuman(a.In1, decimals1),
	}
	if a.SqrtPriceX96 != nil && a.SqrtPriceX96.Sign() > 0 {
		step.Price = priceFromSqrtX96(a.SqrtPriceX96, decimals0, decimals1)
	}
	if a.Liquidity != nil {
		step.PoolLiquidity = a.Liquidity.String()
	}
	return step
}

func priceFromSqrtX96(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) float64 {
	ratio := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96)
	raw, _ := new(big.Float).Mul(ratio, ratio).Float64()
	return decimal.NewFromFloat(raw).Shift(int32(decimals0) - int32(decimals1)).InexactFloat64()
}

func toHuman(value *big.Int, decimals uint8) float64 {
	if value == nil {
		return 0
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).InexactFloat64()
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
