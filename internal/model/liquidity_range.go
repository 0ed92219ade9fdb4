package model

import (
	"math/big"
	"time"
)

// Position indexes inside the two-range allocation.
const (
	BaseOrder  = 0
	LimitOrder = 1
)

// LiquidityRange is one deployed position.
type LiquidityRange struct {
	Price      float64   `json:"price"`
	LowerTick  int       `json:"lower_tick"`
	UpperTick  int       `json:"upper_tick"`
	LowerPrice float64   `json:"lower_price"`
	UpperPrice float64   `json:"upper_price"`
	Time       time.Time `json:"time"`
	ResetTime  time.Time `json:"reset_time"`
	Token0     float64   `json:"token0"`
	Token1     float64   `json:"token1"`
	Liquidity  *big.Int  `json:"position_liquidity"`
}

// InRange reports whether the pool tick sits inside [LowerTick, UpperTick).
func (r LiquidityRange) InRange(tick int) bool {
	return tick >= r.LowerTick && tick < r.UpperTick
}
