package model

import "math"

// PoolMeta holds the immutable pool parameters plus optional live state.
type PoolMeta struct {
	Token0      string     `json:"token0"`
	Token1      string     `json:"token1"`
	Fee         uint32     `json:"fee"`
	TickSpacing int32      `json:"tick_spacing"`
	Liquidity   string     `json:"liquidity,omitempty"`
	Slot0       *PoolSlot0 `json:"slot0,omitempty"`
}

// PoolSlot0 is the subset of slot0 the strategy reads.
type PoolSlot0 struct {
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
}

// TokenMeta describes one ERC20 side of the pool.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// PoolInfo is a resolved pool with both token descriptions.
type PoolInfo struct {
	ChainID   uint64    `json:"chain_id,omitempty"`
	Address   string    `json:"address"`
	Block     uint64    `json:"block,omitempty"`
	BlockTime uint64    `json:"block_time,omitempty"`
	Meta      PoolMeta  `json:"meta"`
	Token0    TokenMeta `json:"token0"`
	Token1    TokenMeta `json:"token1"`

	Reserves *PoolReserves `json:"reserves,omitempty"`
}

// PoolReserves are the token balances held by the pool, in whole-token units.
type PoolReserves struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
	Method string `json:"method"`
}

// DecimalAdjustment returns 10^(decimals1-decimals0).
func (p PoolInfo) DecimalAdjustment() float64 {
	return math.Pow(10, float64(int(p.Token1.Decimals)-int(p.Token0.Decimals)))
}

// CurrentPrice returns the token1-per-token0 price at the slot0 tick, if known.
func (p PoolInfo) CurrentPrice() (float64, bool) {
	if p.Meta.Slot0 == nil {
		return 0, false
	}
	return math.Pow(1.0001, float64(p.Meta.Slot0.Tick)) / p.DecimalAdjustment(), true
}
