package model

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"
)

func TestDecimalAdjustment(t *testing.T) {
	obs := Observation{Decimals0: 6, Decimals1: 18}
	if got := obs.DecimalAdjustment(); got != 1e12 {
		t.Fatalf("adjustment mismatch: %v", got)
	}

	obs = Observation{Decimals0: 18, Decimals1: 6}
	if got := obs.DecimalAdjustment(); got != 1e-12 {
		t.Fatalf("adjustment mismatch: %v", got)
	}
}

func TestLiquidityRangeInRange(t *testing.T) {
	r := LiquidityRange{LowerTick: -60, UpperTick: 60}
	if !r.InRange(-60) || !r.InRange(59) {
		t.Fatalf("expected ticks inside range")
	}
	if r.InRange(60) || r.InRange(-61) {
		t.Fatalf("expected ticks outside range")
	}
}

func TestLiquidityRangeJSONKeepsLiquidity(t *testing.T) {
	liq, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	original := LiquidityRange{LowerTick: 10, UpperTick: 20, Liquidity: liq}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded LiquidityRange
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Liquidity == nil || decoded.Liquidity.Cmp(liq) != 0 {
		t.Fatalf("liquidity mismatch: %v", decoded.Liquidity)
	}
}

func TestCloneRangesDoesNotAlias(t *testing.T) {
	src := []LiquidityRange{{LowerTick: 1, UpperTick: 2}, {LowerTick: 3, UpperTick: 4}}
	dst := CloneRanges(src)
	dst[0].LowerTick = 100
	if src[0].LowerTick != 1 {
		t.Fatalf("clone aliases source")
	}
	if CloneRanges(nil) != nil {
		t.Fatalf("nil clone should stay nil")
	}
}

func TestPoolInfoCurrentPrice(t *testing.T) {
	info := PoolInfo{
		Token0: TokenMeta{Decimals: 18},
		Token1: TokenMeta{Decimals: 6},
	}
	if _, ok := info.CurrentPrice(); ok {
		t.Fatalf("expected no price without slot0")
	}

	info.Meta.Slot0 = &PoolSlot0{Tick: -200311}
	price, ok := info.CurrentPrice()
	if !ok {
		t.Fatalf("expected price")
	}
	if math.Abs(price-2000)/2000 > 1e-3 {
		t.Fatalf("expected ~2000, got %v", price)
	}
}
