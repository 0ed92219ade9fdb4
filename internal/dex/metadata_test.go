package dex

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityPilot/internal/model"
)

type fakeCaller struct {
	responses map[common.Address]map[string][]byte
	calls     int
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	byTarget, ok := f.responses[*msg.To]
	if !ok {
		return nil, errors.New("unknown contract")
	}
	resp, ok := byTarget[string(msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return resp, nil
}

func (f *fakeCaller) set(t *testing.T, to common.Address, parsed abi.ABI, method string, values ...interface{}) {
	t.Helper()
	m, ok := parsed.Methods[method]
	if !ok {
		t.Fatalf("unknown method %s", method)
	}
	data, err := m.Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	if f.responses == nil {
		f.responses = make(map[common.Address]map[string][]byte)
	}
	if f.responses[to] == nil {
		f.responses[to] = make(map[string][]byte)
	}
	f.responses[to][string(m.ID)] = data
}

var (
	testPool   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testToken0 = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testToken1 = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func newFakePool(t *testing.T) *fakeCaller {
	t.Helper()
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		t.Fatalf("erc20 bytes32 abi: %v", err)
	}

	caller := &fakeCaller{}
	caller.set(t, testPool, poolABI, "token0", testToken0)
	caller.set(t, testPool, poolABI, "token1", testToken1)
	caller.set(t, testPool, poolABI, "fee", big.NewInt(3000))
	caller.set(t, testPool, poolABI, "tickSpacing", big.NewInt(60))
	caller.set(t, testPool, poolABI, "liquidity", big.NewInt(123456789))
	caller.set(t, testPool, poolABI, "slot0",
		new(big.Int).Lsh(big.NewInt(1), 96),
		big.NewInt(-120),
		uint16(1), uint16(1), uint16(1), uint8(0), true,
	)

	caller.set(t, testToken0, stringABI, "decimals", uint8(18))
	caller.set(t, testToken0, stringABI, "symbol", "WETH")
	caller.set(t, testToken0, stringABI, "name", "Wrapped Ether")

	balanceABI, err := getBalanceOfABI()
	if err != nil {
		t.Fatalf("balance abi: %v", err)
	}
	caller.set(t, testToken0, balanceABI, "balanceOf", big.NewInt(1_500_000_000_000_000_000))
	caller.set(t, testToken1, balanceABI, "balanceOf", big.NewInt(2_500_000_000))

	var symbol [32]byte
	copy(symbol[:], "MKR")
	caller.set(t, testToken1, stringABI, "decimals", uint8(6))
	caller.set(t, testToken1, bytes32ABI, "symbol", symbol)
	return caller
}

func TestResolvePool(t *testing.T) {
	caller := newFakePool(t)

	info, err := ResolvePool(context.Background(), caller, testPool, 0, true, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Meta.Fee != 3000 || info.Meta.TickSpacing != 60 {
		t.Fatalf("pool meta mismatch: %+v", info.Meta)
	}
	if !strings.EqualFold(info.Meta.Token0, testToken0.Hex()) || !strings.EqualFold(info.Meta.Token1, testToken1.Hex()) {
		t.Fatalf("token mismatch: %+v", info.Meta)
	}
	if info.Meta.Liquidity != "123456789" {
		t.Fatalf("liquidity mismatch: %s", info.Meta.Liquidity)
	}
	if info.Meta.Slot0 == nil || info.Meta.Slot0.Tick != -120 {
		t.Fatalf("slot0 mismatch: %+v", info.Meta.Slot0)
	}
	if info.Token0.Decimals != 18 || info.Token0.Symbol != "WETH" || info.Token0.Name != "Wrapped Ether" {
		t.Fatalf("token0 mismatch: %+v", info.Token0)
	}
	if info.Token1.Decimals != 6 || info.Token1.Symbol != "MKR" || info.Token1.Name != "" {
		t.Fatalf("token1 mismatch: %+v", info.Token1)
	}
	if info.Reserves == nil || info.Reserves.Token0 != "1.5" || info.Reserves.Token1 != "2500" {
		t.Fatalf("reserves mismatch: %+v", info.Reserves)
	}
	if info.Reserves.Method != reserveMethodLatest {
		t.Fatalf("expected latest method, got %s", info.Reserves.Method)
	}
	if adj := info.DecimalAdjustment(); adj != 1e-12 {
		t.Fatalf("adjustment mismatch: %v", adj)
	}
}

func TestResolvePoolUsesTokenCache(t *testing.T) {
	caller := newFakePool(t)
	cache := NewTokenMetaCache()

	if _, err := ResolvePool(context.Background(), caller, testPool, 0, false, cache, nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	first := caller.calls
	if _, err := ResolvePool(context.Background(), caller, testPool, 0, false, cache, nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// only the four immutable pool calls repeat
	if got := caller.calls - first; got != 4 {
		t.Fatalf("expected 4 calls on cached resolve, got %d", got)
	}
}

func TestResolvePoolWithoutLiveState(t *testing.T) {
	caller := newFakePool(t)
	info, err := ResolvePool(context.Background(), caller, testPool, 0, false, nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Meta.Slot0 != nil || info.Meta.Liquidity != "" || info.Reserves != nil {
		t.Fatalf("expected no live state: %+v", info)
	}
}

func TestFetchPoolMetaErrors(t *testing.T) {
	if _, err := FetchPoolMeta(context.Background(), nil, testPool); err == nil {
		t.Fatalf("expected nil client error")
	}
	caller := &fakeCaller{}
	if _, err := FetchPoolMeta(context.Background(), caller, testPool); err == nil {
		t.Fatalf("expected call error")
	}
}

func TestFetchTokenMetaRequiresDecimals(t *testing.T) {
	caller := newFakePool(t)
	unknown := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	meta, err := FetchTokenMeta(context.Background(), caller, unknown, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if meta.Address != unknown.Hex() {
		t.Fatalf("expected address on error, got %+v", meta)
	}
}

type prunedCaller struct{ *fakeCaller }

func (p prunedCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	if block != nil {
		return nil, errors.New("missing trie node")
	}
	return p.fakeCaller.CallContract(ctx, msg, block)
}

func TestFetchPoolReservesFallsBackToLatest(t *testing.T) {
	caller := prunedCaller{newFakePool(t)}
	token0 := model.TokenMeta{Address: testToken0.Hex(), Decimals: 18}
	token1 := model.TokenMeta{Address: testToken1.Hex(), Decimals: 6}

	reserves, err := FetchPoolReserves(context.Background(), caller, testPool, token0, token1, 12345)
	if err != nil {
		t.Fatalf("reserves: %v", err)
	}
	if reserves.Method != reserveMethodLatest || reserves.Token0 != "1.5" {
		t.Fatalf("unexpected reserves: %+v", reserves)
	}

	reserves, err = FetchPoolReserves(context.Background(), caller.fakeCaller, testPool, token0, token1, 12345)
	if err != nil {
		t.Fatalf("reserves: %v", err)
	}
	if reserves.Method != reserveMethodBlock {
		t.Fatalf("expected block method, got %s", reserves.Method)
	}
}

func TestFormatTokenAmount(t *testing.T) {
	cases := []struct {
		value    *big.Int
		decimals uint8
		want     string
	}{
		{nil, 18, "0"},
		{big.NewInt(123), 0, "123"},
		{big.NewInt(-1_250_000), 6, "-1.25"},
		{big.NewInt(1), 18, "0.000000000000000001"},
	}
	for _, c := range cases {
		if got := formatTokenAmount(c.value, c.decimals); got != c.want {
			t.Fatalf("format %v/%d: got %s want %s", c.value, c.decimals, got, c.want)
		}
	}
}
