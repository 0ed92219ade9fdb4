package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"liquidityPilot/internal/model"
)

const (
	reserveMethodBlock  = "balance_of_block"
	reserveMethodLatest = "balance_of_latest"
)

const erc20BalanceOfABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	balanceOfABI    abi.ABI
	balanceOfOnce   sync.Once
	balanceOfABIErr error
)

func getBalanceOfABI() (abi.ABI, error) {
	balanceOfOnce.Do(func() {
		balanceOfABI, balanceOfABIErr = abi.JSON(strings.NewReader(erc20BalanceOfABIJSON))
	})
	return balanceOfABI, balanceOfABIErr
}

// FetchPoolReserves reads the token balances held by the pool. It tries the
// requested block first and falls back to latest when the node has pruned it.
func FetchPoolReserves(ctx context.Context, caller Caller, pool common.Address, token0, token1 model.TokenMeta, blockNumber uint64) (model.PoolReserves, error) {
	var blockPtr *big.Int
	if blockNumber > 0 {
		blockPtr = new(big.Int).SetUint64(blockNumber)
	}

	addr0 := common.HexToAddress(token0.Address)
	addr1 := common.HexToAddress(token1.Address)

	method := reserveMethodBlock
	if blockPtr == nil {
		method = reserveMethodLatest
	}
	bal0, err0 := balanceOf(ctx, caller, addr0, pool, blockPtr)
	bal1, err1 := balanceOf(ctx, caller, addr1, pool, blockPtr)
	if (err0 != nil || err1 != nil) && blockPtr != nil {
		method = reserveMethodLatest
		bal0, err0 = balanceOf(ctx, caller, addr0, pool, nil)
		bal1, err1 = balanceOf(ctx, caller, addr1, pool, nil)
	}
	if err0 != nil {
		return model.PoolReserves{}, fmt.Errorf("token0 balance: %w", err0)
	}
	if err1 != nil {
		return model.PoolReserves{}, fmt.Errorf("token1 balance: %w", err1)
	}

	return model.PoolReserves{
		Token0: formatTokenAmount(bal0, token0.Decimals),
		Token1: formatTokenAmount(bal1, token1.Decimals),
		Method: method,
	}, nil
}

func balanceOf(ctx context.Context, caller Caller, token common.Address, owner common.Address, blockNumber *big.Int) (*big.Int, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	balanceABI, err := getBalanceOfABI()
	if err != nil {
		return nil, err
	}

	data, err := balanceABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	msg := ethereumCall(token, data)
	resp, err := caller.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}

	values, err := balanceABI.Unpack("balanceOf", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("balanceOf return size %d", len(values))
	}
	bal, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf unexpected type %T", values[0])
	}
	return bal, nil
}

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
