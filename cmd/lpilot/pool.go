package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityPilot/internal/chain"
	"liquidityPilot/internal/config"
	"liquidityPilot/internal/dex"
)

func runPool(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, "")
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !common.IsHexAddress(cfg.Pool) {
		return fmt.Errorf("invalid pool address: %s", cfg.Pool)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	})
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	info, err := dex.ResolvePool(ctx, chainClient, common.HexToAddress(cfg.Pool), cfg.Block, cfg.Live, nil, logger)
	if err != nil {
		return err
	}

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		logger.Warn("chain id unavailable", zap.Error(err))
	} else {
		info.ChainID = chainID.Uint64()
	}
	if info.Block == 0 && cfg.Live {
		if latest, err := chainClient.LatestBlockNumber(ctx); err == nil {
			info.Block = latest
		}
	}
	if info.Block > 0 {
		if ts, err := chainClient.BlockTimestamp(ctx, info.Block); err == nil {
			info.BlockTime = ts
		} else {
			logger.Warn("block timestamp unavailable", zap.Uint64("block", info.Block), zap.Error(err))
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
