package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityPilot/internal/backtest"
	"liquidityPilot/internal/chain"
	"liquidityPilot/internal/config"
	"liquidityPilot/internal/dex"
	"liquidityPilot/internal/market"
	"liquidityPilot/internal/metrics"
	"liquidityPilot/internal/model"
	sig "liquidityPilot/internal/signal"
	"liquidityPilot/internal/state"
	"liquidityPilot/internal/state/sqlite"
	"liquidityPilot/internal/storage"
	"liquidityPilot/internal/storage/postgres"
	"liquidityPilot/internal/strategy"
)

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBacktest(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Pool != "" {
		if err := applyPool(ctx, &cfg, logger); err != nil {
			return err
		}
	}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	feed, err := loadSignals(ctx, cfg, store)
	if err != nil {
		return err
	}
	first, last := feed.Span()
	logger.Info("signals loaded",
		zap.Int("points", feed.Len()),
		zap.Time("first", first),
		zap.Time("last", last),
	)

	steps, err := loadSteps(cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.NewNoop()
	if cfg.MetricsAddr != "" {
		prom := metrics.NewPrometheus()
		srv := prom.Serve(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		m = prom.Metrics
		logger.Info("metrics server started", zap.String("addr", cfg.MetricsAddr))
	}

	stateStore, closeState, err := openStateStore(cfg, store)
	if err != nil {
		return err
	}
	defer closeState()

	jsonl := storage.NewJsonlStorage(cfg.Out)
	if stateStore == nil {
		// without a checkpoint every run starts over
		if err := jsonl.Truncate(); err != nil {
			return err
		}
	}
	sinks := storage.Multi{jsonl}
	if store != nil {
		sinks = append(sinks, &postgres.SummarySink{Store: store, Run: cfg.Run})
	}

	controller := strategy.NewController(strategy.NewAllocator(cfg.Params, nil), feed, logger, m)
	driver := backtest.NewDriver(backtest.Config{
		Run:             cfg.Run,
		Fee:             cfg.Fee,
		TickSpacing:     cfg.TickSpacing,
		Decimals0:       cfg.Decimals0,
		Decimals1:       cfg.Decimals1,
		Amount0:         cfg.Amount0,
		Amount1:         cfg.Amount1,
		Start:           cfg.Start,
		End:             cfg.End,
		BatchSize:       cfg.BatchSize,
		CheckpointEvery: cfg.Checkpoint,
	}, controller, sinks, stateStore, logger, m)

	logger.Info("backtest start",
		zap.String("run", cfg.Run),
		zap.Int("steps", len(steps)),
		zap.Float64("amount0", cfg.Amount0),
		zap.Float64("amount1", cfg.Amount1),
		zap.Int("tick_spacing", cfg.TickSpacing),
		zap.Uint32("fee", cfg.Fee),
		zap.Any("params", cfg.Params),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	_, err = driver.Run(ctx, steps)
	return err
}

func applyPool(ctx context.Context, cfg *config.BacktestConfig, logger *zap.Logger) error {
	if !common.IsHexAddress(cfg.Pool) {
		return fmt.Errorf("invalid pool address: %s", cfg.Pool)
	}
	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	})
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	info, err := dex.ResolvePool(ctx, chainClient, common.HexToAddress(cfg.Pool), 0, false, nil, logger)
	if err != nil {
		return fmt.Errorf("resolve pool: %w", err)
	}
	cfg.Decimals0 = info.Token0.Decimals
	cfg.Decimals1 = info.Token1.Decimals
	cfg.TickSpacing = int(info.Meta.TickSpacing)
	cfg.Fee = info.Meta.Fee

	logger.Info("pool resolved",
		zap.String("pool", info.Address),
		zap.String("token0", info.Token0.Symbol),
		zap.String("token1", info.Token1.Symbol),
		zap.Uint8("decimals0", cfg.Decimals0),
		zap.Uint8("decimals1", cfg.Decimals1),
		zap.Int("tick_spacing", cfg.TickSpacing),
		zap.Uint32("fee", cfg.Fee),
	)
	return nil
}

func loadSignals(ctx context.Context, cfg config.BacktestConfig, store *postgres.Store) (*sig.Feed, error) {
	if cfg.Signals != "" {
		return sig.LoadCSV(cfg.Signals, cfg.SignalOffset)
	}
	if store == nil {
		return nil, fmt.Errorf("signals csv or pg-dsn is required")
	}
	points, err := store.LoadSignals(ctx, cfg.SignalSeries)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("signal series %q is empty", cfg.SignalSeries)
	}
	return sig.NewFeed(points), nil
}

func loadSteps(cfg config.BacktestConfig, logger *zap.Logger) ([]model.Step, error) {
	if cfg.Steps != "" {
		return market.ReadStepsFile(cfg.Steps)
	}
	windowSeconds := uint64(cfg.Window.Seconds())
	if windowSeconds == 0 {
		return nil, fmt.Errorf("window must be at least 1s")
	}
	return market.ReadSwapStepsFile(cfg.Swaps, market.SwapConfig{
		WindowSeconds: windowSeconds,
		Pool:          cfg.Pool,
		Decimals0:     cfg.Decimals0,
		Decimals1:     cfg.Decimals1,
	}, logger)
}

func openStateStore(cfg config.BacktestConfig, store *postgres.Store) (state.Store, func(), error) {
	switch {
	case cfg.StateFile != "":
		return &state.FileStore{Path: cfg.StateFile}, func() {}, nil
	case cfg.SQLite != "":
		db, err := sqlite.New(cfg.SQLite)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &state.KVStore{KV: db, Run: cfg.Run}, func() { _ = db.Close() }, nil
	case store != nil:
		return &state.KVStore{KV: store, Run: cfg.Run}, func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
