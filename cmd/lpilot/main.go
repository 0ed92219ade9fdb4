package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	root := &cobra.Command{
		Use:          "lpilot",
		Short:        "Signal-driven Uniswap V3 liquidity strategy backtester",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay market steps through the rebalance strategy",
		RunE:  runBacktest,
	}

	backtestCmd.Flags().Float64("base-width", 0.05, "base order half-width as a price fraction")
	backtestCmd.Flags().Float64("base-width-large", 0.10, "base order width on the signal-favoured side")
	backtestCmd.Flags().Float64("limit-width", 0.02, "limit order width as a price fraction")
	backtestCmd.Flags().Float64("limit-width-large", 0.04, "limit order width when the signal favours that side")
	backtestCmd.Flags().Float64("alpha", 0.10, "reset band half-width as a price fraction")
	backtestCmd.Flags().Float64("alpha-large", 0.20, "reset band width on the signal-favoured side")
	backtestCmd.Flags().String("params", "", "YAML strategy parameter preset")
	backtestCmd.Flags().String("steps", "", "input market steps JSONL")
	backtestCmd.Flags().String("swaps", "", "input decoded Swap events JSONL")
	backtestCmd.Flags().Duration("window", time.Hour, "swap aggregation window (e.g. 5m, 1h)")
	backtestCmd.Flags().String("signals", "", "signal CSV with date,signal columns")
	backtestCmd.Flags().Duration("signal-offset", time.Hour, "shift applied to CSV signal timestamps")
	backtestCmd.Flags().String("signal-series", "default", "signal series name when loading from Postgres")
	backtestCmd.Flags().String("run", "default", "run identifier for outputs and checkpoints")
	backtestCmd.Flags().String("pg-dsn", "", "Postgres DSN for signals, summaries, and state")
	backtestCmd.Flags().Float64("amount0", 0, "starting token0 capital")
	backtestCmd.Flags().Float64("amount1", 0, "starting token1 capital")
	backtestCmd.Flags().Uint("decimals0", 18, "token0 decimals")
	backtestCmd.Flags().Uint("decimals1", 18, "token1 decimals")
	backtestCmd.Flags().Int("tick-spacing", 60, "pool tick spacing")
	backtestCmd.Flags().Uint32("fee", 3000, "pool fee in hundredths of a bip")
	backtestCmd.Flags().String("rpc", "", "RPC URL used to resolve --pool")
	backtestCmd.Flags().String("pool", "", "pool address; overrides decimals, tick spacing, and fee")
	backtestCmd.Flags().String("out", "./data/summary.jsonl", "output summary JSONL path")
	backtestCmd.Flags().String("state-file", "", "checkpoint JSON file")
	backtestCmd.Flags().String("sqlite", "", "checkpoint sqlite database")
	backtestCmd.Flags().Int("checkpoint-every", 100, "steps between checkpoints")
	backtestCmd.Flags().Int("batch-size", 500, "summary rows per write")
	backtestCmd.Flags().String("start", "", "first step to replay (unix seconds or RFC3339)")
	backtestCmd.Flags().String("end", "", "last step to replay (unix seconds or RFC3339)")
	backtestCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	backtestCmd.Flags().Int("max-retries", 5, "maximum RPC retry attempts")
	backtestCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	backtestCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	backtestCmd.Flags().String("log-file", "", "also write logs to this rotated file")

	root.AddCommand(backtestCmd)

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Print pool and token metadata",
		RunE:  runPool,
	}

	poolCmd.Flags().String("rpc", "", "RPC URL")
	poolCmd.Flags().String("pool", "", "pool address")
	poolCmd.Flags().Uint64("block", 0, "block height for live state, 0 means latest")
	poolCmd.Flags().Bool("live", false, "include slot0 and liquidity")
	poolCmd.Flags().Int("max-retries", 5, "maximum RPC retry attempts")
	poolCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	poolCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(poolCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil || file == "" {
		return logger, err
	}

	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	rotated := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), rotated, cfg.Level)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}
