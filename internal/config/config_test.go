package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"liquidityPilot/internal/strategy"
)

func backtestFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("backtest", pflag.ContinueOnError)
	flags.Float64("base-width", 0.05, "")
	flags.Float64("base-width-large", 0.10, "")
	flags.Float64("limit-width", 0.02, "")
	flags.Float64("limit-width-large", 0.04, "")
	flags.Float64("alpha", 0.1, "")
	flags.Float64("alpha-large", 0.2, "")
	flags.String("params", "", "")
	flags.String("steps", "", "")
	flags.String("signals", "", "")
	flags.Float64("amount0", 0, "")
	flags.Float64("amount1", 0, "")
	flags.String("start", "", "")
	flags.String("end", "", "")
	return flags
}

func TestLoadBacktestFlagsAndEnv(t *testing.T) {
	t.Setenv("LPILOT_AMOUNT1", "2500")
	flags := backtestFlags()
	if err := flags.Parse([]string{
		"--steps", "steps.jsonl",
		"--signals", "signals.csv",
		"--amount0", "1.5",
		"--start", "2024-01-01T00:00:00Z",
		"--end", "1704153600",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadBacktest("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Amount0 != 1.5 || cfg.Amount1 != 2500 {
		t.Fatalf("amounts mismatch: %v %v", cfg.Amount0, cfg.Amount1)
	}
	if cfg.Window != time.Hour || cfg.SignalOffset != time.Hour {
		t.Fatalf("duration defaults mismatch: %v %v", cfg.Window, cfg.SignalOffset)
	}
	if cfg.TickSpacing != 60 || cfg.Fee != 3000 || cfg.Decimals0 != 18 {
		t.Fatalf("pool defaults mismatch: %+v", cfg)
	}
	if cfg.Params.BaseOrderWidth != 0.05 || cfg.Params.AlphaLarge != 0.2 {
		t.Fatalf("params mismatch: %+v", cfg.Params)
	}
	if !cfg.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start mismatch: %s", cfg.Start)
	}
	if !cfg.End.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end mismatch: %s", cfg.End)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadBacktestParamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	content := "base_order_width: 0.08\nalpha: 0.3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}

	flags := backtestFlags()
	if err := flags.Parse([]string{"--params", path}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := LoadBacktest("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := strategy.Params{
		BaseOrderWidth:       0.08,
		BaseOrderWidthLarge:  0.10,
		LimitOrderWidth:      0.02,
		LimitOrderWidthLarge: 0.04,
		Alpha:                0.3,
		AlphaLarge:           0.2,
	}
	if cfg.Params != want {
		t.Fatalf("params mismatch: %+v", cfg.Params)
	}
}

func TestLoadParamsRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte("base_width: 0.1\n"), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}
	if _, err := LoadParams(path, strategy.Params{}); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestBacktestValidate(t *testing.T) {
	base := BacktestConfig{
		Params: strategy.Params{
			BaseOrderWidth: 0.05, BaseOrderWidthLarge: 0.1,
			LimitOrderWidth: 0.02, LimitOrderWidthLarge: 0.04,
			Alpha: 0.1, AlphaLarge: 0.2,
		},
		Steps:       "steps.jsonl",
		Signals:     "signals.csv",
		Amount0:     1,
		TickSpacing: 60,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base should validate: %v", err)
	}

	cases := map[string]func(c *BacktestConfig){
		"both inputs":  func(c *BacktestConfig) { c.Swaps = "swaps.jsonl" },
		"no inputs":    func(c *BacktestConfig) { c.Steps = "" },
		"no signals":   func(c *BacktestConfig) { c.Signals = "" },
		"no capital":   func(c *BacktestConfig) { c.Amount0 = 0 },
		"negative":     func(c *BacktestConfig) { c.Amount1 = -1 },
		"spacing":      func(c *BacktestConfig) { c.TickSpacing = 0 },
		"pool no rpc":  func(c *BacktestConfig) { c.Pool = "0x1" },
		"two stores":   func(c *BacktestConfig) { c.StateFile, c.SQLite = "a", "b" },
		"swap window":  func(c *BacktestConfig) { c.Steps, c.Swaps, c.Window = "", "s", 0 },
		"reverse time": func(c *BacktestConfig) { c.Start, c.End = time.Unix(10, 0), time.Unix(5, 0) },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}

	cfg := base
	cfg.Params.BaseOrderWidth = 0
	if err := cfg.Validate(); !errors.Is(err, strategy.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestLoadPoolRequiresRPCAndPool(t *testing.T) {
	flags := pflag.NewFlagSet("pool", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("pool", "", "")
	flags.Bool("live", false, "")
	if err := flags.Parse([]string{"--rpc", "http://localhost:8545"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := LoadPool("", flags); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	if err := flags.Set("pool", "0x1111111111111111111111111111111111111111"); err != nil {
		t.Fatalf("set pool: %v", err)
	}
	cfg, err := LoadPool("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxRetries != 5 || cfg.Live {
		t.Fatalf("unexpected pool config: %+v", cfg)
	}
}

func TestParseTimestamp(t *testing.T) {
	if v, err := ParseTimestamp(""); err != nil || v != 0 {
		t.Fatalf("empty: %v %v", v, err)
	}
	if v, err := ParseTimestamp("1700000000"); err != nil || v != 1700000000 {
		t.Fatalf("unix: %v %v", v, err)
	}
	if v, err := ParseTimestamp("2023-11-14T22:13:20Z"); err != nil || v != 1700000000 {
		t.Fatalf("rfc3339: %v %v", v, err)
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}
