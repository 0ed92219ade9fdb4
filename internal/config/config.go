package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"liquidityPilot/internal/strategy"
)

// ErrInvalidConfig marks a configuration that cannot drive a run.
var ErrInvalidConfig = errors.New("invalid config")

// BacktestConfig holds configuration for the backtest command.
type BacktestConfig struct {
	Params     strategy.Params
	ParamsFile string

	Steps        string
	Swaps        string
	Window       time.Duration
	Signals      string
	SignalOffset time.Duration
	SignalSeries string
	Run          string
	PGDSN        string
	Amount0      float64
	Amount1      float64
	Decimals0    uint8
	Decimals1    uint8
	TickSpacing  int
	Fee          uint32
	RPCURL       string
	Pool         string
	Out          string
	StateFile    string
	SQLite       string
	Checkpoint   int
	Start        time.Time
	End          time.Time
	MetricsAddr  string
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
	LogFile      string
}

// PoolConfig holds configuration for the pool command.
type PoolConfig struct {
	RPCURL       string
	Pool         string
	Block        uint64
	Live         bool
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadBacktest merges config file, environment variables, and flags into BacktestConfig.
func LoadBacktest(cfgFile string, flags *pflag.FlagSet) (BacktestConfig, error) {
	v := viper.New()
	v.SetDefault("window", time.Hour)
	v.SetDefault("signal-offset", time.Hour)
	v.SetDefault("signal-series", "default")
	v.SetDefault("run", "default")
	v.SetDefault("decimals0", 18)
	v.SetDefault("decimals1", 18)
	v.SetDefault("tick-spacing", 60)
	v.SetDefault("fee", 3000)
	v.SetDefault("out", "./data/summary.jsonl")
	v.SetDefault("checkpoint-every", 100)
	v.SetDefault("batch-size", 500)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if err := readInto(v, cfgFile, flags); err != nil {
		return BacktestConfig{}, err
	}

	cfg := BacktestConfig{
		Params: strategy.Params{
			BaseOrderWidth:       v.GetFloat64("base-width"),
			BaseOrderWidthLarge:  v.GetFloat64("base-width-large"),
			LimitOrderWidth:      v.GetFloat64("limit-width"),
			LimitOrderWidthLarge: v.GetFloat64("limit-width-large"),
			Alpha:                v.GetFloat64("alpha"),
			AlphaLarge:           v.GetFloat64("alpha-large"),
		},
		ParamsFile:   v.GetString("params"),
		Steps:        v.GetString("steps"),
		Swaps:        v.GetString("swaps"),
		Window:       v.GetDuration("window"),
		Signals:      v.GetString("signals"),
		SignalOffset: v.GetDuration("signal-offset"),
		SignalSeries: v.GetString("signal-series"),
		Run:          v.GetString("run"),
		PGDSN:        v.GetString("pg-dsn"),
		Amount0:      v.GetFloat64("amount0"),
		Amount1:      v.GetFloat64("amount1"),
		Decimals0:    uint8(v.GetUint("decimals0")),
		Decimals1:    uint8(v.GetUint("decimals1")),
		TickSpacing:  v.GetInt("tick-spacing"),
		Fee:          v.GetUint32("fee"),
		RPCURL:       v.GetString("rpc"),
		Pool:         v.GetString("pool"),
		Out:          v.GetString("out"),
		StateFile:    v.GetString("state-file"),
		SQLite:       v.GetString("sqlite"),
		Checkpoint:   v.GetInt("checkpoint-every"),
		MetricsAddr:  v.GetString("metrics-addr"),
		BatchSize:    v.GetInt("batch-size"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
		LogFile:      v.GetString("log-file"),
	}

	start, err := parseTime(v.GetString("start"))
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("parse start: %w", err)
	}
	end, err := parseTime(v.GetString("end"))
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("parse end: %w", err)
	}
	cfg.Start, cfg.End = start, end

	if cfg.ParamsFile != "" {
		params, err := LoadParams(cfg.ParamsFile, cfg.Params)
		if err != nil {
			return BacktestConfig{}, err
		}
		cfg.Params = params
	}

	return cfg, nil
}

// Validate checks that the configuration describes a runnable backtest.
func (c BacktestConfig) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if (c.Steps == "") == (c.Swaps == "") {
		return fmt.Errorf("%w: exactly one of steps or swaps is required", ErrInvalidConfig)
	}
	if c.Swaps != "" && c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive", ErrInvalidConfig)
	}
	if c.Signals == "" && c.PGDSN == "" {
		return fmt.Errorf("%w: signals csv or pg-dsn is required", ErrInvalidConfig)
	}
	if c.Amount0 < 0 || c.Amount1 < 0 || c.Amount0+c.Amount1 <= 0 {
		return fmt.Errorf("%w: starting capital must be positive", ErrInvalidConfig)
	}
	if c.Pool == "" && c.TickSpacing <= 0 {
		return fmt.Errorf("%w: tick spacing must be positive", ErrInvalidConfig)
	}
	if c.Pool != "" && c.RPCURL == "" {
		return fmt.Errorf("%w: rpc is required with pool", ErrInvalidConfig)
	}
	if c.StateFile != "" && c.SQLite != "" {
		return fmt.Errorf("%w: state-file and sqlite are mutually exclusive", ErrInvalidConfig)
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.End.Before(c.Start) {
		return fmt.Errorf("%w: end before start", ErrInvalidConfig)
	}
	return nil
}

// LoadPool merges config file, environment variables, and flags into PoolConfig.
func LoadPool(cfgFile string, flags *pflag.FlagSet) (PoolConfig, error) {
	v := viper.New()
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if err := readInto(v, cfgFile, flags); err != nil {
		return PoolConfig{}, err
	}

	cfg := PoolConfig{
		RPCURL:       v.GetString("rpc"),
		Pool:         v.GetString("pool"),
		Block:        v.GetUint64("block"),
		Live:         v.GetBool("live"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}
	if cfg.RPCURL == "" || cfg.Pool == "" {
		return PoolConfig{}, fmt.Errorf("%w: rpc and pool are required", ErrInvalidConfig)
	}
	return cfg, nil
}

func readInto(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix("LPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("lpilot")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}
	return nil
}

func parseTime(input string) (time.Time, error) {
	ts, err := ParseTimestamp(input)
	if err != nil || ts == 0 {
		return time.Time{}, err
	}
	return time.Unix(int64(ts), 0).UTC(), nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
