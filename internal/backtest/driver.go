// Package backtest replays market steps through the rebalance controller.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"liquidityPilot/internal/metrics"
	"liquidityPilot/internal/model"
	"liquidityPilot/internal/report"
	"liquidityPilot/internal/state"
	"liquidityPilot/internal/storage"
	"liquidityPilot/internal/strategy"
	"liquidityPilot/internal/ticks"
	"liquidityPilot/internal/uniswap"
)

// feeDenominator converts a pool fee tier (hundredths of a bip) into a fraction.
const feeDenominator = 1_000_000

// ErrRunMismatch is returned when a checkpoint belongs to a different run.
var ErrRunMismatch = errors.New("checkpoint run mismatch")

// Config controls a backtest run.
type Config struct {
	Run             string
	Fee             uint32
	TickSpacing     int
	Decimals0       uint8
	Decimals1       uint8
	Amount0         float64
	Amount1         float64
	Start           time.Time
	End             time.Time
	BatchSize       int
	CheckpointEvery int
}

// Result summarizes a finished run.
type Result struct {
	Steps        int
	Skipped      int
	Resets       int
	Resumed      bool
	InitialValue float64
	Last         model.Summary
}

// Driver owns the observation and plays the pool side for the controller.
type Driver struct {
	cfg        Config
	controller *strategy.Controller
	amm        strategy.AMM
	sink       storage.Storage
	store      state.Store
	logger     *zap.Logger
	metrics    *metrics.Metrics

	obs      model.Observation
	steps    int
	lastStep time.Time
}

func NewDriver(cfg Config, controller *strategy.Controller, sink storage.Storage, store state.Store, logger *zap.Logger, m *metrics.Metrics) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Driver{
		cfg:        cfg,
		controller: controller,
		amm:        uniswap.Math{},
		sink:       sink,
		store:      store,
		logger:     logger,
		metrics:    m,
		obs: model.Observation{
			TickSpacing:  cfg.TickSpacing,
			Decimals0:    cfg.Decimals0,
			Decimals1:    cfg.Decimals1,
			LiquidityIn0: cfg.Amount0,
			LiquidityIn1: cfg.Amount1,
			ResetReason:  model.ResetNone,
		},
	}
}

// Observation returns a copy of the current observation.
func (d *Driver) Observation() model.Observation {
	obs := d.obs
	obs.Ranges = model.CloneRanges(d.obs.Ranges)
	return obs
}

// Withdraw burns every range at the current tick and folds principal, uncollected
// fees and left-overs back into LiquidityIn0/1.
func (d *Driver) Withdraw(obs model.Observation) (model.Observation, error) {
	in0 := obs.LiquidityIn0 + obs.LeftOver0 + obs.FeesUncollected0
	in1 := obs.LiquidityIn1 + obs.LeftOver1 + obs.FeesUncollected1

	for i, r := range obs.Ranges {
		if r.Liquidity == nil {
			return model.Observation{}, fmt.Errorf("range %d has no liquidity", i)
		}
		amount0, amount1 := d.amm.GetAmounts(obs.Tick, r.LowerTick, r.UpperTick, r.Liquidity, obs.Decimals0, obs.Decimals1)
		in0 += amount0
		in1 += amount1
	}

	obs.Fees0 += obs.FeesUncollected0
	obs.Fees1 += obs.FeesUncollected1
	obs.FeesUncollected0 = 0
	obs.FeesUncollected1 = 0
	obs.LeftOver0 = 0
	obs.LeftOver1 = 0
	obs.LiquidityIn0 = in0
	obs.LiquidityIn1 = in1
	obs.Ranges = nil
	return obs, nil
}

// Run replays steps in order. A stored checkpoint resumes the run after its last step.
func (d *Driver) Run(ctx context.Context, steps []model.Step) (Result, error) {
	if d.controller == nil {
		return Result{}, fmt.Errorf("controller is nil")
	}
	if d.cfg.TickSpacing <= 0 {
		return Result{}, fmt.Errorf("tick spacing must be > 0")
	}

	var res Result
	resumed, err := d.restore(ctx)
	if err != nil {
		return Result{}, err
	}
	res.Resumed = resumed

	batch := make([]model.Summary, 0, d.cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 || d.sink == nil {
			batch = batch[:0]
			return nil
		}
		if err := d.sink.PutSummaryBatch(ctx, batch); err != nil {
			return fmt.Errorf("write summaries: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			if flushErr := flush(); flushErr != nil {
				return res, flushErr
			}
			if saveErr := d.save(ctx); saveErr != nil {
				d.logger.Warn("save checkpoint on cancel", zap.Error(saveErr))
			}
			return res, err
		}
		if !d.inWindow(step.Time) {
			res.Skipped++
			continue
		}

		summary, reset, err := d.apply(step)
		if err != nil {
			return res, fmt.Errorf("step %s: %w", step.Time.UTC().Format(time.RFC3339), err)
		}
		if res.Steps == 0 && !resumed {
			res.InitialValue = summary.ValuePosition
		}
		res.Steps++
		if reset {
			res.Resets++
		}
		res.Last = summary
		batch = append(batch, summary)

		if len(batch) >= d.cfg.BatchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
		if d.cfg.CheckpointEvery > 0 && d.steps%d.cfg.CheckpointEvery == 0 {
			if err := flush(); err != nil {
				return res, err
			}
			if err := d.save(ctx); err != nil {
				return res, err
			}
		}
	}

	if err := flush(); err != nil {
		return res, err
	}
	if err := d.save(ctx); err != nil {
		return res, err
	}

	d.logger.Info("backtest complete",
		zap.String("run", d.cfg.Run),
		zap.Int("steps", res.Steps),
		zap.Int("skipped", res.Skipped),
		zap.Int("resets", res.Resets),
		zap.Float64("initial_value_token0", res.InitialValue),
		zap.Float64("final_value_token0", res.Last.ValuePosition),
	)
	return res, nil
}

func (d *Driver) apply(step model.Step) (model.Summary, bool, error) {
	adj := d.obs.DecimalAdjustment()
	price := step.Price
	tick := step.Tick
	if price <= 0 {
		price = ticks.PriceAtTick(tick, adj)
	} else if tick == 0 {
		tick = ticks.ForPriceBound(price, adj, 1)
	}

	d.obs.Time = step.Time
	d.obs.Price = price
	d.obs.Tick = tick
	d.accrueFees(step)

	decision, err := d.controller.Check(d.obs, d)
	if err != nil {
		return model.Summary{}, false, err
	}
	d.obs = decision.Observation
	d.obs.Ranges = model.CloneRanges(decision.Observation.Ranges)
	d.steps++
	d.lastStep = step.Time
	d.metrics.Steps.Inc()

	summary, err := report.Summarize(d.obs)
	if err != nil {
		return model.Summary{}, false, err
	}
	d.metrics.PositionValue.Set(summary.ValuePosition)
	return summary, d.obs.ResetPoint, nil
}

// accrueFees credits the step's inflow volume to in-range positions pro rata to
// their share of active liquidity.
func (d *Driver) accrueFees(step model.Step) {
	if d.cfg.Fee == 0 || (step.Volume0 == 0 && step.Volume1 == 0) || len(d.obs.Ranges) == 0 {
		return
	}
	poolLiquidity, ok := new(big.Int).SetString(step.PoolLiquidity, 10)
	if !ok || poolLiquidity.Sign() <= 0 {
		return
	}

	rate := float64(d.cfg.Fee) / feeDenominator
	for _, r := range d.obs.Ranges {
		if r.Liquidity == nil || r.Liquidity.Sign() <= 0 || !r.InRange(d.obs.Tick) {
			continue
		}
		share := liquidityShare(r.Liquidity, poolLiquidity)
		d.obs.FeesUncollected0 += step.Volume0 * rate * share
		d.obs.FeesUncollected1 += step.Volume1 * rate * share
	}
}

func liquidityShare(position, pool *big.Int) float64 {
	total := new(big.Float).SetInt(new(big.Int).Add(position, pool))
	share, _ := new(big.Float).Quo(new(big.Float).SetInt(position), total).Float64()
	return share
}

func (d *Driver) inWindow(t time.Time) bool {
	if !d.cfg.Start.IsZero() && t.Before(d.cfg.Start) {
		return false
	}
	if !d.cfg.End.IsZero() && t.After(d.cfg.End) {
		return false
	}
	if !d.lastStep.IsZero() && !t.After(d.lastStep) {
		return false
	}
	return true
}

func (d *Driver) restore(ctx context.Context) (bool, error) {
	if d.store == nil {
		return false, nil
	}
	cp, ok, err := d.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load checkpoint: %w", err)
	}
	if !ok {
		return false, nil
	}
	if cp.Run != "" && d.cfg.Run != "" && cp.Run != d.cfg.Run {
		return false, fmt.Errorf("%w: checkpoint run %q, want %q", ErrRunMismatch, cp.Run, d.cfg.Run)
	}

	d.obs = cp.Observation
	d.steps = cp.Steps
	d.lastStep = cp.LastStep
	d.controller.Restore(cp.Controller)

	d.logger.Info("resuming from checkpoint",
		zap.String("run", cp.Run),
		zap.Time("last_step", cp.LastStep),
		zap.Int("steps", cp.Steps),
	)
	return true, nil
}

func (d *Driver) save(ctx context.Context) error {
	if d.store == nil || d.steps == 0 {
		return nil
	}
	cp := state.Checkpoint{
		Run:         d.cfg.Run,
		LastStep:    d.lastStep,
		Steps:       d.steps,
		Controller:  d.controller.State(),
		Observation: d.Observation(),
	}
	if err := d.store.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
