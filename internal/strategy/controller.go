package strategy

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"liquidityPilot/internal/metrics"
	"liquidityPilot/internal/model"
	"liquidityPilot/internal/signal"
)

// Withdrawer burns the deployed positions and collects fees, returning the observation
// with that capital folded back into LiquidityIn0/1.
type Withdrawer interface {
	Withdraw(obs model.Observation) (model.Observation, error)
}

// RebalanceState is the controller memory carried between steps.
type RebalanceState struct {
	LastCheck  *time.Time   `json:"last_check,omitempty"`
	LastSignal model.Signal `json:"last_signal"`
}

// Decision is the outcome of one Check. Observation holds the ranges, strategy info,
// capital and reset flags the driver should adopt.
type Decision struct {
	Reallocated bool
	Observation model.Observation
}

// Controller is the per-step rebalance entry point.
type Controller struct {
	allocator *Allocator
	feed      signal.Source
	logger    *zap.Logger
	metrics   *metrics.Metrics
	state     RebalanceState
}

func NewController(allocator *Allocator, feed signal.Source, logger *zap.Logger, m *metrics.Metrics) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Controller{
		allocator: allocator,
		feed:      feed,
		logger:    logger,
		metrics:   m,
	}
}

// State returns a copy of the controller memory.
func (c *Controller) State() RebalanceState {
	st := c.state
	if st.LastCheck != nil {
		ts := *st.LastCheck
		st.LastCheck = &ts
	}
	return st
}

// Restore replaces the controller memory, e.g. when resuming from a checkpoint.
func (c *Controller) Restore(st RebalanceState) {
	if st.LastCheck != nil {
		ts := *st.LastCheck
		st.LastCheck = &ts
	}
	c.state = st
}

// Check refreshes the signal once per hour-of-day and resets the positions when the
// signal changed or the price left the reset band. Without strategy info it allocates
// from scratch.
func (c *Controller) Check(obs model.Observation, w Withdrawer) (Decision, error) {
	signalChanged := false
	if c.isNewHour(obs.Time) {
		sig, ok := c.feed.Lookup(obs.Time)
		if !ok {
			c.logger.Warn("signal not found, default to neutral", zap.Time("time", obs.Time))
			c.metrics.SignalLookupMiss.Inc()
			sig = model.SignalNeutral
		}
		signalChanged = sig != c.state.LastSignal
		c.state.LastSignal = sig
		ts := obs.Time
		c.state.LastCheck = &ts
	}

	out := obs
	out.ResetPoint = false
	out.ResetReason = model.ResetNone

	if obs.StrategyInfo == nil {
		c.logger.Info("initial allocation", zap.Time("time", obs.Time), zap.Int("signal", int(c.state.LastSignal)))
		return Decision{Reallocated: true, Observation: c.allocate(out)}, nil
	}

	leftLow := obs.Price < obs.StrategyInfo.ResetRangeLower
	leftHigh := obs.Price > obs.StrategyInfo.ResetRangeUpper
	if !signalChanged && !leftLow && !leftHigh {
		return Decision{Observation: out}, nil
	}

	reason := model.ResetNewSignal
	if leftLow || leftHigh {
		reason = model.ResetLeaveRange
	}

	if w != nil {
		withdrawn, err := w.Withdraw(out)
		if err != nil {
			return Decision{}, fmt.Errorf("withdraw liquidity: %w", err)
		}
		out = withdrawn
	}
	out.ResetPoint = true
	out.ResetReason = reason
	c.metrics.Reset(reason).Inc()

	c.logger.Debug("reset",
		zap.Time("time", obs.Time),
		zap.String("reason", string(reason)),
		zap.Float64("price", obs.Price),
		zap.Float64("band_lower", obs.StrategyInfo.ResetRangeLower),
		zap.Float64("band_upper", obs.StrategyInfo.ResetRangeUpper),
		zap.Int("signal", int(c.state.LastSignal)),
	)

	return Decision{Reallocated: true, Observation: c.allocate(out)}, nil
}

func (c *Controller) isNewHour(t time.Time) bool {
	if c.state.LastCheck == nil {
		return true
	}
	return c.state.LastCheck.UTC().Hour() != t.UTC().Hour()
}

func (c *Controller) allocate(obs model.Observation) model.Observation {
	alloc := c.allocator.Reallocate(obs, c.state.LastSignal)
	c.metrics.Allocations.Inc()

	info := alloc.Info
	obs.Ranges = []model.LiquidityRange{alloc.Ranges[model.BaseOrder], alloc.Ranges[model.LimitOrder]}
	obs.StrategyInfo = &info
	obs.LeftOver0 = alloc.LeftOver0
	obs.LeftOver1 = alloc.LeftOver1
	obs.LiquidityIn0 = 0
	obs.LiquidityIn1 = 0
	return obs
}
