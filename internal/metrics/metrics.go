package metrics

import "liquidityPilot/internal/model"

type Counter interface {
	Inc()
}

type Gauge interface {
	Set(float64)
}

// Metrics groups the strategy counters. Zero-cost noops are used when Prometheus is off.
type Metrics struct {
	Steps            Counter
	Allocations      Counter
	SignalLookupMiss Counter
	ResetsNewSignal  Counter
	ResetsLeaveRange Counter
	PositionValue    Gauge
}

// Reset returns the counter for a reset reason.
func (m *Metrics) Reset(reason model.ResetReason) Counter {
	switch reason {
	case model.ResetNewSignal:
		return m.ResetsNewSignal
	case model.ResetLeaveRange:
		return m.ResetsLeaveRange
	default:
		return noop{}
	}
}

type noop struct{}

func (noop) Inc()        {}
func (noop) Set(float64) {}

func NewNoop() *Metrics {
	n := noop{}
	return &Metrics{
		Steps:            n,
		Allocations:      n,
		SignalLookupMiss: n,
		ResetsNewSignal:  n,
		ResetsLeaveRange: n,
		PositionValue:    n,
	}
}
