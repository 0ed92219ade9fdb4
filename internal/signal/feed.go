// Package signal holds the pre-loaded external signal series.
package signal

import (
	"sort"
	"time"

	"liquidityPilot/internal/model"
)

// Source resolves the signal effective at a time. ok is false when t is beyond the series.
type Source interface {
	Lookup(t time.Time) (model.Signal, bool)
}

// Feed is an immutable, time-sorted signal series.
type Feed struct {
	points []model.SignalPoint
}

// NewFeed copies and sorts points by time.
func NewFeed(points []model.SignalPoint) *Feed {
	sorted := make([]model.SignalPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return &Feed{points: sorted}
}

// Lookup returns the first entry at or after t (left-insertion search).
func (f *Feed) Lookup(t time.Time) (model.Signal, bool) {
	if f == nil {
		return model.SignalNeutral, false
	}
	idx := sort.Search(len(f.points), func(i int) bool {
		return !f.points[i].Time.Before(t)
	})
	if idx >= len(f.points) {
		return model.SignalNeutral, false
	}
	return f.points[idx].Value, true
}

// Len returns the number of entries.
func (f *Feed) Len() int {
	if f == nil {
		return 0
	}
	return len(f.points)
}

// Span returns the first and last entry times.
func (f *Feed) Span() (time.Time, time.Time) {
	if f.Len() == 0 {
		return time.Time{}, time.Time{}
	}
	return f.points[0].Time, f.points[len(f.points)-1].Time
}
