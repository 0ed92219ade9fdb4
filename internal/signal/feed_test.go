package signal

import (
	"strings"
	"testing"
	"time"

	"liquidityPilot/internal/model"
)

func at(hour int) time.Time {
	return time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
}

func TestFeedLookupLeftSearch(t *testing.T) {
	feed := NewFeed([]model.SignalPoint{
		{Time: at(3), Value: model.SignalLong},
		{Time: at(1), Value: model.SignalShort},
		{Time: at(2), Value: model.SignalNeutral},
	})

	cases := []struct {
		query time.Time
		want  model.Signal
	}{
		{query: at(0), want: model.SignalShort},
		{query: at(1), want: model.SignalShort},
		{query: at(1).Add(30 * time.Minute), want: model.SignalNeutral},
		{query: at(3), want: model.SignalLong},
	}
	for _, tc := range cases {
		got, ok := feed.Lookup(tc.query)
		if !ok {
			t.Fatalf("lookup %v: expected hit", tc.query)
		}
		if got != tc.want {
			t.Fatalf("lookup %v: got %d want %d", tc.query, got, tc.want)
		}
	}
}

func TestFeedLookupMissBeyondRange(t *testing.T) {
	feed := NewFeed([]model.SignalPoint{{Time: at(1), Value: model.SignalNeutral}})
	got, ok := feed.Lookup(at(2))
	if ok {
		t.Fatalf("expected miss")
	}
	if got != model.SignalNeutral {
		t.Fatalf("miss should default to neutral")
	}

	var empty *Feed
	if _, ok := empty.Lookup(at(0)); ok {
		t.Fatalf("nil feed should miss")
	}
}

func TestParseCSVAppliesOffset(t *testing.T) {
	input := "date,signal\n2024-01-01 00:00:00,1\n2024-01-01T01:00:00Z,-1.0\n2024-01-02,0\n"
	points, err := ParseCSV(strings.NewReader(input), time.Hour)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if !points[0].Time.Equal(at(1)) || points[0].Value != model.SignalLong {
		t.Fatalf("first point mismatch: %+v", points[0])
	}
	if !points[1].Time.Equal(at(2)) || points[1].Value != model.SignalShort {
		t.Fatalf("second point mismatch: %+v", points[1])
	}
	if !points[2].Time.Equal(time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)) {
		t.Fatalf("third point mismatch: %+v", points[2])
	}
}

func TestParseCSVRejectsBadInput(t *testing.T) {
	bad := []string{
		"",
		"time,value\n2024-01-01,1\n",
		"date,signal\nnot-a-date,1\n",
		"date,signal\n2024-01-01,2\n",
		"date,signal\n2024-01-01,0.5\n",
	}
	for _, input := range bad {
		if _, err := ParseCSV(strings.NewReader(input), 0); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
