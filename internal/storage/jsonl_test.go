package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"liquidityPilot/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.jsonl")
	sink := NewJsonlStorage(path)
	ctx := context.Background()

	first := model.Summary{Time: time.Unix(3600, 0).UTC(), Price: 100, ResetReason: model.ResetNone}
	second := model.Summary{Time: time.Unix(7200, 0).UTC(), Price: 90, ResetPoint: true, ResetReason: model.ResetLeaveRange}

	if err := sink.PutSummaryBatch(ctx, []model.Summary{first}); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := sink.PutSummaryBatch(ctx, []model.Summary{second}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	if err := sink.PutSummaryBatch(ctx, nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}

	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0] != first || rows[1] != second {
		t.Fatalf("rows mismatch: %+v", rows)
	}

	if err := sink.Truncate(); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if rows := readRows(t, path); len(rows) != 0 {
		t.Fatalf("expected empty file, got %d rows", len(rows))
	}
}

type failingSink struct{ calls int }

func (f *failingSink) PutSummaryBatch(context.Context, []model.Summary) error {
	f.calls++
	return errors.New("boom")
}

func TestMultiStopsAtFirstError(t *testing.T) {
	failing := &failingSink{}
	after := &failingSink{}
	multi := Multi{nil, failing, after}
	if err := multi.PutSummaryBatch(context.Background(), []model.Summary{{}}); err == nil {
		t.Fatalf("expected error")
	}
	if failing.calls != 1 || after.calls != 0 {
		t.Fatalf("unexpected calls: %d %d", failing.calls, after.calls)
	}
}

func readRows(t *testing.T, path string) []model.Summary {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var rows []model.Summary
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var row model.Summary
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			t.Fatalf("decode: %v", err)
		}
		rows = append(rows, row)
	}
	return rows
}
