package storage

import (
	"context"

	"liquidityPilot/internal/model"
)

// Storage defines a sink for per-step summary rows.
type Storage interface {
	PutSummaryBatch(ctx context.Context, rows []model.Summary) error
}

// Multi fans a batch out to every sink in order and stops at the first error.
type Multi []Storage

func (m Multi) PutSummaryBatch(ctx context.Context, rows []model.Summary) error {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutSummaryBatch(ctx, rows); err != nil {
			return err
		}
	}
	return nil
}
