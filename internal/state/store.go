package state

import (
	"context"
	"time"

	"liquidityPilot/internal/model"
	"liquidityPilot/internal/strategy"
)

// Checkpoint is everything needed to resume a backtest after the last written step.
type Checkpoint struct {
	Run         string                  `json:"run"`
	LastStep    time.Time               `json:"last_step"`
	Steps       int                     `json:"steps"`
	Controller  strategy.RebalanceState `json:"controller"`
	Observation model.Observation       `json:"observation"`
	UpdatedAt   string                  `json:"updated_at"`
}

// Store persists checkpoints.
type Store interface {
	Load(ctx context.Context) (Checkpoint, bool, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// KV is a string key-value backend such as sqlite.Store or postgres.Store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
