package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const keyPrefix = "checkpoint:"

// KVStore keeps the checkpoint as JSON under one key of a KV backend.
type KVStore struct {
	KV  KV
	Run string
}

func (s *KVStore) key() string {
	run := s.Run
	if run == "" {
		run = "default"
	}
	return keyPrefix + run
}

func (s *KVStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.KV == nil {
		return Checkpoint{}, false, nil
	}
	raw, ok, err := s.KV.Get(ctx, s.key())
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load state: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return Checkpoint{}, false, nil
	}
	var cp Checkpoint
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse state: %w", err)
	}
	return cp, true, nil
}

func (s *KVStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.KV == nil {
		return nil
	}
	cp.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.KV.Set(ctx, s.key(), string(data)); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
