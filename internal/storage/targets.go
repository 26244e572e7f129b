package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/saama143/ping-tree/internal/engine"
)

// targetsKey is the hash holding every target record, field = target id.
const targetsKey = "targets"

// TargetRepo is the sole reader/writer of target records.
type TargetRepo struct {
	kv KV
}

func NewTargetRepo(kv KV) *TargetRepo {
	return &TargetRepo{kv: kv}
}

// List returns every stored target. A record that fails to decode is
// logged and skipped; one corrupt entry must not take down the routing
// hot path.
func (r *TargetRepo) List(ctx context.Context) ([]engine.Target, error) {
	vals, err := r.kv.HVals(ctx, targetsKey)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	targets := make([]engine.Target, 0, len(vals))
	for _, raw := range vals {
		var t engine.Target
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			log.Warn().Err(err).Msg("skipping malformed target record")
			continue
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func (r *TargetRepo) Get(ctx context.Context, id string) (engine.Target, error) {
	raw, err := r.kv.HGet(ctx, targetsKey, id)
	if errors.Is(err, ErrNotFound) {
		return engine.Target{}, fmt.Errorf("target %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return engine.Target{}, fmt.Errorf("get target %s: %w", id, err)
	}

	var t engine.Target
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return engine.Target{}, fmt.Errorf("decode target %s: %w", id, err)
	}
	return t, nil
}

// Upsert writes the full record, replacing any prior value for the id.
func (r *TargetRepo) Upsert(ctx context.Context, t engine.Target) error {
	if t.ID == "" {
		return fmt.Errorf("%w: target id is required", engine.ErrInvalidInput)
	}
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode target %s: %w", t.ID, err)
	}
	if err := r.kv.HSet(ctx, targetsKey, t.ID, string(b)); err != nil {
		return fmt.Errorf("store target %s: %w", t.ID, err)
	}
	return nil
}
