package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saama143/ping-tree/internal/config"
	"github.com/saama143/ping-tree/internal/engine"
)

// AuditLog appends accepted routing decisions to postgres. Writes are
// best-effort from the caller's point of view; the routing state itself
// lives in the KV store.
type AuditLog struct {
	pool *pgxpool.Pool
}

func NewAuditLog(ctx context.Context, cfg config.Config) (*AuditLog, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	a := &AuditLog{pool: pool}
	if err := a.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return a, nil
}

func (a *AuditLog) ensureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS routing_decisions (
			id         BIGSERIAL PRIMARY KEY,
			target_id  TEXT        NOT NULL,
			publisher  TEXT        NOT NULL,
			geo_state  TEXT        NOT NULL,
			url        TEXT        NOT NULL,
			decided_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (a *AuditLog) RecordDecision(ctx context.Context, ev engine.VisitorEvent, d engine.Decision) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.pool.Exec(ctx, `
		INSERT INTO routing_decisions (target_id, publisher, geo_state, url)
		VALUES ($1, $2, $3, $4)
	`, d.TargetID, ev.Publisher, ev.GeoState, d.URL)
	if err != nil {
		return fmt.Errorf("insert routing decision: %w", err)
	}
	return nil
}

func (a *AuditLog) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
