package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgx connection pool using the provided DSN.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// EnsureSchema creates the jobs and detections tables if needed, so a fresh
// database bootstraps itself on first start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS jobs (
	id UUID PRIMARY KEY,
	state TEXT NOT NULL,
	input_ref TEXT NOT NULL,
	overlay_ref TEXT,
	result_ref TEXT,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs(state);

CREATE TABLE IF NOT EXISTS detections (
	id BIGSERIAL PRIMARY KEY,
	filename TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	num_faces INT NOT NULL,
	confidence_scores FLOAT8[] NOT NULL,
	processing_time FLOAT8 NOT NULL,
	redaction_method TEXT NOT NULL
);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
