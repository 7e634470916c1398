package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Connect buka pool Postgres dan ping sekali
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates analysis_events when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_events (
  id          UUID         PRIMARY KEY,
  created_at  TIMESTAMPTZ  NOT NULL,
  outcome     VARCHAR(32)  NOT NULL,
  mime_type   VARCHAR(64)  NOT NULL,
  image_bytes INTEGER      NOT NULL DEFAULT 0,
  objects     INTEGER      NOT NULL DEFAULT 0,
  people      INTEGER      NOT NULL DEFAULT 0,
  scenes      INTEGER      NOT NULL DEFAULT 0,
  model       VARCHAR(128) NOT NULL,
  duration_ms BIGINT       NOT NULL DEFAULT 0,
  message     TEXT
)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_events_created_at ON analysis_events (created_at DESC)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate analysis_events: %w", err)
		}
	}
	return nil
}
