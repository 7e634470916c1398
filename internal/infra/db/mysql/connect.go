package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Connect buka pool MySQL dan ping sekali
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Migrate creates analysis_events when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	const q = `
CREATE TABLE IF NOT EXISTS analysis_events (
  id          CHAR(36)     NOT NULL PRIMARY KEY,
  created_at  DATETIME(3)  NOT NULL,
  outcome     VARCHAR(32)  NOT NULL,
  mime_type   VARCHAR(64)  NOT NULL,
  image_bytes INT          NOT NULL DEFAULT 0,
  objects     INT          NOT NULL DEFAULT 0,
  people      INT          NOT NULL DEFAULT 0,
  scenes      INT          NOT NULL DEFAULT 0,
  model       VARCHAR(128) NOT NULL,
  duration_ms BIGINT       NOT NULL DEFAULT 0,
  message     TEXT,
  INDEX idx_analysis_events_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("migrate analysis_events: %w", err)
	}
	return nil
}
