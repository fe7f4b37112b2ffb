// Package database holds the sqlx/lib/pq repositories backing notes,
// attachments, tags, the job queue's rows (see internal/queue), AI
// providers/models, and user-scheduled tasks, grounded on the monorepo's
// Connection/Config pattern (index-manager/internal/database/connection.go)
// generalized from database/sql to sqlx for struct scanning.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// Config holds the Postgres connection pool settings.
type Config struct {
	DSN string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLifetime time.Duration
}

// Connect opens a pooled Postgres connection and verifies it with a timed
// ping, matching the monorepo's usual NewConnection shape.
func Connect(cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
