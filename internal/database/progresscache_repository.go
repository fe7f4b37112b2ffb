package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ProgressCacheRepository persists the single-row JSON blobs long-running
// jobs use to publish resumable progress, keyed by an arbitrary
// string so the embedding rebuild and any future long job can share the
// table without stepping on each other.
type ProgressCacheRepository struct {
	db *sqlx.DB
}

// NewProgressCacheRepository wraps db.
func NewProgressCacheRepository(db *sqlx.DB) *ProgressCacheRepository {
	return &ProgressCacheRepository{db: db}
}

// Get unmarshals the cached value for key into out. Returns false if no
// row exists yet.
func (r *ProgressCacheRepository) Get(ctx context.Context, key string, out any) (bool, error) {
	var raw json.RawMessage
	err := r.db.GetContext(ctx, &raw, `SELECT value FROM progress_cache WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get progress cache %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal progress cache %q: %w", key, err)
	}
	return true, nil
}

// Set writes value under key, replacing any prior value.
func (r *ProgressCacheRepository) Set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal progress cache %q: %w", key, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO progress_cache (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, payload)
	if err != nil {
		return fmt.Errorf("set progress cache %q: %w", key, err)
	}
	return nil
}

// Delete clears a cached value, used once a rebuild finishes cleanly.
func (r *ProgressCacheRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM progress_cache WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete progress cache %q: %w", key, err)
	}
	return nil
}
