package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// FollowRepository persists the sites an owner has subscribed to for
// RecommendJob's feed pull.
type FollowRepository struct {
	db *sqlx.DB
}

// NewFollowRepository wraps db.
func NewFollowRepository(db *sqlx.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// All lists every follow across every owner, the full set RecommendJob
// batches through on each run.
func (r *FollowRepository) All(ctx context.Context) ([]*domain.Follow, error) {
	var follows []*domain.Follow
	err := r.db.SelectContext(ctx, &follows,
		`SELECT id, owner_id, site_url, site_name, last_fetch FROM follow ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	return follows, nil
}

// Count reports how many follows exist, used to decide whether RecommendJob
// should even initialize.
func (r *FollowRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM follow`); err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return count, nil
}

// TouchLastFetch records when a follow's feed was last pulled.
func (r *FollowRepository) TouchLastFetch(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE follow SET last_fetch = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch follow last_fetch: %w", err)
	}
	return nil
}
