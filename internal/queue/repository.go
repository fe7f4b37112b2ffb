// Package queue implements a durable job queue: a relational at-least-once
// work queue with cron scheduling, retries, and
// archival, grounded on the monorepo's distributed job lock
// (AcquireLock/ReleaseLock/ClearStaleLocks in internal/database/job_repository.go)
// generalized from one lock per crawl job to a lease per queue row.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
)

// ErrJobNotFound is returned when a job row does not exist.
var ErrJobNotFound = errors.New("job not found")

// Repository persists JobRow and Schedule rows in Postgres.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an existing *sqlx.DB connection.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const jobColumns = `id, queue, state, data, retry_count, retry_limit, retry_delay,
	retry_backoff, singleton_key, lock_token, locked_at, started_at,
	completed_at, created_at, archived_at`

// Send inserts a new job row in the created state. If opts.SingletonKey is
// set and a non-terminal job with the same (queue, singleton_key) already
// exists, Send is a no-op and returns that job's id.
func (r *Repository) Send(ctx context.Context, queueName string, data any, opts domain.SendOptions) (int64, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return 0, platerrors.Wrap(platerrors.ValidationFailed, "marshal job payload", err)
	}

	if opts.SingletonKey != "" {
		var existing int64
		err := r.db.GetContext(ctx, &existing, `
			SELECT id FROM job
			WHERE queue = $1 AND singleton_key = $2
			 AND state NOT IN ('completed','failed','cancelled')
			LIMIT 1`, queueName, opts.SingletonKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, platerrors.Wrap(platerrors.QueueError, "check singleton", err)
		}
	}

	var id int64
	err = r.db.GetContext(ctx, &id, `
		INSERT INTO job (queue, state, data, retry_count, retry_limit, retry_delay, retry_backoff, singleton_key, created_at)
		VALUES ($1, 'created', $2, 0, $3, $4, $5, NULLIF($6, ''), now())
		RETURNING id`,
		queueName, payload, opts.RetryLimit, opts.RetryDelay, opts.RetryBackoff, opts.SingletonKey)
	if err != nil {
		return 0, platerrors.Wrap(platerrors.QueueError, "insert job", err)
	}
	return id, nil
}

// Lease atomically claims up to limit created-or-retry-ready jobs for
// queueName, marking them active with a fresh lock token. This is the
// visibility-timeout entry point: a lease that is never completed expires
// and the row reverts to created via ReclaimExpiredLeases.
func (r *Repository) Lease(ctx context.Context, queueName string, limit int) ([]*domain.JobRow, error) {
	token := uuid.NewString()

	rows, err := r.db.QueryxContext(ctx, `
		WITH candidates AS (
			SELECT id FROM job
			WHERE queue = $1 AND state IN ('created', 'retry')
			ORDER BY id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE job SET state = 'active', lock_token = $3, locked_at = now(), started_at = now()
		WHERE id IN (SELECT id FROM candidates)
		RETURNING `+jobColumns, queueName, limit, token)
	if err != nil {
		return nil, platerrors.Wrap(platerrors.QueueError, "lease jobs", err)
	}
	defer rows.Close()

	var leased []*domain.JobRow
	for rows.Next() {
		var j domain.JobRow
		if scanErr := rows.StructScan(&j); scanErr != nil {
			return nil, platerrors.Wrap(platerrors.QueueError, "scan leased job", scanErr)
		}
		leased = append(leased, &j)
	}
	return leased, rows.Err()
}

// Complete marks a job completed.
func (r *Repository) Complete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE job SET state = 'completed', completed_at = now(), lock_token = NULL, locked_at = NULL
		WHERE id = $1`, id)
	if err != nil {
		return platerrors.Wrap(platerrors.QueueError, "complete job", err)
	}
	return nil
}

// Retry either schedules the job for another attempt (state=retry) if
// attempts remain, or marks it failed, per the retry policy.
func (r *Repository) Retry(ctx context.Context, j *domain.JobRow) error {
	if j.RetryCount+1 >= j.RetryLimit {
		_, err := r.db.ExecContext(ctx, `
			UPDATE job SET state = 'failed', completed_at = now(), retry_count = retry_count + 1,
				lock_token = NULL, locked_at = NULL
			WHERE id = $1`, j.ID)
		if err != nil {
			return platerrors.Wrap(platerrors.QueueError, "fail job", err)
		}
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE job SET state = 'retry', retry_count = retry_count + 1, lock_token = NULL, locked_at = NULL
		WHERE id = $1`, j.ID)
	if err != nil {
		return platerrors.Wrap(platerrors.QueueError, "retry job", err)
	}
	return nil
}

// Cancel marks a job cancelled regardless of its current state.
func (r *Repository) Cancel(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE job SET state = 'cancelled', completed_at = now(), lock_token = NULL, locked_at = NULL
		WHERE id = $1`, id)
	if err != nil {
		return platerrors.Wrap(platerrors.QueueError, "cancel job", err)
	}
	return nil
}

// ReclaimExpiredLeases returns jobs whose lease (locked_at) is older than
// leaseDuration back to the created state, the visibility-timeout mechanism
// of: "if the lease expires without completion, the queue
// returns it to created".
func (r *Repository) ReclaimExpiredLeases(ctx context.Context, leaseDuration time.Duration) (int, error) {
	cutoff := time.Now().Add(-leaseDuration)
	res, err := r.db.ExecContext(ctx, `
		UPDATE job SET state = 'created', lock_token = NULL, locked_at = NULL, started_at = NULL
		WHERE state = 'active' AND locked_at < $1`, cutoff)
	if err != nil {
		return 0, platerrors.Wrap(platerrors.QueueError, "reclaim expired leases", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// StateCounts returns the number of jobs per state for the archival monitor.
func (r *Repository) StateCounts(ctx context.Context) (map[domain.JobState]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT state, count(*) FROM job GROUP BY state`)
	if err != nil {
		return nil, platerrors.Wrap(platerrors.QueueError, "count job states", err)
	}
	defer rows.Close()

	counts := make(map[domain.JobState]int)
	for rows.Next() {
		var state string
		var count int
		if scanErr := rows.Scan(&state, &count); scanErr != nil {
			return nil, platerrors.Wrap(platerrors.QueueError, "scan state count", scanErr)
		}
		counts[domain.JobState(state)] = count
	}
	return counts, rows.Err()
}

// ArchiveCompleted moves terminal jobs older than olderThan into the
// archive table.
func (r *Repository) ArchiveCompleted(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := r.db.ExecContext(ctx, `
		WITH moved AS (
			DELETE FROM job
			WHERE state IN ('completed','failed','cancelled') AND completed_at < $1
			RETURNING id, queue, state, data, retry_count, retry_limit, retry_delay,
				retry_backoff, singleton_key, started_at, completed_at, created_at
		)
		INSERT INTO job_archive (id, queue, state, data, retry_count, retry_limit, retry_delay,
			retry_backoff, singleton_key, started_at, completed_at, created_at, archived_at)
		SELECT id, queue, state, data, retry_count, retry_limit, retry_delay,
			retry_backoff, singleton_key, started_at, completed_at, created_at, now()
		FROM moved`, cutoff)
	if err != nil {
		return 0, platerrors.Wrap(platerrors.QueueError, "archive completed jobs", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteArchived hard-deletes archive rows older than olderThan.
func (r *Repository) DeleteArchived(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := r.db.ExecContext(ctx, `DELETE FROM job_archive WHERE archived_at < $1`, cutoff)
	if err != nil {
		return 0, platerrors.Wrap(platerrors.QueueError, "delete archived jobs", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// UpsertSchedule creates or replaces the cron/data for a schedule name
// ( invariant: a schedule name is unique).
func (r *Repository) UpsertSchedule(ctx context.Context, s domain.Schedule) error {
	if s.Tz == "" {
		s.Tz = "UTC"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schedule (name, cron, data, tz)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET cron = EXCLUDED.cron, data = EXCLUDED.data, tz = EXCLUDED.tz`,
		s.Name, s.Cron, s.Data, s.Tz)
	if err != nil {
		return platerrors.Wrap(platerrors.QueueError, "upsert schedule", err)
	}
	return nil
}

// DeleteSchedule removes a schedule by name.
func (r *Repository) DeleteSchedule(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM schedule WHERE name = $1`, name)
	if err != nil {
		return platerrors.Wrap(platerrors.QueueError, "delete schedule", err)
	}
	return nil
}

// GetSchedule fetches a schedule by name, or nil if none exists.
func (r *Repository) GetSchedule(ctx context.Context, name string) (*domain.Schedule, error) {
	var s domain.Schedule
	err := r.db.GetContext(ctx, &s, `SELECT name, cron, data, tz, last_fired FROM schedule WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, platerrors.Wrap(platerrors.QueueError, "get schedule", err)
	}
	return &s, nil
}

// GetSchedules returns all schedules.
func (r *Repository) GetSchedules(ctx context.Context) ([]*domain.Schedule, error) {
	var schedules []*domain.Schedule
	err := r.db.SelectContext(ctx, &schedules, `SELECT name, cron, data, tz, last_fired FROM schedule ORDER BY name`)
	if err != nil {
		return nil, platerrors.Wrap(platerrors.QueueError, "list schedules", err)
	}
	return schedules, nil
}

// MarkFired records that a schedule fired at t, used to collapse missed
// fires across downtime into at most one emitted job.
func (r *Repository) MarkFired(ctx context.Context, name string, t time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE schedule SET last_fired = $2 WHERE name = $1`, name, t)
	if err != nil {
		return platerrors.Wrap(platerrors.QueueError, "mark schedule fired", err)
	}
	return nil
}
