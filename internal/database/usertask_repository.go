package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// ErrUserTaskNotFound is returned when a user-scheduled task id does not
// resolve to a row.
var ErrUserTaskNotFound = errors.New("user scheduled task not found")

// UserTaskRepository persists per-user recurring AI prompts.
type UserTaskRepository struct {
	db *sqlx.DB
}

// NewUserTaskRepository wraps db.
func NewUserTaskRepository(db *sqlx.DB) *UserTaskRepository {
	return &UserTaskRepository{db: db}
}

// Create inserts a new task.
func (r *UserTaskRepository) Create(ctx context.Context, t *domain.UserScheduledTask) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO user_scheduled_task (owner_id, name, prompt, cron, enabled)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.OwnerID, t.Name, t.Prompt, t.Cron, t.Enabled).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert user scheduled task: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a task.
func (r *UserTaskRepository) Update(ctx context.Context, t *domain.UserScheduledTask) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_scheduled_task SET name = $1, prompt = $2, cron = $3, enabled = $4
		WHERE id = $5 AND owner_id = $6`,
		t.Name, t.Prompt, t.Cron, t.Enabled, t.ID, t.OwnerID)
	if err != nil {
		return fmt.Errorf("update user scheduled task: %w", err)
	}
	return requireRowsAffected(res, ErrUserTaskNotFound)
}

// Delete removes a task.
func (r *UserTaskRepository) Delete(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_scheduled_task WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete user scheduled task: %w", err)
	}
	return requireRowsAffected(res, ErrUserTaskNotFound)
}

// GetByID fetches a single task owned by ownerID.
func (r *UserTaskRepository) GetByID(ctx context.Context, id, ownerID int64) (*domain.UserScheduledTask, error) {
	var t domain.UserScheduledTask
	err := r.db.GetContext(ctx, &t, `
		SELECT id, owner_id, name, prompt, cron, enabled, last_run, last_result
		FROM user_scheduled_task WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get user scheduled task: %w", err)
	}
	return &t, nil
}

// ListForOwner returns every task belonging to ownerID.
func (r *UserTaskRepository) ListForOwner(ctx context.Context, ownerID int64) ([]*domain.UserScheduledTask, error) {
	var tasks []*domain.UserScheduledTask
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT id, owner_id, name, prompt, cron, enabled, last_run, last_result
		FROM user_scheduled_task WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list user scheduled tasks: %w", err)
	}
	return tasks, nil
}

// ListAllEnabled returns every enabled task across all owners, used at
// startup to re-register cron schedules.
func (r *UserTaskRepository) ListAllEnabled(ctx context.Context) ([]*domain.UserScheduledTask, error) {
	var tasks []*domain.UserScheduledTask
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT id, owner_id, name, prompt, cron, enabled, last_run, last_result
		FROM user_scheduled_task WHERE enabled = true ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list enabled user scheduled tasks: %w", err)
	}
	return tasks, nil
}

// RecordRun stamps the result of one execution.
func (r *UserTaskRepository) RecordRun(ctx context.Context, id int64, result domain.TaskRunResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal task run result: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_scheduled_task SET last_run = $1, last_result = $2 WHERE id = $3`,
		result.ExecutedAt, payload, id)
	if err != nil {
		return fmt.Errorf("record task run: %w", err)
	}
	return requireRowsAffected(res, ErrUserTaskNotFound)
}
