// Package aitask implements agent.TaskManager, the CRUD surface the
// createScheduledTaskTool/deleteScheduledTaskTool/listScheduledTasksTool
// tools delegate to: every Create/Delete call composes UserTaskRepository's
// row persistence with the per-task schedule and forwarder worker
// scheduler.AIScheduledTaskJob owns, so a task's cron starts (or stops)
// firing in the same call that persists (or removes) its row.
package aitask

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
)

// TaskScheduler is the per-task schedule/forwarder registration surface
// scheduler.AIScheduledTaskJob satisfies, narrowed to an interface so
// Manager is testable without a live queue.
type TaskScheduler interface {
	RegisterTask(ctx context.Context, t *domain.UserScheduledTask) error
	UnregisterTask(ctx context.Context, taskID int64) error
}

// Manager implements agent.TaskManager.
type Manager struct {
	repo *database.UserTaskRepository
	job TaskScheduler
}

// New wraps repo and job.
func New(repo *database.UserTaskRepository, job TaskScheduler) *Manager {
	return &Manager{repo: repo, job: job}
}

// Create persists a new task row, enabled by default, then registers its
// schedule and forwarder worker. If registration fails the row is rolled
// back by deleting it, so a failed Create never leaves an orphaned,
// unscheduled task behind.
func (m *Manager) Create(ctx context.Context, ownerID int64, name, prompt, cron string) (*domain.UserScheduledTask, error) {
	task := &domain.UserScheduledTask{OwnerID: ownerID, Name: name, Prompt: prompt, Cron: cron, Enabled: true}
	if err := m.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	if err := m.job.RegisterTask(ctx, task); err != nil {
		if delErr := m.repo.Delete(ctx, task.ID, ownerID); delErr != nil {
			return nil, fmt.Errorf("aitask: register schedule for task %d: %w (rollback also failed: %v)", task.ID, err, delErr)
		}
		return nil, fmt.Errorf("aitask: register schedule for task %d: %w", task.ID, err)
	}
	return task, nil
}

// Delete removes the task row and stops its forwarder worker.
func (m *Manager) Delete(ctx context.Context, ownerID, taskID int64) error {
	if err := m.repo.Delete(ctx, taskID, ownerID); err != nil {
		return err
	}
	return m.job.UnregisterTask(ctx, taskID)
}

// DeleteByName resolves name to a task id within ownerID's own tasks, then
// deletes it the same way Delete does.
func (m *Manager) DeleteByName(ctx context.Context, ownerID int64, name string) error {
	tasks, err := m.repo.ListForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.Name == name {
			return m.Delete(ctx, ownerID, t.ID)
		}
	}
	return platerrors.New(platerrors.ValidationFailed, fmt.Sprintf("no scheduled task named %q", name))
}

// List returns every task belonging to ownerID.
func (m *Manager) List(ctx context.Context, ownerID int64) ([]*domain.UserScheduledTask, error) {
	return m.repo.ListForOwner(ctx, ownerID)
}
