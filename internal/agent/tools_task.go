package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
)

// TaskManager is the CRUD surface over UserScheduledTask the task
// tools delegate to. internal/aitask implements it, composing a schedule
// and forwarder worker per task; the agent package only needs the
// interface, so agent never imports aitask (the scheduled prompts
// themselves run through an Agent, via scheduler.AIScheduledTaskJob).
type TaskManager interface {
	Create(ctx context.Context, ownerID int64, name, prompt, cron string) (*domain.UserScheduledTask, error)
	Delete(ctx context.Context, ownerID, taskID int64) error
	DeleteByName(ctx context.Context, ownerID int64, name string) error
	List(ctx context.Context, ownerID int64) ([]*domain.UserScheduledTask, error)
}

// CreateScheduledTaskTool registers a new per-user recurring AI prompt.
type CreateScheduledTaskTool struct {
	tasks TaskManager
}

// NewCreateScheduledTaskTool wraps tasks.
func NewCreateScheduledTaskTool(tasks TaskManager) *CreateScheduledTaskTool {
	return &CreateScheduledTaskTool{tasks: tasks}
}

func (t *CreateScheduledTaskTool) Name() string { return "createScheduledTaskTool" }
func (t *CreateScheduledTaskTool) Description() string { return "Create a recurring scheduled AI task." }
func (t *CreateScheduledTaskTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"prompt": map[string]any{"type": "string"},
			"cron": map[string]any{"type": "string"},
		},
		"required": []string{"name", "prompt", "cron"},
	}
}

type createScheduledTaskArgs struct {
	Name string `json:"name"`
	Prompt string `json:"prompt"`
	Cron string `json:"cron"`
}

func (t *CreateScheduledTaskTool) Execute(ctx context.Context, principal Principal, raw json.RawMessage) (string, error) {
	var args createScheduledTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", platerrors.Wrap(platerrors.ValidationFailed, "decode createScheduledTaskTool args", err)
	}
	task, err := t.tasks.Create(ctx, principal.AccountID, args.Name, args.Prompt, args.Cron)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("created scheduled task %d (%s)", task.ID, task.Name), nil
}

// DeleteScheduledTaskTool removes a scheduled task by id or by name.
type DeleteScheduledTaskTool struct {
	tasks TaskManager
}

// NewDeleteScheduledTaskTool wraps tasks.
func NewDeleteScheduledTaskTool(tasks TaskManager) *DeleteScheduledTaskTool {
	return &DeleteScheduledTaskTool{tasks: tasks}
}

func (t *DeleteScheduledTaskTool) Name() string { return "deleteScheduledTaskTool" }
func (t *DeleteScheduledTaskTool) Description() string { return "Delete a scheduled AI task." }
func (t *DeleteScheduledTaskTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"taskId": map[string]any{"type": "integer"},
			"taskName": map[string]any{"type": "string"},
		},
	}
}

type deleteScheduledTaskArgs struct {
	TaskID *int64 `json:"taskId,omitempty"`
	TaskName string `json:"taskName,omitempty"`
}

func (t *DeleteScheduledTaskTool) Execute(ctx context.Context, principal Principal, raw json.RawMessage) (string, error) {
	var args deleteScheduledTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", platerrors.Wrap(platerrors.ValidationFailed, "decode deleteScheduledTaskTool args", err)
	}

	switch {
	case args.TaskID != nil:
		if err := t.tasks.Delete(ctx, principal.AccountID, *args.TaskID); err != nil {
			return "", err
		}
		return fmt.Sprintf("deleted scheduled task %d", *args.TaskID), nil
	case args.TaskName != "":
		if err := t.tasks.DeleteByName(ctx, principal.AccountID, args.TaskName); err != nil {
			return "", err
		}
		return fmt.Sprintf("deleted scheduled task %q", args.TaskName), nil
	default:
		return "", platerrors.New(platerrors.ValidationFailed, "taskId or taskName is required")
	}
}

// ListScheduledTasksTool lists the caller's scheduled tasks.
type ListScheduledTasksTool struct {
	tasks TaskManager
}

// NewListScheduledTasksTool wraps tasks.
func NewListScheduledTasksTool(tasks TaskManager) *ListScheduledTasksTool {
	return &ListScheduledTasksTool{tasks: tasks}
}

func (t *ListScheduledTasksTool) Name() string { return "listScheduledTasksTool" }
func (t *ListScheduledTasksTool) Description() string { return "List the caller's scheduled AI tasks." }
func (t *ListScheduledTasksTool) Schema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *ListScheduledTasksTool) Execute(ctx context.Context, principal Principal, _ json.RawMessage) (string, error) {
	tasks, err := t.tasks.List(ctx, principal.AccountID)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("marshal scheduled task list: %w", err)
	}
	return string(out), nil
}
