package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/brainhub/internal/agent"
	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
)

// aiScheduledTaskBase names the shared execution queue every per-task
// forwarder feeds into; domain.ScheduleNameForTask derives each task's own
// schedule/queue name from it ("ai-scheduled-task-42").
const aiScheduledTaskBase = "ai-scheduled-task"

// PromptRunner executes a scheduled task's prompt as a principal-scoped,
// single-turn completion. *agent.Agent satisfies this; tests supply a stub,
// the same seam TaskManager gives the agent package's tools.
type PromptRunner interface {
	RunScheduledPrompt(ctx context.Context, prompt string) (string, error)
}

// aiTaskExecData is the payload a forwarder hands the shared execution
// queue: enough to re-read the task row fresh without the forwarder itself
// needing a repository dependency.
type aiTaskExecData struct {
	TaskID int64 `json:"taskId"`
	OwnerID int64 `json:"ownerId"`
}

// AIScheduledTaskJob is the fan-out supervisor behind every user-scheduled
// AI task. Each task gets its own cron schedule and a trivial forwarder
// worker, named "${base}-${taskId}" the way Supervisor names any job, but
// all of them funnel into one shared execution worker rather than each
// running its own pool — so N user tasks cost one execution queue's worth
// of concurrency, not N.
type AIScheduledTaskJob struct {
	*Supervisor
	q *queue.Queue
	tasks *database.UserTaskRepository
	runner PromptRunner
	log logger.Logger

	mu sync.Mutex
	forwarders map[int64]*Supervisor
}

// NewAIScheduledTaskJob builds the job. The shared execution worker has no
// default cron of its own — it only ever runs jobs a forwarder sends it.
func NewAIScheduledTaskJob(q *queue.Queue, tasks *database.UserTaskRepository, runner PromptRunner, log logger.Logger) *AIScheduledTaskJob {
	j := &AIScheduledTaskJob{
		q: q,
		tasks: tasks,
		runner: runner,
		log: log.With(logger.String("job", "ai-scheduled-task")),
		forwarders: make(map[int64]*Supervisor),
	}
	j.Supervisor = NewSupervisor(aiScheduledTaskBase, "", j.execute, q, queue.PoolConfig{Concurrency: 4}, log)
	return j
}

// Initialize registers the shared execution worker, then re-registers a
// forwarder for every currently enabled task, so a process restart resumes
// every owner's schedule without anyone replaying Create.
func (j *AIScheduledTaskJob) Initialize(ctx context.Context) error {
	if err := j.Supervisor.Initialize(ctx, ""); err != nil {
		return err
	}

	tasks, err := j.tasks.ListAllEnabled(ctx)
	if err != nil {
		return fmt.Errorf("ai scheduled task job: list enabled tasks: %w", err)
	}
	for _, t := range tasks {
		if err := j.registerForwarder(ctx, t); err != nil {
			j.log.Error("re-register forwarder failed", logger.Int64("task_id", t.ID), logger.Error(err))
		}
	}
	return nil
}

// RegisterTask creates task's per-task schedule and forwarder worker.
// internal/aitask.Manager calls this once, right after the task row is
// inserted.
func (j *AIScheduledTaskJob) RegisterTask(ctx context.Context, t *domain.UserScheduledTask) error {
	return j.registerForwarder(ctx, t)
}

// UnregisterTask stops and forgets task's forwarder, if one is running.
// Safe to call for a task that was never registered (e.g. a task created
// disabled).
func (j *AIScheduledTaskJob) UnregisterTask(ctx context.Context, taskID int64) error {
	j.mu.Lock()
	forwarder, ok := j.forwarders[taskID]
	delete(j.forwarders, taskID)
	j.mu.Unlock()

	if !ok {
		return nil
	}
	return forwarder.Stop(ctx)
}

func (j *AIScheduledTaskJob) registerForwarder(ctx context.Context, t *domain.UserScheduledTask) error {
	name := domain.ScheduleNameForTask(aiScheduledTaskBase, t.ID)
	data := aiTaskExecData{TaskID: t.ID, OwnerID: t.OwnerID}

	forwarder := NewSupervisor(name, t.Cron, func(ctx context.Context, _ *domain.JobRow) error {
		_, err := j.q.Send(ctx, aiScheduledTaskBase, data, domain.DefaultSendOptions())
		return err
	}, j.q, queue.PoolConfig{Concurrency: 1}, j.log)

	if err := forwarder.Initialize(ctx, t.Cron); err != nil {
		return fmt.Errorf("ai scheduled task job: initialize forwarder %s: %w", name, err)
	}

	j.mu.Lock()
	j.forwarders[t.ID] = forwarder
	j.mu.Unlock()
	return nil
}

// execute is the shared execution worker's body: re-read the task, skip it
// if it has since been disabled or deleted, otherwise run its prompt
// through the agent and stamp the result back onto the row.
func (j *AIScheduledTaskJob) execute(ctx context.Context, job *domain.JobRow) error {
	var data aiTaskExecData
	if err := json.Unmarshal(job.Data, &data); err != nil {
		return fmt.Errorf("ai scheduled task job: unmarshal payload: %w", err)
	}

	task, err := j.tasks.GetByID(ctx, data.TaskID, data.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("ai scheduled task job: load task %d: %w", data.TaskID, err)
	}
	if !task.Enabled {
		return nil
	}

	result := domain.TaskRunResult{ExecutedAt: time.Now().UTC()}
	output, runErr := j.runner.RunScheduledPrompt(agent.WithAccountID(ctx, task.OwnerID), task.Prompt)
	if runErr != nil {
		result.Error = runErr.Error()
	} else {
		result.Success = true
		result.Result = output
	}

	if recErr := j.tasks.RecordRun(ctx, task.ID, result); recErr != nil {
		j.log.Error("record task run failed", logger.Int64("task_id", task.ID), logger.Error(recErr))
	}
	return runErr
}
