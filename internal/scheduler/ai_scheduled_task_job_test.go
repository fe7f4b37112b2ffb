package scheduler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
)

type stubPromptRunner struct {
	prompt string
	output string
	err error
}

func (s *stubPromptRunner) RunScheduledPrompt(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.output, s.err
}

func newAITaskTestDeps(t *testing.T) (*queue.Queue, *database.UserTaskRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	q := queue.New(sqlxDB, queue.MonitorConfig{}, prometheus.NewRegistry(), logger.NewNop())
	return q, database.NewUserTaskRepository(sqlxDB), mock
}

func TestAIScheduledTaskJob_RegisterTask_SchedulesForwarder(t *testing.T) {
	q, tasks, mock := newAITaskTestDeps(t)
	runner := &stubPromptRunner{}
	job := NewAIScheduledTaskJob(q, tasks, runner, logger.NewNop())

	mock.ExpectExec("INSERT INTO schedule").WillReturnResult(sqlmock.NewResult(0, 1))

	task := &domain.UserScheduledTask{ID: 42, OwnerID: 1, Name: "daily", Prompt: "do the thing", Cron: "0 8 * * *", Enabled: true}
	require.NoError(t, job.RegisterTask(t.Context(), task))

	job.mu.Lock()
	forwarder, ok := job.forwarders[42]
	job.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, domain.ScheduleNameForTask(aiScheduledTaskBase, 42), forwarder.TaskName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAIScheduledTaskJob_UnregisterTask_StopsForwarder(t *testing.T) {
	q, tasks, mock := newAITaskTestDeps(t)
	runner := &stubPromptRunner{}
	job := NewAIScheduledTaskJob(q, tasks, runner, logger.NewNop())

	mock.ExpectExec("INSERT INTO schedule").WillReturnResult(sqlmock.NewResult(0, 1))
	task := &domain.UserScheduledTask{ID: 7, OwnerID: 1, Name: "weekly", Prompt: "review", Cron: "0 9 * * 1", Enabled: true}
	require.NoError(t, job.RegisterTask(t.Context(), task))

	mock.ExpectExec("DELETE FROM schedule").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, job.UnregisterTask(t.Context(), 7))

	job.mu.Lock()
	_, ok := job.forwarders[7]
	job.mu.Unlock()
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAIScheduledTaskJob_UnregisterTask_UnknownIsNoop(t *testing.T) {
	q, tasks, _ := newAITaskTestDeps(t)
	job := NewAIScheduledTaskJob(q, tasks, &stubPromptRunner{}, logger.NewNop())
	assert.NoError(t, job.UnregisterTask(t.Context(), 999))
}

func TestAIScheduledTaskJob_Execute_RunsPromptAndRecordsResult(t *testing.T) {
	q, tasks, mock := newAITaskTestDeps(t)
	runner := &stubPromptRunner{output: "done"}
	job := NewAIScheduledTaskJob(q, tasks, runner, logger.NewNop())

	rows := sqlmock.NewRows([]string{"id", "owner_id", "name", "prompt", "cron", "enabled", "last_run", "last_result"}).
		AddRow(3, 1, "daily digest", "summarize today", "0 8 * * *", true, nil, nil)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)
	mock.ExpectExec("UPDATE user_scheduled_task").WillReturnResult(sqlmock.NewResult(0, 1))

	payload, err := json.Marshal(aiTaskExecData{TaskID: 3, OwnerID: 1})
	require.NoError(t, err)

	err = job.execute(t.Context(), &domain.JobRow{Data: payload})
	require.NoError(t, err)
	assert.Equal(t, "summarize today", runner.prompt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAIScheduledTaskJob_Execute_DisabledTaskSkipsRun(t *testing.T) {
	q, tasks, mock := newAITaskTestDeps(t)
	runner := &stubPromptRunner{output: "should not run"}
	job := NewAIScheduledTaskJob(q, tasks, runner, logger.NewNop())

	rows := sqlmock.NewRows([]string{"id", "owner_id", "name", "prompt", "cron", "enabled", "last_run", "last_result"}).
		AddRow(4, 1, "paused", "prompt", "0 8 * * *", false, nil, nil)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	payload, err := json.Marshal(aiTaskExecData{TaskID: 4, OwnerID: 1})
	require.NoError(t, err)

	require.NoError(t, job.execute(t.Context(), &domain.JobRow{Data: payload}))
	assert.Empty(t, runner.prompt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAIScheduledTaskJob_Execute_RunnerErrorRecordsFailureAndReturnsError(t *testing.T) {
	q, tasks, mock := newAITaskTestDeps(t)
	runner := &stubPromptRunner{err: assert.AnError}
	job := NewAIScheduledTaskJob(q, tasks, runner, logger.NewNop())

	rows := sqlmock.NewRows([]string{"id", "owner_id", "name", "prompt", "cron", "enabled", "last_run", "last_result"}).
		AddRow(5, 1, "flaky", "prompt", "0 8 * * *", true, nil, nil)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)
	mock.ExpectExec("UPDATE user_scheduled_task").WillReturnResult(sqlmock.NewResult(0, 1))

	payload, err := json.Marshal(aiTaskExecData{TaskID: 5, OwnerID: 1})
	require.NoError(t, err)

	err = job.execute(t.Context(), &domain.JobRow{Data: payload})
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
