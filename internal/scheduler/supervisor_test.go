package scheduler_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
	"github.com/jonesrussell/north-cloud/brainhub/internal/scheduler"
)

func newMockQueue(t *testing.T) (*queue.Queue, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return queue.New(sqlx.NewDb(db, "postgres"), queue.MonitorConfig{}, prometheus.NewRegistry(), logger.NewNop()), mock
}

func TestSupervisor_InitializeWithDefaultCron_Schedules(t *testing.T) {
	q, mock := newMockQueue(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO schedule").WillReturnResult(sqlmock.NewResult(0, 1))

	ran := make(chan struct{}, 1)
	body := func(ctx context.Context, job *domain.JobRow) error {
		ran <- struct{}{}
		return nil
	}

	sup := scheduler.NewSupervisor("test-job", "0 0 * * *", body, q, queue.PoolConfig{Concurrency: 1}, logger.NewNop())
	require.NoError(t, sup.Initialize(ctx, ""))

	assert.Equal(t, scheduler.StateScheduled, sup.StateValue())
	assert.True(t, sup.IsScheduled())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupervisor_InitializeWithoutCron_Unscheduled(t *testing.T) {
	q, _ := newMockQueue(t)
	ctx := context.Background()

	body := func(ctx context.Context, job *domain.JobRow) error { return nil }
	sup := scheduler.NewSupervisor("test-job", "", body, q, queue.PoolConfig{Concurrency: 1}, logger.NewNop())
	require.NoError(t, sup.Initialize(ctx, ""))

	assert.Equal(t, scheduler.StateUnscheduled, sup.StateValue())
	assert.False(t, sup.IsScheduled())
}

func TestSupervisor_TriggerNow_SendsJob(t *testing.T) {
	q, mock := newMockQueue(t)
	ctx := context.Background()

	mock.ExpectQuery("INSERT INTO job").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	body := func(ctx context.Context, job *domain.JobRow) error { return nil }
	sup := scheduler.NewSupervisor("test-job", "", body, q, queue.PoolConfig{Concurrency: 1}, logger.NewNop())

	id, err := sup.TriggerNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupervisor_DoubleInitialize_Errors(t *testing.T) {
	q, mock := newMockQueue(t)
	ctx := context.Background()

	body := func(ctx context.Context, job *domain.JobRow) error { return nil }
	sup := scheduler.NewSupervisor("test-job", "", body, q, queue.PoolConfig{Concurrency: 1}, logger.NewNop())
	require.NoError(t, sup.Initialize(ctx, ""))

	err := sup.Initialize(ctx, "")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
