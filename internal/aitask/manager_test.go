package aitask_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aitask"
	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

type stubScheduler struct {
	registered *domain.UserScheduledTask
	registerErr error
	unregisteredID int64
	unregisterErr error
}

func (s *stubScheduler) RegisterTask(ctx context.Context, t *domain.UserScheduledTask) error {
	s.registered = t
	return s.registerErr
}

func (s *stubScheduler) UnregisterTask(ctx context.Context, taskID int64) error {
	s.unregisteredID = taskID
	return s.unregisterErr
}

func newMockManager(t *testing.T) (*aitask.Manager, *database.UserTaskRepository, *stubScheduler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewUserTaskRepository(sqlx.NewDb(db, "postgres"))
	sched := &stubScheduler{}
	return aitask.New(repo, sched), repo, sched, mock
}

func TestManager_Create_RegistersSchedule(t *testing.T) {
	mgr, _, sched, mock := newMockManager(t)
	ctx := context.Background()

	mock.ExpectQuery("INSERT INTO user_scheduled_task").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	task, err := mgr.Create(ctx, 1, "daily digest", "summarize today's notes", "0 8 * * *")
	require.NoError(t, err)
	assert.Equal(t, int64(7), task.ID)
	assert.True(t, task.Enabled)
	require.NotNil(t, sched.registered)
	assert.Equal(t, int64(7), sched.registered.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Create_RegistrationFailureRollsBackRow(t *testing.T) {
	mgr, _, sched, mock := newMockManager(t)
	ctx := context.Background()
	sched.registerErr = assert.AnError

	mock.ExpectQuery("INSERT INTO user_scheduled_task").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec("DELETE FROM user_scheduled_task").WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := mgr.Create(ctx, 1, "broken", "prompt", "bad cron")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Delete_UnregistersForwarder(t *testing.T) {
	mgr, _, sched, mock := newMockManager(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM user_scheduled_task").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, mgr.Delete(ctx, 1, 42))
	assert.Equal(t, int64(42), sched.unregisteredID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_DeleteByName_ResolvesToID(t *testing.T) {
	mgr, _, sched, mock := newMockManager(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "name", "prompt", "cron", "enabled", "last_run", "last_result"}).
		AddRow(5, 1, "weekly review", "review notes", "0 9 * * 1", true, nil, nil)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)
	mock.ExpectExec("DELETE FROM user_scheduled_task").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, mgr.DeleteByName(ctx, 1, "weekly review"))
	assert.Equal(t, int64(5), sched.unregisteredID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_DeleteByName_UnknownNameErrors(t *testing.T) {
	mgr, _, _, mock := newMockManager(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "prompt", "cron", "enabled", "last_run", "last_result"}))

	err := mgr.DeleteByName(ctx, 1, "does not exist")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_List_ReturnsOwnerTasks(t *testing.T) {
	mgr, _, _, mock := newMockManager(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "name", "prompt", "cron", "enabled", "last_run", "last_result"}).
		AddRow(1, 1, "a", "prompt a", "0 * * * *", true, nil, nil).
		AddRow(2, 1, "b", "prompt b", "0 0 * * *", false, nil, nil)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	tasks, err := mgr.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
