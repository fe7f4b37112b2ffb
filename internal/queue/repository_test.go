package queue_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
	"github.com/jonesrussell/north-cloud/brainhub/internal/queue"
)

func newMockRepo(t *testing.T) (*queue.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return queue.NewRepository(sqlxDB), mock
}

func TestRepository_Send(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	testCases := []struct {
		name string
		opts domain.SendOptions
		setupMock func()
		wantID int64
		wantErr bool
	}{
		{
			name: "inserts a new job",
			opts: domain.DefaultSendOptions(),
			setupMock: func() {
				mock.ExpectQuery("INSERT INTO job").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
			},
			wantID: 1,
		},
		{
			name: "returns existing job id for a live singleton",
			opts: domain.SendOptions{SingletonKey: "rebuild-embedding"},
			setupMock: func() {
				mock.ExpectQuery("SELECT id FROM job").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
			},
			wantID: 42,
		},
		{
			name: "database error on insert propagates",
			opts: domain.DefaultSendOptions(),
			setupMock: func() {
				mock.ExpectQuery("INSERT INTO job").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()

			id, err := repo.Send(ctx, "rebuild-embedding", map[string]any{"full": true}, tc.opts)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && id != tc.wantID {
				t.Errorf("Send() id = %d, want %d", id, tc.wantID)
			}
			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestRepository_Retry(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	testCases := []struct {
		name string
		job *domain.JobRow
		setupMock func()
	}{
		{
			name: "moves to retry state when attempts remain",
			job: &domain.JobRow{ID: 1, RetryCount: 0, RetryLimit: 3},
			setupMock: func() {
				mock.ExpectExec("UPDATE job SET state = 'retry'").
					WithArgs(int64(1)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "moves to failed state once the retry limit is exhausted",
			job: &domain.JobRow{ID: 2, RetryCount: 2, RetryLimit: 3},
			setupMock: func() {
				mock.ExpectExec("UPDATE job SET state = 'failed'").
					WithArgs(int64(2)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()
			if err := repo.Retry(ctx, tc.job); err != nil {
				t.Fatalf("Retry() error = %v", err)
			}
			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestRepository_ReclaimExpiredLeases(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE job SET state = 'created'").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.ReclaimExpiredLeases(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("ReclaimExpiredLeases() error = %v", err)
	}
	if n != 2 {
		t.Errorf("ReclaimExpiredLeases() = %d, want 2", n)
	}
	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestRepository_UpsertSchedule(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO schedule").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertSchedule(ctx, domain.Schedule{Name: "archive", Cron: "0 3 * * *"})
	if err != nil {
		t.Fatalf("UpsertSchedule() error = %v", err)
	}
	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}
