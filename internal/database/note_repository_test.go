package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

func newMockNoteDB(t *testing.T) (*database.NoteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return database.NewNoteRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestNoteRepository_Create(t *testing.T) {
	repo, mock := newMockNoteDB(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("INSERT INTO note").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))

	n := &domain.Note{OwnerID: 1, Type: domain.NoteTypeNote, Content: "hello"}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if n.ID != 7 {
		t.Errorf("Create() id = %d, want 7", n.ID)
	}
	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestNoteRepository_ArchiveOlderThan(t *testing.T) {
	repo, mock := newMockNoteDB(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE note SET is_archived").WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.ArchiveOlderThan(ctx, time.Now())
	if err != nil {
		t.Fatalf("ArchiveOlderThan() error = %v", err)
	}
	if n != 4 {
		t.Errorf("ArchiveOlderThan() = %d, want 4", n)
	}
	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestNoteRepository_GetByID(t *testing.T) {
	repo, mock := newMockNoteDB(t)
	ctx := context.Background()
	now := time.Now()

	testCases := []struct {
		name string
		setupMock func()
		wantErr error
	}{
		{
			name: "returns a note",
			setupMock: func() {
				rows := sqlmock.NewRows([]string{
					"id", "owner_id", "type", "content", "created_at", "updated_at",
					"is_archived", "is_recycle", "is_top", "sort_order", "metadata",
				}).AddRow(1, 1, "NOTE", "hi", now, now, false, false, false, 0, []byte(`{}`))
				mock.ExpectQuery("SELECT").WithArgs(int64(1), int64(1)).WillReturnRows(rows)
			},
		},
		{
			name: "missing note returns ErrNoteNotFound",
			setupMock: func() {
				mock.ExpectQuery("SELECT").WithArgs(int64(2), int64(1)).WillReturnError(sql.ErrNoRows)
			},
			wantErr: database.ErrNoteNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()
			id := int64(1)
			if tc.wantErr != nil {
				id = 2
			}

			_, err := repo.GetByID(ctx, id, 1)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("GetByID() error = %v", err)
			}
			if tc.wantErr != nil && err != tc.wantErr {
				t.Fatalf("GetByID() error = %v, want %v", err, tc.wantErr)
			}
			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}
