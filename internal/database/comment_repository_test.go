package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

func newMockCommentDB(t *testing.T) (*database.CommentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewCommentRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestCommentRepository_Create(t *testing.T) {
	repo, mock := newMockCommentDB(t)
	ctx := context.Background()

	mock.ExpectQuery("INSERT INTO comment").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	c := &domain.Comment{NoteID: 1, OwnerID: 2, Content: "looks good"}
	require.NoError(t, repo.Create(ctx, c))
	assert.Equal(t, int64(7), c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ForNote(t *testing.T) {
	repo, mock := newMockCommentDB(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "note_id", "owner_id", "content", "guest_name", "created_at"}).
		AddRow(1, 1, 2, "first", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	comments, err := repo.ForNote(ctx, 1)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "first", comments[0].Content)
	require.NoError(t, mock.ExpectationsWereMet())
}
