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
)

func newMockFollowDB(t *testing.T) (*database.FollowRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewFollowRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestFollowRepository_All(t *testing.T) {
	repo, mock := newMockFollowDB(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "site_url", "site_name", "last_fetch"}).
		AddRow(1, 1, "https://example.com/feed", "Example", nil)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	follows, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, follows, 1)
	assert.Equal(t, "https://example.com/feed", follows[0].SiteURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_Count(t *testing.T) {
	repo, mock := newMockFollowDB(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_TouchLastFetch(t *testing.T) {
	repo, mock := newMockFollowDB(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE follow").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchLastFetch(ctx, 1, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}
