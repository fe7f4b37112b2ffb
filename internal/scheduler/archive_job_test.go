package scheduler

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
)

func TestArchiveJob_UsesConfiguredThreshold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "postgres")

	configRows := sqlmock.NewRows([]string{
		"main_model_id", "embedding_model_id", "voice_model_id", "image_model_id",
		"embedding_top_k", "embedding_score", "exclude_embedding_tag_id", "global_prompt",
		"is_use_ai_post_processing", "ai_post_processing_mode", "ai_comment_prompt",
		"ai_tags_prompt", "ai_smart_edit_prompt", "ai_custom_prompt",
		"tavily_api_key", "tavily_max_result", "auto_archived_days",
	}).AddRow(nil, nil, nil, nil, 3, 0.4, nil, "", false, "comment", "", "", "", "", "", 5, 14)
	mock.ExpectQuery("SELECT").WillReturnRows(configRows)
	mock.ExpectExec("UPDATE note SET is_archived").WillReturnResult(sqlmock.NewResult(0, 2))

	notes := database.NewNoteRepository(sqlxDB)
	config := database.NewAppConfigRepository(sqlxDB)

	job := &ArchiveJob{notes: notes, config: config, log: logger.NewNop()}
	require.NoError(t, job.run(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
