package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/embedding"
)

func newMockNoteDB(t *testing.T) (*database.NoteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewNoteRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestUpsertBlinkoTool_Create(t *testing.T) {
	notes, mock := newMockNoteDB(t)
	tool := NewUpsertBlinkoTool(notes)

	mock.ExpectQuery("INSERT INTO note").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(5, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	args, _ := json.Marshal(map[string]any{"content": "hello", "type": "blinko"})
	out, err := tool.Execute(context.Background(), Principal{AccountID: 1}, args)
	require.NoError(t, err)
	assert.Contains(t, out, "created note 5")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBlinkoTool_UnknownType(t *testing.T) {
	notes, _ := newMockNoteDB(t)
	tool := NewUpsertBlinkoTool(notes)

	args, _ := json.Marshal(map[string]any{"content": "hello", "type": "bogus"})
	_, err := tool.Execute(context.Background(), Principal{AccountID: 1}, args)
	assert.Error(t, err)
}

func TestDeleteBlinkoTool_RecyclesEach(t *testing.T) {
	notes, mock := newMockNoteDB(t)
	tool := NewDeleteBlinkoTool(notes)

	mock.ExpectExec("UPDATE note SET is_recycle").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE note SET is_recycle").WillReturnResult(sqlmock.NewResult(0, 1))

	args, _ := json.Marshal(map[string]any{"ids": []int64{1, 2}})
	out, err := tool.Execute(context.Background(), Principal{AccountID: 1}, args)
	require.NoError(t, err)
	assert.Contains(t, out, "recycled 2")
	require.NoError(t, mock.ExpectationsWereMet())
}

type stubRetriever struct {
	matches []embedding.Match
}

func (s stubRetriever) Query(_ context.Context, _ string, _ int, _ float64, _ map[int64]bool) ([]embedding.Match, error) {
	return s.matches, nil
}

func TestSearchBlinkoTool_AiQueryAggregatesContext(t *testing.T) {
	db, configMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	config := database.NewAppConfigRepository(sqlx.NewDb(db, "postgres"))

	configRows := sqlmock.NewRows([]string{
		"main_model_id", "embedding_model_id", "voice_model_id", "image_model_id",
		"embedding_top_k", "embedding_score", "exclude_embedding_tag_id", "global_prompt",
		"is_use_ai_post_processing", "ai_post_processing_mode", "ai_comment_prompt",
		"ai_tags_prompt", "ai_smart_edit_prompt", "ai_custom_prompt",
		"tavily_api_key", "tavily_max_result", "auto_archived_days",
	}).AddRow(nil, nil, nil, nil, 3, 0.4, nil, "", false, "comment", "", "", "", "", "", 5, 30)
	configMock.ExpectQuery("SELECT").WillReturnRows(configRows)

	retriever := stubRetriever{matches: []embedding.Match{
		{Text: "chunk one"},
		{Text: "chunk two"},
	}}
	retriever.matches[0].NoteID = 1
	retriever.matches[1].NoteID = 2

	tool := NewSearchBlinkoTool(nil, retriever, config)
	args, _ := json.Marshal(map[string]any{"searchText": "q", "isUseAiQuery": true})
	out, err := tool.Execute(context.Background(), Principal{AccountID: 1}, args)
	require.NoError(t, err)
	assert.Equal(t, "chunk one\n\nchunk two", out)
	require.NoError(t, configMock.ExpectationsWereMet())
}
