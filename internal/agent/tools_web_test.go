package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
)

func newMockConfigWithKey(t *testing.T, apiKey string) *database.AppConfigRepository {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rows := sqlmock.NewRows([]string{
		"main_model_id", "embedding_model_id", "voice_model_id", "image_model_id",
		"embedding_top_k", "embedding_score", "exclude_embedding_tag_id", "global_prompt",
		"is_use_ai_post_processing", "ai_post_processing_mode", "ai_comment_prompt",
		"ai_tags_prompt", "ai_smart_edit_prompt", "ai_custom_prompt",
		"tavily_api_key", "tavily_max_result", "auto_archived_days",
	}).AddRow(nil, nil, nil, nil, 3, 0.4, nil, "", false, "comment", "", "", "", "", apiKey, 5, 30)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	return database.NewAppConfigRepository(sqlx.NewDb(db, "postgres"))
}

func TestWebSearchTool_NoKeyConfigured(t *testing.T) {
	config := newMockConfigWithKey(t, "")
	tool := NewWebSearchTool(config)

	args, _ := json.Marshal(map[string]any{"query": "golang"})
	out, err := tool.Execute(context.Background(), Principal{}, args)
	require.NoError(t, err)
	assert.Equal(t, noTavilyKeyMessage, out)
}

func TestWebSearchTool_ReturnsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"Go","url":"https://go.dev","content":"the language"}]}`))
	}))
	defer srv.Close()

	config := newMockConfigWithKey(t, "tvly-key")
	tool := NewWebSearchTool(config)
	tool.tavilyURL = srv.URL

	args, _ := json.Marshal(map[string]any{"query": "golang"})
	out, err := tool.Execute(context.Background(), Principal{}, args)
	require.NoError(t, err)
	assert.Contains(t, out, "Go (https://go.dev): the language")
}

func TestWebExtraTool_ReturnsExtractedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"url":"https://go.dev","raw_content":"body text"}]}`))
	}))
	defer srv.Close()

	config := newMockConfigWithKey(t, "tvly-key")
	tool := NewWebExtraTool(config)
	tool.tavilyURL = srv.URL

	args, _ := json.Marshal(map[string]any{"urls": []string{"https://go.dev"}})
	out, err := tool.Execute(context.Background(), Principal{}, args)
	require.NoError(t, err)
	assert.Contains(t, out, "body text")
}
