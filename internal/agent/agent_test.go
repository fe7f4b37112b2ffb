package agent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	"github.com/jonesrussell/north-cloud/brainhub/internal/embedding"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/logger"
)

const appConfigColumns = "main_model_id, embedding_model_id, voice_model_id, image_model_id, " +
	"embedding_top_k, embedding_score, exclude_embedding_tag_id, global_prompt, " +
	"is_use_ai_post_processing, ai_post_processing_mode, ai_comment_prompt, " +
	"ai_tags_prompt, ai_smart_edit_prompt, ai_custom_prompt, " +
	"tavily_api_key, tavily_max_result, auto_archived_days"

func newTestAppConfig(t *testing.T, mainModelID int64) *database.AppConfigRepository {
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
	}).AddRow(mainModelID, nil, nil, nil, 3, 0.4, nil, "be helpful", false, "comment", "",
		"", "", "", "", 5, 30)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	return database.NewAppConfigRepository(sqlx.NewDb(db, "postgres"))
}

func newTestProviders(t *testing.T, providerID, modelID int64, baseURL string) *database.AIProviderRepository {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT id, provider_id, model_key, embedding_dimensions FROM ai_model").
		WithArgs(modelID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider_id", "model_key", "embedding_dimensions"}).
			AddRow(modelID, providerID, "test-model", 0))
	mock.ExpectQuery("SELECT id, vendor, base_url, api_key, config FROM ai_provider").
		WithArgs(providerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vendor", "base_url", "api_key", "config"}).
			AddRow(providerID, "openai", baseURL, "test-key", ""))

	return database.NewAIProviderRepository(sqlx.NewDb(db, "postgres"))
}

func newMockNoteRepoWithGet(t *testing.T, noteID, ownerID int64, content string) (*database.NoteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT id, owner_id, type, content").
		WithArgs(noteID, ownerID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "type", "content", "created_at", "updated_at",
			"is_archived", "is_recycle", "is_top", "sort_order", "metadata",
		}).AddRow(noteID, ownerID, "blinko", content, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			false, false, false, 0, []byte(`{}`)))

	return database.NewNoteRepository(sqlx.NewDb(db, "postgres")), mock
}

func openAIChatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1,
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "` + reply + `"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`))
	}))
}

func TestAgent_PostProcessNote_Comment(t *testing.T) {
	srv := openAIChatServer(t, "nice note")
	defer srv.Close()

	notes, noteMock := newMockNoteRepoWithGet(t, 5, 1, "hello world")
	providers := newTestProviders(t, 1, 1, srv.URL)
	config := newTestAppConfig(t, 1)

	commentsDB, commentMock, err := sqlmock.New()
	require.NoError(t, err)
	defer commentsDB.Close()
	comments := database.NewCommentRepository(sqlx.NewDb(commentsDB, "postgres"))
	commentMock.ExpectQuery("INSERT INTO comment").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	a := New(Deps{
		Facade: aiprovider.NewFacade(),
		Providers: providers,
		Config: config,
		Notes: notes,
		Comments: comments,
		Resolver: NewPrincipalResolver("secret"),
		Log: logger.NewNop(),
	})

	err = a.PostProcessNote(WithAccountID(context.Background(), 1), 5, PostProcessComment)
	require.NoError(t, err)
	require.NoError(t, noteMock.ExpectationsWereMet())
	require.NoError(t, commentMock.ExpectationsWereMet())
}

func TestAgent_PostProcessNote_Tags(t *testing.T) {
	srv := openAIChatServer(t, "go, backend")
	defer srv.Close()

	notes, noteMock := newMockNoteRepoWithGet(t, 5, 1, "hello world")
	providers := newTestProviders(t, 1, 1, srv.URL)
	config := newTestAppConfig(t, 1)

	tagsDB, tagMock, err := sqlmock.New()
	require.NoError(t, err)
	defer tagsDB.Close()
	tags := database.NewTagRepository(sqlx.NewDb(tagsDB, "postgres"))
	tagMock.ExpectQuery("INSERT INTO tag").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	tagMock.ExpectExec("INSERT INTO tag_edge").WillReturnResult(sqlmock.NewResult(0, 1))
	tagMock.ExpectQuery("INSERT INTO tag").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	tagMock.ExpectExec("INSERT INTO tag_edge").WillReturnResult(sqlmock.NewResult(0, 1))
	noteMock.ExpectExec("UPDATE note SET").WillReturnResult(sqlmock.NewResult(0, 1))

	a := New(Deps{
		Facade: aiprovider.NewFacade(),
		Providers: providers,
		Config: config,
		Notes: notes,
		Tags: tags,
		Resolver: NewPrincipalResolver("secret"),
		Log: logger.NewNop(),
	})

	err = a.PostProcessNote(WithAccountID(context.Background(), 1), 5, PostProcessTags)
	require.NoError(t, err)
	require.NoError(t, noteMock.ExpectationsWereMet())
	require.NoError(t, tagMock.ExpectationsWereMet())
}

func TestAgent_PostProcessNote_UnknownMode(t *testing.T) {
	notes, _ := newMockNoteRepoWithGet(t, 5, 1, "hello")
	config := newTestAppConfig(t, 1)

	a := New(Deps{
		Notes: notes,
		Config: config,
		Resolver: NewPrincipalResolver("secret"),
		Log: logger.NewNop(),
	})

	err := a.PostProcessNote(WithAccountID(context.Background(), 1), 5, PostProcessMode("bogus"))
	assert.Error(t, err)
}

func TestAgent_Completions_RequiresPrincipal(t *testing.T) {
	a := New(Deps{Resolver: NewPrincipalResolver("secret"), Log: logger.NewNop()})
	_, err := a.Completions(context.Background(), "hi", nil, false, false, "")
	assert.Error(t, err)
}

func TestAgent_Completions_RAGQueryError(t *testing.T) {
	config := newTestAppConfig(t, 1)
	a := New(Deps{
		Config: config,
		Retriever: erroringRetriever{},
		Resolver: NewPrincipalResolver("secret"),
		Log: logger.NewNop(),
	})

	_, err := a.Completions(WithAccountID(context.Background(), 1), "hi", nil, false, true, "")
	assert.Error(t, err)
}

type erroringRetriever struct{}

var errRetrieverUnavailable = errors.New("retriever unavailable")

func (erroringRetriever) Query(context.Context, string, int, float64, map[int64]bool) ([]embedding.Match, error) {
	return nil, errRetrieverUnavailable
}
