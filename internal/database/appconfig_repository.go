package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// AppConfigRepository persists the single-row, runtime-editable
// app_config table and caches it in memory so every
// embedding/agent call doesn't round-trip to Postgres. The cache is
// invalidated on every write, following the usual config pattern of
// "load once, refresh on change" rather than polling.
type AppConfigRepository struct {
	db *sqlx.DB

	mu sync.RWMutex
	cache *domain.GlobalAIConfig
}

// NewAppConfigRepository wraps db.
func NewAppConfigRepository(db *sqlx.DB) *AppConfigRepository {
	return &AppConfigRepository{db: db}
}

// Get returns the cached config, loading it from the database on first use.
func (r *AppConfigRepository) Get(ctx context.Context) (domain.GlobalAIConfig, error) {
	r.mu.RLock()
	if r.cache != nil {
		defer r.mu.RUnlock()
		return *r.cache, nil
	}
	r.mu.RUnlock()
	return r.reload(ctx)
}

// Update writes cfg and refreshes the cache.
func (r *AppConfigRepository) Update(ctx context.Context, cfg domain.GlobalAIConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_config (
			id, main_model_id, embedding_model_id, voice_model_id, image_model_id,
			embedding_top_k, embedding_score, exclude_embedding_tag_id, global_prompt,
			is_use_ai_post_processing, ai_post_processing_mode, ai_comment_prompt,
			ai_tags_prompt, ai_smart_edit_prompt, ai_custom_prompt,
			tavily_api_key, tavily_max_result, auto_archived_days)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			main_model_id = EXCLUDED.main_model_id,
			embedding_model_id = EXCLUDED.embedding_model_id,
			voice_model_id = EXCLUDED.voice_model_id,
			image_model_id = EXCLUDED.image_model_id,
			embedding_top_k = EXCLUDED.embedding_top_k,
			embedding_score = EXCLUDED.embedding_score,
			exclude_embedding_tag_id = EXCLUDED.exclude_embedding_tag_id,
			global_prompt = EXCLUDED.global_prompt,
			is_use_ai_post_processing = EXCLUDED.is_use_ai_post_processing,
			ai_post_processing_mode = EXCLUDED.ai_post_processing_mode,
			ai_comment_prompt = EXCLUDED.ai_comment_prompt,
			ai_tags_prompt = EXCLUDED.ai_tags_prompt,
			ai_smart_edit_prompt = EXCLUDED.ai_smart_edit_prompt,
			ai_custom_prompt = EXCLUDED.ai_custom_prompt,
			tavily_api_key = EXCLUDED.tavily_api_key,
			tavily_max_result = EXCLUDED.tavily_max_result,
			auto_archived_days = EXCLUDED.auto_archived_days`,
		cfg.MainModelID, cfg.EmbeddingModelID, cfg.VoiceModelID, cfg.ImageModelID,
		cfg.EmbeddingTopK, cfg.EmbeddingScore, cfg.ExcludeEmbeddingTagID, cfg.GlobalPrompt,
		cfg.IsUseAIPostProcessing, cfg.AIPostProcessingMode, cfg.AICommentPrompt,
		cfg.AITagsPrompt, cfg.AISmartEditPrompt, cfg.AICustomPrompt,
		cfg.TavilyAPIKey, cfg.TavilyMaxResult, cfg.AutoArchivedDays)
	if err != nil {
		return fmt.Errorf("update app config: %w", err)
	}

	r.mu.Lock()
	cached := cfg
	r.cache = &cached
	r.mu.Unlock()
	return nil
}

func (r *AppConfigRepository) reload(ctx context.Context) (domain.GlobalAIConfig, error) {
	row := appConfigRow{}
	err := r.db.GetContext(ctx, &row, `
		SELECT main_model_id, embedding_model_id, voice_model_id, image_model_id,
			embedding_top_k, embedding_score, exclude_embedding_tag_id, global_prompt,
			is_use_ai_post_processing, ai_post_processing_mode, ai_comment_prompt,
			ai_tags_prompt, ai_smart_edit_prompt, ai_custom_prompt,
			tavily_api_key, tavily_max_result, auto_archived_days
		FROM app_config WHERE id = 1`)
	if err != nil {
		cfg := domain.DefaultGlobalAIConfig()
		if insertErr := r.Update(ctx, cfg); insertErr != nil {
			return domain.GlobalAIConfig{}, fmt.Errorf("seed app config: %w", insertErr)
		}
		return cfg, nil
	}

	cfg := row.toDomain()
	r.mu.Lock()
	cached := cfg
	r.cache = &cached
	r.mu.Unlock()
	return cfg, nil
}

type appConfigRow struct {
	MainModelID *int64 `db:"main_model_id"`
	EmbeddingModelID *int64 `db:"embedding_model_id"`
	VoiceModelID *int64 `db:"voice_model_id"`
	ImageModelID *int64 `db:"image_model_id"`
	EmbeddingTopK int `db:"embedding_top_k"`
	EmbeddingScore float64 `db:"embedding_score"`
	ExcludeEmbeddingTagID *int64 `db:"exclude_embedding_tag_id"`
	GlobalPrompt string `db:"global_prompt"`
	IsUseAIPostProcessing bool `db:"is_use_ai_post_processing"`
	AIPostProcessingMode string `db:"ai_post_processing_mode"`
	AICommentPrompt string `db:"ai_comment_prompt"`
	AITagsPrompt string `db:"ai_tags_prompt"`
	AISmartEditPrompt string `db:"ai_smart_edit_prompt"`
	AICustomPrompt string `db:"ai_custom_prompt"`
	TavilyAPIKey string `db:"tavily_api_key"`
	TavilyMaxResult int `db:"tavily_max_result"`
	AutoArchivedDays int `db:"auto_archived_days"`
}

func (row appConfigRow) toDomain() domain.GlobalAIConfig {
	return domain.GlobalAIConfig{
		MainModelID: row.MainModelID,
		EmbeddingModelID: row.EmbeddingModelID,
		VoiceModelID: row.VoiceModelID,
		ImageModelID: row.ImageModelID,
		EmbeddingTopK: row.EmbeddingTopK,
		EmbeddingScore: row.EmbeddingScore,
		ExcludeEmbeddingTagID: row.ExcludeEmbeddingTagID,
		GlobalPrompt: row.GlobalPrompt,
		IsUseAIPostProcessing: row.IsUseAIPostProcessing,
		AIPostProcessingMode: row.AIPostProcessingMode,
		AICommentPrompt: row.AICommentPrompt,
		AITagsPrompt: row.AITagsPrompt,
		AISmartEditPrompt: row.AISmartEditPrompt,
		AICustomPrompt: row.AICustomPrompt,
		TavilyAPIKey: row.TavilyAPIKey,
		TavilyMaxResult: row.TavilyMaxResult,
		AutoArchivedDays: row.AutoArchivedDays,
	}
}
