package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// ErrProviderNotFound is returned when a provider id does not resolve.
var ErrProviderNotFound = errors.New("ai provider not found")

// AIProviderRepository persists configured vendor accounts and their models.
type AIProviderRepository struct {
	db *sqlx.DB
}

// NewAIProviderRepository wraps db.
func NewAIProviderRepository(db *sqlx.DB) *AIProviderRepository {
	return &AIProviderRepository{db: db}
}

// Create inserts a provider row.
func (r *AIProviderRepository) Create(ctx context.Context, p *domain.AIProvider) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO ai_provider (vendor, base_url, api_key, config)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Vendor, p.BaseURL, p.APIKey, p.Config).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert ai provider: %w", err)
	}
	return nil
}

// GetByID fetches a single provider.
func (r *AIProviderRepository) GetByID(ctx context.Context, id int64) (*domain.AIProvider, error) {
	var p domain.AIProvider
	err := r.db.GetContext(ctx, &p, `SELECT id, vendor, base_url, api_key, config FROM ai_provider WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get ai provider: %w", err)
	}
	return &p, nil
}

// List returns every configured provider.
func (r *AIProviderRepository) List(ctx context.Context) ([]*domain.AIProvider, error) {
	var providers []*domain.AIProvider
	err := r.db.SelectContext(ctx, &providers, `SELECT id, vendor, base_url, api_key, config FROM ai_provider ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list ai providers: %w", err)
	}
	return providers, nil
}

// Delete removes a provider and its models (ON DELETE CASCADE).
func (r *AIProviderRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ai_provider WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ai provider: %w", err)
	}
	return requireRowsAffected(res, ErrProviderNotFound)
}

// UpsertModel records a model offered by a provider, including its inferred
// embedding dimensionality.
func (r *AIProviderRepository) UpsertModel(ctx context.Context, m *domain.AIModel) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO ai_model (provider_id, model_key, embedding_dimensions)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider_id, model_key) DO UPDATE SET embedding_dimensions = EXCLUDED.embedding_dimensions
		RETURNING id`,
		m.ProviderID, m.ModelKey, m.EmbeddingDimensions).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("upsert ai model: %w", err)
	}
	return nil
}

// ModelsForProvider lists the models recorded for providerID.
func (r *AIProviderRepository) ModelsForProvider(ctx context.Context, providerID int64) ([]*domain.AIModel, error) {
	var models []*domain.AIModel
	err := r.db.SelectContext(ctx, &models, `
		SELECT id, provider_id, model_key, embedding_dimensions FROM ai_model
		WHERE provider_id = $1 ORDER BY model_key`, providerID)
	if err != nil {
		return nil, fmt.Errorf("list ai models: %w", err)
	}
	return models, nil
}

// GetModel fetches a single model by id.
func (r *AIProviderRepository) GetModel(ctx context.Context, id int64) (*domain.AIModel, error) {
	var m domain.AIModel
	err := r.db.GetContext(ctx, &m, `
		SELECT id, provider_id, model_key, embedding_dimensions FROM ai_model WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get ai model: %w", err)
	}
	return &m, nil
}
