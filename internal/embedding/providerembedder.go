package embedding

import (
	"context"
	"sync"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
)

// ProviderEmbedder adapts the AI provider facade's embedding client to the
// Embedder interface Engine wants, re-resolving GlobalAIConfig's
// EmbeddingModelID on every call rather than once at construction — an
// admin changing the configured embedding model takes effect on the next
// Embed call with nothing to restart, the same fresh-per-call contract
// aiprovider.Facade documents for itself.
type ProviderEmbedder struct {
	facade *aiprovider.Facade
	providers *database.AIProviderRepository
	config *database.AppConfigRepository

	mu sync.Mutex
	dims int
}

// NewProviderEmbedder wires an Embedder over facade, providers, and config.
func NewProviderEmbedder(facade *aiprovider.Facade, providers *database.AIProviderRepository, config *database.AppConfigRepository) *ProviderEmbedder {
	return &ProviderEmbedder{facade: facade, providers: providers, config: config}
}

func (p *ProviderEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	cfg, err := p.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.EmbeddingModelID == nil {
		return nil, platerrors.New(platerrors.ConfigMissing, "no embedding model configured")
	}
	model, err := p.providers.GetModel(ctx, *cfg.EmbeddingModelID)
	if err != nil {
		return nil, platerrors.Wrap(platerrors.ConfigMissing, "look up configured embedding model", err)
	}
	provider, err := p.providers.GetByID(ctx, model.ProviderID)
	if err != nil {
		return nil, platerrors.Wrap(platerrors.ConfigMissing, "look up embedding model's provider", err)
	}

	embedder, err := p.facade.GetEmbeddingModel(aiprovider.ModelConfig{
		Vendor: provider.Vendor,
		APIKey: provider.APIKey,
		BaseURL: provider.BaseURL,
		ModelKey: model.ModelKey,
	})
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.dims = model.EmbeddingDimensions
	p.mu.Unlock()

	return embedder.Embed(ctx, texts)
}

// Dimensions reports the last-resolved embedding model's vector width, zero
// until the first successful Embed call has resolved one.
func (p *ProviderEmbedder) Dimensions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dims
}
