package agent

import (
	"context"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
)

// resolveModelConfig turns a configured model id into the normalized
// {provider, apiKey, baseURL, modelKey} shape the provider facade wants,
// per A nil modelID means no model was ever selected for this
// capability — the recoverable ConfigMissing case, not a crash.
func resolveModelConfig(ctx context.Context, providers *database.AIProviderRepository, modelID *int64) (aiprovider.ModelConfig, error) {
	if modelID == nil {
		return aiprovider.ModelConfig{}, platerrors.New(platerrors.ConfigMissing, "no model configured")
	}
	model, err := providers.GetModel(ctx, *modelID)
	if err != nil {
		return aiprovider.ModelConfig{}, platerrors.Wrap(platerrors.ConfigMissing, "look up configured model", err)
	}
	provider, err := providers.GetByID(ctx, model.ProviderID)
	if err != nil {
		return aiprovider.ModelConfig{}, platerrors.Wrap(platerrors.ConfigMissing, "look up model's provider", err)
	}
	return aiprovider.ModelConfig{
		Vendor: provider.Vendor,
		APIKey: provider.APIKey,
		BaseURL: provider.BaseURL,
		ModelKey: model.ModelKey,
	}, nil
}
