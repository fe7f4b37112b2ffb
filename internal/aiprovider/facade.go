package aiprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/proxyfetch"
)

// Facade is the entry point described in: getLanguageModel,
// getEmbeddingModel, getAudioModel. It never holds state beyond what a
// single call needs — every method takes the normalized config fresh, so
// a provider's api key rotation takes effect on the next call with no
// cache to invalidate.
type Facade struct{}

// NewFacade constructs the facade. It has no dependencies of its own;
// every vendor client is built fresh per call from the supplied config.
func NewFacade() *Facade {
	return &Facade{}
}

// GetLanguageModel returns a chat-capable client for cfg, or an error if
// the vendor has no chat surface.
func (f *Facade) GetLanguageModel(cfg ModelConfig) (LLM, error) {
	cfg = Normalize(cfg)
	switch {
	case cfg.Vendor == VendorAnthropic:
		return newAnthropicClient(cfg), nil
	case cfg.Vendor == VendorGoogle:
		return newGoogleClient(cfg), nil
	case cfg.Vendor == VendorVoyage:
		return nil, fmt.Errorf("aiprovider: voyage has no chat capability")
	case usesOpenAICompatibleAPI(cfg.Vendor):
		return newOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("aiprovider: %s has no chat capability", cfg.Vendor)
	}
}

// GetEmbeddingModel returns an embedding-capable client for cfg. Returns
// the ErrNoEmbeddingModelConfig sentinel error when cfg carries no model
// key — a recoverable typed error rather than a crash.
func (f *Facade) GetEmbeddingModel(cfg ModelConfig) (Embedder, error) {
	if cfg.ModelKey == "" {
		return nil, ErrNoEmbeddingModelConfig
	}
	cfg = Normalize(cfg)
	if !usesOpenAICompatibleAPI(cfg.Vendor) {
		return nil, fmt.Errorf("aiprovider: %s has no embedding capability", cfg.Vendor)
	}
	return newOpenAIClient(cfg), nil
}

// GetAudioModel returns a transcription-capable client for cfg. Returns
// ErrNoAudioModelConfig when cfg is unset.
func (f *Facade) GetAudioModel(cfg ModelConfig) (AudioModel, error) {
	if cfg.ModelKey == "" {
		return nil, ErrNoAudioModelConfig
	}
	cfg = Normalize(cfg)
	return newOpenAIAudioClient(cfg), nil
}

// TestConnection runs the minimal per-capability probes:
// a Complete call on a one-word prompt for inference (no output-token
// limit is set on it), an embed of "test embedding" for embedding, and
// audio marked untestable.
func (f *Facade) TestConnection(ctx context.Context, cfg ModelConfig, caps ModelCapabilities) map[string]CapabilityResult {
	results := make(map[string]CapabilityResult)

	if caps.Inference {
		llm, err := f.GetLanguageModel(cfg)
		if err != nil {
			results["inference"] = CapabilityResult{Success: false, Error: err.Error()}
		} else if _, err := llm.Complete(ctx, []ChatMessage{{Role: "user", Content: "hi"}}); err != nil {
			results["inference"] = CapabilityResult{Success: false, Error: err.Error()}
		} else {
			results["inference"] = CapabilityResult{Success: true}
		}
	}

	if caps.Embedding {
		embedder, err := f.GetEmbeddingModel(cfg)
		if err != nil {
			results["embedding"] = CapabilityResult{Success: false, Error: err.Error()}
		} else if _, err := embedder.Embed(ctx, []string{"test embedding"}); err != nil {
			results["embedding"] = CapabilityResult{Success: false, Error: err.Error()}
		} else {
			results["embedding"] = CapabilityResult{Success: true}
		}
	}

	if caps.Audio {
		results["audio"] = CapabilityResult{Success: false, Error: "audio capability is not testable"}
	}

	return results
}

// ProviderModel is one entry in a vendor's model-list response, annotated
// with an inferred capability vector.
type ProviderModel struct {
	ModelKey string
	Capabilities ModelCapabilities
}

// staticAnthropicModels and staticVoyageModels back fetchProviderModels
// for the two vendors that use a static list rather than a model-list
// HTTP call.
var staticAnthropicModels = []string{
	"claude-opus-4-1-20250805",
	"claude-sonnet-4-5-20250929",
	"claude-3-5-haiku-20241022",
}

var staticVoyageModels = []string{
	"voyage-3", "voyage-3-lite", "voyage-3-large", "voyage-code-3",
}

// FetchProviderModels performs a vendor-specific model-list call (or
// returns a static list) and annotates each result with capabilities
// inferred from name substrings.
func (f *Facade) FetchProviderModels(ctx context.Context, cfg ModelConfig) ([]ProviderModel, error) {
	cfg = Normalize(cfg)

	var keys []string
	var err error
	switch cfg.Vendor {
	case VendorAnthropic:
		keys = staticAnthropicModels
	case VendorVoyage:
		keys = staticVoyageModels
	case VendorOllama:
		keys, err = fetchOllamaTags(ctx, cfg)
	case VendorGoogle:
		keys, err = fetchGoogleModels(ctx, cfg)
	case VendorAzure:
		keys, err = fetchOpenAICompatibleModels(ctx, cfg)
	default:
		keys, err = fetchOpenAICompatibleModels(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	out := make([]ProviderModel, len(keys))
	for i, k := range keys {
		out[i] = ProviderModel{ModelKey: k, Capabilities: InferCapabilities(k)}
	}
	return out, nil
}

func fetchOpenAICompatibleModels(ctx context.Context, cfg ModelConfig) ([]string, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(proxyfetch.Client()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Vendor == VendorAzure && cfg.APIVersion != "" {
		opts = append(opts, option.WithQuery("api-version", cfg.APIVersion))
	}
	client := openai.NewClient(opts...)

	page, err := client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	keys := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		keys = append(keys, m.ID)
	}
	return keys, nil
}

func fetchOllamaTags(ctx context.Context, cfg ModelConfig) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}

	resp, err := proxyfetch.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: tags request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: read response: %w", err)
	}

	var decoded struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("ollama: decode tags: %w", err)
	}

	keys := make([]string, len(decoded.Models))
	for i, m := range decoded.Models {
		keys[i] = m.Name
	}
	return keys, nil
}

func fetchGoogleModels(ctx context.Context, cfg ModelConfig) ([]string, error) {
	url := fmt.Sprintf("%s/models?key=%s", googleAPIBase, cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("google: build request: %w", err)
	}

	resp, err := proxyfetch.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: models request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google: read response: %w", err)
	}

	var decoded struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("google: decode models: %w", err)
	}

	keys := make([]string, len(decoded.Models))
	for i, m := range decoded.Models {
		keys[i] = m.Name
	}
	return keys, nil
}
