package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/brainhub/internal/database"
	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
)

const noTavilyKeyMessage = "No tavily api key found, please configure it in settings"

// WebSearchTool runs a Tavily web search, returning a sentinel message
// when no key is configured rather than an error.
type WebSearchTool struct {
	config *database.AppConfigRepository
	// tavilyURL overrides the Tavily base URL; empty means the real API.
	// Set only by tests.
	tavilyURL string
}

// NewWebSearchTool wraps config.
func NewWebSearchTool(config *database.AppConfigRepository) *WebSearchTool {
	return &WebSearchTool{config: config}
}

func (t *WebSearchTool) Name() string { return "webSearchTool" }
func (t *WebSearchTool) Description() string { return "Search the web via Tavily." }
func (t *WebSearchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required": []string{"query"},
	}
}

type webSearchArgs struct {
	Query string `json:"query"`
}

func (t *WebSearchTool) Execute(ctx context.Context, _ Principal, raw json.RawMessage) (string, error) {
	var args webSearchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", platerrors.Wrap(platerrors.ValidationFailed, "decode webSearchTool args", err)
	}

	cfg, err := t.config.Get(ctx)
	if err != nil {
		return "", err
	}
	if cfg.TavilyAPIKey == "" {
		return noTavilyKeyMessage, nil
	}

	client := newTavilyClient(cfg.TavilyAPIKey)
	if t.tavilyURL != "" {
		client.baseURL = t.tavilyURL
	}
	results, err := client.search(ctx, args.Query, cfg.TavilyMaxResult)
	if err != nil {
		return "", platerrors.Wrap(platerrors.UpstreamTransient, "tavily search", err)
	}

	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("%s (%s): %s", r.Title, r.URL, r.Content)
	}
	return strings.Join(lines, "\n"), nil
}

// WebExtraTool pulls the full text of a set of URLs via Tavily's extract
// endpoint.
type WebExtraTool struct {
	config *database.AppConfigRepository
	// tavilyURL overrides the Tavily base URL; empty means the real API.
	// Set only by tests.
	tavilyURL string
}

// NewWebExtraTool wraps config.
func NewWebExtraTool(config *database.AppConfigRepository) *WebExtraTool {
	return &WebExtraTool{config: config}
}

func (t *WebExtraTool) Name() string { return "webExtra" }
func (t *WebExtraTool) Description() string { return "Extract the full text content of web pages." }
func (t *WebExtraTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"urls": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"urls"},
	}
}

type webExtraArgs struct {
	URLs []string `json:"urls"`
}

func (t *WebExtraTool) Execute(ctx context.Context, _ Principal, raw json.RawMessage) (string, error) {
	var args webExtraArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", platerrors.Wrap(platerrors.ValidationFailed, "decode webExtra args", err)
	}

	cfg, err := t.config.Get(ctx)
	if err != nil {
		return "", err
	}
	if cfg.TavilyAPIKey == "" {
		return noTavilyKeyMessage, nil
	}

	client := newTavilyClient(cfg.TavilyAPIKey)
	if t.tavilyURL != "" {
		client.baseURL = t.tavilyURL
	}
	results, err := client.extract(ctx, args.URLs)
	if err != nil {
		return "", platerrors.Wrap(platerrors.UpstreamTransient, "tavily extract", err)
	}

	parts := make([]string, len(results))
	for i, r := range results {
		if r.FailedReason != "" {
			parts[i] = fmt.Sprintf("%s: error: %s", r.URL, r.FailedReason)
			continue
		}
		parts[i] = fmt.Sprintf("%s:\n%s", r.URL, r.RawContent)
	}
	return strings.Join(parts, "\n\n"), nil
}
