package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/proxyfetch"
)

// googleClient implements LLM over the Google Generative Language REST
// API. No Go SDK for this vendor appears anywhere in the example pack, so
// it is hand-rolled against the documented REST surface rather than pulled
// in as a dependency with no grounding — see DESIGN.md.
type googleClient struct {
	apiKey string
	model string
}

const googleAPIBase = "https://generativelanguage.googleapis.com/v1beta"

func newGoogleClient(cfg ModelConfig) *googleClient {
	return &googleClient{apiKey: cfg.APIKey, model: cfg.ModelKey}
}

type googleGenerateRequest struct {
	Contents []googleContent `json:"contents"`
}

type googleContent struct {
	Role string `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleGenerateResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (c *googleClient) Complete(ctx context.Context, messages []ChatMessage) (ChatResult, error) {
	if c.model == "" {
		return ChatResult{}, fmt.Errorf("google: model key is required")
	}

	contents := make([]googleContent, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, googleContent{Role: role, Parts: []googlePart{{Text: m.Content}}})
	}

	body, err := json.Marshal(googleGenerateRequest{Contents: contents})
	if err != nil {
		return ChatResult{}, fmt.Errorf("google: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", googleAPIBase, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ChatResult{}, fmt.Errorf("google: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := proxyfetch.Client().Do(req)
	if err != nil {
		return ChatResult{}, fmt.Errorf("google: generateContent: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatResult{}, fmt.Errorf("google: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return ChatResult{}, fmt.Errorf("google: generateContent status %d: %s", resp.StatusCode, raw)
	}

	var decoded googleGenerateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ChatResult{}, fmt.Errorf("google: decode response: %w", err)
	}

	var content string
	if len(decoded.Candidates) > 0 && len(decoded.Candidates[0].Content.Parts) > 0 {
		content = decoded.Candidates[0].Content.Parts[0].Text
	}

	return ChatResult{
		Content: content,
		InputTokens: decoded.UsageMetadata.PromptTokenCount,
		OutputTokens: decoded.UsageMetadata.CandidatesTokenCount,
	}, nil
}

// Stream has no SSE handling in this REST-only adapter: it runs Complete
// and delivers the whole reply as one chunk followed by a Done chunk.
func (c *googleClient) Stream(ctx context.Context, messages []ChatMessage) (<-chan ChatChunk, error) {
	result, err := c.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	out := make(chan ChatChunk, 2)
	out <- ChatChunk{Delta: result.Content}
	out <- ChatChunk{Done: true}
	close(out)
	return out, nil
}
