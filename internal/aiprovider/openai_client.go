package aiprovider

import (
	"encoding/base64"
	"fmt"

	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jonesrussell/north-cloud/brainhub/internal/embedding"
	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/proxyfetch"
)

// openaiClient implements LLM and Embedder over the OpenAI Chat
// Completions and Embeddings APIs. Pointing BaseURL at a vendor's
// OpenAI-compatible endpoint is how this one client backs Ollama, Azure,
// OpenRouter, DeepSeek, xAI, and "custom" per "custom ≡
// OpenAI-compatible".
type openaiClient struct {
	client openai.Client
	model string
	dimensions int
}

func newOpenAIClient(cfg ModelConfig) *openaiClient {
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
	return &openaiClient{
		client: openai.NewClient(opts...),
		model: cfg.ModelKey,
		dimensions: embedding.InferDimensions(cfg.ModelKey),
	}
}

func (c *openaiClient) Complete(ctx context.Context, messages []ChatMessage) (ChatResult, error) {
	if c.model == "" {
		return ChatResult{}, fmt.Errorf("openai-compatible: model key is required")
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: toOpenAIMessages(messages),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ChatResult{}, fmt.Errorf("openai-compatible chat completion: %w", err)
	}
	result := ChatResult{
		InputTokens: int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	if len(resp.Choices) > 0 {
		result.Content = resp.Choices[0].Message.Content
	}
	return result, nil
}

func (c *openaiClient) Stream(ctx context.Context, messages []ChatMessage) (<-chan ChatChunk, error) {
	if c.model == "" {
		return nil, fmt.Errorf("openai-compatible: model key is required")
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: toOpenAIMessages(messages),
	}
	stream := c.client.Chat.Completions.NewStreaming(ctx, params)

	out := make(chan ChatChunk)
	go func() {
		defer close(out)
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				out <- ChatChunk{Delta: chunk.Choices[0].Delta.Content}
			}
		}
		out <- ChatChunk{Done: true}
	}()
	return out, nil
}

func (c *openaiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.model == "" {
		return nil, fmt.Errorf("openai-compatible: embedding model key is required")
	}
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}
	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai-compatible embeddings: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		out[i] = vec
	}
	return out, nil
}

func (c *openaiClient) Dimensions() int {
	return c.dimensions
}

// Caption sends jpeg as an inline data URI alongside prompt to a
// vision-capable chat model. Vendors that reject image content return
// their own error, not ErrImageNotSupported — that sentinel is reserved
// for providers that never accept images at all (see google_client.go).
func (c *openaiClient) Caption(ctx context.Context, jpeg []byte, prompt string) (string, error) {
	if c.model == "" {
		return "", fmt.Errorf("openai-compatible: model key is required")
	}
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI}),
			}),
		},
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai-compatible vision caption: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai-compatible vision caption: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
