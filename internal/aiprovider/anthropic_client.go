package aiprovider

import (
	"context"
	"encoding/base64"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/proxyfetch"
)

// anthropicClient implements LLM over the Anthropic Messages API.
type anthropicClient struct {
	client *sdk.Client
	model string
}

func newAnthropicClient(cfg ModelConfig) *anthropicClient {
	client := sdk.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(proxyfetch.Client()),
	)
	return &anthropicClient{client: &client, model: cfg.ModelKey}
}

func (c *anthropicClient) Complete(ctx context.Context, messages []ChatMessage) (ChatResult, error) {
	params, err := c.buildParams(messages, 4096)
	if err != nil {
		return ChatResult{}, err
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return ChatResult{}, fmt.Errorf("anthropic messages.new: %w", err)
	}

	var content string
	for _, block := range msg.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return ChatResult{
		Content: content,
		InputTokens: int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func (c *anthropicClient) Stream(ctx context.Context, messages []ChatMessage) (<-chan ChatChunk, error) {
	params, err := c.buildParams(messages, 4096)
	if err != nil {
		return nil, err
	}

	out := make(chan ChatChunk)
	stream := c.client.Messages.NewStreaming(ctx, params)

	go func() {
		defer close(out)
		for stream.Next() {
			event := stream.Current()
			if deltaEvent, ok := event.AsAny().(sdk.ContentBlockDeltaEvent); ok {
				if textDelta, ok := deltaEvent.Delta.AsAny().(sdk.TextDelta); ok && textDelta.Text != "" {
					out <- ChatChunk{Delta: textDelta.Text}
				}
			}
		}
		out <- ChatChunk{Done: true}
	}()
	return out, nil
}

// Caption sends jpeg as a base64 image block alongside prompt to Claude's
// vision input.
func (c *anthropicClient) Caption(ctx context.Context, jpeg []byte, prompt string) (string, error) {
	if c.model == "" {
		return "", fmt.Errorf("anthropic: model key is required")
	}
	encoded := base64.StdEncoding.EncodeToString(jpeg)
	params := sdk.MessageNewParams{
		Model: sdk.Model(c.model),
		MaxTokens: 1024,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64("image/jpeg", encoded),
				sdk.NewTextBlock(prompt),
			),
		},
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic vision caption: %w", err)
	}

	var content string
	for _, block := range msg.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}

func (c *anthropicClient) buildParams(messages []ChatMessage, maxTokens int64) (sdk.MessageNewParams, error) {
	if len(messages) == 0 {
		return sdk.MessageNewParams{}, fmt.Errorf("anthropic: messages are required")
	}
	if c.model == "" {
		return sdk.MessageNewParams{}, fmt.Errorf("anthropic: model key is required")
	}

	var system []sdk.TextBlockParam
	var conversation []sdk.MessageParam
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, sdk.TextBlockParam{Text: m.Content})
			continue
		}
		block := sdk.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			conversation = append(conversation, sdk.NewAssistantMessage(block))
		} else {
			conversation = append(conversation, sdk.NewUserMessage(block))
		}
	}

	params := sdk.MessageNewParams{
		Model: sdk.Model(c.model),
		MaxTokens: maxTokens,
		Messages: conversation,
	}
	if len(system) > 0 {
		params.System = system
	}
	return params, nil
}
