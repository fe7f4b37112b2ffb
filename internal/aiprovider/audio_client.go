package aiprovider

import (
	"bytes"
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/proxyfetch"
)

// openaiAudioClient implements AudioModel over the OpenAI-compatible audio
// transcription endpoint (Whisper and its workalikes).
type openaiAudioClient struct {
	client openai.Client
	model string
}

func newOpenAIAudioClient(cfg ModelConfig) *openaiAudioClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(proxyfetch.Client()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openaiAudioClient{client: openai.NewClient(opts...), model: cfg.ModelKey}
}

// Transcribe invokes the configured voice model's listen operation on a
// read stream, per extensionHint names the source file's extension
// (e.g. "mp3", "m4a") so the vendor can pick a decoder.
func (c *openaiAudioClient) Transcribe(ctx context.Context, audio []byte, extensionHint string) (string, error) {
	if c.model == "" {
		return "", fmt.Errorf("audio: model key is required")
	}

	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(c.model),
		File: openai.File(bytes.NewReader(audio), "audio."+extensionHint, "application/octet-stream"),
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("audio transcription: %w", err)
	}
	return resp.Text, nil
}
