package aiprovider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
)

func TestInferCapabilities(t *testing.T) {
	cases := []struct {
		modelKey string
		want aiprovider.ModelCapabilities
	}{
		{"text-embedding-3-small", aiprovider.ModelCapabilities{Embedding: true}},
		{"voyage-3-lite", aiprovider.ModelCapabilities{Embedding: true}},
		{"bge-m3", aiprovider.ModelCapabilities{Embedding: true}},
		{"all-minilm", aiprovider.ModelCapabilities{Embedding: true}},
		{"whisper-1", aiprovider.ModelCapabilities{Audio: true}},
		{"dall-e-3", aiprovider.ModelCapabilities{ImageGeneration: true}},
		{"claude-sonnet-4-5-20250929", aiprovider.ModelCapabilities{Inference: true, Tools: true, Image: true}},
		{"gpt-4o", aiprovider.ModelCapabilities{Inference: true, Tools: true, Image: true}},
		{"deepseek-chat", aiprovider.ModelCapabilities{Inference: true, Tools: true}},
	}
	for _, tc := range cases {
		t.Run(tc.modelKey, func(t *testing.T) {
			assert.Equal(t, tc.want, aiprovider.InferCapabilities(tc.modelKey))
		})
	}
}
