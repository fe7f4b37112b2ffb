// Package aiprovider is the capability-typed facade over heterogeneous LLM
// vendors: a thin layer that turns an AIProvider/AIModel pair into a
// chat, embedding, or audio client, normalizing per-vendor quirks so
// internal/agent and internal/embedding never see vendor HTTP directly.
package aiprovider

import (
	"context"
	"errors"
	"strings"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

// Vendor and the provider kind constants are the domain's own types: the
// facade normalizes the same Vendor a provider row is persisted with, so
// there is no call-scoped/persisted-row distinction to maintain here.
type Vendor = domain.Vendor

const (
	VendorOpenAI = domain.VendorOpenAI
	VendorAnthropic = domain.VendorAnthropic
	VendorGoogle = domain.VendorGoogle
	VendorAzure = domain.VendorAzure
	VendorOllama = domain.VendorOllama
	VendorOpenRouter = domain.VendorOpenRouter
	VendorDeepSeek = domain.VendorDeepSeek
	VendorXAI = domain.VendorXAI
	VendorVoyage = domain.VendorVoyage
	VendorCustom = domain.VendorCustom
)

// ErrNoEmbeddingModelConfig is the recoverable, typed error returned when a
// capability is requested but the provider config does not carry the
// fields needed for it, rather than the facade ever panicking.
var ErrNoEmbeddingModelConfig = errors.New("no embeddings model config")

// ErrNoAudioModelConfig mirrors ErrNoEmbeddingModelConfig for the audio
// capability.
var ErrNoAudioModelConfig = errors.New("no audio model config")

// ErrImageNotSupported is the sentinel the image-captioning extractor
// checks for when a model/provider pairing cannot accept image input.
var ErrImageNotSupported = errors.New("not support image")

// ModelConfig is the normalized shape every vendor adapter consumes:
// `{provider, apiKey, baseURL?, modelKey, apiVersion?}`. Shared with domain
// so a GlobalAIConfig lookup can be
// passed straight to the facade with no field-by-field copy.
type ModelConfig = domain.ModelConfig

// ChatMessage is one turn in a conversation passed to an LLM.
type ChatMessage struct {
	Role string // "system", "user", or "assistant"
	Content string
}

// ChatResult is an LLM's non-streaming response.
type ChatResult struct {
	Content string
	InputTokens int
	OutputTokens int
}

// ChatChunk is one piece of a streamed LLM response.
type ChatChunk struct {
	Delta string
	Done bool
}

// LLM is a chat-capable vendor client.
type LLM interface {
	Complete(ctx context.Context, messages []ChatMessage) (ChatResult, error)
	Stream(ctx context.Context, messages []ChatMessage) (<-chan ChatChunk, error)
}

// Embedder embeds text into vectors. Implements embedding.Embedder so a
// Facade-constructed client can be handed directly to embedding.NewEngine.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// AudioModel transcribes an audio stream to text.
type AudioModel interface {
	Transcribe(ctx context.Context, audio []byte, extensionHint string) (string, error)
}

// VisionModel captions an image, per image-captioning extractor. Not
// every LLM implementation satisfies it; callers type-assert an LLM against
// this interface and fall back to ErrImageNotSupported when it doesn't.
type VisionModel interface {
	Caption(ctx context.Context, jpeg []byte, prompt string) (string, error)
}

// CapabilityResult is testConnection's per-capability outcome.
type CapabilityResult struct {
	Success bool
	Error string
}

// ModelCapabilities is the same capability tuple an AIModel row carries.
type ModelCapabilities = domain.Capabilities

// InferCapabilities derives a capability vector from substrings in a
// model's key, the same name-substring heuristic fetchProviderModels uses
// to annotate vendor model-list results.
func InferCapabilities(modelKey string) ModelCapabilities {
	key := strings.ToLower(modelKey)
	caps := ModelCapabilities{}
	contains := func(s string) bool { return strings.Contains(key, s) }

	switch {
	case contains("embed") || contains("voyage") || contains("bge") || contains("minilm"):
		caps.Embedding = true
	case contains("whisper") || contains("voice") || contains("audio"):
		caps.Audio = true
	case contains("dall-e") || contains("image-gen") || contains("stable-diffusion"):
		caps.ImageGeneration = true
	default:
		caps.Inference = true
		caps.Tools = true
		if contains("vision") || contains("gpt-4") || contains("claude") || contains("gemini") || contains("gpt-5") {
			caps.Image = true
		}
	}
	return caps
}
