package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
	"github.com/jonesrussell/north-cloud/brainhub/internal/storage"
)

// AudioExtractor transcribes an audio file via the configured voice model.
// Used for both manual transcription and post-upload enrichment; a
// transcription failure is never fatal to the request that triggered it,
// so callers should log and continue rather than propagate.
type AudioExtractor struct {
	store storage.BlobStore
	model aiprovider.AudioModel
}

// NewAudioExtractor constructs an AudioExtractor over store and model.
func NewAudioExtractor(store storage.BlobStore, model aiprovider.AudioModel) *AudioExtractor {
	return &AudioExtractor{store: store, model: model}
}

// Transcribe reads path via the storage adapter and returns the voice
// model's transcription, passing the file's extension as a decoder hint.
func (e *AudioExtractor) Transcribe(ctx context.Context, path string) (string, error) {
	data, err := e.store.GetFileBuffer(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extractors: read audio: %w", err)
	}

	hint := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	text, err := e.model.Transcribe(ctx, data, hint)
	if err != nil {
		return "", fmt.Errorf("extractors: transcribe: %w", err)
	}
	return text, nil
}
