package embedding

import "context"

// Embedder turns text into a vector, backed by whichever provider the
// global AI config currently names as the embedding model. Kept as a
// narrow interface so the engine never imports the provider package
// directly, avoiding an import cycle with internal/aiprovider.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
