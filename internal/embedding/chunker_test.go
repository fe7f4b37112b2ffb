package embedding_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/brainhub/internal/embedding"
)

func TestChunkMarkdown_Empty(t *testing.T) {
	assert.Nil(t, embedding.ChunkMarkdown(" \n\n ", embedding.DefaultChunkConfig()))
}

func TestChunkMarkdown_SingleShortParagraph(t *testing.T) {
	chunks := embedding.ChunkMarkdown("a short note", embedding.DefaultChunkConfig())
	assert.Equal(t, []string{"a short note"}, chunks)
}

func TestChunkMarkdown_SplitsOnParagraphBoundaries(t *testing.T) {
	cfg := embedding.ChunkConfig{MaxChars: 20, OverlapPct: 0}
	text := "first paragraph here\n\nsecond paragraph here\n\nthird one"
	chunks := embedding.ChunkMarkdown(text, cfg)
	assert.GreaterOrEqual(t, len(chunks), 2)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestChunkMarkdown_HardSplitsOversizedParagraph(t *testing.T) {
	cfg := embedding.ChunkConfig{MaxChars: 10, OverlapPct: 0}
	text := strings.Repeat("x", 35)
	chunks := embedding.ChunkMarkdown(text, cfg)
	assert.GreaterOrEqual(t, len(chunks), 3)
}

func TestChunkMarkdown_OverlapCarriesContext(t *testing.T) {
	cfg := embedding.ChunkConfig{MaxChars: 10, OverlapPct: 0.5}
	text := strings.Repeat("a", 10) + "\n\n" + strings.Repeat("b", 10)
	chunks := embedding.ChunkMarkdown(text, cfg)
	if assert.Len(t, chunks, 2) {
		assert.Contains(t, chunks[1], "a")
	}
}
