package agent

import (
	"context"
	"strings"

	"github.com/jonesrussell/north-cloud/brainhub/internal/embedding"
)

// Retriever is the RAG query surface embedding engine exposes.
// Accepting the interface rather than *embedding.Engine directly keeps the
// agent package testable with a stub and mirrors how the facade accepts
// LLM/Embedder interfaces rather than concrete vendor clients.
type Retriever interface {
	Query(ctx context.Context, text string, topK int, minScore float64, excludeNoteIDs map[int64]bool) ([]embedding.Match, error)
}

// aggregateContext concatenates matched chunks into the single block
// queryVector's contract promises alongside the match list.
func aggregateContext(matches []embedding.Match) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Text
	}
	return strings.Join(parts, "\n\n")
}

// matchedNoteIDs dedupes a match list down to the notes it touches, the
// "dedupe by noteId" step in queryVector's contract.
func matchedNoteIDs(matches []embedding.Match) []int64 {
	seen := make(map[int64]bool, len(matches))
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		if !seen[m.NoteID] {
			seen[m.NoteID] = true
			ids = append(ids, m.NoteID)
		}
	}
	return ids
}
