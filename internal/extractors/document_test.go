package extractors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/extractors"
	"github.com/jonesrussell/north-cloud/brainhub/internal/storage"
)

func newStore(t *testing.T) storage.BlobStore {
	t.Helper()
	s, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestDocumentExtractor_PlainText(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.UploadFile(ctx, "/api/file/note.txt", []byte("hello world"), "text/plain"))

	ext := extractors.NewDocumentExtractor(store)
	text, err := ext.Extract(ctx, "/api/file/note.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestDocumentExtractor_CSV(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	csv := "name,age\nalice,30\nbob,40\n"
	require.NoError(t, store.UploadFile(ctx, "/api/file/data.csv", []byte(csv), "text/csv"))

	ext := extractors.NewDocumentExtractor(store)
	text, err := ext.Extract(ctx, "/api/file/data.csv")
	require.NoError(t, err)
	assert.Contains(t, text, "name, age")
	assert.Contains(t, text, "alice, 30")
}

func TestDocumentExtractor_GenericFallback(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.UploadFile(ctx, "/api/file/raw.dat", []byte("raw bytes"), "application/octet-stream"))

	ext := extractors.NewDocumentExtractor(store)
	text, err := ext.Extract(ctx, "/api/file/raw.dat")
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", text)
}
