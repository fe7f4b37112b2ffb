package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/storage"
)

func newLocalStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	s, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStore_UploadThenGetFileBuffer(t *testing.T) {
	ctx := context.Background()
	s := newLocalStore(t)

	require.NoError(t, s.UploadFile(ctx, "/api/file/notes/1/photo.jpg", []byte("bytes"), "image/jpeg"))

	data, err := s.GetFileBuffer(ctx, "/api/file/notes/1/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
}

func TestLocalStore_GetFileReturnsNonTemporaryHandle(t *testing.T) {
	ctx := context.Background()
	s := newLocalStore(t)
	require.NoError(t, s.UploadFile(ctx, "/api/file/a.txt", []byte("x"), "text/plain"))

	handle, err := s.GetFile(ctx, "/api/file/a.txt")
	require.NoError(t, err)
	assert.False(t, handle.IsTemporary)
	assert.Nil(t, handle.Cleanup)
}

func TestLocalStore_DeleteFile_MissingIsNotAnError(t *testing.T) {
	s := newLocalStore(t)
	assert.NoError(t, s.DeleteFile(context.Background(), "/api/file/missing.txt"))
}

func TestLocalStore_MoveFile(t *testing.T) {
	ctx := context.Background()
	s := newLocalStore(t)
	require.NoError(t, s.UploadFile(ctx, "/api/file/src.txt", []byte("move-me"), "text/plain"))

	require.NoError(t, s.MoveFile(ctx, "/api/file/src.txt", "/api/file/dest/dst.txt"))

	_, err := s.GetFileBuffer(ctx, "/api/file/src.txt")
	assert.Error(t, err)

	data, err := s.GetFileBuffer(ctx, "/api/file/dest/dst.txt")
	require.NoError(t, err)
	assert.Equal(t, "move-me", string(data))
}

func TestLocalStore_RejectsPathEscape(t *testing.T) {
	ctx := context.Background()
	s := newLocalStore(t)
	_, err := s.GetFileBuffer(ctx, "/api/file/../../etc/passwd")
	assert.Error(t, err)
}
