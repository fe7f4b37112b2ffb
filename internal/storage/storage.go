// Package storage implements the blob adapter requires document
// extractors and the embedding pipeline to go through rather than opening
// files by absolute path.
package storage

import (
	"context"
	"io"
)

// FileHandle is what GetFile returns: a path on local disk the caller can
// read with any stdlib file API, plus an optional Cleanup for handles that
// were materialized into a temp file (e.g. downloaded from S3).
type FileHandle struct {
	LocalPath string
	IsTemporary bool
	Cleanup func() error
}

// BlobStore is the storage adapter named in Paths are always
// of the form "/api/file/<rel>" or "/api/s3file/<rel>"; implementations
// strip that prefix and resolve the remainder under their own root.
type BlobStore interface {
	GetFile(ctx context.Context, path string) (FileHandle, error)
	GetFileBuffer(ctx context.Context, path string) ([]byte, error)
	UploadFile(ctx context.Context, path string, data []byte, contentType string) error
	UploadFileStream(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	DeleteFile(ctx context.Context, path string) error
	RenameFile(ctx context.Context, oldPath, newPath string) error
	MoveFile(ctx context.Context, oldPath, newPath string) error
}
