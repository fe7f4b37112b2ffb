package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config carries the runtime-editable global config fields named for the
// "s3" objectStorage variant: s3Endpoint, s3AccessKeyId,
// s3SecretAccessKey, s3Bucket, plus UseSSL, grounded on the monorepo's
// crawler/internal/config/minio.Config field set, trimmed to what a blob
// adapter (rather than an HTML archiver) needs.
type S3Config struct {
	Endpoint string
	AccessKey string
	SecretKey string
	Bucket string
	UseSSL bool
}

// S3Store implements BlobStore over an S3-compatible object store via the
// official MinIO SDK, grounded on the monorepo's crawler/internal/archive
// Archiver (same client construction and PutObject/GetObject shape,
// generalized from HTML-archive-specific object keys to the "/api/s3file/"
// path convention).
type S3Store struct {
	client *miniogo.Client
	bucket string
}

// NewS3Store constructs an S3Store, creating the bucket if it does not
// already exist.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds: credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 store: new client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("s3 store: bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("s3 store: make bucket: %w", err)
		}
	}

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func objectKey(path string) string {
	key := strings.TrimPrefix(path, "/api/s3file/")
	return strings.TrimPrefix(key, "/")
}

func (s *S3Store) GetFile(ctx context.Context, path string) (FileHandle, error) {
	data, err := s.GetFileBuffer(ctx, path)
	if err != nil {
		return FileHandle{}, err
	}

	tmp, err := os.CreateTemp("", "brainhub-s3-*")
	if err != nil {
		return FileHandle{}, fmt.Errorf("s3 store: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return FileHandle{}, fmt.Errorf("s3 store: write temp file: %w", err)
	}
	tmp.Close()

	return FileHandle{
		LocalPath: tmp.Name(),
		IsTemporary: true,
		Cleanup: func() error { return os.Remove(tmp.Name()) },
	}, nil
}

func (s *S3Store) GetFileBuffer(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(path), miniogo.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 store: get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("s3 store: read object: %w", err)
	}
	return data, nil
}

func (s *S3Store) UploadFile(ctx context.Context, path string, data []byte, contentType string) error {
	return s.UploadFileStream(ctx, path, bytes.NewReader(data), int64(len(data)), contentType)
}

func (s *S3Store) UploadFileStream(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(path), r, size, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("s3 store: put object: %w", err)
	}
	return nil
}

func (s *S3Store) DeleteFile(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey(path), miniogo.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3 store: remove object: %w", err)
	}
	return nil
}

func (s *S3Store) RenameFile(ctx context.Context, oldPath, newPath string) error {
	return s.MoveFile(ctx, oldPath, newPath)
}

func (s *S3Store) MoveFile(ctx context.Context, oldPath, newPath string) error {
	_, err := s.client.CopyObject(ctx,
		miniogo.CopyDestOptions{Bucket: s.bucket, Object: objectKey(newPath)},
		miniogo.CopySrcOptions{Bucket: s.bucket, Object: objectKey(oldPath)},
	)
	if err != nil {
		return fmt.Errorf("s3 store: copy object: %w", err)
	}
	return s.DeleteFile(ctx, oldPath)
}
