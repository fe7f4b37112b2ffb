package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/pathguard"
)

// LocalStore implements BlobStore over a directory on the same host as the
// process, the "localCustomPath" variant of objectStorage
// setting.
type LocalStore struct {
	root string
}

// NewLocalStore constructs a LocalStore rooted at root, creating it if
// absent.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

// resolve strips the "/api/file/" prefix a caller-facing path carries and
// contains the remainder under root, rejecting any attempt to escape it.
func (s *LocalStore) resolve(path string) (string, error) {
	rel := strings.TrimPrefix(path, "/api/file/")
	rel = strings.TrimPrefix(rel, "/")
	return pathguard.ResolveWithin(s.root, rel)
}

func (s *LocalStore) GetFile(_ context.Context, path string) (FileHandle, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return FileHandle{}, err
	}
	return FileHandle{LocalPath: abs, IsTemporary: false}, nil
}

func (s *LocalStore) GetFileBuffer(_ context.Context, path string) ([]byte, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

func (s *LocalStore) UploadFile(_ context.Context, path string, data []byte, _ string) error {
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return os.WriteFile(abs, data, 0o644)
}

func (s *LocalStore) UploadFileStream(_ context.Context, path string, r io.Reader, _ int64, _ string) error {
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	f, err := os.Create(abs)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

func (s *LocalStore) DeleteFile(_ context.Context, path string) error {
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}
	err = os.Remove(abs)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStore) RenameFile(ctx context.Context, oldPath, newPath string) error {
	return s.MoveFile(ctx, oldPath, newPath)
}

func (s *LocalStore) MoveFile(_ context.Context, oldPath, newPath string) error {
	absOld, err := s.resolve(oldPath)
	if err != nil {
		return err
	}
	absNew, err := s.resolve(newPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return err
	}
	return os.Rename(absOld, absNew)
}
