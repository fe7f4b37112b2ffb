// Package pathguard validates that a user-supplied relative path resolves
// inside a fixed base directory, the same join-then-contain check the
// cache layer applies to domain/cache-key segments before touching disk.
package pathguard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscapesBase is returned when a resolved path would land outside
// its base directory.
var ErrPathEscapesBase = errors.New("path escapes base directory")

// ResolveWithin joins base and rel, cleans the result, and rejects it if
// it does not stay within base. Used anywhere a note attachment path or
// extractor temp file name is derived from user input before being
// written to or read from the filesystem.
func ResolveWithin(base, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("%w: empty relative path", ErrPathEscapesBase)
	}

	cleanBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", fmt.Errorf("resolve base dir: %w", err)
	}

	joined := filepath.Join(cleanBase, rel)
	resolved, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	if resolved != cleanBase && !strings.HasPrefix(resolved, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscapesBase, rel)
	}

	return resolved, nil
}
