package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"driveline/internal/observability"

	"github.com/google/uuid"
)

// LocalStore keeps image blobs on the local filesystem under a base directory.
// Paths returned to callers are relative to the base dir and slash-separated.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a filesystem-backed asset store rooted at baseDir.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

func (s *LocalStore) Put(ctx context.Context, content []byte, suggestedName string) (string, error) {
	defer observability.ObserveAssetStore("put", "local", time.Now())

	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := objectKey(suggestedName)
	abs := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}
	if err := os.WriteFile(abs, content, 0o600); err != nil {
		return "", fmt.Errorf("write asset %s: %w", rel, err)
	}
	return rel, nil
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	defer observability.ObserveAssetStore("delete", "local", time.Now())

	if err := ctx.Err(); err != nil {
		return err
	}

	clean := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid asset path %q", path)
	}
	err := os.Remove(filepath.Join(s.baseDir, clean))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete asset %s: %w", path, err)
	}
	return nil
}

// objectKey builds a unique storage key preserving the original extension.
func objectKey(suggestedName string) string {
	ext := strings.ToLower(filepath.Ext(suggestedName))
	return fmt.Sprintf("listings/%s%s", uuid.New().String(), ext)
}
