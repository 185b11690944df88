// Package fsarchive reads history archive objects from a local mirror.
package fsarchive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iho/historycollector/internal/domain"
)

// Store implements usecase.ArchiveStore on a directory tree laid out like
// the archive bucket.
type Store struct {
	root string
}

// New creates a new Store rooted at dir.
func New(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("fsarchive: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fsarchive: %s is not a directory", dir)
	}

	return &Store{root: dir}, nil
}

// Fetch reads the file stored under key.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("fsarchive: read %s: %w", key, domain.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("fsarchive: read %s: %w", key, err)
	}

	return data, nil
}
