package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/leakvault/internal/common"
	"github.com/dmitrijs2005/leakvault/internal/filex"
)

// LocalStore keeps blobs as flat files under one directory (0700 dir,
// 0600 files).
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed and returns a store rooted there.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty blob directory", common.ErrIOFailure)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	return &LocalStore{dir: abs}, nil
}

func (s *LocalStore) Locator(name string) string {
	return filepath.Join(s.dir, name)
}

// Create stages data in a temp file and hard-links it into place; the link
// fails if the name is taken, which makes the create exclusive and atomic.
func (s *LocalStore) Create(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	path, err := s.checkedPath(name)
	if err != nil {
		return "", err
	}

	if err := filex.WriteFileExclusive(path, data, 0o600); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrBlobExists, path)
		}
		return "", fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	return path, nil
}

func (s *LocalStore) Replace(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	path, err := s.checkedPath(name)
	if err != nil {
		return "", err
	}
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	return path, nil
}

func (s *LocalStore) Get(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	data, err := os.ReadFile(locator)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: blob %s", common.ErrNotFound, locator)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	return data, nil
}

func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	if err := filex.RemoveIfExists(locator); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIOFailure, err)
	}
	return nil
}

func (s *LocalStore) checkedPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: invalid blob name %q", common.ErrIOFailure, name)
	}
	return s.Locator(name), nil
}
