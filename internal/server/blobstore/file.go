package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/ticketvault/internal/common"
	"github.com/dmitrijs2005/ticketvault/internal/filex"
	"go.uber.org/multierr"
)

// FileStore keeps one file per key under a root directory. Key segments
// separated by "/" become subdirectories.
type FileStore struct {
	root string
}

// NewFileStore creates (if needed) dir/blobs and stores objects beneath it.
// An empty dir means the working directory.
func NewFileStore(dir string) (*FileStore, error) {
	root, err := filex.EnsureDir(dir, "blobs")
	if err != nil {
		return nil, fmt.Errorf("init file blob store: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the directory objects are written under.
func (s *FileStore) Root() string { return s.root }

// mapFileErr marks permission failures with common.ErrPermissionDenied, like
// the S3 and Postgres adapters do.
func mapFileErr(op, key string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%s %s: %w: %v", op, key, common.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

func (s *FileStore) path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, rel), nil
}

func (s *FileStore) Put(_ context.Context, key, content string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(p, []byte(content)); err != nil {
		return mapFileErr("write blob", key, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return "", mapFileErr("read blob", key, err)
	}
	return string(b), nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := filex.RemoveIfExists(p); err != nil {
		return mapFileErr("remove blob", key, err)
	}
	return nil
}

// BatchDelete removes every key it can and reports all failures together.
func (s *FileStore) BatchDelete(ctx context.Context, keys []string) error {
	var errs error
	for _, k := range keys {
		errs = multierr.Append(errs, s.Delete(ctx, k))
	}
	return errs
}

var _ Store = (*FileStore)(nil)
