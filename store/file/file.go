// Package file implements core.BlobStore on the local filesystem. Keys are
// slash separated paths relative to a root directory, e.g. "orders/order_1.json".
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/grocerymesh/core"
)

// Store persists blobs as files below Root. Writes go to a temporary file in
// the destination directory which is synced, closed and renamed into place, so
// readers only ever observe complete values.
type Store struct {
	root string
	perm os.FileMode
}

// Options configure the file store.
type Options struct {
	// FileMode for newly written files. Directories use FileMode | 0o111.
	FileMode os.FileMode
}

// New returns a store rooted at dir. The directory is created if missing.
func New(dir string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{FileMode: 0o644}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(dir, dirMode(opts.FileMode)); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{root: dir, perm: opts.FileMode}, nil
}

// Root returns the directory backing the store.
func (s *Store) Root() string { return s.root }

// Path returns the filesystem path used for key.
func (s *Store) Path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Get reads the file for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put atomically replaces the file for key.
func (s *Store) Put(ctx context.Context, key string, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, dirMode(s.perm)); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err = tmp.Chmod(s.perm); err != nil {
		return fmt.Errorf("chmod %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err = os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Exists reports whether the file for key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.Path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}

// Delete removes the file for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func dirMode(m os.FileMode) os.FileMode { return m | 0o111 }
