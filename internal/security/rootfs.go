package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/absfs/absfs"
)

var (
	ErrPathEscapes  = errors.New("path escapes root directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrNoChdir      = errors.New("changing directory is not supported")
)

// RootFS is an absfs.FileSystem whose operations cannot leave its root.
type RootFS struct {
	root *os.Root
	path string
}

var _ absfs.FileSystem = (*RootFS)(nil)

// NewRootFS opens dir as the root of a confined filesystem.
func NewRootFS(dir string) (*RootFS, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory: %w", err)
	}

	return &RootFS{root: root, path: absPath}, nil
}

// Close releases the root directory handle.
func (r *RootFS) Close() error {
	if r.root != nil {
		return r.root.Close()
	}
	return nil
}

// Path returns the absolute path of the root directory.
func (r *RootFS) Path() string {
	return r.path
}

// ValidateAndNormalize checks a user-supplied name and returns it in
// slash-separated form relative to the root. Empty, absolute and escaping
// names are rejected.
func (r *RootFS) ValidateAndNormalize(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsLocal(name) {
		if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, name)
		}
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}

	clean := filepath.Clean(name)
	rel, err := filepath.Rel(r.path, filepath.Join(r.path, clean))
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}

	return filepath.ToSlash(rel), nil
}

func (r *RootFS) local(name string) (string, error) {
	valid, err := r.ValidateAndNormalize(filepath.FromSlash(name))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return filepath.FromSlash(valid), nil
}

func (r *RootFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	p, err := r.local(name)
	if err != nil {
		return nil, err
	}
	f, err := r.root.OpenFile(p, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *RootFS) Open(name string) (absfs.File, error) {
	return r.OpenFile(name, os.O_RDONLY, 0)
}

func (r *RootFS) Create(name string) (absfs.File, error) {
	return r.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
}

func (r *RootFS) Mkdir(name string, perm os.FileMode) error {
	p, err := r.local(name)
	if err != nil {
		return err
	}
	return r.root.Mkdir(p, perm)
}

func (r *RootFS) MkdirAll(name string, perm os.FileMode) error {
	p, err := r.local(name)
	if err != nil {
		return err
	}
	return r.root.MkdirAll(p, perm)
}

func (r *RootFS) Remove(name string) error {
	p, err := r.local(name)
	if err != nil {
		return err
	}
	return r.root.Remove(p)
}

func (r *RootFS) RemoveAll(name string) error {
	p, err := r.local(name)
	if err != nil {
		return err
	}
	return r.root.RemoveAll(p)
}

func (r *RootFS) Rename(oldpath, newpath string) error {
	from, err := r.local(oldpath)
	if err != nil {
		return err
	}
	to, err := r.local(newpath)
	if err != nil {
		return err
	}
	return r.root.Rename(from, to)
}

func (r *RootFS) Stat(name string) (os.FileInfo, error) {
	p, err := r.local(name)
	if err != nil {
		return nil, err
	}
	return r.root.Stat(p)
}

func (r *RootFS) Chmod(name string, mode os.FileMode) error {
	p, err := r.local(name)
	if err != nil {
		return err
	}
	return r.root.Chmod(p, mode)
}

func (r *RootFS) Chtimes(name string, atime, mtime time.Time) error {
	p, err := r.local(name)
	if err != nil {
		return err
	}
	return r.root.Chtimes(p, atime, mtime)
}

func (r *RootFS) Chown(name string, uid, gid int) error {
	p, err := r.local(name)
	if err != nil {
		return err
	}
	return r.root.Chown(p, uid, gid)
}

// Truncate has no os.Root counterpart, so it goes through an open handle.
func (r *RootFS) Truncate(name string, size int64) error {
	p, err := r.local(name)
	if err != nil {
		return err
	}
	f, err := r.root.OpenFile(p, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *RootFS) Separator() uint8 {
	return os.PathSeparator
}

func (r *RootFS) ListSeparator() uint8 {
	return os.PathListSeparator
}

// Chdir is not supported; every name is resolved against the root.
func (r *RootFS) Chdir(dir string) error {
	return ErrNoChdir
}

func (r *RootFS) Getwd() (string, error) {
	return r.path, nil
}

func (r *RootFS) TempDir() string {
	return os.TempDir()
}
