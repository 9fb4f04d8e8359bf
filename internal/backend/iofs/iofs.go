// Package iofs adapts any fs.FS (embed.FS, os.DirFS, fstest.MapFS) into a
// read-only backend.
package iofs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/vvka-141/fscat/pkg/fscat"
)

// Backend serves paths from an fs.FS.
type Backend struct {
	fsys     fs.FS
	defaults fscat.Defaults
}

// New wraps fsys. Zero fields of defaults fall back to fscat.ReferenceDefaults.
func New(fsys fs.FS, defaults fscat.Defaults) *Backend {
	return &Backend{
		fsys:     fsys,
		defaults: defaults.WithFallback(fscat.ReferenceDefaults()),
	}
}

// NewDir mounts the directory root as a read-only view. Paths cannot
// escape root.
func NewDir(root string, defaults fscat.Defaults) (*Backend, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: dirfs root %q: %v", fscat.ErrInvalidConfig, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: dirfs root %q is not a directory", fscat.ErrInvalidConfig, root)
	}
	return New(os.DirFS(root), defaults), nil
}

// name converts an absolute slash path into an fs.FS name.
func name(p fscat.Path) (string, error) {
	n := strings.TrimPrefix(path.Clean("/"+p.Path), "/")
	if n == "" {
		n = "."
	}
	if !fs.ValidPath(n) {
		return "", fmt.Errorf("%w: %q", fscat.ErrInvalidPath, p.Path)
	}
	return n, nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fscat.ErrNotFound
	case errors.Is(err, fs.ErrInvalid):
		return fscat.ErrInvalidPath
	}
	return fscat.IOFailure(err)
}

func (b *Backend) status(p fscat.Path, info fs.FileInfo) fscat.FileStatus {
	var st fscat.FileStatus
	if info.IsDir() {
		st = b.defaults.DirStatus(p, info.ModTime())
	} else {
		st = b.defaults.FileStatus(p, info.Size(), info.ModTime())
	}
	if perm := fscat.PermissionFromMode(info.Mode()); perm != 0 {
		st.Permission = perm
	}
	return st
}

// Open implements fscat.Backend.
func (b *Backend) Open(_ context.Context, p fscat.Path) (io.ReadCloser, error) {
	n, err := name(p)
	if err != nil {
		return nil, err
	}
	f, err := b.fsys.Open(n)
	if err != nil {
		return nil, mapError(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, mapError(err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fscat.ErrIsDirectory
	}
	return f, nil
}

// Stat implements fscat.Backend.
func (b *Backend) Stat(_ context.Context, p fscat.Path) (fscat.FileStatus, error) {
	n, err := name(p)
	if err != nil {
		return fscat.FileStatus{}, err
	}
	info, err := fs.Stat(b.fsys, n)
	if err != nil {
		return fscat.FileStatus{}, mapError(err)
	}
	return b.status(p, info), nil
}

// List implements fscat.Backend. fs.ReadDir returns entries sorted by name.
func (b *Backend) List(_ context.Context, p fscat.Path) ([]fscat.FileStatus, error) {
	n, err := name(p)
	if err != nil {
		return nil, err
	}
	info, err := fs.Stat(b.fsys, n)
	if err != nil {
		return nil, mapError(err)
	}
	if !info.IsDir() {
		return []fscat.FileStatus{b.status(p, info)}, nil
	}

	entries, err := fs.ReadDir(b.fsys, n)
	if err != nil {
		return nil, mapError(err)
	}
	result := make([]fscat.FileStatus, 0, len(entries))
	for _, entry := range entries {
		childInfo, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, mapError(err)
		}
		result = append(result, b.status(p.Child(entry.Name()), childInfo))
	}
	return result, nil
}

// Close implements fscat.Backend.
func (b *Backend) Close() error {
	return nil
}
