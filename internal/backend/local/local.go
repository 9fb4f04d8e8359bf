// Package local provides the local disk backend, the reference against
// which other backends are compared.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/vvka-141/fscat/pkg/fscat"
)

// Local disks do not split files into blocks or replicate them; the reported
// values follow what Hadoop's local filesystem reports.
const (
	DefaultBlockSize   int64 = 32 << 20
	DefaultReplication int16 = 1
)

// Config holds local backend settings.
type Config struct {
	// Root is the directory paths resolve under. Defaults to "/".
	Root        string `yaml:"root"`
	BlockSize   int64  `yaml:"block_size"`
	Replication int16  `yaml:"replication"`
}

// Backend serves paths from the local filesystem.
type Backend struct {
	root        string
	blockSize   int64
	replication int16
	owners      *ownerCache
}

// New creates a local backend. Root must be an existing directory.
func New(cfg Config) (*Backend, error) {
	root := cfg.Root
	if root == "" {
		root = string(filepath.Separator)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: local root %q: %v", fscat.ErrInvalidConfig, cfg.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: local root %q: %v", fscat.ErrInvalidConfig, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: local root %q is not a directory", fscat.ErrInvalidConfig, root)
	}

	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.Replication == 0 {
		cfg.Replication = DefaultReplication
	}

	return &Backend{
		root:        root,
		blockSize:   cfg.BlockSize,
		replication: cfg.Replication,
		owners:      newOwnerCache(),
	}, nil
}

func (b *Backend) fullPath(p fscat.Path) string {
	return filepath.Join(b.root, filepath.FromSlash(p.Path))
}

// mapError translates os errors into the fscat taxonomy.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return fscat.ErrNotFound
	case errors.Is(err, syscall.EISDIR):
		return fscat.ErrIsDirectory
	}
	return fscat.IOFailure(err)
}

func (b *Backend) status(p fscat.Path, info fs.FileInfo) fscat.FileStatus {
	owner, group := b.owners.lookup(info)
	st := fscat.FileStatus{
		Path:       p,
		IsDir:      info.IsDir(),
		ModTime:    info.ModTime(),
		Owner:      owner,
		Group:      group,
		Permission: fscat.PermissionFromMode(info.Mode()),
	}
	if !st.IsDir {
		st.Length = info.Size()
		st.BlockSize = b.blockSize
		st.Replication = b.replication
	}
	return st
}

// Open implements fscat.Backend.
func (b *Backend) Open(_ context.Context, p fscat.Path) (io.ReadCloser, error) {
	f, err := os.Open(b.fullPath(p))
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

// Stat implements fscat.Backend. Symbolic links are followed.
func (b *Backend) Stat(_ context.Context, p fscat.Path) (fscat.FileStatus, error) {
	info, err := os.Stat(b.fullPath(p))
	if err != nil {
		return fscat.FileStatus{}, mapError(err)
	}
	return b.status(p, info), nil
}

// List implements fscat.Backend.
func (b *Backend) List(_ context.Context, p fscat.Path) ([]fscat.FileStatus, error) {
	full := b.fullPath(p)
	info, err := os.Stat(full)
	if err != nil {
		return nil, mapError(err)
	}
	if !info.IsDir() {
		return []fscat.FileStatus{b.status(p, info)}, nil
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, mapError(err)
	}

	result := make([]fscat.FileStatus, 0, len(entries))
	for _, entry := range entries {
		child, err := os.Stat(filepath.Join(full, entry.Name()))
		if err != nil {
			// Removed between ReadDir and Stat, or a dangling symlink.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, mapError(err)
		}
		result = append(result, b.status(p.Child(entry.Name()), child))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path.Path < result[j].Path.Path
	})
	return result, nil
}

// Mkdirs implements fscat.WritableBackend.
func (b *Backend) Mkdirs(_ context.Context, p fscat.Path) error {
	if err := os.MkdirAll(b.fullPath(p), 0o777); err != nil {
		if errors.Is(err, syscall.ENOTDIR) {
			return fmt.Errorf("%w: %s: parent is not a directory", fscat.ErrInvalidPath, p.Path)
		}
		return mapError(err)
	}
	return nil
}

// Create implements fscat.WritableBackend. Content is written to a temporary
// file in the target directory and renamed into place on Close.
func (b *Backend) Create(ctx context.Context, p fscat.Path) (io.WriteCloser, error) {
	if p.IsRoot() {
		return nil, fscat.ErrIsDirectory
	}
	full := b.fullPath(p)
	if info, err := os.Stat(full); err == nil && info.IsDir() {
		return nil, fscat.ErrIsDirectory
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		if errors.Is(err, syscall.ENOTDIR) {
			return nil, fmt.Errorf("%w: %s: parent is not a directory", fscat.ErrInvalidPath, p.Path)
		}
		return nil, mapError(err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".tmp-*")
	if err != nil {
		return nil, mapError(err)
	}
	return &atomicWriter{ctx: ctx, file: tmp, target: full}, nil
}

// Close implements fscat.Backend.
func (b *Backend) Close() error {
	return nil
}

type atomicWriter struct {
	ctx    context.Context
	file   *os.File
	target string
	done   bool
}

func (w *atomicWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	return n, mapError(err)
}

func (w *atomicWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	name := w.file.Name()
	if err := w.file.Close(); err != nil {
		os.Remove(name)
		return mapError(err)
	}
	if err := w.ctx.Err(); err != nil {
		os.Remove(name)
		return err
	}
	// CreateTemp uses 0600; apply the usual umask-governed mode instead.
	if err := os.Chmod(name, 0o666&^currentUmask()); err != nil {
		os.Remove(name)
		return mapError(err)
	}
	if err := os.Rename(name, w.target); err != nil {
		os.Remove(name)
		return mapError(err)
	}
	return nil
}
