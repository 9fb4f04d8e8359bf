// Package memory provides an in-process backend that behaves like a
// single-node distributed filesystem. It backs the test cluster and the
// "mem" scheme of the CLI.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vvka-141/fscat/pkg/fscat"
)

// Config describes the identity and defaults the backend reports.
// Start from DefaultConfig and override fields; New uses Umask as given.
type Config struct {
	Owner       string
	Group       string
	Umask       fs.FileMode
	BlockSize   int64
	Replication int16
	Clock       func() time.Time
}

// DefaultConfig returns the reference defaults: 128 MiB blocks,
// replication 3, group "supergroup" and umask 022.
func DefaultConfig() Config {
	return Config{
		Group:       fscat.DefaultGroup,
		Umask:       0o022,
		BlockSize:   fscat.DefaultBlockSize,
		Replication: fscat.DefaultReplication,
		Clock:       time.Now,
	}
}

type entry struct {
	isDir   bool
	content []byte
	modTime time.Time
	perm    fscat.Permission
	owner   string
	group   string
}

// Backend is a thread-safe map of absolute paths to entries.
type Backend struct {
	cfg Config

	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool
}

// New creates an empty filesystem holding only the root directory.
func New(cfg Config) *Backend {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Group == "" {
		cfg.Group = fscat.DefaultGroup
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = fscat.DefaultBlockSize
	}
	if cfg.Replication == 0 {
		cfg.Replication = fscat.DefaultReplication
	}

	b := &Backend{
		cfg:     cfg,
		entries: make(map[string]*entry),
	}
	b.entries["/"] = b.newDir()
	return b
}

func (b *Backend) newDir() *entry {
	return &entry{
		isDir:   true,
		modTime: b.cfg.Clock(),
		perm:    fscat.PermissionFromMode(0o777 &^ b.cfg.Umask),
		owner:   b.cfg.Owner,
		group:   b.cfg.Group,
	}
}

func (b *Backend) newFile(content []byte) *entry {
	return &entry{
		content: content,
		modTime: b.cfg.Clock(),
		perm:    fscat.PermissionFromMode(0o666 &^ b.cfg.Umask),
		owner:   b.cfg.Owner,
		group:   b.cfg.Group,
	}
}

// key normalizes p to the map key. The authority is ignored: one backend is one cluster.
func key(p fscat.Path) string {
	return path.Clean("/" + p.Path)
}

func (b *Backend) status(p fscat.Path, e *entry) fscat.FileStatus {
	st := fscat.FileStatus{
		Path:       p,
		IsDir:      e.isDir,
		ModTime:    e.modTime,
		Owner:      e.owner,
		Group:      e.group,
		Permission: e.perm,
	}
	if !e.isDir {
		st.Length = int64(len(e.content))
		st.BlockSize = b.cfg.BlockSize
		st.Replication = b.cfg.Replication
	}
	return st
}

// lookup returns the entry at k. Callers hold at least a read lock.
func (b *Backend) lookup(k string) (*entry, error) {
	if b.closed {
		return nil, fscat.IOFailure(fmt.Errorf("memory backend is closed"))
	}
	e, ok := b.entries[k]
	if !ok {
		return nil, fscat.ErrNotFound
	}
	return e, nil
}

// Open implements fscat.Backend.
func (b *Backend) Open(_ context.Context, p fscat.Path) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, err := b.lookup(key(p))
	if err != nil {
		return nil, err
	}
	if e.isDir {
		return nil, fscat.ErrIsDirectory
	}
	// Committed content is never mutated in place, so the reader needs no copy.
	return io.NopCloser(bytes.NewReader(e.content)), nil
}

// Stat implements fscat.Backend.
func (b *Backend) Stat(_ context.Context, p fscat.Path) (fscat.FileStatus, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, err := b.lookup(key(p))
	if err != nil {
		return fscat.FileStatus{}, err
	}
	return b.status(p, e), nil
}

// List implements fscat.Backend. Entries are sorted by name.
func (b *Backend) List(_ context.Context, p fscat.Path) ([]fscat.FileStatus, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	k := key(p)
	e, err := b.lookup(k)
	if err != nil {
		return nil, err
	}
	if !e.isDir {
		return []fscat.FileStatus{b.status(p, e)}, nil
	}

	prefix := k
	if prefix != "/" {
		prefix += "/"
	}
	var result []fscat.FileStatus
	for childKey, child := range b.entries {
		if childKey == k || !strings.HasPrefix(childKey, prefix) {
			continue
		}
		name := strings.TrimPrefix(childKey, prefix)
		if strings.Contains(name, "/") {
			continue
		}
		result = append(result, b.status(p.Child(name), child))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path.Path < result[j].Path.Path
	})
	return result, nil
}

// Mkdirs implements fscat.WritableBackend.
func (b *Backend) Mkdirs(_ context.Context, p fscat.Path) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fscat.IOFailure(fmt.Errorf("memory backend is closed"))
	}
	return b.mkdirsLocked(key(p))
}

func (b *Backend) mkdirsLocked(k string) error {
	if e, ok := b.entries[k]; ok {
		if !e.isDir {
			return fmt.Errorf("%w: %s is a file", fscat.ErrInvalidPath, k)
		}
		return nil
	}
	if err := b.mkdirsLocked(path.Dir(k)); err != nil {
		return err
	}
	b.entries[k] = b.newDir()
	return nil
}

// Create implements fscat.WritableBackend. Parent directories are created
// immediately; the file appears when the writer is closed.
func (b *Backend) Create(ctx context.Context, p fscat.Path) (io.WriteCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fscat.IOFailure(fmt.Errorf("memory backend is closed"))
	}
	k := key(p)
	if k == "/" {
		return nil, fscat.ErrIsDirectory
	}
	if e, ok := b.entries[k]; ok && e.isDir {
		return nil, fscat.ErrIsDirectory
	}
	if err := b.mkdirsLocked(path.Dir(k)); err != nil {
		return nil, err
	}
	return &writer{ctx: ctx, backend: b, key: k}, nil
}

// WriteFile stores content at name, creating parent directories.
func (b *Backend) WriteFile(name string, content []byte) error {
	p, err := fscat.ParsePath(name)
	if err != nil {
		return err
	}
	w, err := b.Create(context.Background(), p.Resolve("", "/"))
	if err != nil {
		return err
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// MkdirAll creates the directory name and its parents.
func (b *Backend) MkdirAll(name string) error {
	p, err := fscat.ParsePath(name)
	if err != nil {
		return err
	}
	return b.Mkdirs(context.Background(), p.Resolve("", "/"))
}

// Close implements fscat.Backend. Later operations fail with an I/O failure.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type writer struct {
	ctx     context.Context
	backend *Backend
	key     string
	buf     bytes.Buffer
	done    bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, fs.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.ctx.Err(); err != nil {
		return err
	}

	b := w.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fscat.IOFailure(fmt.Errorf("memory backend is closed"))
	}
	if e, ok := b.entries[w.key]; ok && e.isDir {
		return fscat.ErrIsDirectory
	}
	if err := b.mkdirsLocked(path.Dir(w.key)); err != nil {
		return err
	}
	b.entries[w.key] = b.newFile(w.buf.Bytes())
	return nil
}
