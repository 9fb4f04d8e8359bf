package vfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/vvka-141/fscat/internal/logging"
	"github.com/vvka-141/fscat/pkg/fscat"
)

// FileSystem dispatches path operations to registered backends.
type FileSystem struct {
	backends      map[string]fscat.Backend
	defaultScheme string
	workingDirs   map[string]string
	identity      Identity
	bufferSize    int
	logger        fscat.Logger
	now           func() time.Time
}

// New creates a FileSystem. The default scheme must have a registered backend.
func New(opts ...Option) (*FileSystem, error) {
	fs := &FileSystem{
		backends:      make(map[string]fscat.Backend),
		defaultScheme: fscat.DefaultScheme,
		workingDirs:   make(map[string]string),
		bufferSize:    fscat.DefaultBufferSize,
		now:           time.Now,
	}
	var identitySet bool
	for _, opt := range opts {
		opt(fs)
		identitySet = identitySet || fs.identity != (Identity{})
	}

	if !identitySet {
		fs.identity = CurrentIdentity()
	}
	if fs.identity.Group == "" {
		fs.identity.Group = fscat.DefaultGroup
	}
	if fs.bufferSize <= 0 {
		fs.bufferSize = fscat.DefaultBufferSize
	}
	if fs.logger == nil {
		fs.logger = logging.NewNullLogger()
	}
	if fs.now == nil {
		fs.now = time.Now
	}
	if _, ok := fs.backends[fs.defaultScheme]; !ok {
		return nil, fmt.Errorf("%w: no backend registered for default scheme %q", fscat.ErrInvalidConfig, fs.defaultScheme)
	}
	return fs, nil
}

// Schemes returns the registered schemes in sorted order.
func (fs *FileSystem) Schemes() []string {
	schemes := make([]string, 0, len(fs.backends))
	for scheme := range fs.backends {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// Resolve parses raw and returns the absolute, scheme-qualified path
// backends receive.
func (fs *FileSystem) Resolve(raw string) (fscat.Path, error) {
	p, err := fscat.ParsePath(raw)
	if err != nil {
		return fscat.Path{}, err
	}
	scheme := p.Scheme
	if scheme == "" {
		scheme = fs.defaultScheme
	}
	if _, ok := fs.backends[scheme]; !ok {
		return fscat.Path{}, fmt.Errorf("%w: unsupported scheme %q", fscat.ErrInvalidPath, scheme)
	}
	return p.Resolve(scheme, fs.workingDirs[scheme]), nil
}

// resolve returns the resolved path and its backend, wrapping failures for op.
func (fs *FileSystem) resolve(op, raw string) (fscat.Path, fscat.Backend, error) {
	p, err := fs.Resolve(raw)
	if err != nil {
		return fscat.Path{}, nil, &fscat.PathError{Op: op, Path: raw, Err: err}
	}
	return p, fs.backends[p.Scheme], nil
}

// wrap attaches op and path to err. Unclassified errors become I/O failures;
// context errors pass through so callers can tell cancellation apart.
func wrap(op string, p fscat.Path, err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		err = fscat.IOFailure(err)
	}
	return &fscat.PathError{Op: op, Path: p.String(), Err: err}
}

// normalize enforces the status invariants on what a backend returned.
func (fs *FileSystem) normalize(st fscat.FileStatus, now time.Time) fscat.FileStatus {
	if st.IsDir {
		st.Length = 0
		st.BlockSize = 0
		st.Replication = 0
	}
	if st.Length < 0 {
		st.Length = 0
	}
	if st.BlockSize < 0 {
		st.BlockSize = 0
	}
	if st.Replication < 0 {
		st.Replication = 0
	}
	if st.Owner == "" {
		st.Owner = fs.identity.User
	}
	if st.Group == "" {
		st.Group = fs.identity.Group
	}
	// Remote clocks may run ahead of ours.
	if st.ModTime.After(now) {
		st.ModTime = now
	}
	return st
}

// Stat returns the status of the path named by raw.
func (fs *FileSystem) Stat(ctx context.Context, raw string) (fscat.FileStatus, error) {
	p, b, err := fs.resolve("stat", raw)
	if err != nil {
		return fscat.FileStatus{}, err
	}

	fs.logger.Verbose("stat %s", p)
	st, err := b.Stat(ctx, p)
	if err != nil {
		return fscat.FileStatus{}, wrap("stat", p, err)
	}
	st.Path = p
	return fs.normalize(st, fs.now()), nil
}

// List returns the entries of the directory named by raw, or the status of
// the file itself.
func (fs *FileSystem) List(ctx context.Context, raw string) ([]fscat.FileStatus, error) {
	p, b, err := fs.resolve("list", raw)
	if err != nil {
		return nil, err
	}

	fs.logger.Verbose("list %s", p)
	entries, err := b.List(ctx, p)
	if err != nil {
		return nil, wrap("list", p, err)
	}
	now := fs.now()
	result := make([]fscat.FileStatus, len(entries))
	for i, st := range entries {
		result[i] = fs.normalize(st, now)
	}
	return result, nil
}

// Open returns a stream over the file named by raw together with its
// resolved path. The caller must close the stream.
func (fs *FileSystem) Open(ctx context.Context, raw string) (io.ReadCloser, fscat.Path, error) {
	p, b, err := fs.resolve("open", raw)
	if err != nil {
		return nil, fscat.Path{}, err
	}

	fs.logger.Verbose("open %s", p)
	rc, err := b.Open(ctx, p)
	if err != nil {
		return nil, p, wrap("open", p, err)
	}
	return rc, p, nil
}

// StreamTo copies the file named by raw into sink in chunks of bufferSize
// bytes (the facade default when bufferSize <= 0) and returns the number of
// bytes written. Memory use is bounded by the chunk size.
//
// The source is closed on every exit path. When ctx ends mid-copy the source
// is closed first, which unblocks a read stuck on the backend. A directory
// fails with fscat.ErrIsDirectory before anything is written.
func (fs *FileSystem) StreamTo(ctx context.Context, raw string, sink io.Writer, bufferSize int) (int64, error) {
	rc, p, err := fs.Open(ctx, raw)
	if err != nil {
		return 0, err
	}

	closeSource := sync.OnceValue(rc.Close)
	stop := context.AfterFunc(ctx, func() { closeSource() }) //nolint:errcheck
	defer stop()

	if bufferSize <= 0 {
		bufferSize = fs.bufferSize
	}
	buf := make([]byte, bufferSize)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			closeSource() //nolint:errcheck
			return written, wrap("stream", p, err)
		}

		n, readErr := rc.Read(buf)
		if n > 0 {
			w, writeErr := sink.Write(buf[:n])
			written += int64(w)
			if writeErr == nil && w < n {
				writeErr = io.ErrShortWrite
			}
			if writeErr != nil {
				closeSource() //nolint:errcheck
				return written, wrap("stream", p, fmt.Errorf("write to sink: %w", writeErr))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			closeSource() //nolint:errcheck
			// A read that failed because cancellation closed the source
			// reports the cancellation.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return written, wrap("stream", p, ctxErr)
			}
			return written, wrap("stream", p, readErr)
		}
	}

	if err := closeSource(); err != nil {
		return written, wrap("stream", p, err)
	}
	fs.logger.Verbose("streamed %d bytes from %s", written, p)
	return written, nil
}

// writable returns the backend for raw when it accepts writes.
func (fs *FileSystem) writable(op, raw string) (fscat.Path, fscat.WritableBackend, error) {
	p, b, err := fs.resolve(op, raw)
	if err != nil {
		return fscat.Path{}, nil, err
	}
	wb, ok := b.(fscat.WritableBackend)
	if !ok {
		return p, nil, &fscat.PathError{
			Op:   op,
			Path: p.String(),
			Err:  fmt.Errorf("%w: %s backend is read-only", fscat.ErrUnsupported, p.Scheme),
		}
	}
	return p, wb, nil
}

// Mkdirs creates the directory named by raw and any missing parents.
func (fs *FileSystem) Mkdirs(ctx context.Context, raw string) error {
	p, wb, err := fs.writable("mkdirs", raw)
	if err != nil {
		return err
	}
	fs.logger.Verbose("mkdirs %s", p)
	return wrap("mkdirs", p, wb.Mkdirs(ctx, p))
}

// Create opens the file named by raw for writing. Content becomes visible
// when the returned writer is closed.
func (fs *FileSystem) Create(ctx context.Context, raw string) (io.WriteCloser, error) {
	p, wb, err := fs.writable("create", raw)
	if err != nil {
		return nil, err
	}
	fs.logger.Verbose("create %s", p)
	w, err := wb.Create(ctx, p)
	if err != nil {
		return nil, wrap("create", p, err)
	}
	return &pathWriter{WriteCloser: w, path: p}, nil
}

// pathWriter adds the path to errors surfacing from Write and Close.
type pathWriter struct {
	io.WriteCloser
	path fscat.Path
}

func (w *pathWriter) Write(b []byte) (int, error) {
	n, err := w.WriteCloser.Write(b)
	return n, wrap("write", w.path, err)
}

func (w *pathWriter) Close() error {
	return wrap("close", w.path, w.WriteCloser.Close())
}

// Close closes every registered backend and joins their errors.
func (fs *FileSystem) Close() error {
	var errs []error
	for _, scheme := range fs.Schemes() {
		if err := fs.backends[scheme].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s backend: %w", scheme, err))
		}
	}
	return errors.Join(errs...)
}
