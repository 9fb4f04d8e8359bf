package vfs

import (
	"path"
	"time"

	"github.com/vvka-141/fscat/pkg/fscat"
)

// Option configures a FileSystem.
type Option func(*FileSystem)

// WithBackend registers b under scheme. A later registration for the same
// scheme replaces the earlier one.
func WithBackend(scheme string, b fscat.Backend) Option {
	return func(fs *FileSystem) {
		fs.backends[scheme] = b
	}
}

// WithDefaultScheme sets the scheme assumed for paths written without one.
func WithDefaultScheme(scheme string) Option {
	return func(fs *FileSystem) {
		fs.defaultScheme = scheme
	}
}

// WithWorkingDir sets the directory relative paths on scheme are joined
// onto. Schemes without a working directory resolve relative paths from "/".
func WithWorkingDir(scheme, dir string) Option {
	return func(fs *FileSystem) {
		fs.workingDirs[scheme] = path.Clean("/" + dir)
	}
}

// WithIdentity sets the owner and group filled in when a backend reports none.
func WithIdentity(id Identity) Option {
	return func(fs *FileSystem) {
		fs.identity = id
	}
}

// WithBufferSize sets the default chunk size of StreamTo. Values <= 0 select
// fscat.DefaultBufferSize.
func WithBufferSize(n int) Option {
	return func(fs *FileSystem) {
		fs.bufferSize = n
	}
}

// WithLogger sets the logger for verbose diagnostics.
func WithLogger(logger fscat.Logger) Option {
	return func(fs *FileSystem) {
		fs.logger = logger
	}
}

// WithClock sets the wall clock used to clamp modification times.
func WithClock(now func() time.Time) Option {
	return func(fs *FileSystem) {
		fs.now = now
	}
}
