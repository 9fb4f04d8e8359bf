package fscat

import (
	"context"
	"io"
)

// Backend translates filesystem operations on resolved paths into calls
// against one storage system. Paths handed to a backend are always absolute
// and carry the scheme the backend was registered under.
//
// Implementations must be safe for concurrent use and must report failures
// using the sentinel errors of this package.
type Backend interface {
	// Open returns a stream over the file's bytes.
	// Fails with ErrNotFound when p does not exist and ErrIsDirectory when p is a directory.
	//
	// Close on the returned stream must be safe to call concurrently with
	// Read. A Read in flight must return once ctx ends.
	Open(ctx context.Context, p Path) (io.ReadCloser, error)

	// Stat returns metadata for p. Fails with ErrNotFound when p does not exist.
	Stat(ctx context.Context, p Path) (FileStatus, error)

	// List returns the entries of directory p. A file lists as itself.
	List(ctx context.Context, p Path) ([]FileStatus, error)

	// Close releases any resources held by the backend.
	Close() error
}

// WritableBackend is implemented by backends that accept writes.
type WritableBackend interface {
	Backend

	// Mkdirs creates p and any missing parents. Existing directories are not an error.
	Mkdirs(ctx context.Context, p Path) error

	// Create opens p for writing, replacing any existing file and creating
	// missing parent directories. Content becomes visible when the writer is
	// closed. If ctx has ended by then, the content is discarded and Close
	// returns the context error.
	Create(ctx context.Context, p Path) (io.WriteCloser, error)
}
