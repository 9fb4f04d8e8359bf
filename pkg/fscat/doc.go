// Package fscat defines the public types shared by the fscat facade, its
// storage backends and the command-line tool.
//
// A Path names a location on a specific backend (scheme + authority + absolute
// path). A Backend translates operations on such paths into calls against one
// storage system. FileStatus is the normalized metadata snapshot every backend
// returns, regardless of how the underlying system represents it.
//
// Errors returned by backends belong to a small taxonomy of sentinel errors
// (ErrNotFound, ErrIsDirectory, ErrInvalidPath, ErrIOFailure, ErrUnsupported)
// that callers inspect with errors.Is:
//
//	st, err := fsys.Stat(ctx, "s3://bucket/data.csv")
//	if errors.Is(err, fscat.ErrNotFound) {
//	    // path does not exist
//	}
package fscat
