// Package vfs is the filesystem facade: the single entry point that parses
// path strings, dispatches to the backend registered for the scheme and
// normalizes what comes back into the fscat data model.
//
// A FileSystem is immutable after construction and safe for concurrent use.
// It never caches: every call queries the backend.
//
//	fsys, err := vfs.New(
//	    vfs.WithBackend("mem", memory.New(memory.DefaultConfig())),
//	    vfs.WithDefaultScheme("mem"),
//	)
//	st, err := fsys.Stat(ctx, "/dir/file")
//	n, err := fsys.StreamTo(ctx, "/dir/file", os.Stdout, 0)
package vfs
