package vfs_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fscat/internal/backend/iofs"
	"github.com/vvka-141/fscat/internal/backend/local"
	"github.com/vvka-141/fscat/internal/backend/memory"
	fstesting "github.com/vvka-141/fscat/internal/testing"
	"github.com/vvka-141/fscat/internal/vfs"
	"github.com/vvka-141/fscat/pkg/fscat"
)

func newCluster(t *testing.T) *fstesting.MiniCluster {
	t.Helper()
	return fstesting.NewMiniCluster(t, fstesting.DefaultClusterConfig())
}

func TestStat_File(t *testing.T) {
	c := newCluster(t)
	c.WriteFile(t, "/dir/file", []byte("content"))

	before := time.Now()
	st, err := c.FS.Stat(context.Background(), "/dir/file")
	require.NoError(t, err)

	require.False(t, st.IsDir)
	require.Equal(t, int64(7), st.Length)
	require.Greater(t, st.BlockSize, int64(0))
	require.Equal(t, fscat.DefaultBlockSize, st.BlockSize)
	require.Greater(t, st.Replication, int16(0))
	require.Equal(t, "rw-r--r--", st.Permission.String())
	require.Equal(t, "tester", st.Owner)
	require.Equal(t, "supergroup", st.Group)
	require.False(t, st.ModTime.After(time.Now()))
	require.False(t, st.ModTime.After(before.Add(time.Second)))
	require.Equal(t, "mem:///dir/file", st.Path.String())
}

func TestStat_Directory(t *testing.T) {
	c := newCluster(t)
	c.Mkdirs(t, "/dir")

	for _, p := range []string{"/dir", "/", "mem:///dir", "dir"} {
		t.Run(p, func(t *testing.T) {
			st, err := c.FS.Stat(context.Background(), p)
			require.NoError(t, err)
			require.True(t, st.IsDir)
			require.Zero(t, st.Length)
			require.Zero(t, st.BlockSize)
			require.Zero(t, st.Replication)
			require.Equal(t, "rwxr-xr-x", st.Permission.String())
		})
	}
}

func TestStat_NotFound(t *testing.T) {
	c := newCluster(t)

	_, err := c.FS.Stat(context.Background(), "no-such-file")
	require.ErrorIs(t, err, fscat.ErrNotFound)
	require.Equal(t, fscat.ExitNotFound, fscat.ExitCodeForError(err))

	var pathErr *fscat.PathError
	require.True(t, errors.As(err, &pathErr))
	require.Equal(t, "stat", pathErr.Op)
	require.Equal(t, "mem:///no-such-file", pathErr.Path)
}

func TestStat_Idempotent(t *testing.T) {
	c := newCluster(t)
	c.WriteFile(t, "/a", []byte("abc"))

	first, err := c.FS.Stat(context.Background(), "/a")
	require.NoError(t, err)
	second, err := c.FS.Stat(context.Background(), "/a")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestStat_InvalidPath(t *testing.T) {
	c := newCluster(t)

	for _, p := range []string{"", "ftp://host/x", "mem:///a?b=c", "/a\x00b"} {
		t.Run(p, func(t *testing.T) {
			_, err := c.FS.Stat(context.Background(), p)
			require.ErrorIs(t, err, fscat.ErrInvalidPath)
		})
	}
}

// DirFileScenario mirrors the classic mini-cluster check: create
// /dir/file holding "content" and stat both entries.
func TestDirFileScenario(t *testing.T) {
	cfg := fstesting.DefaultClusterConfig()
	cfg.User = "hdfs-user"
	c := fstesting.NewMiniCluster(t, cfg)
	ctx := context.Background()

	require.NoError(t, c.FS.Mkdirs(ctx, "/dir"))
	w, err := c.FS.Create(ctx, "/dir/file")
	require.NoError(t, err)
	_, err = io.WriteString(w, "content")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	file, err := c.FS.Stat(ctx, "/dir/file")
	require.NoError(t, err)
	require.Equal(t, int64(7), file.Length)
	require.Equal(t, "hdfs-user", file.Owner)
	require.Equal(t, "supergroup", file.Group)
	require.Equal(t, "rw-r--r--", file.Permission.String())

	dir, err := c.FS.Stat(ctx, "/dir")
	require.NoError(t, err)
	require.True(t, dir.IsDir)
	require.Equal(t, "rwxr-xr-x", dir.Permission.String())

	var out bytes.Buffer
	n, err := c.FS.StreamTo(ctx, "/dir/file", &out, 0)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
	require.Equal(t, "content", out.String())
}

func TestStreamTo_RoundTrip(t *testing.T) {
	c := newCluster(t)
	size := fscat.DefaultBufferSize

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("hello")},
		{"exactly one buffer", bytes.Repeat([]byte{'a'}, size)},
		{"one buffer plus one", bytes.Repeat([]byte{'b'}, size+1)},
		{"many buffers", bytes.Repeat([]byte("0123456789"), size)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := "/" + strings.ReplaceAll(tt.name, " ", "-")
			c.WriteFile(t, name, tt.content)

			var out bytes.Buffer
			n, err := c.FS.StreamTo(context.Background(), name, &out, 0)
			require.NoError(t, err)
			require.Equal(t, int64(len(tt.content)), n)
			require.True(t, bytes.Equal(tt.content, out.Bytes()))
		})
	}
}

// chunkRecorder records the size of every write it receives.
type chunkRecorder struct {
	sizes []int
}

func (r *chunkRecorder) Write(p []byte) (int, error) {
	r.sizes = append(r.sizes, len(p))
	return len(p), nil
}

func TestStreamTo_HonorsBufferSize(t *testing.T) {
	c := newCluster(t)
	c.WriteFile(t, "/f", bytes.Repeat([]byte{'x'}, 10))

	var rec chunkRecorder
	n, err := c.FS.StreamTo(context.Background(), "/f", &rec, 4)
	require.NoError(t, err)
	require.Equal(t, int64(10), n)
	for _, s := range rec.sizes {
		require.LessOrEqual(t, s, 4)
	}
}

func TestStreamTo_DirectoryWritesNothing(t *testing.T) {
	c := newCluster(t)
	c.Mkdirs(t, "/dir")

	var out bytes.Buffer
	n, err := c.FS.StreamTo(context.Background(), "/dir", &out, 0)
	require.ErrorIs(t, err, fscat.ErrIsDirectory)
	require.Zero(t, n)
	require.Zero(t, out.Len())
	require.Equal(t, fscat.ExitIsDirectory, fscat.ExitCodeForError(err))
}

func TestStreamTo_NotFound(t *testing.T) {
	c := newCluster(t)

	var out bytes.Buffer
	_, err := c.FS.StreamTo(context.Background(), "/missing", &out, 0)
	require.ErrorIs(t, err, fscat.ErrNotFound)
	require.Zero(t, out.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestStreamTo_SinkFailureIsIOFailure(t *testing.T) {
	c := newCluster(t)
	c.WriteFile(t, "/f", []byte("data"))

	_, err := c.FS.StreamTo(context.Background(), "/f", failingWriter{}, 0)
	require.ErrorIs(t, err, fscat.ErrIOFailure)
}

func TestCreate_ReadOnlyBackendIsUnsupported(t *testing.T) {
	fsys, err := vfs.New(
		vfs.WithBackend("dirfs", iofs.New(os.DirFS(t.TempDir()), fscat.Defaults{})),
		vfs.WithDefaultScheme("dirfs"),
		vfs.WithIdentity(vfs.Identity{User: "u"}),
	)
	require.NoError(t, err)

	_, err = fsys.Create(context.Background(), "/x")
	require.ErrorIs(t, err, fscat.ErrUnsupported)
	require.ErrorIs(t, fsys.Mkdirs(context.Background(), "/d"), fscat.ErrUnsupported)
}

func TestList(t *testing.T) {
	c := newCluster(t)
	c.WriteFile(t, "/dir/b", []byte("bb"))
	c.WriteFile(t, "/dir/a", []byte("a"))
	c.Mkdirs(t, "/dir/sub")

	entries, err := c.FS.List(context.Background(), "/dir")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "a", entries[0].Name())
	require.Equal(t, "tester", entries[0].Owner)
	require.True(t, entries[2].IsDir)
	require.Zero(t, entries[2].BlockSize)
}

func TestResolve(t *testing.T) {
	mem := memory.New(memory.DefaultConfig())
	fsys, err := vfs.New(
		vfs.WithBackend("mem", mem),
		vfs.WithBackend("s3", mem),
		vfs.WithDefaultScheme("mem"),
		vfs.WithWorkingDir("mem", "/home/user"),
		vfs.WithIdentity(vfs.Identity{User: "u"}),
	)
	require.NoError(t, err)

	tests := []struct {
		raw  string
		want string
	}{
		{"file.txt", "mem:///home/user/file.txt"},
		{"./a/../b", "mem:///home/user/b"},
		{"../../../..", "mem:///"},
		{"/abs", "mem:///abs"},
		{"mem:rel", "mem:///home/user/rel"},
		{"s3://bucket/key", "s3://bucket/key"},
		{"s3://bucket", "s3://bucket/"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p, err := fsys.Resolve(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, p.String())
		})
	}

	require.Equal(t, []string{"mem", "s3"}, fsys.Schemes())
}

func TestNew_RequiresDefaultBackend(t *testing.T) {
	_, err := vfs.New(vfs.WithDefaultScheme("mem"))
	require.ErrorIs(t, err, fscat.ErrInvalidConfig)
}

// skewedBackend reports modification times from a clock running ahead.
type skewedBackend struct {
	fscat.Backend
	skew time.Duration
}

func (b skewedBackend) Stat(ctx context.Context, p fscat.Path) (fscat.FileStatus, error) {
	st, err := b.Backend.Stat(ctx, p)
	st.ModTime = st.ModTime.Add(b.skew)
	return st, err
}

func TestStat_ClampsFutureModTime(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	cfg := memory.DefaultConfig()
	cfg.Clock = func() time.Time { return now }
	mem := memory.New(cfg)
	require.NoError(t, mem.WriteFile("/f", []byte("x")))

	fsys, err := vfs.New(
		vfs.WithBackend("mem", skewedBackend{Backend: mem, skew: time.Hour}),
		vfs.WithDefaultScheme("mem"),
		vfs.WithClock(func() time.Time { return now }),
		vfs.WithIdentity(vfs.Identity{User: "u"}),
	)
	require.NoError(t, err)

	st, err := fsys.Stat(context.Background(), "/f")
	require.NoError(t, err)
	require.Equal(t, now, st.ModTime)
}

// blockingBackend serves a source whose Read blocks until Close.
type blockingBackend struct {
	fscat.Backend
	src *blockingReader
}

func (b blockingBackend) Open(context.Context, fscat.Path) (io.ReadCloser, error) {
	return b.src, nil
}

type blockingReader struct {
	first   atomic.Bool
	closed  chan struct{}
	closes  atomic.Int32
	reading chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	if r.first.CompareAndSwap(false, true) {
		return copy(p, "partial"), nil
	}
	close(r.reading)
	<-r.closed
	return 0, errors.New("read on closed source")
}

func (r *blockingReader) Close() error {
	if r.closes.Add(1) == 1 {
		close(r.closed)
	}
	return nil
}

func TestStreamTo_CancellationClosesSource(t *testing.T) {
	src := &blockingReader{closed: make(chan struct{}), reading: make(chan struct{})}
	fsys, err := vfs.New(
		vfs.WithBackend("mem", blockingBackend{Backend: memory.New(memory.DefaultConfig()), src: src}),
		vfs.WithDefaultScheme("mem"),
		vfs.WithIdentity(vfs.Identity{User: "u"}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-src.reading
		cancel()
	}()

	var out bytes.Buffer
	n, err := fsys.StreamTo(ctx, "/stuck", &out, 0)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int64(7), n)
	require.Equal(t, "partial", out.String())
	require.Equal(t, int32(1), src.closes.Load(), "source must be closed exactly once")
}

func TestLocalBackend_MatchesFacadeContract(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))
	require.NoError(t, os.Chmod(filepath.Join(root, "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dir", "file"), []byte("content"), 0o644))
	require.NoError(t, os.Chmod(filepath.Join(root, "dir", "file"), 0o644))

	lb, err := local.New(local.Config{Root: root})
	require.NoError(t, err)
	fsys, err := vfs.New(
		vfs.WithBackend("file", lb),
		vfs.WithWorkingDir("file", "/dir"),
		vfs.WithIdentity(vfs.Identity{User: "u"}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	st, err := fsys.Stat(ctx, "file")
	require.NoError(t, err)
	require.Equal(t, int64(7), st.Length)
	require.Equal(t, "rw-r--r--", st.Permission.String())
	require.NotEmpty(t, st.Owner)
	require.NotEmpty(t, st.Group)

	dir, err := fsys.Stat(ctx, "file:///dir")
	require.NoError(t, err)
	require.True(t, dir.IsDir)
	require.Equal(t, "rwxr-xr-x", dir.Permission.String())

	var out bytes.Buffer
	n, err := fsys.StreamTo(ctx, "file", &out, 3)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
	require.Equal(t, "content", out.String())
}

func TestClose_JoinsBackendErrors(t *testing.T) {
	fsys, err := vfs.New(
		vfs.WithBackend("file", closeFailing{}),
		vfs.WithIdentity(vfs.Identity{User: "u"}),
	)
	require.NoError(t, err)
	require.ErrorContains(t, fsys.Close(), "close file backend")
}

type closeFailing struct{ fscat.Backend }

func (closeFailing) Close() error { return errors.New("boom") }
