package testing

import (
	"io/fs"
	"testing"
	"time"

	"github.com/vvka-141/fscat/internal/backend/memory"
	"github.com/vvka-141/fscat/internal/vfs"
	"github.com/vvka-141/fscat/pkg/fscat"
)

// ClusterConfig describes an in-process fake cluster. Every field is
// explicit; nothing is read from the environment.
type ClusterConfig struct {
	Scheme      string
	User        string
	Group       string
	Umask       fs.FileMode
	BlockSize   int64
	Replication int16
	BufferSize  int
	Clock       func() time.Time
}

// DefaultClusterConfig returns a single-node cluster with the reference
// defaults, owned by "tester".
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		Scheme:      "mem",
		User:        "tester",
		Group:       fscat.DefaultGroup,
		Umask:       0o022,
		BlockSize:   fscat.DefaultBlockSize,
		Replication: fscat.DefaultReplication,
		BufferSize:  fscat.DefaultBufferSize,
		Clock:       time.Now,
	}
}

// MiniCluster is a memory backend behind a facade whose default scheme is
// the cluster scheme.
type MiniCluster struct {
	Config  ClusterConfig
	Backend *memory.Backend
	FS      *vfs.FileSystem
}

// NewMiniCluster starts a cluster that is shut down when the test completes.
func NewMiniCluster(t testing.TB, cfg ClusterConfig) *MiniCluster {
	t.Helper()

	backend := memory.New(memory.Config{
		Owner:       cfg.User,
		Group:       cfg.Group,
		Umask:       cfg.Umask,
		BlockSize:   cfg.BlockSize,
		Replication: cfg.Replication,
		Clock:       cfg.Clock,
	})

	opts := []vfs.Option{
		vfs.WithBackend(cfg.Scheme, backend),
		vfs.WithDefaultScheme(cfg.Scheme),
		vfs.WithIdentity(vfs.Identity{User: cfg.User, Group: cfg.Group}),
		vfs.WithBufferSize(cfg.BufferSize),
	}
	if cfg.Clock != nil {
		opts = append(opts, vfs.WithClock(cfg.Clock))
	}
	fsys, err := vfs.New(opts...)
	if err != nil {
		t.Fatalf("Failed to start mini cluster: %v", err)
	}
	t.Cleanup(func() { fsys.Close() })

	return &MiniCluster{Config: cfg, Backend: backend, FS: fsys}
}

// WriteFile stores content at name, creating parents.
func (c *MiniCluster) WriteFile(t testing.TB, name string, content []byte) {
	t.Helper()
	if err := c.Backend.WriteFile(name, content); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// Mkdirs creates the directory name and its parents.
func (c *MiniCluster) Mkdirs(t testing.TB, name string) {
	t.Helper()
	if err := c.Backend.MkdirAll(name); err != nil {
		t.Fatalf("Failed to create directory %s: %v", name, err)
	}
}
