package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fscat/internal/config"
	"github.com/vvka-141/fscat/internal/logging"
	"github.com/vvka-141/fscat/pkg/fscat"
)

func TestIdentityFor(t *testing.T) {
	id := identityFor(config.IdentityConfig{User: "alice", Group: "staff"})
	require.Equal(t, "alice", id.User)
	require.Equal(t, "staff", id.Group)

	id = identityFor(config.IdentityConfig{})
	require.NotEmpty(t, id.User)
	require.Equal(t, fscat.DefaultGroup, id.Group)
}

func TestLoadConfig_DefaultFileMayBeAbsent(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestWorkingDirs_OnlyLocalRootBackends(t *testing.T) {
	cfg := config.Default()
	cfg.Backends["scratch"] = config.BackendConfig{Type: config.TypeLocal, Root: t.TempDir()}

	opts := workingDirs(cfg, logging.NewNullLogger())
	require.Len(t, opts, 1, "only the backend rooted at / follows the process working directory")
}
