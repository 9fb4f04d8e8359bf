package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fscat/internal/checksum"
)

// cliResult captures one command invocation.
type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command with args and stdin, resetting flag
// state left over from earlier invocations.
func runCLI(t *testing.T, stdin io.Reader, args ...string) cliResult {
	t.Helper()
	globalFlags = globalOptions{}
	resetStatFlags()
	lsFlags.human = false
	checksumFlags.algorithm = string(checksum.SHA256)

	if stdin == nil {
		stdin = strings.NewReader("")
	}
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// fixture is a config file registering "data" (writable local directory)
// and "ro" (read-only dirfs view of the same directory).
type fixture struct {
	dir    string
	config string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(data, "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "dir", "file"), []byte("content"), 0o644))
	// Pin modes so the process umask does not leak into permission checks.
	require.NoError(t, os.Chmod(filepath.Join(data, "dir"), 0o755))
	require.NoError(t, os.Chmod(filepath.Join(data, "dir", "file"), 0o644))

	cfg := `default_scheme: data
identity:
  user: tester
backends:
  data:
    type: local
    root: ` + data + `
  ro:
    type: dirfs
    root: ` + data + `
`
	configPath := filepath.Join(dir, "fscat.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	return fixture{dir: data, config: configPath}
}
