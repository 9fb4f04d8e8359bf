//go:build unix

package main

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fscat/pkg/fscat"
)

func TestMain_InterruptCancelsStream(t *testing.T) {
	if fifo := os.Getenv("FSCAT_TEST_FIFO"); fifo != "" {
		os.Args = []string{"fscat", "file://" + fifo}
		main()
		return
	}

	dir := t.TempDir()
	fifo := filepath.Join(dir, "pipe")
	require.NoError(t, syscall.Mkfifo(fifo, 0o600))

	// Holding the fifo open read-write keeps the child's reads blocked
	// instead of hitting EOF.
	feed, err := os.OpenFile(fifo, os.O_RDWR, 0)
	require.NoError(t, err)
	defer feed.Close()
	_, err = feed.WriteString("hello")
	require.NoError(t, err)

	cmd := exec.Command(os.Args[0], "-test.run=^TestMain_InterruptCancelsStream$")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "FSCAT_TEST_FIFO="+fifo)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	got := make([]byte, len("hello"))
	_, err = io.ReadFull(stdout, got)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	require.NoError(t, cmd.Process.Signal(os.Interrupt))

	done := make(chan error, 1)
	go func() {
		io.Copy(io.Discard, stdout) //nolint:errcheck
		done <- cmd.Wait()
	}()

	select {
	case err = <-done:
	case <-time.After(30 * time.Second):
		cmd.Process.Kill() //nolint:errcheck
		t.Fatal("fscat did not stop after interrupt")
	}

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, fscat.ExitGeneralError, exitErr.ExitCode(), "stderr: %s", stderr.String())
	require.Contains(t, stderr.String(), "context canceled")
}
