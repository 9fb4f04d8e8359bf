package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <path>",
	Short: "Write stdin to a file",
	Long: `Copy standard input into a file on a writable backend, creating missing
parent directories. The file is replaced only after all input has been read;
a failed or cancelled copy leaves the previous content in place.

Read-only backends (dirfs, s3) fail with exit code 24.`,
	Example: `  echo hello | fscat put mem:///greeting
  fscat put pgfs:///reports/q3.csv < q3.csv`,
	Args: RequirePath,
	RunE: runPut,
}

func init() {
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	// Cancelling ctx before Close makes the backend discard the partial content.
	ctx, abort := context.WithCancel(s.ctx)
	defer abort()

	w, err := s.fs.Create(ctx, args[0])
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		// Unblock a pending read on a pipe when ctx ends.
		stop := context.AfterFunc(ctx, func() { f.SetReadDeadline(time.Now()) }) //nolint:errcheck
		defer stop()
	}

	n, copyErr := io.CopyBuffer(w, in, make([]byte, s.bufferSize))
	if copyErr == nil {
		copyErr = ctx.Err()
	}
	if copyErr != nil {
		abort()
		w.Close() //nolint:errcheck
		if ctxErr := ctx.Err(); ctxErr != nil {
			copyErr = ctxErr
		}
		return fmt.Errorf("put %s: %w", args[0], copyErr)
	}
	if err := w.Close(); err != nil {
		return err
	}
	s.logger.Verbose("wrote %d bytes to %s", n, args[0])
	return nil
}
