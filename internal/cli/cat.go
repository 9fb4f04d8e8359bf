package cli

import (
	"github.com/spf13/cobra"
)

// runCat streams the file named by args[0] to stdout. A failure after some
// bytes were written still fails the command.
func runCat(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	n, err := s.fs.StreamTo(s.ctx, args[0], cmd.OutOrStdout(), s.bufferSize)
	if err != nil {
		if n > 0 {
			s.logger.Verbose("stream failed after %d bytes", n)
		}
		return err
	}
	return nil
}
