package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fscat/internal/checksum"
)

var checksumFlags struct {
	algorithm string
}

var checksumCmd = &cobra.Command{
	Use:   "checksum <path>...",
	Short: "Print content checksums",
	Long: `Stream each file and print one line per path:

  path <TAB> algorithm <TAB> hex digest`,
	Example: `  fscat checksum /etc/hosts
  fscat checksum --algorithm crc32c s3://bucket/a s3://bucket/b`,
	Args: RequirePaths,
	RunE: runChecksum,
}

func init() {
	checksumCmd.Flags().StringVarP(&checksumFlags.algorithm, "algorithm", "a", string(checksum.SHA256),
		"Checksum algorithm: sha256 or crc32c")
	if err := checksumCmd.RegisterFlagCompletionFunc("algorithm", completeAlgorithms); err != nil {
		panic(fmt.Sprintf("register algorithm completion: %v", err))
	}
	rootCmd.AddCommand(checksumCmd)
}

func runChecksum(cmd *cobra.Command, args []string) (err error) {
	algorithm, err := checksum.ParseAlgorithm(checksumFlags.algorithm)
	if err != nil {
		return fmt.Errorf("invalid argument %q for \"--algorithm\" flag: %v", checksumFlags.algorithm, err)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	out := cmd.OutOrStdout()
	for _, raw := range args {
		p, err := s.fs.Resolve(raw)
		if err != nil {
			return err
		}
		w, err := checksum.NewWriter(algorithm)
		if err != nil {
			return err
		}
		if _, err := s.fs.StreamTo(s.ctx, raw, w, s.bufferSize); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", p, algorithm.Label(), w.Digest())
	}
	return nil
}

// completeAlgorithms provides shell completion for checksum --algorithm.
func completeAlgorithms(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, 0, len(checksum.Algorithms()))
	for _, a := range checksum.Algorithms() {
		names = append(names, string(a))
	}
	return completeFrom(names, strings.ToLower(toComplete)), cobra.ShellCompDirectiveNoFileComp
}
