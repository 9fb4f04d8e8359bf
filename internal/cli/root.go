package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fscat/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "fscat <path>",
	Short: "Print a file from any configured filesystem",
	Long: `fscat streams the content of one file to stdout.

Paths are URIs whose scheme selects a configured backend:

  fscat /etc/hosts                 local disk (default scheme "file")
  fscat notes.txt                  relative to the current directory
  fscat s3://bucket/logs/app.log   S3-compatible object store
  fscat pgfs:///reports/q3.csv     PostgreSQL-backed store

Backends are declared in fscat.yaml. Without a config file the "file" and
"mem" schemes are available.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  20 - Path does not exist
  21 - Path is a directory
  22 - Invalid path or unsupported scheme
  23 - I/O failure in the backend
  24 - Operation not supported by the backend`,
	Args:         RequirePath,
	SilenceUsage: true,
	RunE:         runCat,
}

// globalOptions holds the persistent flag values shared by every command.
type globalOptions struct {
	configPath  string
	bufferSize  int
	timeout     time.Duration
	verbose     bool
	logFormat   string
	metricsFile string
}

var globalFlags globalOptions

// Execute runs the root command
func Execute(ctx context.Context) error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.configPath, "config", "",
		"Configuration file (default "+config.ConfigFileName+" in the current directory when present)")
	pf.IntVar(&globalFlags.bufferSize, "buffer-size", 0,
		"Chunk size in bytes for streaming (default from config, 4096)")
	pf.DurationVar(&globalFlags.timeout, "timeout", 0,
		"Abort the operation after this duration, e.g. 30s (default from config, none)")
	pf.BoolVarP(&globalFlags.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	pf.StringVar(&globalFlags.logFormat, "log-format", "",
		"Log format: console or json (default from config, console)")
	pf.StringVar(&globalFlags.metricsFile, "metrics-file", "",
		"Write Prometheus metrics in text format to this file on exit")

	if err := rootCmd.RegisterFlagCompletionFunc("log-format", completeLogFormats); err != nil {
		panic(fmt.Sprintf("register log-format completion: %v", err))
	}
}
