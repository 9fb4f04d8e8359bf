package fscat

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess      = 0  // Operation completed successfully
	ExitGeneralError = 1  // Unknown or unclassified error
	ExitUsageError   = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic        = 3  // Internal panic (unexpected crash)
	ExitConfigError  = 10 // Invalid configuration file or backend settings
	ExitNotFound     = 20 // Path does not exist
	ExitIsDirectory  = 21 // Read attempted on a directory
	ExitInvalidPath  = 22 // Malformed path or unsupported scheme
	ExitIOFailure    = 23 // Backend transport or disk failure
	ExitUnsupported  = 24 // Backend does not support the operation
)

const (
	// DefaultBufferSize is the chunk size used when streaming file content.
	DefaultBufferSize = 4096

	// DefaultBlockSize is the block size reported for files by backends
	// that do not configure their own (128 MiB, the HDFS default).
	DefaultBlockSize int64 = 128 * 1024 * 1024

	// DefaultReplication is the replication factor reported for files by
	// backends that do not configure their own.
	DefaultReplication int16 = 3

	// DefaultGroup is the group reported when a backend has no notion of groups.
	DefaultGroup = "supergroup"

	// DefaultFilePermission is rw-r--r--.
	DefaultFilePermission Permission = 0644

	// DefaultDirPermission is rwxr-xr-x.
	DefaultDirPermission Permission = 0755

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultScheme is the scheme assumed for paths written without one.
	DefaultScheme = "file"
)
