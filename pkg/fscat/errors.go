package fscat

import (
	"errors"
	"strings"
)

// Sentinel errors for the filesystem error taxonomy.
// Backends return these (possibly wrapped) so callers can distinguish
// failure kinds using errors.Is().
//
// Example usage:
//
//	_, err := fsys.StreamTo(ctx, "/dir", os.Stdout, 0)
//	if errors.Is(err, fscat.ErrIsDirectory) {
//	    // refuse to cat a directory
//	}
var (
	// ErrNotFound indicates the path does not exist.
	ErrNotFound = errors.New("no such file or directory")

	// ErrIsDirectory indicates a read was attempted on a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrInvalidPath indicates a malformed path string or an unsupported scheme.
	ErrInvalidPath = errors.New("invalid path")

	// ErrIOFailure indicates a backend-level transport or disk error.
	// The opaque cause is attached with IOError.
	ErrIOFailure = errors.New("i/o failure")

	// ErrUnsupported indicates the backend does not implement the operation.
	ErrUnsupported = errors.New("operation not supported")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// PathError records the operation and resolved path that produced an error.
// The wrapped error keeps its kind; PathError only adds context.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

// IOError attaches an opaque backend cause to ErrIOFailure.
// errors.Is matches both ErrIOFailure and the cause, and errors.As can
// still reach typed causes such as *net.OpError.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return ErrIOFailure.Error()
	}
	return ErrIOFailure.Error() + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrIOFailure}
	}
	return []error{ErrIOFailure, e.Err}
}

// IOFailure classifies err as an I/O failure unless it already belongs to
// the taxonomy. A nil error stays nil.
func IOFailure(err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != "" {
		return err
	}
	return &IOError{Err: err}
}

// Kind returns a short name for the taxonomy member err belongs to,
// or "" when err is nil or unclassified.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPath):
		return "invalid path"
	case errors.Is(err, ErrIsDirectory):
		return "is a directory"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid configuration"
	case errors.Is(err, ErrIOFailure):
		return "i/o failure"
	}
	return ""
}

// usagePatterns are the messages cobra and pflag produce for command-line misuse.
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
	"missing required argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrInvalidPath):
		return ExitInvalidPath
	case errors.Is(err, ErrIsDirectory):
		return ExitIsDirectory
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrUnsupported):
		return ExitUnsupported
	case errors.Is(err, ErrIOFailure):
		return ExitIOFailure
	}

	errStr := err.Error()
	for _, pattern := range usagePatterns {
		if strings.HasPrefix(errStr, pattern) || strings.Contains(errStr, ": "+pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
