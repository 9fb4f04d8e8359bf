// Package tui decides how fscat renders human-facing output and holds its styles.
package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents how output is rendered.
type Mode int

const (
	// ModePlain writes unstyled text for pipes, files and CI logs.
	ModePlain Mode = iota
	// ModeStyled decorates output with ANSI styles for a terminal.
	ModeStyled
)

// DetectMode determines how output written to f should be rendered.
//
// Returns ModePlain if:
//   - f is nil or not a terminal (piped output, redirection)
//   - FSCAT_PLAIN=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (https://no-color.org)
//   - TERM=dumb
//
// Returns ModeStyled otherwise.
func DetectMode(f *os.File) Mode {
	if os.Getenv("FSCAT_PLAIN") == "1" {
		return ModePlain
	}
	if os.Getenv("CI") != "" {
		return ModePlain
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModePlain
	}
	if os.Getenv("TERM") == "dumb" {
		return ModePlain
	}

	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return ModePlain
	}
	return ModeStyled
}

// IsStyled is a convenience function that returns true if output to f is styled.
func IsStyled(f *os.File) bool {
	return DetectMode(f) == ModeStyled
}
