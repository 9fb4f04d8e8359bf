package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

var (
	// KeyStyle renders field names in status output.
	KeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	// DirStyle renders directory names in listings.
	DirStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// MutedStyle renders headers and secondary columns.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)
)

// Styler applies styles only when enabled, so callers can render the same
// way for terminals and pipes.
type Styler struct {
	enabled bool
}

// NewStyler returns a Styler that styles text when enabled is true.
func NewStyler(enabled bool) Styler {
	return Styler{enabled: enabled}
}

// Render applies style to s when styling is enabled.
func (s Styler) Render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}
