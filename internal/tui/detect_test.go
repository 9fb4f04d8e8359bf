package tui

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"FSCAT_PLAIN", "CI", "NO_COLOR", "TERM"} {
		t.Setenv(name, "")
	}
}

func TestDetectMode_EnvOverrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"FSCAT_PLAIN", "FSCAT_PLAIN", "1"},
		{"CI", "CI", "true"},
		{"NO_COLOR", "NO_COLOR", "1"},
		{"dumb terminal", "TERM", "dumb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			require.Equal(t, ModePlain, DetectMode(os.Stdout))
		})
	}
}

func TestDetectMode_NilFile(t *testing.T) {
	clearEnv(t)
	require.Equal(t, ModePlain, DetectMode(nil))
}

func TestDetectMode_RegularFile(t *testing.T) {
	clearEnv(t)
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, ModePlain, DetectMode(f))
	require.False(t, IsStyled(f))
}

func TestStyler_DisabledLeavesTextAlone(t *testing.T) {
	s := NewStyler(false)
	require.Equal(t, "Length:", s.Render(KeyStyle, "Length:"))
}

func TestStyler_EnabledRendersThroughStyle(t *testing.T) {
	s := NewStyler(true)
	require.Equal(t, KeyStyle.Render("Length:"), s.Render(KeyStyle, "Length:"))
}
