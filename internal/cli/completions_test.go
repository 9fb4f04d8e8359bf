package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteOutputFormats(t *testing.T) {
	cmd := &cobra.Command{}

	t.Run("returns all formats for empty input", func(t *testing.T) {
		completions, directive := completeOutputFormats(cmd, nil, "")
		if len(completions) != len(outputFormats) {
			t.Errorf("expected %d completions, got %d", len(outputFormats), len(completions))
		}
		if directive != cobra.ShellCompDirectiveNoFileComp {
			t.Errorf("expected ShellCompDirectiveNoFileComp, got %v", directive)
		}
	})

	t.Run("filters by prefix", func(t *testing.T) {
		completions, _ := completeOutputFormats(cmd, nil, "y")
		if len(completions) != 1 || completions[0] != "yaml" {
			t.Errorf("expected [yaml], got %v", completions)
		}
	})

	t.Run("returns empty for non-matching prefix", func(t *testing.T) {
		completions, _ := completeOutputFormats(cmd, nil, "xyz")
		if len(completions) != 0 {
			t.Errorf("expected 0 completions, got %d", len(completions))
		}
	})
}

func TestCompleteLogFormats(t *testing.T) {
	completions, _ := completeLogFormats(&cobra.Command{}, nil, "j")
	if len(completions) != 1 || completions[0] != "json" {
		t.Errorf("expected [json], got %v", completions)
	}
}
