package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	// outputFormats are the values accepted by stat --output.
	outputFormats = []string{"text", "json", "yaml"}

	// logFormats are the values accepted by --log-format.
	logFormats = []string{"console", "json"}
)

func completeFrom(values []string, toComplete string) []string {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, toComplete) {
			matches = append(matches, v)
		}
	}
	return matches
}

// completeOutputFormats provides shell completion for stat --output.
func completeOutputFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(outputFormats, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeLogFormats provides shell completion for --log-format.
func completeLogFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(logFormats, toComplete), cobra.ShellCompDirectiveNoFileComp
}
