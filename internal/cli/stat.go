package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/fscat/internal/tui"
	"github.com/vvka-141/fscat/pkg/fscat"
)

var statFlags struct {
	output string
	human  bool
}

var statCmd = &cobra.Command{
	Use:   "stat <path>...",
	Short: "Show file status",
	Long: `Print the status of one or more paths: type, length, modification time,
block size, replication, owner, group and permission.

Directories always report length, block size and replication as 0.`,
	Example: `  fscat stat /etc/hosts
  fscat stat --output json s3://bucket/logs/app.log
  fscat stat --human mem:///dir mem:///dir/file`,
	Args: RequirePaths,
	RunE: runStat,
}

func init() {
	statCmd.Flags().StringVarP(&statFlags.output, "output", "o", "text", "Output format: text, json or yaml")
	statCmd.Flags().BoolVarP(&statFlags.human, "human", "H", false, "Print sizes in human-readable units (text output)")
	if err := statCmd.RegisterFlagCompletionFunc("output", completeOutputFormats); err != nil {
		panic(fmt.Sprintf("register output completion: %v", err))
	}
	rootCmd.AddCommand(statCmd)
}

func resetStatFlags() {
	statFlags.output = "text"
	statFlags.human = false
}

// statusView is the serialized form of a FileStatus.
type statusView struct {
	Path        string    `json:"path" yaml:"path"`
	Type        string    `json:"type" yaml:"type"`
	Length      int64     `json:"length" yaml:"length"`
	ModTime     time.Time `json:"modification_time" yaml:"modification_time"`
	BlockSize   int64     `json:"block_size" yaml:"block_size"`
	Replication int16     `json:"replication" yaml:"replication"`
	Owner       string    `json:"owner" yaml:"owner"`
	Group       string    `json:"group" yaml:"group"`
	Permission  string    `json:"permission" yaml:"permission"`
}

func newStatusView(st fscat.FileStatus) statusView {
	return statusView{
		Path:        st.Path.String(),
		Type:        entryType(st),
		Length:      st.Length,
		ModTime:     st.ModTime.UTC(),
		BlockSize:   st.BlockSize,
		Replication: st.Replication,
		Owner:       st.Owner,
		Group:       st.Group,
		Permission:  st.Permission.String(),
	}
}

func entryType(st fscat.FileStatus) string {
	if st.IsDir {
		return "directory"
	}
	return "file"
}

func runStat(cmd *cobra.Command, args []string) (err error) {
	switch statFlags.output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid argument %q for \"--output\" flag: must be one of %s",
			statFlags.output, strings.Join(outputFormats, ", "))
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	views := make([]statusView, 0, len(args))
	for _, raw := range args {
		st, err := s.fs.Stat(s.ctx, raw)
		if err != nil {
			return err
		}
		views = append(views, newStatusView(st))
	}

	out := cmd.OutOrStdout()
	switch statFlags.output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	}

	styler := tui.NewStyler(isStyledOutput(out))
	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(out)
		}
		writeStatusText(out, v, styler, statFlags.human)
	}
	return nil
}

// writeStatusText prints one "Key: value" line per field.
func writeStatusText(w io.Writer, v statusView, styler tui.Styler, human bool) {
	size := func(n int64) string {
		if human {
			return humanize.IBytes(uint64(n))
		}
		return strconv.FormatInt(n, 10)
	}

	fields := []struct{ key, value string }{
		{"Path", v.Path},
		{"Type", v.Type},
		{"Length", size(v.Length)},
		{"Modified", v.ModTime.Format(time.RFC3339)},
		{"BlockSize", size(v.BlockSize)},
		{"Replication", strconv.Itoa(int(v.Replication))},
		{"Owner", v.Owner},
		{"Group", v.Group},
		{"Permission", v.Permission},
	}
	for _, f := range fields {
		key := fmt.Sprintf("%-12s", f.key+":")
		fmt.Fprintf(w, "%s %s\n", styler.Render(tui.KeyStyle, key), f.value)
	}
}

// isStyledOutput reports whether w is a terminal that accepts styling.
func isStyledOutput(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return tui.IsStyled(f)
}
