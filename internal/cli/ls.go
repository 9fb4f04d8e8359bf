package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vvka-141/fscat/internal/tui"
	"github.com/vvka-141/fscat/pkg/fscat"
)

var lsFlags struct {
	human bool
}

var lsCmd = &cobra.Command{
	Use:   "ls <path>",
	Short: "List a directory",
	Long: `List the entries of a directory, one line per entry:

  permissions replication owner group length date time path

Directories show "-" for replication. Listing a file prints the file itself.`,
	Example: `  fscat ls /var/log
  fscat ls -H s3://bucket/logs`,
	Args: RequirePath,
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVarP(&lsFlags.human, "human", "H", false, "Print sizes in human-readable units")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	target, err := s.fs.Stat(s.ctx, args[0])
	if err != nil {
		return err
	}
	entries, err := s.fs.List(s.ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	styler := tui.NewStyler(isStyledOutput(out))
	if target.IsDir {
		fmt.Fprintln(out, styler.Render(tui.MutedStyle, fmt.Sprintf("Found %d items", len(entries))))
	}
	writeListing(out, entries, styler, lsFlags.human)
	return nil
}

// listingRow holds the rendered columns of one entry.
type listingRow struct {
	perm, repl, owner, group, size, modified, path string
	isDir                                          bool
}

// writeListing prints entries with columns padded to the widest value.
func writeListing(w io.Writer, entries []fscat.FileStatus, styler tui.Styler, human bool) {
	rows := make([]listingRow, 0, len(entries))
	var replW, ownerW, groupW, sizeW int
	for _, st := range entries {
		r := listingRow{
			perm:     modeString(st),
			repl:     "-",
			owner:    st.Owner,
			group:    st.Group,
			size:     strconv.FormatInt(st.Length, 10),
			modified: st.ModTime.Local().Format("2006-01-02 15:04"),
			path:     st.Path.String(),
			isDir:    st.IsDir,
		}
		if !st.IsDir {
			r.repl = strconv.Itoa(int(st.Replication))
		}
		if human {
			r.size = humanize.IBytes(uint64(st.Length))
		}
		replW = max(replW, len(r.repl))
		ownerW = max(ownerW, len(r.owner))
		groupW = max(groupW, len(r.group))
		sizeW = max(sizeW, len(r.size))
		rows = append(rows, r)
	}

	for _, r := range rows {
		name := r.path
		if r.isDir {
			name = styler.Render(tui.DirStyle, name)
		}
		fmt.Fprintf(w, "%s %*s %-*s %-*s %*s %s %s\n",
			r.perm, replW+2, r.repl, ownerW, r.owner, groupW, r.group, sizeW, r.size, r.modified, name)
	}
}

// modeString renders the type character followed by the permission bits.
func modeString(st fscat.FileStatus) string {
	if st.IsDir {
		return "d" + st.Permission.String()
	}
	return "-" + st.Permission.String()
}
