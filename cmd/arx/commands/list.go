package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/arx/internal/paths"
	"github.com/thoreinstein/arx/internal/retention"
)

var (
	listPrefix string
	listJSON   bool
)

func init() {
	listCmd.Flags().StringVar(&listPrefix, "prefix", "",
		"only show archives with this prefix")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [DIRECTORY]",
	Short: "List archives in a destination directory",
	Long: `List the archives in DIRECTORY, newest first. Without an argument
the configured archive directory is used.

Only files following the scheduler naming convention
(prefix-TIMESTAMP.arx) are shown; the timestamp in the name orders the
listing.`,
	Example: `  # List everything in the default archive directory
  arx list

  # Scheduled backups for one task prefix
  arx list /backups --prefix notes

  # Output as JSON
  arx list --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

// archiveOutput represents a single archive in JSON output.
type archiveOutput struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

func runList(_ *cobra.Command, args []string) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}
	return runListWithWriter(os.Stdout, dir)
}

func runListWithWriter(w io.Writer, dir string) error {
	if dir == "" {
		if cfg != nil && cfg.ArchiveDir != "" {
			dir = paths.ExpandHome(cfg.ArchiveDir)
		} else {
			dir = paths.DefaultArchiveDir()
		}
	}

	infos, err := retention.List(dir, listPrefix)
	if err != nil {
		return err
	}

	if listJSON {
		output := make([]archiveOutput, len(infos))
		for i, in := range infos {
			output[i] = archiveOutput{
				Name:      in.Name,
				Path:      in.Path,
				CreatedAt: in.Timestamp,
				Size:      in.Size,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	fmt.Fprintf(w, "%sArchives in %s%s\n", colorCyan+colorBold, dir, colorReset)

	if len(infos) == 0 {
		fmt.Fprintf(w, "  %s(no archives found)%s\n", colorGray, colorReset)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %sNAME%s\t%sCREATED%s\t%sSIZE%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)
	for _, in := range infos {
		fmt.Fprintf(tw, "  %s%s%s\t%s\t%s\n",
			colorGreen, in.Name, colorReset,
			in.Timestamp.Local().Format("2006-01-02 15:04:05"),
			humanSize(in.Size))
	}
	return tw.Flush()
}
