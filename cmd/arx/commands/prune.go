package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/paths"
	"github.com/thoreinstein/arx/internal/retention"
)

var (
	prunePrefix string
	pruneKeep   int
	pruneDryRun bool
)

func init() {
	pruneCmd.Flags().StringVar(&prunePrefix, "prefix", "",
		"archive name prefix to prune")
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", -1,
		"number of newest archives to keep (default from config)")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false,
		"show what would be deleted without deleting")
	_ = pruneCmd.MarkFlagRequired("prefix")
	rootCmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune [DIRECTORY]",
	Short: "Delete old archives beyond the retention count",
	Long: `Delete archives with the given prefix in DIRECTORY, keeping only
the newest --keep of them. Without an argument the configured archive
directory is used.

Archives are ordered by the timestamp in their file name. Files that do
not follow the naming convention are never touched. A keep count of
zero or less disables pruning entirely.`,
	Example: `  # Keep the five newest "notes" archives
  arx prune /backups --prefix notes --keep 5

  # See what would go first
  arx prune /backups --prefix notes --keep 5 --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrune,
}

func runPrune(_ *cobra.Command, args []string) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}
	return runPruneWithWriter(os.Stdout, dir)
}

func runPruneWithWriter(w io.Writer, dir string) error {
	if dir == "" {
		if cfg != nil && cfg.ArchiveDir != "" {
			dir = paths.ExpandHome(cfg.ArchiveDir)
		} else {
			dir = paths.DefaultArchiveDir()
		}
	}

	keep := pruneKeep
	if keep < 0 {
		if cfg == nil {
			return errors.NewUserError(nil, "pass --keep when no config file is present")
		}
		keep = cfg.KeepCount
	}

	infos, err := retention.List(dir, prunePrefix)
	if err != nil {
		return err
	}

	if keep <= 0 || len(infos) <= keep {
		fmt.Fprintf(w, "Nothing to prune (%d archives, keeping %d)\n", len(infos), keep)
		return nil
	}

	doomed := infos[keep:]
	if pruneDryRun {
		for _, in := range doomed {
			fmt.Fprintf(w, "%swould delete %s%s\n", colorYellow, in.Path, colorReset)
		}
		return nil
	}

	if err := retention.Prune(dir, prunePrefix, keep); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s✓ pruned %d archive(s), kept %d%s\n",
		colorGreen, len(doomed), keep, colorReset)
	return nil
}
