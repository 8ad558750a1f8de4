package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/arx/internal/engine"
	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/logging"
	"github.com/thoreinstein/arx/internal/paths"
	"github.com/thoreinstein/arx/internal/retention"
)

var (
	restorePassword    string
	restoreAskPassword bool
	restorePick        bool
	restorePickDir     string
	restorePickPrefix  string
)

func init() {
	restoreCmd.Flags().StringVar(&restorePassword, "password", "",
		"password for an encrypted archive")
	restoreCmd.Flags().BoolVar(&restoreAskPassword, "ask-password", false,
		"prompt for the password on the terminal")
	restoreCmd.Flags().BoolVar(&restorePick, "pick", false,
		"pick the archive interactively from the archive directory")
	restoreCmd.Flags().StringVar(&restorePickDir, "dir", "",
		"directory to pick archives from (default from config)")
	restoreCmd.Flags().StringVar(&restorePickPrefix, "prefix", "",
		"limit interactive pick to archives with this prefix")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [ARCHIVE] DESTINATION",
	Short: "Restore an archive into a directory",
	Long: `Restore the contents of ARCHIVE under DESTINATION, recreating the
directory structure, file modes, and symlinks recorded at backup time.

The archive is authenticated and every file checksum verified before
anything is written; a wrong password or a tampered archive leaves
DESTINATION untouched. Extraction is staged so a failure part-way
through never leaves a half-restored tree behind.

With --pick the archive argument is omitted and chosen interactively
from the archive directory instead.`,
	Example: `  arx restore /backups/notes.arx /tmp/notes

  # Encrypted archive
  arx restore /backups/notes.arx /tmp/notes --ask-password

  # Choose interactively among scheduled backups
  arx restore /tmp/notes --pick --prefix notes`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	return runRestoreWithWriter(cmd, os.Stdout, args)
}

func runRestoreWithWriter(cmd *cobra.Command, w io.Writer, args []string) error {
	var src, dst string
	switch {
	case restorePick:
		if len(args) != 1 {
			return errors.NewUserError(nil, "with --pick, pass only the destination")
		}
		picked, err := pickArchive(w)
		if err != nil || picked == "" {
			return err
		}
		src, dst = picked, args[0]
	case len(args) == 2:
		src, dst = args[0], args[1]
	default:
		return errors.NewUserError(nil, "pass ARCHIVE and DESTINATION, or use --pick")
	}

	password, err := resolvePassword(restorePassword, restoreAskPassword)
	if err != nil {
		return err
	}

	eng := engine.New(
		engine.WithPassword(password),
		engine.WithLogger(logging.FromContext(cmd.Context())),
	)
	if err := eng.Restore(src, dst); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s✓ restored %s into %s%s\n", colorGreen, src, dst, colorReset)
	return nil
}

// pickArchive runs the interactive finder over the archive directory.
// Returns "" with a nil error when the user aborts.
func pickArchive(w io.Writer) (string, error) {
	dir := restorePickDir
	if dir == "" {
		if cfg != nil && cfg.ArchiveDir != "" {
			dir = paths.ExpandHome(cfg.ArchiveDir)
		} else {
			dir = paths.DefaultArchiveDir()
		}
	}

	infos, err := retention.List(dir, restorePickPrefix)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		fmt.Fprintf(w, "No archives found in %s\n", dir)
		return "", nil
	}

	idx, err := fuzzyfinder.Find(
		infos,
		func(i int) string {
			return infos[i].Name
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			in := infos[i]
			return fmt.Sprintf("Archive: %s\nCreated: %s\nSize:    %s",
				in.Name,
				in.Timestamp.Local().Format("2006-01-02 15:04:05"),
				humanSize(in.Size),
			)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", nil
		}
		return "", errors.Wrap(err, "interactive archive selection failed")
	}
	return infos[idx].Path, nil
}
