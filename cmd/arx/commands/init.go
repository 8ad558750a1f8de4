package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/arx/internal/config"
	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/paths"
	"github.com/thoreinstein/arx/pkg/fileutil"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing configuration")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize arx configuration",
	Long: `Bootstrap arx configuration with sensible defaults.

Creates the config file, the default archive directory, and an empty
task file for the scheduler if one does not exist yet.`,
	Example: `  arx init

  # Overwrite an existing config
  arx init --force`,
	RunE: runInit,
}

func runInit(_ *cobra.Command, _ []string) error {
	configPath := filepath.Join(paths.ConfigDir(), "config.yaml")

	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Printf("Configuration already exists at %s\n", configPath)
		fmt.Println("Use --force to overwrite")
		return nil
	}

	if err := paths.EnsureDir(paths.ConfigDir(), paths.DefaultDirPerm); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := paths.EnsureDir(paths.DefaultArchiveDir(), paths.DefaultDirPerm); err != nil {
		return errors.Wrap(err, "creating archive directory")
	}

	defaults := config.Config{
		Version:         1,
		Algorithm:       config.DefaultAlgorithm,
		KeepCount:       config.DefaultKeepCount,
		DebounceSeconds: config.DefaultDebounceSeconds,
		ArchiveDir:      paths.DefaultArchiveDir(),
	}
	if err := fileutil.AtomicWriteYAML(configPath, &defaults); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	fmt.Printf("Created %s\n", configPath)

	taskPath := paths.TaskFile()
	if _, err := os.Stat(taskPath); os.IsNotExist(err) {
		if err := fileutil.AtomicWriteFile(taskPath, []byte(taskFileTemplate), 0o600); err != nil {
			return errors.Wrap(err, "writing task file")
		}
		fmt.Printf("Created %s\n", taskPath)
	}

	return nil
}

// taskFileTemplate seeds the scheduler task file with a commented example.
const taskFileTemplate = `# arx scheduler tasks. Run them with: arx schedule
#
# [[task]]
# mode = "interval"          # or "realtime"
# source = "~/documents"
# dest = "~/backups"
# prefix = "docs"
# interval = "1h"            # interval tasks only
# keep = 5                   # archives to retain; 0 uses the config default
# algorithm = "joined"       # huffman, lzss, joined
# filter_suffixes = [".md"]
# filter_keywords = ["draft"]
# filter_modified_after = "2026-01-01"
`
