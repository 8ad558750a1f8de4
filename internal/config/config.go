// Package config provides configuration management for arx using Viper.
package config

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/thoreinstein/arx/internal/paths"
)

// AppName is the application name used for config file naming.
const AppName = "arx"

// Defaults applied when no config file overrides them.
const (
	DefaultAlgorithm       = "huffman"
	DefaultKeepCount       = 5
	DefaultDebounceSeconds = 2
)

// Config represents the top-level configuration structure.
type Config struct {
	Version int `mapstructure:"version" yaml:"version"`

	// Algorithm is the default compression algorithm: huffman, lzss, joined.
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`

	// KeepCount is the default retention count for scheduled backups.
	KeepCount int `mapstructure:"keep_count" yaml:"keep_count"`

	// DebounceSeconds is the quiet period for realtime tasks before a
	// burst of filesystem events is coalesced into one backup.
	DebounceSeconds int `mapstructure:"debounce_seconds" yaml:"debounce_seconds"`

	// ArchiveDir overrides the default archive destination directory.
	ArchiveDir string `mapstructure:"archive_dir" yaml:"archive_dir"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".") // Current directory
	viper.AddConfigPath(filepath.Join(paths.ConfigHome(), AppName))

	// Environment variable support
	viper.SetEnvPrefix("ARX")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("version", 1)
	viper.SetDefault("algorithm", DefaultAlgorithm)
	viper.SetDefault("keep_count", DefaultKeepCount)
	viper.SetDefault("debounce_seconds", DefaultDebounceSeconds)
	viper.SetDefault("archive_dir", paths.DefaultArchiveDir())
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		// If config file not found...
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// If user specified a path, this is an error
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
			// Otherwise (implicit load), it's fine to use defaults
		} else {
			// Real read error (parsing, permissions, etc)
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	return &cfg, nil
}
