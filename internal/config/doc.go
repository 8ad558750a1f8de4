// Package config provides configuration management for the arx CLI.
//
// This package handles loading and validating the arx tool's own
// configuration file. Scheduler task definitions live in a separate
// tasks.toml file and are not handled here.
//
// # Configuration File
//
// The default configuration file location is <XDG config>/arx/config.yaml:
//
//	version: 1
//	algorithm: huffman      # huffman, lzss, joined
//	keep_count: 5           # archives retained per prefix
//	debounce_seconds: 2     # realtime task quiet period
//	archive_dir: ~/backups  # optional, defaults to XDG data dir
//
// Values can be overridden with ARX_* environment variables.
//
// # Loading Configuration
//
//	config.Init()
//	cfg, err := config.Load("")
//
// Load with an explicit path fails if the file does not exist; with an
// empty path it falls back to defaults.
package config
