// Package paths resolves the file system locations arx uses: the XDG
// config directory for config.yaml and tasks.toml, and the XDG data
// directory for the default archive destination.
package paths
