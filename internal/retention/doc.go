// Package retention enforces the keep-count policy: after each successful
// backup, archives sharing a file name prefix in a destination directory
// are pruned down to the configured number, newest first by the timestamp
// embedded in the file name.
package retention
