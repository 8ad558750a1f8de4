// Package logging provides structured logging for arx built on log/slog.
//
// The package offers a TTY-optimized text handler with color support, a
// JSON handler for machine consumption, and a multi-handler that fans a
// record out to several destinations (stderr plus --log-file).
//
// The backup engine and scheduler take a *slog.Logger rather than logging
// through a global, so tests can capture their output with [ForTest] and
// the CLI can route it per the user's flags.
//
// Attribute values under sensitive keys (password, passphrase, key) are
// masked before they reach any output.
package logging
