// Package errors provides error handling conventions for the arx CLI.
//
// This package defines sentinel errors for the failure kinds the backup
// engine and scheduler surface, an ExitError type for CLI exit code
// handling, and thin re-exports of the cockroachdb/errors constructors so
// that packages need a single errors import.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [errors.Is]:
//
//	if errors.Is(err, arxerrors.ErrAuthenticationFailed) {
//	    // wrong password or tampered archive
//	}
//
// # Exit Codes
//
// The package defines standard exit codes for CLI applications:
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, wrong password, etc.)
//   - ExitSystem (2): System-related error (I/O, permissions, etc.)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion. It supports error unwrapping via [errors.Unwrap] and
// [errors.As]:
//
//	err := arxerrors.NewUserError(arxerrors.ErrInvalidFilter, "Check the --name-regex flag")
//	var exitErr *arxerrors.ExitError
//	if errors.As(err, &exitErr) {
//	    os.Exit(exitErr.Code)
//	}
package errors
