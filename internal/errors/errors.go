package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid input, bad password, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, permissions, etc.).
	ExitSystem = 2
)

// Sentinel errors for the failure kinds the engine and scheduler surface.
var (
	// ErrInvalidPath indicates a source or destination path is missing or inaccessible.
	ErrInvalidPath = errors.New("invalid path")

	// ErrPermissionDenied indicates the operation was rejected by file system permissions.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidFilter indicates a filter could not be compiled (malformed regex).
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrUnsupportedFormat indicates an archive with an unknown magic or version.
	ErrUnsupportedFormat = errors.New("unsupported archive format")

	// ErrAuthenticationFailed indicates a wrong password or a tampered archive.
	// No payload byte is trusted once this is returned.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrCorruptArchive indicates a structurally invalid manifest or payload
	// discovered after the authentication tag validated.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrAlreadyRunning indicates a duplicate trigger for a task that is
	// still executing. Should not surface under correct locking.
	ErrAlreadyRunning = errors.New("task already running")

	// ErrTaskNotFound indicates the scheduler has no task with the given id.
	ErrTaskNotFound = errors.New("task not found")
)

// Re-exports so callers need a single errors import.
var (
	New    = errors.New
	Newf   = errors.Newf
	Wrap   = errors.Wrap
	Wrapf  = errors.Wrapf
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// ExitError wraps an error with an exit code and optional suggestion for CLI use.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}
