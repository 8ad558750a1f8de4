package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "with underlying error",
			err:  NewExitError(ErrTaskNotFound, ExitUser),
			want: "task not found",
		},
		{
			name: "with wrapped error",
			err:  NewExitError(fmt.Errorf("reading archive: %w", ErrUnsupportedFormat), ExitUser),
			want: "reading archive: unsupported archive format",
		},
		{
			name: "nil underlying error",
			err:  NewExitError(nil, ExitUser),
			want: "exit code 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	err := NewUserError(ErrAuthenticationFailed, "check the password")

	assert.True(t, errors.Is(err, ErrAuthenticationFailed))

	var exitErr *ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitUser, exitErr.Code)
	assert.Equal(t, "check the password", exitErr.Suggestion)
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrInvalidPath,
		ErrPermissionDenied,
		ErrInvalidFilter,
		ErrUnsupportedFormat,
		ErrAuthenticationFailed,
		ErrCorruptArchive,
		ErrAlreadyRunning,
		ErrTaskNotFound,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrapf(ErrCorruptArchive, "entry %d", 3)
	assert.True(t, Is(err, ErrCorruptArchive))
	assert.Contains(t, err.Error(), "entry 3")
}
