package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, EnsureDir(dir, 0))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(DefaultDirPerm), info.Mode().Perm())

	// Idempotent
	assert.NoError(t, EnsureDir(dir, 0))
}

func TestConfigDir(t *testing.T) {
	assert.True(t, strings.HasSuffix(ConfigDir(), filepath.Join("arx")))
}

func TestDefaultArchiveDir(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultArchiveDir(), filepath.Join("arx", "archives")))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		input string
		want  string
	}{
		{"~", home},
		{"~/backups", filepath.Join(home, "backups")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandHome(tt.input), "input %q", tt.input)
	}
}
