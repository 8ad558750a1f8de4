package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetBackupFlags restores the package-level flag state after a test.
func resetBackupFlags(t *testing.T) {
	t.Helper()
	origAlgo, origPass, origAsk, origFilter := backupAlgorithm, backupPassword, backupAskPassword, backupFilter
	t.Cleanup(func() {
		backupAlgorithm, backupPassword, backupAskPassword, backupFilter = origAlgo, origPass, origAsk, origFilter
	})
}

func writeTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.log"), []byte("beta"), 0o600))
	return src
}

func TestBackupVerifyRestore_RoundTrip(t *testing.T) {
	resetBackupFlags(t)

	src := writeTree(t)
	dst := filepath.Join(t.TempDir(), "tree.arx")

	var out bytes.Buffer
	require.NoError(t, runBackupWithWriter(backupCmd, &out, src, dst))
	assert.Contains(t, out.String(), "backed up")
	assert.FileExists(t, dst)

	out.Reset()
	require.NoError(t, runVerifyWithWriter(verifyCmd, &out, dst))
	assert.Contains(t, out.String(), "archive is valid")

	restored := t.TempDir()
	out.Reset()
	require.NoError(t, runRestoreWithWriter(restoreCmd, &out, []string{dst, restored}))

	got, err := os.ReadFile(filepath.Join(restored, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))
	got, err = os.ReadFile(filepath.Join(restored, "sub", "b.log"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(got))
}

func TestBackup_WithFilter(t *testing.T) {
	resetBackupFlags(t)
	backupFilter.suffixes = []string{".txt"}

	src := writeTree(t)
	dst := filepath.Join(t.TempDir(), "txt-only.arx")

	var out bytes.Buffer
	require.NoError(t, runBackupWithWriter(backupCmd, &out, src, dst))

	restored := t.TempDir()
	require.NoError(t, runRestoreWithWriter(restoreCmd, &out, []string{dst, restored}))

	assert.FileExists(t, filepath.Join(restored, "a.txt"))
	assert.NoFileExists(t, filepath.Join(restored, "sub", "b.log"))
	// Directories always travel with the tree.
	assert.DirExists(t, filepath.Join(restored, "sub"))
}

func TestBackup_BadAlgorithm(t *testing.T) {
	resetBackupFlags(t)
	backupAlgorithm = "zip"

	var out bytes.Buffer
	err := runBackupWithWriter(backupCmd, &out, t.TempDir(), filepath.Join(t.TempDir(), "x.arx"))
	assert.Error(t, err)
}

func TestBackup_MissingSource(t *testing.T) {
	resetBackupFlags(t)

	var out bytes.Buffer
	err := runBackupWithWriter(backupCmd, &out, filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "x.arx"))
	assert.Error(t, err)
}
