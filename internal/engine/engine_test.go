package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/arx/internal/archive"
	"github.com/thoreinstein/arx/internal/compress"
	arxerrors "github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/filter"
	"github.com/thoreinstein/arx/internal/logging"
)

// buildSourceTree lays out a small tree with nested dirs, mode bits, and
// a symlink.
func buildSourceTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(src, "docs", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "readme.txt"), []byte("top level file"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "docs", "guide.txt"),
		[]byte(strings.Repeat("repetitive content ", 500)), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "docs", "nested", "script.sh"),
		[]byte("#!/bin/sh\necho hi\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "empty.dat"), nil, 0o644))
	require.NoError(t, os.Symlink("readme.txt", filepath.Join(src, "link")))

	return src
}

// assertTreesEqual compares relative paths, contents, modes, and symlink
// targets of two trees.
func assertTreesEqual(t *testing.T, want, got string) {
	t.Helper()

	collect := func(root string) map[string]string {
		out := map[string]string{}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			require.NoError(t, err)
			if path == root {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			require.NoError(t, err)

			info, err := os.Lstat(path)
			require.NoError(t, err)

			switch {
			case d.IsDir():
				out[rel] = "dir:" + info.Mode().Perm().String()
			case info.Mode()&os.ModeSymlink != 0:
				target, err := os.Readlink(path)
				require.NoError(t, err)
				out[rel] = "link:" + target
			default:
				content, err := os.ReadFile(path)
				require.NoError(t, err)
				out[rel] = "file:" + info.Mode().Perm().String() + ":" + string(content)
			}
			return nil
		})
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, collect(want), collect(got))
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	for _, algo := range []compress.Algorithm{compress.Huffman, compress.LZSS, compress.Joined} {
		for _, password := range []string{"", "secret"} {
			name := algo.String()
			if password != "" {
				name += "/encrypted"
			}
			t.Run(name, func(t *testing.T) {
				src := buildSourceTree(t)
				dst := filepath.Join(t.TempDir(), "out"+archive.Suffix)
				restored := t.TempDir()

				e := New(
					WithAlgorithm(algo),
					WithPassword(password),
					WithLogger(logging.ForTest(t)),
				)

				require.NoError(t, e.Backup(src, dst))
				require.NoError(t, e.Verify(dst))
				require.NoError(t, e.Restore(dst, restored))

				assertTreesEqual(t, src, restored)

				// No staging leftovers
				children, err := os.ReadDir(restored)
				require.NoError(t, err)
				for _, c := range children {
					assert.False(t, strings.HasPrefix(c.Name(), ".arx-restore-"), c.Name())
				}
			})
		}
	}
}

func TestBackup_SingleFileSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "only.txt")
	require.NoError(t, os.WriteFile(src, []byte("one file"), 0o640))

	dst := filepath.Join(t.TempDir(), "single"+archive.Suffix)
	restored := t.TempDir()

	e := New(WithLogger(logging.ForTest(t)))
	require.NoError(t, e.Backup(src, dst))
	require.NoError(t, e.Restore(dst, restored))

	content, err := os.ReadFile(filepath.Join(restored, "only.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one file"), content)

	info, err := os.Stat(filepath.Join(restored, "only.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestBackup_MissingSource(t *testing.T) {
	e := New(WithLogger(logging.ForTest(t)))
	err := e.Backup(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "x"+archive.Suffix))
	assert.True(t, arxerrors.Is(err, arxerrors.ErrInvalidPath))
}

func TestBackup_InvalidFilter(t *testing.T) {
	e := New(
		WithFilter(filter.Options{Enabled: true, NameRegex: "["}),
		WithLogger(logging.ForTest(t)),
	)
	err := e.Backup(t.TempDir(), filepath.Join(t.TempDir(), "x"+archive.Suffix))
	assert.True(t, arxerrors.Is(err, arxerrors.ErrInvalidFilter))
}

func TestBackup_FilterSelectsFiles(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "keep.txt"), []byte("keep"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "drop.jpg"), []byte("drop"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "also.txt"), []byte("also keep"), 0o644))

	dst := filepath.Join(t.TempDir(), "filtered"+archive.Suffix)
	restored := t.TempDir()

	e := New(
		WithFilter(filter.Options{Enabled: true, Suffixes: []string{".txt"}}),
		WithLogger(logging.ForTest(t)),
	)
	require.NoError(t, e.Backup(src, dst))
	require.NoError(t, e.Restore(dst, restored))

	assert.FileExists(t, filepath.Join(restored, "keep.txt"))
	assert.FileExists(t, filepath.Join(restored, "sub", "also.txt"))
	assert.NoFileExists(t, filepath.Join(restored, "drop.jpg"))
	// Directory structure survives filtering
	assert.DirExists(t, filepath.Join(restored, "sub"))
}

func TestVerify_TamperedArchive(t *testing.T) {
	src := buildSourceTree(t)
	dst := filepath.Join(t.TempDir(), "v"+archive.Suffix)

	e := New(WithLogger(logging.ForTest(t)))
	require.NoError(t, e.Backup(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	data[len(data)/2] ^= 0x01
	require.NoError(t, os.WriteFile(dst, data, 0o644))

	err = e.Verify(dst)
	require.Error(t, err)
	assert.True(t,
		arxerrors.Is(err, arxerrors.ErrAuthenticationFailed) || arxerrors.Is(err, arxerrors.ErrCorruptArchive),
		"got %v", err)
}

func TestRestore_WrongPassword(t *testing.T) {
	src := buildSourceTree(t)
	dst := filepath.Join(t.TempDir(), "p"+archive.Suffix)

	e := New(WithPassword("secret"), WithLogger(logging.ForTest(t)))
	require.NoError(t, e.Backup(src, dst))

	restored := t.TempDir()
	e.SetPassword("wrong")
	err := e.Restore(dst, restored)
	assert.True(t, arxerrors.Is(err, arxerrors.ErrAuthenticationFailed))

	// Failure leaves no partial tree
	children, readErr := os.ReadDir(restored)
	require.NoError(t, readErr)
	assert.Empty(t, children)

	// The right password still works afterwards
	e.SetPassword("secret")
	require.NoError(t, e.Restore(dst, restored))
}

func TestRestore_FailureLeavesNoPartialTree(t *testing.T) {
	// An archive whose manifest passes authentication but whose payload is
	// short for the declared sizes aborts mid-materialize.
	dst := filepath.Join(t.TempDir(), "broken"+archive.Suffix)
	entries := []archive.Entry{
		{Kind: archive.KindFile, Path: "a.txt", Size: 4, Mode: 0o644},
	}
	// Checksum left zeroed: materialize must reject the entry.
	require.NoError(t, archive.Write(dst, compress.Huffman, "", entries, []byte("abcd")))

	restored := t.TempDir()
	e := New(WithLogger(logging.ForTest(t)))
	err := e.Restore(dst, restored)
	require.Error(t, err)

	children, readErr := os.ReadDir(restored)
	require.NoError(t, readErr)
	assert.Empty(t, children, "failed restore must leave destination untouched")
}

func TestRestore_ReplacesExistingEntries(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "f.txt"), []byte("new content"), 0o644))

	dst := filepath.Join(t.TempDir(), "r"+archive.Suffix)
	e := New(WithLogger(logging.ForTest(t)))
	require.NoError(t, e.Backup(src, dst))

	restored := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(restored, "f.txt"), []byte("old content"), 0o644))

	require.NoError(t, e.Restore(dst, restored))
	content, err := os.ReadFile(filepath.Join(restored, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new content"), content)
}

func TestSetters_AffectSubsequentCallsOnly(t *testing.T) {
	src := buildSourceTree(t)
	e := New(WithLogger(logging.ForTest(t)))

	dstPlain := filepath.Join(t.TempDir(), "plain"+archive.Suffix)
	require.NoError(t, e.Backup(src, dstPlain))

	e.SetPassword("secret")
	e.SetCompressionAlgorithm(compress.Joined)
	dstSealed := filepath.Join(t.TempDir(), "sealed"+archive.Suffix)
	require.NoError(t, e.Backup(src, dstSealed))

	// The earlier archive is still readable without a password.
	plain := New(WithLogger(logging.ForTest(t)))
	require.NoError(t, plain.Verify(dstPlain))
	assert.Error(t, plain.Verify(dstSealed))
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{path: "a/b/c.txt"},
		{path: "plain.txt"},
		{path: "", wantErr: true},
		{path: "/etc/passwd", wantErr: true},
		{path: "../escape", wantErr: true},
		{path: "a/../../escape", wantErr: true},
	}
	for _, tt := range tests {
		_, err := sanitizePath(tt.path)
		if tt.wantErr {
			assert.Error(t, err, "path %q", tt.path)
		} else {
			assert.NoError(t, err, "path %q", tt.path)
		}
	}
}
