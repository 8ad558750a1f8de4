package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644))
}

func TestArchiveName(t *testing.T) {
	now := time.Date(2026, 8, 25, 3, 15, 0, 0, time.Local)
	assert.Equal(t, "nightly-20260825T031500.arx", ArchiveName("nightly", now, 0))
	assert.Equal(t, "nightly-20260825T031500-2.arx", ArchiveName("nightly", now, 2))
}

func TestList_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "job-20260825T010000.arx")
	writeArchive(t, dir, "job-20260825T030000.arx")
	writeArchive(t, dir, "job-20260825T020000.arx")
	// Distractors that must not be listed
	writeArchive(t, dir, "other-20260825T040000.arx")
	writeArchive(t, dir, "job-notatimestamp.arx")
	writeArchive(t, dir, "job-20260825T050000.txt")

	infos, err := List(dir, "job")
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "job-20260825T030000.arx", infos[0].Name)
	assert.Equal(t, "job-20260825T020000.arx", infos[1].Name)
	assert.Equal(t, "job-20260825T010000.arx", infos[2].Name)
}

func TestList_TimestampTieBreaksLexically(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "job-20260825T010000.arx")
	writeArchive(t, dir, "job-20260825T010000-1.arx")

	infos, err := List(dir, "job")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "job-20260825T010000-1.arx", infos[0].Name)
	assert.Equal(t, "job-20260825T010000.arx", infos[1].Name)
}

func TestList_EmptyPrefixMatchesAll(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "job-20260825T010000.arx")
	writeArchive(t, dir, "multi-part-prefix-20260825T020000.arx")
	writeArchive(t, dir, "job-20260825T030000-2.arx")
	writeArchive(t, dir, "job-notatimestamp.arx")

	infos, err := List(dir, "")
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "job-20260825T030000-2.arx", infos[0].Name)
	assert.Equal(t, "multi-part-prefix-20260825T020000.arx", infos[1].Name)
	assert.Equal(t, "job-20260825T010000.arx", infos[2].Name)
}

func TestList_MissingDir(t *testing.T) {
	infos, err := List(filepath.Join(t.TempDir(), "nope"), "job")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestPrune_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"job-20260825T010000.arx",
		"job-20260825T020000.arx",
		"job-20260825T030000.arx",
		"job-20260825T040000.arx",
		"job-20260825T050000.arx",
		"job-20260825T060000.arx",
		"job-20260825T070000.arx",
	}
	for _, n := range names {
		writeArchive(t, dir, n)
	}
	writeArchive(t, dir, "other-20260825T000000.arx")

	require.NoError(t, Prune(dir, "job", 3))

	infos, err := List(dir, "job")
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "job-20260825T070000.arx", infos[0].Name)
	assert.Equal(t, "job-20260825T060000.arx", infos[1].Name)
	assert.Equal(t, "job-20260825T050000.arx", infos[2].Name)

	// Other prefixes are untouched
	assert.FileExists(t, filepath.Join(dir, "other-20260825T000000.arx"))
}

func TestPrune_KeepZeroDisables(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "job-20260825T010000.arx")
	writeArchive(t, dir, "job-20260825T020000.arx")

	require.NoError(t, Prune(dir, "job", 0))

	infos, err := List(dir, "job")
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestPrune_FewerThanKeep(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "job-20260825T010000.arx")

	require.NoError(t, Prune(dir, "job", 5))

	infos, err := List(dir, "job")
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}
