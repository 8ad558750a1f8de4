package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/arx/internal/logging"
	"github.com/thoreinstein/arx/internal/scheduler"
)

func TestLoadTaskFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[task]]
mode = "interval"
source = "/data/src"
dest = "/data/dst"
prefix = "docs"
interval = "15m"
keep = 3
algorithm = "lzss"
filter_suffixes = [".md", ".txt"]
filter_keywords = ["draft"]
filter_modified_after = "2026-01-01"

[[task]]
mode = "realtime"
source = "/data/watch"
dest = "/data/dst"
prefix = "live"
`), 0o600))

	defs, err := loadTaskFile(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "interval", defs[0].Mode)
	assert.Equal(t, "docs", defs[0].Prefix)
	assert.Equal(t, "15m", defs[0].Interval)
	assert.Equal(t, 3, defs[0].Keep)
	assert.Equal(t, "lzss", defs[0].Algorithm)
	assert.Equal(t, []string{".md", ".txt"}, defs[0].FilterSuffixes)
	assert.Equal(t, []string{"draft"}, defs[0].FilterKeywords)
	assert.Equal(t, "2026-01-01", defs[0].FilterModifiedAfter)

	assert.Equal(t, "realtime", defs[1].Mode)
	assert.Empty(t, defs[1].Interval)
}

func TestLoadTaskFile_Missing(t *testing.T) {
	_, err := loadTaskFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadTaskFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[task]\nmode="), 0o600))

	_, err := loadTaskFile(path)
	assert.Error(t, err)
}

func TestAddTask_Interval(t *testing.T) {
	s := scheduler.New(scheduler.WithLogger(logging.ForTest(t)))
	src := t.TempDir()

	err := addTask(s, taskDef{
		Mode:     "interval",
		Source:   src,
		Dest:     t.TempDir(),
		Prefix:   "docs",
		Interval: "1h",
		Keep:     2,
	})
	require.NoError(t, err)
	assert.Len(t, s.Tasks(), 1)
}

func TestAddTask_Validation(t *testing.T) {
	s := scheduler.New(scheduler.WithLogger(logging.ForTest(t)))
	src := t.TempDir()

	tests := []struct {
		name string
		def  taskDef
	}{
		{"missing prefix", taskDef{Mode: "interval", Source: src, Dest: t.TempDir(), Interval: "1h"}},
		{"missing interval", taskDef{Mode: "interval", Source: src, Dest: t.TempDir(), Prefix: "x"}},
		{"bad interval", taskDef{Mode: "interval", Source: src, Dest: t.TempDir(), Prefix: "x", Interval: "soon"}},
		{"unknown mode", taskDef{Mode: "cron", Source: src, Dest: t.TempDir(), Prefix: "x"}},
		{"bad algorithm", taskDef{Mode: "interval", Source: src, Dest: t.TempDir(), Prefix: "x", Interval: "1h", Algorithm: "zip"}},
		{"bad filter regex", taskDef{Mode: "interval", Source: src, Dest: t.TempDir(), Prefix: "x", Interval: "1h", FilterRegex: "["}},
		{"bad filter time", taskDef{Mode: "interval", Source: src, Dest: t.TempDir(), Prefix: "x", Interval: "1h", FilterModifiedAfter: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, addTask(s, tt.def))
		})
	}
}

func TestAddTask_EncryptedWithOptions(t *testing.T) {
	s := scheduler.New(scheduler.WithLogger(logging.ForTest(t)))

	err := addTask(s, taskDef{
		Mode:      "interval",
		Source:    t.TempDir(),
		Dest:      t.TempDir(),
		Prefix:    "sec",
		Interval:  "30m",
		Algorithm: "joined",
		Password:  "hunter2",
	})
	require.NoError(t, err)

	infos := s.Tasks()
	require.Len(t, infos, 1)
	assert.True(t, infos[0].Encrypted)
}
