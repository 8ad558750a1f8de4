package retention

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/thoreinstein/arx/internal/archive"
	"github.com/thoreinstein/arx/internal/errors"
)

// TimestampLayout is the timestamp embedded in archive file names:
// <prefix>-<timestamp><suffix>, e.g. nightly-20260825T031500.arx.
const TimestampLayout = "20060102T150405"

// Info describes one archive found in a destination directory.
type Info struct {
	// Name is the bare file name.
	Name string

	// Path is the full path.
	Path string

	// Timestamp is the creation time parsed from the name.
	Timestamp time.Time

	// Size is the archive file size in bytes.
	Size int64
}

// ArchiveName builds the file name for a new archive with the given prefix
// at time now, with an optional numeric suffix to dodge same-second
// collisions (seq 0 means none).
func ArchiveName(prefix string, now time.Time, seq int) string {
	name := prefix + "-" + now.Format(TimestampLayout)
	if seq > 0 {
		name += "-" + itoa(seq)
	}
	return name + archive.Suffix
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [8]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

// List returns the archives in dir whose names carry the given prefix and
// a parseable timestamp, newest first. Timestamp ties break by lexical
// file name order for determinism.
func List(dir, prefix string) ([]Info, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(errors.ErrInvalidPath, "listing %s: %v", dir, err)
	}

	var infos []Info
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		name := d.Name()
		ts, ok := parseName(name, prefix)
		if !ok {
			continue
		}
		fi, err := d.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Name:      name,
			Path:      filepath.Join(dir, name),
			Timestamp: ts,
			Size:      fi.Size(),
		})
	}

	slices.SortFunc(infos, func(a, b Info) int {
		if !a.Timestamp.Equal(b.Timestamp) {
			if a.Timestamp.After(b.Timestamp) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return infos, nil
}

// Prune deletes all but the keep newest archives with the given prefix in
// dir. keep <= 0 disables pruning.
func Prune(dir, prefix string, keep int) error {
	if keep <= 0 {
		return nil
	}

	infos, err := List(dir, prefix)
	if err != nil {
		return err
	}

	for i := keep; i < len(infos); i++ {
		if err := os.Remove(infos[i].Path); err != nil {
			return errors.Wrapf(err, "pruning %s", infos[i].Name)
		}
	}
	return nil
}

// parseName extracts the timestamp from <prefix>-<ts>[-seq]<suffix>.
// An empty prefix matches archives regardless of their prefix.
func parseName(name, prefix string) (time.Time, bool) {
	if !strings.HasSuffix(name, archive.Suffix) {
		return time.Time{}, false
	}
	core := strings.TrimSuffix(name, archive.Suffix)

	if prefix != "" {
		if !strings.HasPrefix(core, prefix+"-") {
			return time.Time{}, false
		}
		rest := strings.TrimPrefix(core, prefix+"-")
		// Drop a collision sequence suffix if present.
		if i := strings.IndexByte(rest, '-'); i >= 0 {
			rest = rest[:i]
		}
		ts, err := time.ParseInLocation(TimestampLayout, rest, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}

	// Unknown prefix, which may itself contain dashes. The timestamp is
	// either the last dash-separated token or, when a collision sequence
	// trails it, the one before that.
	parts := strings.Split(core, "-")
	for i := len(parts) - 1; i >= 1 && i >= len(parts)-2; i-- {
		ts, err := time.ParseInLocation(TimestampLayout, parts[i], time.Local)
		if err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
