package engine

import (
	"crypto/sha256"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/arx/internal/archive"
	"github.com/thoreinstein/arx/internal/errors"
)

// materialize writes the archived tree into the staging directory.
// Directories are created permissive and their modes applied last, so a
// read-only directory cannot block its own children.
func materialize(stage string, entries []archive.Entry, payload []byte) error {
	type dirMode struct {
		path string
		mode fs.FileMode
	}
	var dirModes []dirMode

	var offset uint64
	for i := range entries {
		ent := &entries[i]

		rel, err := sanitizePath(ent.Path)
		if err != nil {
			return err
		}
		target := filepath.Join(stage, rel)

		switch ent.Kind {
		case archive.KindDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "creating directory %s", ent.Path)
			}
			dirModes = append(dirModes, dirMode{path: target, mode: ent.Mode.Perm()})

		case archive.KindSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "creating parent for %s", ent.Path)
			}
			if err := os.Symlink(ent.LinkTarget, target); err != nil {
				return errors.Wrapf(err, "creating symlink %s", ent.Path)
			}

		case archive.KindFile:
			if offset+ent.Size > uint64(len(payload)) {
				return errors.Wrapf(errors.ErrCorruptArchive, "payload exhausted at %s", ent.Path)
			}
			content := payload[offset : offset+ent.Size]
			offset += ent.Size

			if sum := sha256.Sum256(content); sum != ent.Checksum {
				return errors.Wrapf(errors.ErrCorruptArchive, "checksum mismatch for %s", ent.Path)
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "creating parent for %s", ent.Path)
			}
			if err := os.WriteFile(target, content, 0o600); err != nil {
				return errors.Wrapf(err, "writing %s", ent.Path)
			}
			if err := os.Chmod(target, ent.Mode.Perm()); err != nil {
				return errors.Wrapf(err, "setting mode on %s", ent.Path)
			}
		}
	}

	// Deepest first so a restrictive parent is tightened after its children.
	for i := len(dirModes) - 1; i >= 0; i-- {
		if err := os.Chmod(dirModes[i].path, dirModes[i].mode); err != nil {
			return errors.Wrapf(err, "setting mode on %s", dirModes[i].path)
		}
	}
	return nil
}

// promote moves the staged tree's top-level entries into dst, replacing
// anything already there under the same names.
func promote(stage, dst string) error {
	children, err := os.ReadDir(stage)
	if err != nil {
		return errors.Wrap(err, "listing staging directory")
	}
	for _, child := range children {
		from := filepath.Join(stage, child.Name())
		to := filepath.Join(dst, child.Name())
		if err := os.RemoveAll(to); err != nil {
			return errors.Wrapf(err, "replacing %s", to)
		}
		if err := os.Rename(from, to); err != nil {
			return errors.Wrapf(err, "moving %s into place", child.Name())
		}
	}
	return nil
}

// sanitizePath rejects manifest paths that would escape the restore root.
func sanitizePath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", errors.Wrapf(errors.ErrCorruptArchive, "manifest path %q", p)
	}
	rel := filepath.FromSlash(p)
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(errors.ErrCorruptArchive, "manifest path %q escapes the restore root", p)
	}
	return clean, nil
}
