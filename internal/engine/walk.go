package engine

import (
	"crypto/sha256"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/thoreinstein/arx/internal/archive"
	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/filter"
)

// walkTree collects manifest entries and the concatenated payload for the
// tree rooted at src. Manifest order is the lexical directory-walk order
// of filepath.WalkDir, which also fixes the payload byte order. A regular
// file src is returned as a one-entry tree.
func walkTree(src string, f *filter.Filter) ([]archive.Entry, []byte, error) {
	info, err := os.Lstat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrapf(errors.ErrInvalidPath, "source %s", src)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.Wrapf(errors.ErrPermissionDenied, "source %s", src)
		}
		return nil, nil, errors.Wrapf(err, "stat %s", src)
	}

	if !info.IsDir() {
		return walkSingle(src, info, f)
	}

	var entries []archive.Entry
	var payload []byte

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return errors.Wrapf(errors.ErrPermissionDenied, "walking %s", path)
			}
			return err
		}
		if path == src {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Wrapf(err, "relativizing %s", path)
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return errors.Wrapf(err, "stat %s", path)
			}
			entries = append(entries, archive.Entry{
				Kind: archive.KindDir,
				Path: rel,
				Mode: info.Mode().Perm(),
			})

		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return errors.Wrapf(err, "reading symlink %s", path)
			}
			entries = append(entries, archive.Entry{
				Kind:       archive.KindSymlink,
				Path:       rel,
				Mode:       0o777,
				LinkTarget: target,
			})

		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return errors.Wrapf(err, "stat %s", path)
			}
			if !f.Matches(rel, uint64(info.Size()), info.ModTime()) {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				if os.IsPermission(err) {
					return errors.Wrapf(errors.ErrPermissionDenied, "reading %s", path)
				}
				return errors.Wrapf(err, "reading %s", path)
			}
			entries = append(entries, archive.Entry{
				Kind:     archive.KindFile,
				Path:     rel,
				Size:     uint64(len(content)),
				Mode:     info.Mode().Perm(),
				Checksum: sha256.Sum256(content),
			})
			payload = append(payload, content...)

		default:
			// Sockets, devices, pipes: not archivable, skip.
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return entries, payload, nil
}

// walkSingle treats a non-directory source as a one-entry tree.
func walkSingle(src string, info fs.FileInfo, f *filter.Filter) ([]archive.Entry, []byte, error) {
	name := filepath.Base(src)

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading symlink %s", src)
		}
		return []archive.Entry{{
			Kind:       archive.KindSymlink,
			Path:       name,
			Mode:       0o777,
			LinkTarget: target,
		}}, nil, nil
	}

	if !info.Mode().IsRegular() {
		return nil, nil, errors.Wrapf(errors.ErrInvalidPath, "source %s is not a regular file or directory", src)
	}

	if !f.Matches(name, uint64(info.Size()), info.ModTime()) {
		return nil, nil, nil
	}

	content, err := os.ReadFile(src)
	if err != nil {
		if os.IsPermission(err) {
			return nil, nil, errors.Wrapf(errors.ErrPermissionDenied, "reading %s", src)
		}
		return nil, nil, errors.Wrapf(err, "reading %s", src)
	}

	return []archive.Entry{{
		Kind:     archive.KindFile,
		Path:     name,
		Size:     uint64(len(content)),
		Mode:     info.Mode().Perm(),
		Checksum: sha256.Sum256(content),
	}}, content, nil
}
