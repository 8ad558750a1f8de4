package archive

import (
	"encoding/binary"
	"io/fs"

	"github.com/thoreinstein/arx/internal/errors"
)

// EntryKind distinguishes manifest entry types. The numeric values are
// part of the archive format.
type EntryKind uint8

const (
	// KindFile is a regular file with payload bytes and a checksum.
	KindFile EntryKind = 0
	// KindDir is a directory; no payload.
	KindDir EntryKind = 1
	// KindSymlink is a symbolic link; the target is stored, not followed.
	KindSymlink EntryKind = 2
)

// ChecksumSize is the length of a per-entry SHA-256 content checksum.
const ChecksumSize = 32

// Entry describes one node of the backed-up tree. Entries appear in the
// manifest in directory-walk order; file payload bytes are concatenated in
// the same order.
type Entry struct {
	// Kind is the entry type.
	Kind EntryKind

	// Path is the posix-style path relative to the source root.
	Path string

	// Size is the original file size in bytes. Zero for directories and
	// symlinks.
	Size uint64

	// Mode holds the permission bits to restore.
	Mode fs.FileMode

	// LinkTarget is the symlink target. Empty unless Kind is KindSymlink.
	LinkTarget string

	// Checksum is the SHA-256 of the file content. Zero unless Kind is
	// KindFile.
	Checksum [ChecksumSize]byte
}

// maxPathLen bounds manifest path and link target strings. Anything longer
// is structurally invalid, not a real path.
const maxPathLen = 64 * 1024

// encodeManifest serializes entries into the manifest block.
func encodeManifest(entries []Entry) []byte {
	out := binary.AppendUvarint(nil, uint64(len(entries)))
	for i := range entries {
		e := &entries[i]
		out = append(out, byte(e.Kind))
		out = binary.AppendUvarint(out, uint64(len(e.Path)))
		out = append(out, e.Path...)
		out = binary.AppendUvarint(out, e.Size)
		out = binary.AppendUvarint(out, uint64(e.Mode))
		switch e.Kind {
		case KindSymlink:
			out = binary.AppendUvarint(out, uint64(len(e.LinkTarget)))
			out = append(out, e.LinkTarget...)
		case KindFile:
			out = append(out, e.Checksum[:]...)
		}
	}
	return out
}

// decodeManifest parses a manifest block. It never allocates more than the
// block itself can describe: every string length is checked against the
// remaining bytes before use.
func decodeManifest(data []byte) ([]Entry, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, errors.Wrap(errors.ErrCorruptArchive, "manifest count")
	}
	data = data[n:]

	// An entry costs at least 4 bytes encoded; a count claiming more
	// entries than the block could hold is corrupt.
	if count > uint64(len(data))/4+1 {
		return nil, errors.Wrap(errors.ErrCorruptArchive, "manifest count exceeds block size")
	}

	readString := func(what string) (string, error) {
		l, n := binary.Uvarint(data)
		if n <= 0 || l > maxPathLen || l > uint64(len(data)-n) {
			return "", errors.Wrapf(errors.ErrCorruptArchive, "manifest %s length", what)
		}
		s := string(data[n : n+int(l)])
		data = data[n+int(l):]
		return s, nil
	}
	readUvarint := func(what string) (uint64, error) {
		v, n := binary.Uvarint(data)
		if n <= 0 {
			return 0, errors.Wrapf(errors.ErrCorruptArchive, "manifest %s", what)
		}
		data = data[n:]
		return v, nil
	}

	entries := make([]Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		var e Entry

		if len(data) < 1 {
			return nil, errors.Wrap(errors.ErrCorruptArchive, "manifest entry kind")
		}
		e.Kind = EntryKind(data[0])
		data = data[1:]
		if e.Kind > KindSymlink {
			return nil, errors.Wrapf(errors.ErrCorruptArchive, "manifest entry kind %d", e.Kind)
		}

		var err error
		if e.Path, err = readString("path"); err != nil {
			return nil, err
		}
		if e.Size, err = readUvarint("size"); err != nil {
			return nil, err
		}
		mode, err := readUvarint("mode")
		if err != nil {
			return nil, err
		}
		e.Mode = fs.FileMode(mode)

		switch e.Kind {
		case KindSymlink:
			if e.LinkTarget, err = readString("link target"); err != nil {
				return nil, err
			}
		case KindFile:
			if len(data) < ChecksumSize {
				return nil, errors.Wrap(errors.ErrCorruptArchive, "manifest checksum")
			}
			copy(e.Checksum[:], data[:ChecksumSize])
			data = data[ChecksumSize:]
		}

		entries = append(entries, e)
	}

	if len(data) != 0 {
		return nil, errors.Wrap(errors.ErrCorruptArchive, "trailing bytes after manifest entries")
	}
	return entries, nil
}
