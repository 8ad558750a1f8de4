package engine

import (
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/thoreinstein/arx/internal/archive"
	"github.com/thoreinstein/arx/internal/compress"
	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/filter"
	"github.com/thoreinstein/arx/internal/logging"
)

// Engine orchestrates the backup pipeline: file selection, compression,
// encryption, and the archive format. An Engine is safe for concurrent
// use; each operation snapshots the configuration when it starts, so a
// setter racing an in-flight backup affects only later calls.
type Engine struct {
	mu       sync.Mutex
	algo     compress.Algorithm
	password string
	fopts    filter.Options
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAlgorithm sets the compression algorithm.
func WithAlgorithm(algo compress.Algorithm) Option {
	return func(e *Engine) {
		e.algo = algo
	}
}

// WithPassword sets the archive password. Empty means unencrypted.
func WithPassword(password string) Option {
	return func(e *Engine) {
		e.password = password
	}
}

// WithFilter sets the file selection rules.
func WithFilter(opts filter.Options) Option {
	return func(e *Engine) {
		e.fopts = opts
	}
}

// WithLogger sets the logger for internal diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine. Defaults: Huffman, no password, no filter.
func New(opts ...Option) *Engine {
	e := &Engine{
		algo:   compress.Huffman,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetCompressionAlgorithm changes the algorithm for subsequent operations.
func (e *Engine) SetCompressionAlgorithm(algo compress.Algorithm) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.algo = algo
}

// SetPassword changes the password for subsequent operations.
// Empty disables encryption.
func (e *Engine) SetPassword(password string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.password = password
}

// SetFilter changes the file selection rules for subsequent operations.
func (e *Engine) SetFilter(opts filter.Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fopts = opts
}

// snapshot returns an immutable copy of the current configuration.
func (e *Engine) snapshot() (compress.Algorithm, string, filter.Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.algo, e.password, e.fopts
}

// Backup archives the tree rooted at src into an archive file at dst.
// A single file source becomes a one-entry tree. Symlinks are recorded,
// never followed. Filter rules apply to regular files only; directories
// and symlinks always pass so the structure can be reconstructed.
func (e *Engine) Backup(src, dst string) error {
	algo, password, fopts := e.snapshot()

	f, err := filter.New(fopts)
	if err != nil {
		e.logger.Error("backup failed", "stage", "filter", "err", err)
		return err
	}

	entries, payload, err := walkTree(src, f)
	if err != nil {
		e.logger.Error("backup failed", "stage", "walk", "src", src, "err", err)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "creating destination directory")
	}

	if err := archive.Write(dst, algo, password, entries, payload); err != nil {
		e.logger.Error("backup failed", "stage", "write", "dst", dst, "err", err)
		return err
	}

	e.logger.Info("backup complete",
		"src", src, "dst", dst,
		"entries", len(entries), "bytes", len(payload),
		"algorithm", algo.String(), "encrypted", password != "")
	return nil
}

// Restore rebuilds the archived tree under dst, restoring contents, mode
// bits, and symlinks in manifest order. The tree is staged inside dst and
// moved into place only once every entry has been written, so a failure
// leaves no partial tree behind.
func (e *Engine) Restore(src, dst string) error {
	_, password, _ := e.snapshot()

	entries, payload, err := archive.Read(src, password)
	if err != nil {
		e.logger.Error("restore failed", "stage", "read", "src", src, "err", err)
		return err
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return errors.Wrap(err, "creating destination directory")
	}

	stage, err := os.MkdirTemp(dst, ".arx-restore-*")
	if err != nil {
		return errors.Wrap(err, "creating staging directory")
	}
	defer os.RemoveAll(stage)

	if err := materialize(stage, entries, payload); err != nil {
		e.logger.Error("restore failed", "stage", "materialize", "src", src, "err", err)
		return err
	}

	if err := promote(stage, dst); err != nil {
		e.logger.Error("restore failed", "stage", "promote", "dst", dst, "err", err)
		return err
	}

	e.logger.Info("restore complete", "src", src, "dst", dst, "entries", len(entries))
	return nil
}

// Verify runs the full read, authenticate, and decompress path of Restore
// without touching the file system, then checks every manifest entry's
// stored checksum against the decompressed content.
func (e *Engine) Verify(src string) error {
	_, password, _ := e.snapshot()

	entries, payload, err := archive.Read(src, password)
	if err != nil {
		e.logger.Error("verify failed", "stage", "read", "src", src, "err", err)
		return err
	}

	var offset uint64
	for i := range entries {
		ent := &entries[i]
		if ent.Kind != archive.KindFile {
			continue
		}
		sum := sha256.Sum256(payload[offset : offset+ent.Size])
		if sum != ent.Checksum {
			err := errors.Wrapf(errors.ErrCorruptArchive, "checksum mismatch for %s", ent.Path)
			e.logger.Error("verify failed", "stage", "checksum", "src", src, "err", err)
			return err
		}
		offset += ent.Size
	}

	e.logger.Info("verify complete", "src", src, "entries", len(entries))
	return nil
}
