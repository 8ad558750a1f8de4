package filter

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/thoreinstein/arx/internal/errors"
)

// Options describes which regular files qualify for inclusion in a backup.
// The zero value (Enabled false) passes every file.
type Options struct {
	// Enabled turns filtering on. When false every file passes regardless
	// of the other fields.
	Enabled bool

	// Suffixes is the set of file extensions to include, e.g. ".txt".
	// Entries are normalized to a leading dot and matched case-insensitively.
	// Empty means no suffix constraint.
	Suffixes []string

	// Keywords is a set of substrings matched against the file's base
	// name; a file passes when any keyword occurs in it. A non-empty
	// Keywords supersedes NameRegex.
	Keywords []string

	// NameRegex constrains the file's base name. Empty means no constraint.
	NameRegex string

	// MinSize is the minimum file size in bytes.
	MinSize uint64

	// MaxSize is the maximum file size in bytes. Zero means unbounded.
	MaxSize uint64

	// ModifiedAfter excludes files last modified before this instant.
	// The zero value means no lower bound.
	ModifiedAfter time.Time

	// ModifiedBefore excludes files last modified after this instant.
	// The zero value means no upper bound.
	ModifiedBefore time.Time
}

// Filter decides whether a file qualifies for inclusion.
// Construct with New; a Filter is immutable and safe for concurrent use.
type Filter struct {
	opts     Options
	suffixes map[string]bool
	keywords []string
	re       *regexp.Regexp
}

// New compiles the given options into a Filter.
// A malformed NameRegex fails here with ErrInvalidFilter, never silently.
func New(opts Options) (*Filter, error) {
	f := &Filter{opts: opts}

	if len(opts.Suffixes) > 0 {
		f.suffixes = make(map[string]bool, len(opts.Suffixes))
		for _, s := range opts.Suffixes {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			if !strings.HasPrefix(s, ".") {
				s = "." + s
			}
			f.suffixes[s] = true
		}
	}

	for _, kw := range opts.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			f.keywords = append(f.keywords, kw)
		}
	}

	if opts.NameRegex != "" {
		re, err := regexp.Compile(opts.NameRegex)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidFilter, "compiling name regex %q: %v", opts.NameRegex, err)
		}
		f.re = re
	}

	return f, nil
}

// Matches reports whether a regular file at path with the given size
// and modification time qualifies for inclusion. Directories and
// symlinks are not filtered; callers only consult the filter for
// regular files.
func (f *Filter) Matches(path string, size uint64, modTime time.Time) bool {
	if !f.opts.Enabled {
		return true
	}

	if len(f.suffixes) > 0 {
		ext := strings.ToLower(filepath.Ext(path))
		if !f.suffixes[ext] {
			return false
		}
	}

	name := filepath.Base(path)
	if len(f.keywords) > 0 {
		if !f.anyKeyword(name) {
			return false
		}
	} else if f.re != nil && !f.re.MatchString(name) {
		return false
	}

	if size < f.opts.MinSize {
		return false
	}
	if f.opts.MaxSize != 0 && size > f.opts.MaxSize {
		return false
	}

	if !f.opts.ModifiedAfter.IsZero() && modTime.Before(f.opts.ModifiedAfter) {
		return false
	}
	if !f.opts.ModifiedBefore.IsZero() && modTime.After(f.opts.ModifiedBefore) {
		return false
	}

	return true
}

func (f *Filter) anyKeyword(name string) bool {
	for _, kw := range f.keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
