package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/thoreinstein/arx/internal/compress"
	"github.com/thoreinstein/arx/internal/errors"
	"github.com/thoreinstein/arx/internal/filter"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// resolvePassword combines the --password and --ask-password flags into the
// effective password. --ask-password wins and prompts on the terminal so the
// secret never lands in shell history.
func resolvePassword(password string, ask bool) (string, error) {
	if !ask {
		return password, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.NewUserError(nil, "--ask-password requires an interactive terminal; use --password otherwise")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "reading password confirmation")
	}

	if string(first) != string(second) {
		return "", errors.NewUserError(nil, "passwords do not match")
	}
	return string(first), nil
}

// resolveAlgorithm parses the --algorithm flag, falling back to the
// configured default when the flag is empty.
func resolveAlgorithm(name string) (compress.Algorithm, error) {
	if name == "" {
		if cfg != nil {
			name = cfg.Algorithm
		} else {
			name = "huffman"
		}
	}
	algo, err := compress.ParseAlgorithm(name)
	if err != nil {
		return 0, errors.NewUserError(err, "valid algorithms are: huffman, lzss, joined")
	}
	return algo, nil
}

// filterFlags holds the shared file selection flags.
type filterFlags struct {
	suffixes       []string
	keywords       []string
	nameRegex      string
	minSize        uint64
	maxSize        uint64
	modifiedAfter  string
	modifiedBefore string
}

// register wires the filter flags onto a flag set.
func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.suffixes, "filter-suffix", nil,
		"only include files with these suffixes (repeatable)")
	fs.StringSliceVar(&f.keywords, "filter-keyword", nil,
		"only include files whose name contains one of these keywords (repeatable)")
	fs.StringVar(&f.nameRegex, "filter-regex", "",
		"only include files whose base name matches this regex")
	fs.Uint64Var(&f.minSize, "filter-min-size", 0,
		"only include files at least this many bytes")
	fs.Uint64Var(&f.maxSize, "filter-max-size", 0,
		"only include files at most this many bytes")
	fs.StringVar(&f.modifiedAfter, "filter-modified-after", "",
		"only include files modified at or after this time (RFC 3339 or YYYY-MM-DD)")
	fs.StringVar(&f.modifiedBefore, "filter-modified-before", "",
		"only include files modified at or before this time (RFC 3339 or YYYY-MM-DD)")
}

// options converts the flags into filter options. The filter is enabled
// only when at least one criterion was given.
func (f *filterFlags) options() (filter.Options, error) {
	opts := filter.Options{
		Suffixes:  f.suffixes,
		Keywords:  f.keywords,
		NameRegex: f.nameRegex,
		MinSize:   f.minSize,
		MaxSize:   f.maxSize,
	}
	if f.modifiedAfter != "" {
		ts, err := parseFilterTime(f.modifiedAfter)
		if err != nil {
			return filter.Options{}, err
		}
		opts.ModifiedAfter = ts
	}
	if f.modifiedBefore != "" {
		ts, err := parseFilterTime(f.modifiedBefore)
		if err != nil {
			return filter.Options{}, err
		}
		opts.ModifiedBefore = ts
	}
	opts.Enabled = len(f.suffixes) > 0 || len(f.keywords) > 0 || f.nameRegex != "" ||
		f.minSize > 0 || f.maxSize > 0 || f.modifiedAfter != "" || f.modifiedBefore != ""
	return opts, nil
}

// parseFilterTime accepts an RFC 3339 timestamp or a bare date, the
// latter interpreted in the local time zone.
func parseFilterTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return ts, nil
	}
	return time.Time{}, errors.NewUserError(errors.Newf("cannot parse time %q", s),
		"use RFC 3339 (2026-03-14T12:00:00Z) or a date (2026-03-14)")
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// humanSize formats a byte count for display.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(n)/float64(div)), ".0") + " " + "KMGTPE"[exp:exp+1] + "iB"
}
