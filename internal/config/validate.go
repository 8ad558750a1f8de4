package config

import (
	"github.com/cockroachdb/errors"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrUnknownAlgorithm indicates an unrecognized compression algorithm name.
	ErrUnknownAlgorithm = errors.New("unknown compression algorithm")

	// ErrInvalidKeepCount indicates a negative retention count.
	ErrInvalidKeepCount = errors.New("keep_count must be non-negative")

	// ErrInvalidDebounce indicates a non-positive debounce period.
	ErrInvalidDebounce = errors.New("debounce_seconds must be positive")
)

// validAlgorithms are the compression algorithm names accepted in config.
var validAlgorithms = map[string]bool{
	"huffman": true,
	"lzss":    true,
	"joined":  true,
}

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	if cfg.Algorithm != "" && !validAlgorithms[cfg.Algorithm] {
		errs = append(errs, errors.Wrapf(ErrUnknownAlgorithm, "%q", cfg.Algorithm))
	}

	if cfg.KeepCount < 0 {
		errs = append(errs, ErrInvalidKeepCount)
	}

	if cfg.DebounceSeconds <= 0 {
		errs = append(errs, ErrInvalidDebounce)
	}

	return errs
}
