// Package filter implements file selection rules for backups: suffix sets,
// a base-name regex, and size bounds. A disabled filter passes everything.
package filter
