// Package archive implements the on-disk archive format: a versioned
// binary layout holding a manifest of tree entries and a compressed,
// optionally encrypted payload, closed by a 16-byte authentication tag.
//
// The format is bit-exact and tamper-evident: the same tree, algorithm,
// and password always produce the same structure, and the tag must
// validate before any payload byte is trusted. Writes go through a temp
// file and atomic rename so a crash never leaves a half-written archive
// under the final name.
package archive
