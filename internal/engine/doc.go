// Package engine orchestrates the backup pipeline. Backup walks a source
// tree, applies the file filter, concatenates file contents in walk order,
// and hands manifest and payload to the archive layer for compression,
// optional encryption, and an atomic write. Restore and Verify run the
// inverse path; Restore stages the tree and moves it into place only after
// every entry has been written, Verify never touches the file system.
//
// Operations are synchronous and blocking. Callers needing non-blocking
// behavior run them on their own goroutine; the scheduler does exactly
// that for its triggers.
package engine
