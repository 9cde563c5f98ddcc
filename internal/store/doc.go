// Package store provides file-based persistence for dgit's local state.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk. All methods are concurrency-safe within a
// process via internal locking; across processes every write goes through a
// temp file in the target directory followed by a rename or hard link, so a
// reader never observes a partial file.
//
// The package includes stores for:
//   - The signing identity (IdentityFileStore)
//   - Commits staged for a later push (StagingFileStore)
package store
