package store

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"dgit/internal/domain"
)

const (
	stagingFilename = "staging.json"

	stagingFormatVersion = 1
)

// StagingFileStore persists commits staged for a later push.
type StagingFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewStagingFileStore returns a StagingFileStore rooted at dir.
func NewStagingFileStore(dir string) *StagingFileStore {
	return &StagingFileStore{dir: dir}
}

type stagingManifest struct {
	Version int                  `json:"version"`
	Entries []domain.StagedEntry `json:"entries"`
}

// Stage records entries. An entry whose digest is already staged replaces the
// earlier one in place, so staging the same commit twice keeps one copy.
func (s *StagingFileStore) Stage(entries ...domain.StagedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	for _, e := range entries {
		i := slices.IndexFunc(m.Entries, func(x domain.StagedEntry) bool { return x.Digest == e.Digest })
		if i >= 0 {
			m.Entries[i] = e
			continue
		}
		m.Entries = append(m.Entries, e)
	}
	return s.save(m)
}

// Staged returns the staged entries in the order they were first staged.
func (s *StagingFileStore) Staged() ([]domain.StagedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return nil, err
	}
	return m.Entries, nil
}

// Remove drops the entries with the given digests.
func (s *StagingFileStore) Remove(digests ...string) error {
	if len(digests) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	m.Entries = slices.DeleteFunc(m.Entries, func(e domain.StagedEntry) bool {
		return slices.Contains(digests, e.Digest)
	})
	return s.save(m)
}

func (s *StagingFileStore) load() (stagingManifest, error) {
	var m stagingManifest
	if err := readJSON(filepath.Join(s.dir, stagingFilename), &m); err != nil {
		return m, fmt.Errorf("%w: reading staging manifest: %w", domain.ErrIO, err)
	}
	if m.Version > stagingFormatVersion {
		return m, fmt.Errorf("%w: unsupported staging manifest version %d", domain.ErrIO, m.Version)
	}
	return m, nil
}

func (s *StagingFileStore) save(m stagingManifest) error {
	m.Version = stagingFormatVersion
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("%w: creating staging directory: %w", domain.ErrIO, err)
	}
	if err := writeJSON(filepath.Join(s.dir, stagingFilename), m, 0o600); err != nil {
		return fmt.Errorf("%w: writing staging manifest: %w", domain.ErrIO, err)
	}
	return nil
}

// Compile-time assertion that StagingFileStore implements domain.StagingStore.
var _ domain.StagingStore = (*StagingFileStore)(nil)
