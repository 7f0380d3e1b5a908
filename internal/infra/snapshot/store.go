// Package snapshot provides a JSON file-based implementation of
// SnapshotStore. The file holds the last-synchronized view of every
// tracked story; diffing against it is what separates local edits from
// remote ones on the next run. A single owner process is assumed, so
// the file is not lock-protected.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/mitaka/clubsync/internal/domain"
)

// Ensure Store implements domain.SnapshotStore interface.
var _ domain.SnapshotStore = (*Store)(nil)

// Store implements domain.SnapshotStore using a JSON file.
type Store struct {
	path string
}

// New creates a new Store for the given file path.
// The file does not need to exist; it will be created on first write.
func New(path string) *Store {
	return &Store{path: path}
}

// Load returns the stored snapshot keyed by story id. A missing file
// means no previous sync and yields an empty map.
func (s *Store) Load() (map[int]*domain.Story, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[int]*domain.Story), nil
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var stories []*domain.Story
	if err := json.Unmarshal(content, &stories); err != nil {
		return nil, fmt.Errorf("parse snapshot file: %w", err)
	}

	byID := make(map[int]*domain.Story, len(stories))
	for _, story := range stories {
		byID[story.ID] = story
	}
	return byID, nil
}

// Save fully rewrites the snapshot. Stories are stored sorted by id so
// the file diffs cleanly between runs.
func (s *Store) Save(stories []*domain.Story) error {
	sorted := slices.Clone(stories)
	slices.SortFunc(sorted, func(a, b *domain.Story) int {
		return a.ID - b.ID
	})

	content, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.write(content)
}

// write replaces the snapshot file atomically via temp file + rename,
// so a crash mid-write never leaves a truncated snapshot behind.
func (s *Store) write(content []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}
