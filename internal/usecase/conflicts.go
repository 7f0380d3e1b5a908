package usecase

import (
	"fmt"
	"slices"

	"github.com/mitaka/clubsync/internal/domain"
)

const conflictPrompt = `Detected conflict between snapshot and remote tracker states.
If you choose to continue, you may lose changes made to the affected tasks.
Continue?`

// Conflicts is the use case that detects remote drift since the last
// recorded sync and applies the resolution policy: remote truth wins,
// local changes for conflicting stories are discarded.
type Conflicts struct {
	cfg       *domain.Config
	confirmer domain.Confirmer
	logger    domain.Logger
}

// NewConflicts creates a new Conflicts use case.
func NewConflicts(cfg *domain.Config, confirmer domain.Confirmer, logger domain.Logger) *Conflicts {
	return &Conflicts{cfg: cfg, confirmer: confirmer, logger: logger}
}

// Detect returns the ids of snapshot stories whose freshly fetched remote
// counterpart differs (task linkage excluded). A story missing from the
// remote altogether also counts as drift. The result is sorted.
func (uc *Conflicts) Detect(snapshot, remote map[int]*domain.Story) []int {
	var conflicts []int
	for id, stored := range snapshot {
		if !stored.Equal(remote[id]) {
			conflicts = append(conflicts, id)
		}
	}
	slices.Sort(conflicts)
	return conflicts
}

// Resolve removes conflicting stories from the pending delta set, in
// favor of the remote state. Unless auto-resolution is configured, the
// operator must confirm first; declining aborts the whole cycle with
// ErrConflictAborted and nothing is pushed.
func (uc *Conflicts) Resolve(conflicts []int, deltas map[int]*domain.Delta) (map[int]*domain.Delta, error) {
	if len(conflicts) == 0 {
		return deltas, nil
	}

	uc.logger.Warn("conflict", fmt.Sprintf("stories modified remotely since last sync: %v", conflicts))

	if !uc.cfg.AutoResolve {
		ok, err := uc.confirmer.Confirm(conflictPrompt)
		if err != nil {
			return nil, fmt.Errorf("conflict confirmation: %w", err)
		}
		if !ok {
			return nil, domain.ErrConflictAborted
		}
	}

	resolved := make(map[int]*domain.Delta, len(deltas))
	for id, delta := range deltas {
		if !slices.Contains(conflicts, id) {
			resolved[id] = delta
		}
	}
	return resolved, nil
}
