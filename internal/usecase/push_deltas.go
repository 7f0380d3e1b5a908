package usecase

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/mitaka/clubsync/internal/domain"
)

// PushDeltas is the use case that applies surviving deltas to the remote
// tracker. Each link creation, link deletion and story update is a
// separate blocking call, issued sequentially per story; the first
// failure aborts the cycle.
type PushDeltas struct {
	tracker domain.Tracker
	logger  domain.Logger
}

// NewPushDeltas creates a new PushDeltas use case.
func NewPushDeltas(tracker domain.Tracker, logger domain.Logger) *PushDeltas {
	return &PushDeltas{tracker: tracker, logger: logger}
}

// Execute pushes the deltas in ascending story-id order.
// The story update is skipped when a delta carries only link operations.
func (uc *PushDeltas) Execute(ctx context.Context, deltas map[int]*domain.Delta) error {
	for _, id := range slices.Sorted(maps.Keys(deltas)) {
		delta := deltas[id]

		for _, link := range delta.LinkCreates {
			if err := uc.tracker.CreateStoryLink(ctx, link); err != nil {
				return fmt.Errorf("create story link %d -> %d: %w", link.SubjectID, link.ObjectID, err)
			}
		}
		for _, linkID := range delta.LinkDeletes {
			if err := uc.tracker.DeleteStoryLink(ctx, linkID); err != nil {
				return fmt.Errorf("delete story link %s: %w", linkID, err)
			}
		}

		if delta.FieldsEmpty() {
			continue
		}
		if err := uc.tracker.UpdateStory(ctx, id, delta); err != nil {
			return fmt.Errorf("update story %d: %w", id, err)
		}
		uc.logger.Info("push", fmt.Sprintf("pushed local changes to story %d", id))
	}
	return nil
}
