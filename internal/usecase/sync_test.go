package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mitaka/clubsync/internal/domain"
	"github.com/mitaka/clubsync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	tracker   *testutil.MockTracker
	store     *testutil.MockTaskStore
	snapshots *testutil.MockSnapshotStore
	confirmer *testutil.MockConfirmer
	uc        *Sync
}

func newSyncFixture(cfg *domain.Config) *syncFixture {
	tracker := testutil.NewMockTracker()
	tracker.ProjectsV = map[int]string{1: "backend", 2: "frontend"}
	tracker.WorkflowStatesV = map[int]string{
		devStateID:     "In Development",
		reviewStateID:  "Ready for Review",
		backlogStateID: "Unstarted",
	}

	store := testutil.NewMockTaskStore()
	snapshots := testutil.NewMockSnapshotStore()
	confirmer := &testutil.MockConfirmer{}

	return &syncFixture{
		tracker:   tracker,
		store:     store,
		snapshots: snapshots,
		confirmer: confirmer,
		uc:        NewSync(cfg, tracker, store, snapshots, confirmer, domain.NopLogger{}),
	}
}

func TestSync_CleanCycleWithoutLocalChanges(t *testing.T) {
	f := newSyncFixture(testConfig())

	task, story := syncedPair()
	f.store.Tasks = []*domain.Task{task}
	f.snapshots.Data = map[int]*domain.Story{42: snapshotOf(story)}
	f.tracker.Stories = []*domain.Story{story}

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.Equal(t, PhaseDone, f.uc.Phase())
	assert.Empty(t, f.tracker.Updates, "nothing to push")
	assert.Equal(t, 1, f.tracker.SearchCalls, "no refetch without a push")
	require.Equal(t, 1, f.snapshots.SaveN)
	require.Len(t, f.snapshots.SavedV, 1)
	assert.Equal(t, "aaaa", f.snapshots.SavedV[0].TaskUUID)
}

func TestSync_LocalChangePushedThenRefetched(t *testing.T) {
	f := newSyncFixture(testConfig())

	task, story := syncedPair()
	task.Description = "Implement export v2"

	renamed := *story
	renamed.Name = "Implement export v2"

	f.store.Tasks = []*domain.Task{task}
	f.snapshots.Data = map[int]*domain.Story{42: snapshotOf(story)}
	f.tracker.StoriesQueue = [][]*domain.Story{
		{story},    // initial fetch: remote still matches the snapshot
		{&renamed}, // refetch after push reflects the update
	}

	require.NoError(t, f.uc.Execute(context.Background()))

	require.Contains(t, f.tracker.Updates, 42)
	assert.Equal(t, 2, f.tracker.SearchCalls, "remote is refetched after a push")
	require.Len(t, f.snapshots.SavedV, 1)
	assert.Equal(t, "Implement export v2", f.snapshots.SavedV[0].Name)
	assert.Empty(t, f.store.Saved, "local task already matches the pushed state")
}

func TestSync_ConflictDeclinedAbortsCycle(t *testing.T) {
	f := newSyncFixture(testConfig())
	f.confirmer.Answer = false

	task, story := syncedPair()
	task.Description = "changed locally"

	drifted := *story
	drifted.Name = "changed remotely"

	f.store.Tasks = []*domain.Task{task}
	f.snapshots.Data = map[int]*domain.Story{42: snapshotOf(story)}
	f.tracker.Stories = []*domain.Story{&drifted}

	err := f.uc.Execute(context.Background())

	assert.ErrorIs(t, err, domain.ErrConflictAborted)
	assert.Equal(t, PhaseFailed, f.uc.Phase())
	assert.Empty(t, f.tracker.Updates, "no push after an aborted resolution")
	assert.Zero(t, f.snapshots.SaveN, "prior snapshot stays authoritative")
}

func TestSync_ConflictAutoResolvedDropsLocalChanges(t *testing.T) {
	cfg := testConfig()
	cfg.AutoResolve = true
	f := newSyncFixture(cfg)

	task, story := syncedPair()
	task.Description = "changed locally"

	drifted := *story
	drifted.Name = "changed remotely"

	f.store.Tasks = []*domain.Task{task}
	f.snapshots.Data = map[int]*domain.Story{42: snapshotOf(story)}
	f.tracker.Stories = []*domain.Story{&drifted}

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.False(t, f.confirmer.Called)
	assert.Empty(t, f.tracker.Updates, "conflicting delta is discarded, not pushed")
	assert.Equal(t, 1, f.tracker.SearchCalls, "nothing survived, so no refetch")

	// Remote truth wins: the local task is overwritten on reconcile.
	saved := f.store.SavedByUUID("aaaa")
	require.NotNil(t, saved)
	assert.Equal(t, "changed remotely", saved.Description)
}

func TestSync_RemoteFailureLeavesSnapshotUntouched(t *testing.T) {
	f := newSyncFixture(testConfig())

	task, story := syncedPair()
	task.Description = "changed locally"

	f.store.Tasks = []*domain.Task{task}
	f.snapshots.Data = map[int]*domain.Story{42: snapshotOf(story)}
	f.tracker.Stories = []*domain.Story{story}
	f.tracker.UpdateErr = errors.New("500 internal server error")

	err := f.uc.Execute(context.Background())

	require.Error(t, err)
	assert.Equal(t, PhaseFailed, f.uc.Phase())
	assert.Zero(t, f.snapshots.SaveN)
}

func TestSync_NewRemoteStoryCreatesLinkedTask(t *testing.T) {
	f := newSyncFixture(testConfig())

	fresh := &domain.Story{
		ID:            60,
		Name:          "Brand new",
		WorkflowState: "Unstarted",
		Project:       "backend",
	}
	f.tracker.Stories = []*domain.Story{fresh}

	require.NoError(t, f.uc.Execute(context.Background()))

	require.Len(t, f.store.Saved, 1)
	assert.Equal(t, "Brand new", f.store.Saved[0].Description)

	require.Len(t, f.snapshots.SavedV, 1)
	assert.Equal(t, f.store.Saved[0].UUID, f.snapshots.SavedV[0].TaskUUID)
}

func TestSync_PostDevStoriesDroppedFromSnapshot(t *testing.T) {
	f := newSyncFixture(testConfig())

	task, story := syncedPair()
	shipped := *story
	shipped.WorkflowState = "Completed"

	f.store.Tasks = []*domain.Task{task}
	f.snapshots.Data = map[int]*domain.Story{42: snapshotOf(story)}
	f.tracker.StoriesQueue = [][]*domain.Story{{&shipped}}

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.Empty(t, f.snapshots.SavedV, "completed stories leave the snapshot")

	// The local task reflects the completion before being untracked.
	saved := f.store.SavedByUUID("aaaa")
	require.NotNil(t, saved)
	assert.Equal(t, domain.StatusCompleted, saved.Status)
}

func TestSync_FetchFailureFailsCycle(t *testing.T) {
	f := newSyncFixture(testConfig())
	f.tracker.SearchErr = errors.New("401 unauthorized")

	err := f.uc.Execute(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "search stories")
	assert.Equal(t, PhaseFailed, f.uc.Phase())
	assert.Zero(t, f.snapshots.SaveN)
}
