package usecase

import (
	"context"
	"fmt"

	"github.com/mitaka/clubsync/internal/domain"
)

// Phase identifies a step of the reconciliation cycle.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseFetching      Phase = "fetching"
	PhaseDiffing       Phase = "diffing"
	PhaseConflictCheck Phase = "conflict_check"
	PhasePushing       Phase = "pushing"
	PhaseRefetch       Phase = "refetch_after_push"
	PhaseReconciling   Phase = "reconciling"
	PhasePersisting    Phase = "persisting"
	PhaseDone          Phase = "done"
	PhaseFailed        Phase = "failed"
)

// Sync is the use case that sequences one full reconciliation cycle.
// Phases run strictly in order; the push phases are skipped when no
// deltas survive. Any error halts the cycle without persisting, so the
// prior snapshot stays authoritative until a clean cycle completes.
type Sync struct {
	cfg       *domain.Config
	tracker   domain.Tracker
	tasks     domain.TaskStore
	snapshots domain.SnapshotStore
	logger    domain.Logger

	deltas    *ComputeDeltas
	conflicts *Conflicts
	push      *PushDeltas
	upsert    *UpsertTasks

	phase Phase
}

// NewSync creates a new Sync use case.
func NewSync(
	cfg *domain.Config,
	tracker domain.Tracker,
	tasks domain.TaskStore,
	snapshots domain.SnapshotStore,
	confirmer domain.Confirmer,
	logger domain.Logger,
) *Sync {
	return &Sync{
		cfg:       cfg,
		tracker:   tracker,
		tasks:     tasks,
		snapshots: snapshots,
		logger:    logger,
		deltas:    NewComputeDeltas(cfg, logger),
		conflicts: NewConflicts(cfg, confirmer, logger),
		push:      NewPushDeltas(tracker, logger),
		upsert:    NewUpsertTasks(cfg, tasks, logger),
		phase:     PhaseIdle,
	}
}

// Phase returns the current cycle phase.
func (uc *Sync) Phase() Phase {
	return uc.phase
}

// Execute runs one reconciliation cycle.
func (uc *Sync) Execute(ctx context.Context) error {
	if err := uc.run(ctx); err != nil {
		uc.enter(PhaseFailed)
		return err
	}
	uc.enter(PhaseDone)
	return nil
}

func (uc *Sync) run(ctx context.Context) error {
	uc.enter(PhaseFetching)
	dir, remote, err := uc.fetchRemote(ctx)
	if err != nil {
		return err
	}

	snapshot, err := uc.snapshots.Load()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	snapshot = uc.filterPostDev(snapshot)

	tracked, err := uc.trackedTasks(ctx, snapshot)
	if err != nil {
		return err
	}

	uc.enter(PhaseDiffing)
	deltas, err := uc.deltas.Execute(ComputeDeltasInput{
		Tasks:     tracked,
		Snapshot:  snapshot,
		Directory: dir,
	})
	if err != nil {
		return err
	}

	if len(deltas) > 0 {
		uc.enter(PhaseConflictCheck)
		conflicting := uc.conflicts.Detect(snapshot, remote)
		deltas, err = uc.conflicts.Resolve(conflicting, deltas)
		if err != nil {
			return err
		}

		if len(deltas) > 0 {
			uc.enter(PhasePushing)
			if err := uc.push.Execute(ctx, deltas); err != nil {
				return err
			}

			// Push complete; refresh everything from the remote.
			uc.enter(PhaseRefetch)
			dir, remote, err = uc.fetchRemote(ctx)
			if err != nil {
				return err
			}
		}
	}

	uc.enter(PhaseReconciling)
	next, err := uc.upsert.Execute(ctx, UpsertTasksInput{
		Tasks:    uc.activeTasks(tracked),
		Remote:   remote,
		Snapshot: snapshot,
	})
	if err != nil {
		return err
	}

	uc.enter(PhasePersisting)
	active := make([]*domain.Story, 0, len(next))
	for _, story := range next {
		if !uc.cfg.IsPostDev(story.WorkflowState) {
			active = append(active, story)
		}
	}
	if err := uc.snapshots.Save(active); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	uc.logger.Info("sync", fmt.Sprintf("cycle complete: %d stories tracked", len(active)))
	return nil
}

// fetchRemote pulls the tracker directories and the owner's stories.
func (uc *Sync) fetchRemote(ctx context.Context) (*domain.Directory, map[int]*domain.Story, error) {
	projects, err := uc.tracker.Projects(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list projects: %w", err)
	}
	states, err := uc.tracker.WorkflowStates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list workflow states: %w", err)
	}

	dir := &domain.Directory{Projects: projects, WorkflowStates: states}
	stories, err := uc.tracker.SearchStories(ctx, "owner:"+uc.cfg.Owner, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("search stories: %w", err)
	}

	remote := make(map[int]*domain.Story, len(stories))
	for _, s := range stories {
		remote[s.ID] = s
	}
	return dir, remote, nil
}

// trackedTasks returns the local tasks linked to a snapshot story.
// Tasks that did not originate remotely are not synchronized.
func (uc *Sync) trackedTasks(ctx context.Context, snapshot map[int]*domain.Story) ([]*domain.Task, error) {
	all, err := uc.tasks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	linked := make(map[string]bool, len(snapshot))
	for _, s := range snapshot {
		if s.TaskUUID != "" {
			linked[s.TaskUUID] = true
		}
	}

	var tracked []*domain.Task
	for _, t := range all {
		if linked[t.UUID] {
			tracked = append(tracked, t)
		}
	}
	return tracked, nil
}

func (uc *Sync) filterPostDev(stories map[int]*domain.Story) map[int]*domain.Story {
	out := make(map[int]*domain.Story, len(stories))
	for id, s := range stories {
		if !uc.cfg.IsPostDev(s.WorkflowState) {
			out[id] = s
		}
	}
	return out
}

func (uc *Sync) activeTasks(tasks []*domain.Task) []*domain.Task {
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed() {
			out = append(out, t)
		}
	}
	return out
}

func (uc *Sync) enter(p Phase) {
	uc.phase = p
	uc.logger.Debug("sync", "phase: "+string(p))
}
