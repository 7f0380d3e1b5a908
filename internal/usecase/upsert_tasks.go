package usecase

import (
	"context"
	"fmt"
	"slices"

	"github.com/mitaka/clubsync/internal/domain"
)

// UpsertTasksInput contains the state reconciled into the local store.
type UpsertTasksInput struct {
	Tasks    []*domain.Task        // Active (non-completed) tracked local tasks
	Remote   map[int]*domain.Story // Freshly fetched stories, keyed by story id
	Snapshot map[int]*domain.Story // Last-synchronized stories, for task linkage
}

// UpsertTasks is the use case that applies remote state into local tasks:
// linked stories update their task in place, unlinked stories create new
// tasks in dependency order. The returned stories (with task linkage
// filled in) become the next snapshot payload.
type UpsertTasks struct {
	cfg    *domain.Config
	store  domain.TaskStore
	logger domain.Logger
}

// NewUpsertTasks creates a new UpsertTasks use case.
func NewUpsertTasks(cfg *domain.Config, store domain.TaskStore, logger domain.Logger) *UpsertTasks {
	return &UpsertTasks{cfg: cfg, store: store, logger: logger}
}

// Execute reconciles remote stories into the local task store.
func (uc *UpsertTasks) Execute(ctx context.Context, in UpsertTasksInput) ([]*domain.Story, error) {
	updates := make(map[string]*domain.Story) // task UUID -> story
	creates := make(map[int]*domain.Story)    // story id -> story

	for id, story := range in.Remote {
		if snap, ok := in.Snapshot[id]; ok && snap.TaskUUID != "" {
			story.TaskUUID = snap.TaskUUID
			updates[story.TaskUUID] = story
		} else {
			creates[id] = story
		}
	}

	// Tasks inserted or updated so far, keyed by story id. Creation
	// resolves blocking dependencies against this map.
	materialized := make(map[int]*domain.Task)

	for _, task := range in.Tasks {
		story, ok := updates[task.UUID]
		if !ok {
			// Tracked task whose story vanished remotely; leave it alone
			// and let the snapshot rewrite drop the stale entry.
			continue
		}
		if err := uc.updateTask(ctx, task, story, in.Snapshot); err != nil {
			return nil, err
		}
		materialized[story.ID] = task
	}

	if err := uc.createTasks(ctx, creates, materialized); err != nil {
		return nil, err
	}

	// Union of both partitions, post-development stories included; the
	// caller filters before persisting.
	result := make([]*domain.Story, 0, len(updates)+len(creates))
	for _, story := range updates {
		result = append(result, story)
	}
	for _, story := range creates {
		result = append(result, story)
	}
	slices.SortFunc(result, func(a, b *domain.Story) int { return a.ID - b.ID })
	return result, nil
}

// updateTask overwrites task fields from the story, field by field, and
// saves only when something changed.
func (uc *UpsertTasks) updateTask(ctx context.Context, task *domain.Task, story *domain.Story, snapshot map[int]*domain.Story) error {
	changed := false

	if task.Description != story.Name {
		task.Description = story.Name
		changed = true
	}

	// A story past development forces local completion.
	if uc.cfg.IsPostDev(story.WorkflowState) && task.Status != domain.StatusCompleted {
		task.Status = domain.StatusCompleted
		changed = true
	}

	if uc.updateTags(task, story) {
		changed = true
	}

	if c, err := uc.updateStartState(task, story); err != nil {
		return err
	} else if c {
		changed = true
	}

	if task.Project != story.Project {
		task.Project = story.Project
		changed = true
	}

	if story.Deadline != "" && task.DueRemote() != story.Deadline {
		due, err := domain.ParseRemoteTime(story.Deadline)
		if err != nil {
			return fmt.Errorf("story %d deadline: %w", story.ID, err)
		}
		task.Due = &due
		changed = true
	}

	if uc.updateDepends(task, story, snapshot) {
		changed = true
	}

	if code := uc.cfg.PriorityCode(story.Priority); task.Priority != code {
		task.Priority = code
		changed = true
	}

	if !changed {
		return nil
	}
	if err := uc.store.Save(ctx, task); err != nil {
		return fmt.Errorf("save task %s: %w", task.UUID, err)
	}
	uc.logger.Info("upsert", fmt.Sprintf("updated task %s from story %d", task.UUID, story.ID))
	return nil
}

// updateTags replaces syncable tags with the story's, leaving the
// locally managed ignore tags untouched. Priority labels never belong
// in the tag set and are filtered out of the story side.
func (uc *UpsertTasks) updateTags(task *domain.Task, story *domain.Story) bool {
	var localTags, ignored []string
	for _, tag := range task.Tags {
		if uc.cfg.IsIgnoredTag(tag) {
			ignored = append(ignored, tag)
		} else {
			localTags = append(localTags, tag)
		}
	}

	storyTags := make([]string, 0, len(story.Tags))
	for _, tag := range story.Tags {
		if uc.cfg.PriorityRank(tag) < 0 {
			storyTags = append(storyTags, tag)
		}
	}

	if sameSet(localTags, storyTags) {
		return false
	}
	task.Tags = append(storyTags, ignored...)
	return true
}

// updateStartState mirrors the development workflow state onto the
// task's start marker: entering development starts the task at the
// remote start timestamp, leaving it stops the task.
func (uc *UpsertTasks) updateStartState(task *domain.Task, story *domain.Story) (bool, error) {
	inDev := story.WorkflowState == uc.cfg.DevelopmentState
	switch {
	case !task.Active() && inDev && story.StartedAt != "":
		started, err := domain.ParseRemoteTime(story.StartedAt)
		if err != nil {
			return false, fmt.Errorf("story %d started_at: %w", story.ID, err)
		}
		task.Start = &started
		return true, nil
	case task.Active() && !inDev:
		task.Start = nil
		return true, nil
	}
	return false, nil
}

// updateDepends establishes dependency links the remote has but the task
// lacks. Links are resolved through snapshot linkage; blockers without a
// local task are skipped. Locally removed dependencies are not restored
// here — that divergence travels the other way, as a link deletion delta.
func (uc *UpsertTasks) updateDepends(task *domain.Task, story *domain.Story, snapshot map[int]*domain.Story) bool {
	want := make(map[string]bool)
	for _, blockerID := range story.BlockedBy {
		if snap, ok := snapshot[blockerID]; ok && snap.TaskUUID != "" {
			want[snap.TaskUUID] = true
		}
	}

	changed := false
	for dep := range want {
		if !slices.Contains(task.Depends, dep) {
			task.Depends = append(task.Depends, dep)
			changed = true
		}
	}
	if changed {
		slices.Sort(task.Depends)
	}
	return changed
}

// createTasks constructs new local tasks for unlinked stories that have
// not yet passed development, in an order where every blocker is created
// strictly before its dependents. The order is an explicit topological
// sort over the blocking graph; a cyclic graph fails fast instead of
// looping.
func (uc *UpsertTasks) createTasks(ctx context.Context, creates map[int]*domain.Story, materialized map[int]*domain.Task) error {
	pending := make(map[int]*domain.Story)
	for id, story := range creates {
		if !uc.cfg.IsPostDev(story.WorkflowState) {
			pending[id] = story
		}
	}

	order, err := creationOrder(pending)
	if err != nil {
		return err
	}

	for _, id := range order {
		story := pending[id]
		task, err := uc.newTask(story, materialized)
		if err != nil {
			return err
		}
		if err := uc.store.Save(ctx, task); err != nil {
			return fmt.Errorf("create task for story %d: %w", story.ID, err)
		}
		story.TaskUUID = task.UUID
		materialized[story.ID] = task
		uc.logger.Info("upsert", fmt.Sprintf("created task %s from story %d", task.UUID, story.ID))
	}
	return nil
}

func (uc *UpsertTasks) newTask(story *domain.Story, materialized map[int]*domain.Task) (*domain.Task, error) {
	task := &domain.Task{
		UUID:        uc.store.NewUUID(),
		Description: story.Name,
		Status:      domain.StatusPending,
		Project:     story.Project,
		Priority:    uc.cfg.PriorityCode(story.Priority),
		Tags:        slices.Clone(story.Tags),
	}

	if story.Deadline != "" {
		due, err := domain.ParseRemoteTime(story.Deadline)
		if err != nil {
			return nil, fmt.Errorf("story %d deadline: %w", story.ID, err)
		}
		task.Due = &due
	}
	if story.StartedAt != "" && story.WorkflowState == uc.cfg.DevelopmentState {
		started, err := domain.ParseRemoteTime(story.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("story %d started_at: %w", story.ID, err)
		}
		task.Start = &started
	}

	// Blockers are created first, so their tasks are present already.
	for blockerID := range story.BlockerIDs() {
		if blocker, ok := materialized[blockerID]; ok {
			task.Depends = append(task.Depends, blocker.UUID)
		}
	}
	slices.Sort(task.Depends)

	return task, nil
}

// creationOrder runs Kahn's algorithm over the blocking graph restricted
// to the stories being created. Blockers outside the set are already
// materialized (or unknown) and do not constrain the order. Ready stories
// are emitted in ascending id order for determinism.
func creationOrder(pending map[int]*domain.Story) ([]int, error) {
	indegree := make(map[int]int, len(pending))
	dependents := make(map[int][]int)

	for id := range pending {
		indegree[id] = 0
	}
	for id, story := range pending {
		for blockerID := range story.BlockerIDs() {
			if _, inSet := pending[blockerID]; inSet {
				indegree[id]++
				dependents[blockerID] = append(dependents[blockerID], id)
			}
		}
	}

	var ready []int
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	order := make([]int, 0, len(pending))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var unblocked []int
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				unblocked = append(unblocked, dep)
			}
		}
		slices.Sort(unblocked)
		ready = mergeSorted(ready, unblocked)
	}

	if len(order) != len(pending) {
		var stuck []int
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		slices.Sort(stuck)
		return nil, fmt.Errorf("%w: stories %v", domain.ErrDependencyCycle, stuck)
	}
	return order, nil
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return out
}
