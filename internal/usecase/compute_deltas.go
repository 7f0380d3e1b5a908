// Package usecase implements the reconciliation engine operations.
package usecase

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mitaka/clubsync/internal/domain"
)

// ComputeDeltasInput contains the state compared by a delta computation.
type ComputeDeltasInput struct {
	Tasks     []*domain.Task        // Local tasks linked to snapshot stories
	Snapshot  map[int]*domain.Story // Last-synchronized stories, keyed by story id
	Directory *domain.Directory     // Fresh tracker directories for id resolution
}

// ComputeDeltas is the use case that computes field-level changes between
// local tasks and their snapshot counterparts. The result feeds the push
// phase; stories the local side did not touch are absent from it.
type ComputeDeltas struct {
	cfg    *domain.Config
	logger domain.Logger
}

// NewComputeDeltas creates a new ComputeDeltas use case.
func NewComputeDeltas(cfg *domain.Config, logger domain.Logger) *ComputeDeltas {
	return &ComputeDeltas{cfg: cfg, logger: logger}
}

// Execute returns the deltas keyed by story id.
// Tasks without snapshot linkage are skipped: they did not originate
// remotely and are never pushed. A local project with no tracker
// equivalent is a hard error; projects are never created implicitly.
func (uc *ComputeDeltas) Execute(in ComputeDeltasInput) (map[int]*domain.Delta, error) {
	byUUID := make(map[string]*domain.Story, len(in.Snapshot))
	for _, s := range in.Snapshot {
		if s.TaskUUID != "" {
			byUUID[s.TaskUUID] = s
		}
	}

	deltas := make(map[int]*domain.Delta)
	for _, task := range in.Tasks {
		story, ok := byUUID[task.UUID]
		if !ok {
			continue
		}

		delta, err := uc.compare(task, story, byUUID, in.Directory)
		if err != nil {
			return nil, err
		}
		if !delta.Empty() {
			uc.logger.Debug("diff", fmt.Sprintf("story %d diverged from local task %s", story.ID, task.UUID))
			deltas[story.ID] = delta
		}
	}
	return deltas, nil
}

func (uc *ComputeDeltas) compare(task *domain.Task, story *domain.Story, byUUID map[string]*domain.Story, dir *domain.Directory) (*domain.Delta, error) {
	delta := &domain.Delta{}

	if task.Description != story.Name {
		name := task.Description
		delta.Name = &name
	}

	// A completed task requests the review state. This takes precedence
	// over the development-state rule below.
	if task.Completed() && !uc.cfg.IsPostDev(story.WorkflowState) {
		id, ok := dir.WorkflowStateID(uc.cfg.ReviewState)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWorkflowState, uc.cfg.ReviewState)
		}
		delta.WorkflowStateID = &id
	}

	localTags := uc.syncableTags(task)
	tagsChanged := !sameSet(localTags, story.Tags)

	if task.Active() && story.WorkflowState != uc.cfg.DevelopmentState && delta.WorkflowStateID == nil {
		id, ok := dir.WorkflowStateID(uc.cfg.DevelopmentState)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWorkflowState, uc.cfg.DevelopmentState)
		}
		delta.WorkflowStateID = &id
	}

	if task.Project != story.Project {
		id, ok := dir.ProjectID(task.Project)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not one of [%s]",
				domain.ErrUnmappedProject, task.Project, strings.Join(dir.ProjectNames(), ", "))
		}
		delta.ProjectID = &id
	}

	if due := task.DueRemote(); due != story.Deadline {
		delta.Deadline = &due
	}

	uc.compareBlockedBy(task, story, byUUID, delta)
	uc.compareLabels(task, story, localTags, tagsChanged, delta)

	return delta, nil
}

// compareBlockedBy diffs the task's dependency set, resolved to story ids
// through snapshot linkage, against the story's blocking map. Dependencies
// map to story-link endpoints, not story updates, so they are carried as
// separate create/delete lists. Dependencies on untracked tasks are
// invisible remotely and do not participate in the comparison.
func (uc *ComputeDeltas) compareBlockedBy(task *domain.Task, story *domain.Story, byUUID map[string]*domain.Story, delta *domain.Delta) {
	taskBlockedBy := make(map[int]bool)
	for _, dep := range task.Depends {
		if blocker, ok := byUUID[dep]; ok {
			taskBlockedBy[blocker.ID] = true
		}
	}

	remote := story.BlockerIDs()
	if sameIntSet(taskBlockedBy, remote) {
		return
	}

	for id := range taskBlockedBy {
		if !remote[id] {
			delta.LinkCreates = append(delta.LinkCreates, domain.StoryLink{
				SubjectID: id,
				ObjectID:  story.ID,
				Verb:      domain.VerbBlocks,
			})
		}
	}
	for linkID, subjectID := range story.BlockedBy {
		if !taskBlockedBy[subjectID] {
			delta.LinkDeletes = append(delta.LinkDeletes, linkID)
		}
	}

	// Deterministic remote call order.
	slices.SortFunc(delta.LinkCreates, func(a, b domain.StoryLink) int { return a.SubjectID - b.SubjectID })
	slices.SortFunc(delta.LinkDeletes, compareLinkIDs)
}

// compareLabels emits a full label replacement when the tag set or the
// priority diverged. All four tag-changed/priority-changed combinations
// are handled uniformly: the replacement carries the local side of every
// changed facet and the snapshot side of every unchanged one, so a tag
// change never clobbers the remote priority and vice versa.
func (uc *ComputeDeltas) compareLabels(task *domain.Task, story *domain.Story, localTags []string, tagsChanged bool, delta *domain.Delta) {
	localPriority := uc.cfg.PriorityLabel(task.Priority)
	priorityChanged := localPriority != story.Priority

	if !tagsChanged && !priorityChanged {
		return
	}

	effectivePriority := localPriority
	if !priorityChanged {
		effectivePriority = story.Priority
	}

	labels := make([]domain.Label, 0, len(localTags)+1)
	for _, tag := range localTags {
		labels = append(labels, uc.colored(tag))
	}
	if effectivePriority != "" {
		labels = append(labels, uc.colored(effectivePriority))
	}
	delta.Labels = labels
}

func (uc *ComputeDeltas) colored(name string) domain.Label {
	return domain.Label{Name: name, Color: uc.cfg.LabelColor(name)}
}

// syncableTags returns the task's tags minus the configured ignore set,
// preserving order.
func (uc *ComputeDeltas) syncableTags(task *domain.Task) []string {
	tags := make([]string, 0, len(task.Tags))
	for _, tag := range task.Tags {
		if !uc.cfg.IsIgnoredTag(tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func sameSet(a, b []string) bool {
	as, bs := setOf(a), setOf(b)
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if !bs[v] {
			return false
		}
	}
	return true
}

func setOf(v []string) map[string]bool {
	set := make(map[string]bool, len(v))
	for _, s := range v {
		set[s] = true
	}
	return set
}

func sameIntSet(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// compareLinkIDs orders link ids numerically when possible; the tracker
// issues numeric ids but the snapshot stores them as strings.
func compareLinkIDs(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai - bi
	}
	return strings.Compare(a, b)
}
