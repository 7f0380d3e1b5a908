package domain

import (
	"context"
	"slices"
)

// Directory maps tracker ids to names for projects and workflow states.
// It is rebuilt from the remote on every fetch.
type Directory struct {
	Projects       map[int]string // project id -> name
	WorkflowStates map[int]string // workflow state id -> name
}

// ProjectID resolves a project name to its tracker id.
func (d *Directory) ProjectID(name string) (int, bool) {
	for id, n := range d.Projects {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// ProjectNames returns all known project names, sorted.
func (d *Directory) ProjectNames() []string {
	names := make([]string, 0, len(d.Projects))
	for _, n := range d.Projects {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// WorkflowStateID resolves a workflow state name to its tracker id.
func (d *Directory) WorkflowStateID(name string) (int, bool) {
	for id, n := range d.WorkflowStates {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// Tracker is the remote issue-tracker client. All calls are blocking
// request/response; a non-success HTTP status surfaces as an error.
type Tracker interface {
	// Projects returns the project directory (id -> name).
	Projects(ctx context.Context) (map[int]string, error)

	// WorkflowStates returns the workflow state directory (id -> name).
	WorkflowStates(ctx context.Context) (map[int]string, error)

	// SearchStories returns the stories matching the query, with ids
	// resolved to names through the given directory.
	SearchStories(ctx context.Context, query string, dir *Directory) ([]*Story, error)

	// UpdateStory applies the field portion of a delta to a story.
	UpdateStory(ctx context.Context, id int, delta *Delta) error

	// CreateStoryLink creates a blocking relationship.
	CreateStoryLink(ctx context.Context, link StoryLink) error

	// DeleteStoryLink removes a blocking relationship by link id.
	DeleteStoryLink(ctx context.Context, linkID string) error
}

// TaskStore is the local task database client.
type TaskStore interface {
	// List returns all tasks in the store.
	List(ctx context.Context) ([]*Task, error)

	// Save creates or updates a task. Saving is idempotent.
	Save(ctx context.Context, task *Task) error

	// NewUUID returns a fresh handle for a task to be created.
	NewUUID() string
}

// SnapshotStore persists the last-synchronized view of tracked stories
// between runs.
type SnapshotStore interface {
	// Load returns the stored snapshot keyed by story id.
	// A missing snapshot yields an empty map.
	Load() (map[int]*Story, error)

	// Save fully rewrites the snapshot.
	Save(stories []*Story) error
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// Logger is the minimal logging interface used across components.
type Logger interface {
	Debug(category, msg string)
	Info(category, msg string)
	Warn(category, msg string)
	Error(category, msg string)
}

// NopLogger discards all log output.
type NopLogger struct{}

func (NopLogger) Debug(string, string) {}
func (NopLogger) Info(string, string)  {}
func (NopLogger) Warn(string, string)  {}
func (NopLogger) Error(string, string) {}
