package domain

import (
	"slices"
	"time"
)

// Status represents the lifecycle state of a local task.
type Status string

const (
	StatusPending   Status = "pending"   // Created, not yet completed
	StatusCompleted Status = "completed" // Done
	StatusDeleted   Status = "deleted"   // Removed locally, never synced
)

// Task represents a task record in the local task store.
type Task struct {
	UUID        string     // Stable local handle
	Description string     // Task text, mirrors the story name
	Status      Status     // Current status
	Start       *time.Time // Set while the task is being worked on
	Due         *time.Time // Deadline (nil = none)
	Priority    string     // Single-letter priority code, "" = none
	Tags        []string   // Tag set, includes locally managed ignore tags
	Project     string     // Project name
	Depends     []string   // UUIDs of tasks this task depends on
}

// Active reports whether the task is currently started.
func (t *Task) Active() bool {
	return t.Start != nil && t.Status != StatusCompleted
}

// Completed reports whether the task is done.
func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

// HasTag reports whether the task carries the given tag.
func (t *Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.Start != nil {
		start := *t.Start
		c.Start = &start
	}
	if t.Due != nil {
		due := *t.Due
		c.Due = &due
	}
	c.Tags = slices.Clone(t.Tags)
	c.Depends = slices.Clone(t.Depends)
	return &c
}

// DueRemote renders the due date in the tracker's textual form, or ""
// when no due date is set. Local timestamps carry zone information that
// is normalized away so both sides compare on the same representation.
func (t *Task) DueRemote() string {
	if t.Due == nil {
		return ""
	}
	return FormatRemoteTime(*t.Due)
}
