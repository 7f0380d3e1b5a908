// Package domain contains core business entities and interfaces.
package domain

import (
	"maps"
	"slices"
	"time"
)

// RemoteTimeLayout is the textual timestamp form used by the tracker API
// and the snapshot file. Timestamps are always UTC.
const RemoteTimeLayout = "2006-01-02T15:04:05Z"

// Story represents a tracker story, either freshly fetched from the remote
// service or restored from the snapshot file. JSON tags define the snapshot
// document format.
type Story struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	WorkflowState string         `json:"workflow_state"`
	Project       string         `json:"project"`
	StartedAt     string         `json:"started_at,omitempty"` // RemoteTimeLayout, "" = not started
	Deadline      string         `json:"deadline,omitempty"`   // RemoteTimeLayout, "" = no deadline
	Priority      string         `json:"priority,omitempty"`   // ranked priority label, "" = none
	Tags          []string       `json:"tags"`                 // lowercase labels, tracker order
	BlockedBy     map[string]int `json:"blocked_by,omitempty"` // story-link id -> blocking story id
	TaskUUID      string         `json:"task_uuid,omitempty"`  // linked local task, excluded from Equal
}

// Equal reports structural equality with another story.
// TaskUUID is volatile linkage data and is excluded from the comparison,
// so a story round-tripped through the snapshot compares equal to its
// freshly fetched counterpart as long as the remote did not change.
func (s *Story) Equal(other *Story) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.ID == other.ID &&
		s.Name == other.Name &&
		s.WorkflowState == other.WorkflowState &&
		s.Project == other.Project &&
		s.StartedAt == other.StartedAt &&
		s.Deadline == other.Deadline &&
		s.Priority == other.Priority &&
		slices.Equal(s.Tags, other.Tags) &&
		maps.Equal(s.BlockedBy, other.BlockedBy)
}

// IsZero reports whether the story carries no data besides the task linkage.
func (s *Story) IsZero() bool {
	if s == nil {
		return true
	}
	return s.ID == 0 &&
		s.Name == "" &&
		s.WorkflowState == "" &&
		s.Project == "" &&
		s.StartedAt == "" &&
		s.Deadline == "" &&
		s.Priority == "" &&
		len(s.Tags) == 0 &&
		len(s.BlockedBy) == 0
}

// BlockerIDs returns the set of story IDs blocking this story.
func (s *Story) BlockerIDs() map[int]bool {
	ids := make(map[int]bool, len(s.BlockedBy))
	for _, id := range s.BlockedBy {
		ids[id] = true
	}
	return ids
}

// FormatRemoteTime renders a timestamp in the tracker's textual form,
// normalized to UTC.
func FormatRemoteTime(t time.Time) string {
	return t.UTC().Format(RemoteTimeLayout)
}

// ParseRemoteTime parses a timestamp in the tracker's textual form.
func ParseRemoteTime(s string) (time.Time, error) {
	return time.Parse(RemoteTimeLayout, s)
}
