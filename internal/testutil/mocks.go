// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"

	"github.com/mitaka/clubsync/internal/domain"
)

// MockTracker is a test double for domain.Tracker.
type MockTracker struct {
	ProjectsV       map[int]string
	WorkflowStatesV map[int]string
	Stories         []*domain.Story
	StoriesQueue    [][]*domain.Story // Overrides Stories per SearchStories call when set

	ProjectsErr    error
	StatesErr      error
	SearchErr      error
	UpdateErr      error
	CreateLinkErr  error
	DeleteLinkErr  error

	Updates      map[int]*domain.Delta
	UpdateOrder  []int
	CreatedLinks []domain.StoryLink
	DeletedLinks []string
	SearchCalls  int
}

// NewMockTracker creates a MockTracker with initialized maps.
func NewMockTracker() *MockTracker {
	return &MockTracker{
		ProjectsV:       make(map[int]string),
		WorkflowStatesV: make(map[int]string),
		Updates:         make(map[int]*domain.Delta),
	}
}

// Projects returns the configured project directory.
func (m *MockTracker) Projects(_ context.Context) (map[int]string, error) {
	if m.ProjectsErr != nil {
		return nil, m.ProjectsErr
	}
	return m.ProjectsV, nil
}

// WorkflowStates returns the configured workflow state directory.
func (m *MockTracker) WorkflowStates(_ context.Context) (map[int]string, error) {
	if m.StatesErr != nil {
		return nil, m.StatesErr
	}
	return m.WorkflowStatesV, nil
}

// SearchStories returns the configured stories, cloned so callers can
// mutate results without corrupting later calls.
func (m *MockTracker) SearchStories(_ context.Context, _ string, _ *domain.Directory) ([]*domain.Story, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	src := m.Stories
	if m.StoriesQueue != nil {
		if m.SearchCalls < len(m.StoriesQueue) {
			src = m.StoriesQueue[m.SearchCalls]
		} else {
			src = m.StoriesQueue[len(m.StoriesQueue)-1]
		}
	}
	m.SearchCalls++
	out := make([]*domain.Story, len(src))
	for i, s := range src {
		c := *s
		out[i] = &c
	}
	return out, nil
}

// UpdateStory records the delta applied to a story.
func (m *MockTracker) UpdateStory(_ context.Context, id int, delta *domain.Delta) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.Updates[id] = delta
	m.UpdateOrder = append(m.UpdateOrder, id)
	return nil
}

// CreateStoryLink records a created link.
func (m *MockTracker) CreateStoryLink(_ context.Context, link domain.StoryLink) error {
	if m.CreateLinkErr != nil {
		return m.CreateLinkErr
	}
	m.CreatedLinks = append(m.CreatedLinks, link)
	return nil
}

// DeleteStoryLink records a deleted link id.
func (m *MockTracker) DeleteStoryLink(_ context.Context, linkID string) error {
	if m.DeleteLinkErr != nil {
		return m.DeleteLinkErr
	}
	m.DeletedLinks = append(m.DeletedLinks, linkID)
	return nil
}

// MockTaskStore is a test double for domain.TaskStore.
type MockTaskStore struct {
	Tasks    []*domain.Task
	Saved    []*domain.Task // Save calls in order
	ListErr  error
	SaveErr  error
	nextUUID int
}

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{}
}

// List returns the configured tasks.
func (m *MockTaskStore) List(_ context.Context) ([]*domain.Task, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Tasks, nil
}

// Save records the saved task.
func (m *MockTaskStore) Save(_ context.Context, task *domain.Task) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saved = append(m.Saved, task.Clone())
	return nil
}

// NewUUID returns deterministic handles: uuid-1, uuid-2, ...
func (m *MockTaskStore) NewUUID() string {
	m.nextUUID++
	return fmt.Sprintf("uuid-%d", m.nextUUID)
}

// SavedByUUID returns the last saved task with the given UUID, or nil.
func (m *MockTaskStore) SavedByUUID(uuid string) *domain.Task {
	for i := len(m.Saved) - 1; i >= 0; i-- {
		if m.Saved[i].UUID == uuid {
			return m.Saved[i]
		}
	}
	return nil
}

// MockSnapshotStore is a test double for domain.SnapshotStore.
type MockSnapshotStore struct {
	Data    map[int]*domain.Story
	SavedV  []*domain.Story
	SaveN   int
	LoadErr error
	SaveErr error
}

// NewMockSnapshotStore creates an empty MockSnapshotStore.
func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{Data: make(map[int]*domain.Story)}
}

// Load returns the configured snapshot.
func (m *MockSnapshotStore) Load() (map[int]*domain.Story, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Data, nil
}

// Save records the persisted stories.
func (m *MockSnapshotStore) Save(stories []*domain.Story) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.SavedV = stories
	m.SaveN++
	return nil
}

// MockConfirmer is a test double for domain.Confirmer.
type MockConfirmer struct {
	Answer  bool
	Err     error
	Called  bool
	Prompts []string
}

// Confirm records the prompt and returns the configured answer.
func (m *MockConfirmer) Confirm(prompt string) (bool, error) {
	m.Called = true
	m.Prompts = append(m.Prompts, prompt)
	return m.Answer, m.Err
}
