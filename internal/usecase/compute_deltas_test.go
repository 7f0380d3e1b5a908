package usecase

import (
	"testing"
	"time"

	"github.com/mitaka/clubsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	devStateID     = 100
	reviewStateID  = 200
	backlogStateID = 300
)

func testConfig() *domain.Config {
	cfg := domain.NewDefaultConfig()
	cfg.Owner = "miho"
	return cfg
}

func testDirectory() *domain.Directory {
	return &domain.Directory{
		Projects: map[int]string{1: "backend", 2: "frontend"},
		WorkflowStates: map[int]string{
			devStateID:     "In Development",
			reviewStateID:  "Ready for Review",
			backlogStateID: "Unstarted",
		},
	}
}

// syncedPair returns a task and its snapshot story with no divergence.
func syncedPair() (*domain.Task, *domain.Story) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task := &domain.Task{
		UUID:        "aaaa",
		Description: "Implement export",
		Status:      domain.StatusPending,
		Due:         &due,
		Priority:    "H",
		Tags:        []string{"api", "next"}, // "next" is ignore-listed
		Project:     "backend",
	}
	story := &domain.Story{
		ID:            42,
		Name:          "Implement export",
		WorkflowState: "Unstarted",
		Project:       "backend",
		Deadline:      "2026-03-01T00:00:00Z",
		Priority:      "High",
		Tags:          []string{"api"},
		TaskUUID:      "aaaa",
	}
	return task, story
}

func newTestComputeDeltas() *ComputeDeltas {
	return NewComputeDeltas(testConfig(), domain.NopLogger{})
}

func execute(t *testing.T, uc *ComputeDeltas, tasks []*domain.Task, snapshot map[int]*domain.Story) map[int]*domain.Delta {
	t.Helper()
	deltas, err := uc.Execute(ComputeDeltasInput{
		Tasks:     tasks,
		Snapshot:  snapshot,
		Directory: testDirectory(),
	})
	require.NoError(t, err)
	return deltas
}

func TestComputeDeltas_UnlinkedTasksAreExcluded(t *testing.T) {
	uc := newTestComputeDeltas()
	task, story := syncedPair()

	unlinked := &domain.Task{UUID: "zzzz", Description: "purely local"}

	deltas := execute(t, uc, []*domain.Task{task, unlinked}, map[int]*domain.Story{42: story})
	assert.Empty(t, deltas)
}

func TestComputeDeltas_Idempotent(t *testing.T) {
	uc := newTestComputeDeltas()
	task, story := syncedPair()
	snapshot := map[int]*domain.Story{42: story}

	first := execute(t, uc, []*domain.Task{task}, snapshot)
	second := execute(t, uc, []*domain.Task{task}, snapshot)

	assert.Empty(t, first)
	assert.Empty(t, second)
}

func TestComputeDeltas_NameChange(t *testing.T) {
	uc := newTestComputeDeltas()
	task, story := syncedPair()
	task.Description = "Implement export v2"

	deltas := execute(t, uc, []*domain.Task{task}, map[int]*domain.Story{42: story})

	require.Contains(t, deltas, 42)
	require.NotNil(t, deltas[42].Name)
	assert.Equal(t, "Implement export v2", *deltas[42].Name)
	assert.Nil(t, deltas[42].WorkflowStateID)
}

func TestComputeDeltas_CompletedRequestsReviewState(t *testing.T) {
	// A completed task whose story is still in development transitions
	// to review, and never to development, even though the task may
	// still carry a start marker.
	uc := newTestComputeDeltas()
	task, story := syncedPair()
	start := time.Now()
	task.Status = domain.StatusCompleted
	task.Start = &start
	story.WorkflowState = "In Development"
	story.StartedAt = "2026-02-10T09:00:00Z"

	deltas := execute(t, uc, []*domain.Task{task}, map[int]*domain.Story{42: story})

	require.Contains(t, deltas, 42)
	require.NotNil(t, deltas[42].WorkflowStateID)
	assert.Equal(t, reviewStateID, *deltas[42].WorkflowStateID)
}

func TestComputeDeltas_CompletedPostDevStoryUnchanged(t *testing.T) {
	uc := newTestComputeDeltas()
	task, story := syncedPair()
	task.Status = domain.StatusCompleted
	story.WorkflowState = "Ready for Review"

	deltas := execute(t, uc, []*domain.Task{task}, map[int]*domain.Story{42: story})
	assert.Empty(t, deltas)
}

func TestComputeDeltas_ActiveRequestsDevelopmentState(t *testing.T) {
	uc := newTestComputeDeltas()
	task, story := syncedPair()
	start := time.Now()
	task.Start = &start

	deltas := execute(t, uc, []*domain.Task{task}, map[int]*domain.Story{42: story})

	require.Contains(t, deltas, 42)
	require.NotNil(t, deltas[42].WorkflowStateID)
	assert.Equal(t, devStateID, *deltas[42].WorkflowStateID)
}

func TestComputeDeltas_Labels(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(task *domain.Task, story *domain.Story)
		wantLabels []string
		wantNone   bool
	}{
		{
			name:     "nothing changed",
			mutate:   func(*domain.Task, *domain.Story) {},
			wantNone: true,
		},
		{
			name: "tags changed, priority preserved",
			mutate: func(task *domain.Task, _ *domain.Story) {
				task.Tags = []string{"api", "export", "next"}
			},
			wantLabels: []string{"api", "export", "High"},
		},
		{
			name: "priority changed, tags preserved",
			mutate: func(_ *domain.Task, story *domain.Story) {
				story.Priority = "Medium" // local side still wants High
			},
			wantLabels: []string{"api", "High"},
		},
		{
			name: "both changed",
			mutate: func(task *domain.Task, story *domain.Story) {
				task.Tags = []string{"export", "next"}
				task.Priority = "L"
			},
			wantLabels: []string{"export", "Low"},
		},
		{
			name: "priority dropped locally",
			mutate: func(task *domain.Task, _ *domain.Story) {
				task.Priority = ""
			},
			wantLabels: []string{"api"},
		},
		{
			name: "ignored tag change is invisible",
			mutate: func(task *domain.Task, _ *domain.Story) {
				task.Tags = []string{"api"} // dropped "next", which is ignore-listed
			},
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newTestComputeDeltas()
			task, story := syncedPair()
			tt.mutate(task, story)

			deltas := execute(t, uc, []*domain.Task{task}, map[int]*domain.Story{42: story})

			if tt.wantNone {
				assert.Empty(t, deltas)
				return
			}
			require.Contains(t, deltas, 42)
			var names []string
			for _, l := range deltas[42].Labels {
				names = append(names, l.Name)
			}
			assert.Equal(t, tt.wantLabels, names)
		})
	}
}

func TestComputeDeltas_LabelColors(t *testing.T) {
	cfg := testConfig()
	cfg.LabelColors = map[string]string{
		"High":    "#ff0000",
		"default": "#00ff00",
	}
	uc := NewComputeDeltas(cfg, domain.NopLogger{})

	task, story := syncedPair()
	task.Tags = []string{"api", "export", "next"}

	deltas, err := uc.Execute(ComputeDeltasInput{
		Tasks:     []*domain.Task{task},
		Snapshot:  map[int]*domain.Story{42: story},
		Directory: testDirectory(),
	})
	require.NoError(t, err)

	require.Contains(t, deltas, 42)
	labels := deltas[42].Labels
	require.Len(t, labels, 3)
	assert.Equal(t, domain.Label{Name: "api", Color: "#00ff00"}, labels[0])
	assert.Equal(t, domain.Label{Name: "High", Color: "#ff0000"}, labels[2])
}

func TestComputeDeltas_UncoloredWhenNoColorsConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.LabelColors = nil
	uc := NewComputeDeltas(cfg, domain.NopLogger{})

	task, story := syncedPair()
	task.Tags = []string{"api", "export"}

	deltas, err := uc.Execute(ComputeDeltasInput{
		Tasks:     []*domain.Task{task},
		Snapshot:  map[int]*domain.Story{42: story},
		Directory: testDirectory(),
	})
	require.NoError(t, err)

	for _, l := range deltas[42].Labels {
		assert.Empty(t, l.Color)
	}
}

func TestComputeDeltas_ProjectChange(t *testing.T) {
	uc := newTestComputeDeltas()
	task, story := syncedPair()
	task.Project = "frontend"

	deltas := execute(t, uc, []*domain.Task{task}, map[int]*domain.Story{42: story})

	require.Contains(t, deltas, 42)
	require.NotNil(t, deltas[42].ProjectID)
	assert.Equal(t, 2, *deltas[42].ProjectID)
}

func TestComputeDeltas_UnmappedProjectFails(t *testing.T) {
	uc := newTestComputeDeltas()
	task, story := syncedPair()
	task.Project = "skunkworks"

	_, err := uc.Execute(ComputeDeltasInput{
		Tasks:     []*domain.Task{task},
		Snapshot:  map[int]*domain.Story{42: story},
		Directory: testDirectory(),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnmappedProject)
	assert.ErrorContains(t, err, "skunkworks")
}

func TestComputeDeltas_Deadline(t *testing.T) {
	t.Run("changed", func(t *testing.T) {
		uc := newTestComputeDeltas()
		task, story := syncedPair()
		due := time.Date(2026, 4, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
		task.Due = &due

		deltas := execute(t, uc, []*domain.Task{task}, map[int]*domain.Story{42: story})

		require.Contains(t, deltas, 42)
		require.NotNil(t, deltas[42].Deadline)
		assert.Equal(t, "2026-04-01T10:00:00Z", *deltas[42].Deadline, "zone info is normalized away")
	})

	t.Run("cleared", func(t *testing.T) {
		uc := newTestComputeDeltas()
		task, story := syncedPair()
		task.Due = nil

		deltas := execute(t, uc, []*domain.Task{task}, map[int]*domain.Story{42: story})

		require.Contains(t, deltas, 42)
		require.NotNil(t, deltas[42].Deadline)
		assert.Equal(t, "", *deltas[42].Deadline)
	})
}

func TestComputeDeltas_Dependencies(t *testing.T) {
	uc := newTestComputeDeltas()

	taskA, storyA := syncedPair()
	due := *taskA.Due
	taskB := &domain.Task{
		UUID:        "bbbb",
		Description: "Write docs",
		Status:      domain.StatusPending,
		Due:         &due,
		Project:     "backend",
		Depends:     []string{"aaaa", "outside"}, // "outside" is untracked
	}
	storyB := &domain.Story{
		ID:            43,
		Name:          "Write docs",
		WorkflowState: "Unstarted",
		Project:       "backend",
		Deadline:      "2026-03-01T00:00:00Z",
		BlockedBy:     map[string]int{"900": 7}, // story 7 no longer a local dependency
		TaskUUID:      "bbbb",
	}

	deltas := execute(t, uc, []*domain.Task{taskA, taskB}, map[int]*domain.Story{42: storyA, 43: storyB})

	require.Contains(t, deltas, 43)
	delta := deltas[43]
	assert.Equal(t, []domain.StoryLink{
		{SubjectID: 42, ObjectID: 43, Verb: domain.VerbBlocks},
	}, delta.LinkCreates)
	assert.Equal(t, []string{"900"}, delta.LinkDeletes)
	assert.True(t, delta.FieldsEmpty(), "only link operations expected")
}

func TestComputeDeltas_DependenciesInSync(t *testing.T) {
	uc := newTestComputeDeltas()

	taskA, storyA := syncedPair()
	due := *taskA.Due
	taskB := &domain.Task{
		UUID:        "bbbb",
		Description: "Write docs",
		Status:      domain.StatusPending,
		Due:         &due,
		Project:     "backend",
		Depends:     []string{"aaaa"},
	}
	storyB := &domain.Story{
		ID:            43,
		Name:          "Write docs",
		WorkflowState: "Unstarted",
		Project:       "backend",
		Deadline:      "2026-03-01T00:00:00Z",
		BlockedBy:     map[string]int{"900": 42},
		TaskUUID:      "bbbb",
	}

	deltas := execute(t, uc, []*domain.Task{taskA, taskB}, map[int]*domain.Story{42: storyA, 43: storyB})
	assert.Empty(t, deltas)
}
