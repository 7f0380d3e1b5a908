package clubhouse

import (
	"strconv"
	"strings"

	"github.com/mitaka/clubsync/internal/domain"
)

// apiStory is the wire representation of a story as returned by the
// search and get endpoints. Nullable timestamps decode to "".
type apiStory struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	WorkflowStateID int            `json:"workflow_state_id"`
	ProjectID       int            `json:"project_id"`
	StartedAt       string         `json:"started_at"`
	Deadline        string         `json:"deadline"`
	Blocked         bool           `json:"blocked"`
	StoryLinks      []apiStoryLink `json:"story_links"`
	Labels          []apiLabel     `json:"labels"`
}

type apiStoryLink struct {
	ID        int    `json:"id"`
	SubjectID int    `json:"subject_id"`
	ObjectID  int    `json:"object_id"`
	Verb      string `json:"verb"`
}

type apiLabel struct {
	Name string `json:"name"`
}

// toDomain resolves the story's numeric references through the
// directory and splits its labels into a priority and plain tags.
func (s *apiStory) toDomain(cfg *domain.Config, dir *domain.Directory) *domain.Story {
	story := &domain.Story{
		ID:            s.ID,
		Name:          s.Name,
		WorkflowState: dir.WorkflowStates[s.WorkflowStateID],
		Project:       dir.Projects[s.ProjectID],
		StartedAt:     s.StartedAt,
		Deadline:      s.Deadline,
	}

	// A story link describes "subject blocks object"; only links where
	// this story is the object contribute to its blockers.
	if s.Blocked {
		for _, link := range s.StoryLinks {
			if link.Verb == domain.VerbBlocks && link.ObjectID == s.ID {
				if story.BlockedBy == nil {
					story.BlockedBy = make(map[string]int)
				}
				story.BlockedBy[strconv.Itoa(link.ID)] = link.SubjectID
			}
		}
	}

	// A label matching a configured priority sets the story's priority
	// instead of becoming a tag. When several priority labels are
	// attached, the highest-ranked one wins.
	for _, l := range s.Labels {
		rank := cfg.PriorityRank(l.Name)
		if rank < 0 {
			story.Tags = append(story.Tags, strings.ToLower(l.Name))
			continue
		}
		if story.Priority == "" || rank < cfg.PriorityRank(story.Priority) {
			story.Priority = l.Name
		}
	}

	return story
}
