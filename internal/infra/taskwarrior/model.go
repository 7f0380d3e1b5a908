package taskwarrior

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mitaka/clubsync/internal/domain"
)

const timeLayout = "20060102T150405Z" // YYYYMMDDTHHMMSSZ, always UTC

// wireTime handles TaskWarrior's compact timestamp form in JSON.
type wireTime struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface for wireTime.
func (t *wireTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements the json.Marshaler interface for wireTime.
func (t wireTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.UTC().Format(timeLayout) + `"`), nil
}

// wireDepends decodes the depends field, which `task export` emits
// either as a comma-separated string (older releases) or a JSON array.
type wireDepends []string

// UnmarshalJSON implements the json.Unmarshaler interface for wireDepends.
func (d *wireDepends) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*d = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(b, &joined); err != nil {
		return err
	}
	if joined == "" {
		*d = nil
		return nil
	}
	*d = strings.Split(joined, ",")
	return nil
}

// wireTask is the JSON representation used by `task export` and
// `task import`.
type wireTask struct {
	UUID        string      `json:"uuid"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Start       *wireTime   `json:"start,omitempty"`
	End         *wireTime   `json:"end,omitempty"`
	Due         *wireTime   `json:"due,omitempty"`
	Priority    string      `json:"priority,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Project     string      `json:"project,omitempty"`
	Depends     wireDepends `json:"depends,omitempty"`
}

func (w *wireTask) toDomain() *domain.Task {
	task := &domain.Task{
		UUID:        w.UUID,
		Description: w.Description,
		Status:      domain.Status(w.Status),
		Priority:    w.Priority,
		Tags:        w.Tags,
		Project:     w.Project,
		Depends:     w.Depends,
	}
	if w.Start != nil && !w.Start.IsZero() {
		start := w.Start.Time
		task.Start = &start
	}
	if w.Due != nil && !w.Due.IsZero() {
		due := w.Due.Time
		task.Due = &due
	}
	return task
}

func fromDomain(t *domain.Task) *wireTask {
	w := &wireTask{
		UUID:        t.UUID,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    t.Priority,
		Tags:        t.Tags,
		Project:     t.Project,
		Depends:     wireDepends(t.Depends),
	}
	if t.Start != nil {
		w.Start = &wireTime{Time: *t.Start}
	}
	if t.Due != nil {
		w.Due = &wireTime{Time: *t.Due}
	}
	// Import rejects a completed task without an end date.
	if t.Status == domain.StatusCompleted {
		w.End = &wireTime{Time: time.Now().UTC()}
	}
	return w
}
