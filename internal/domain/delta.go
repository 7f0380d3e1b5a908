package domain

// VerbBlocks is the story-link verb describing a blocking relationship.
const VerbBlocks = "blocks"

// Label is a tracker label as sent with a story update. Color is
// optional; uncolored labels are sent without the field.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// StoryLink describes a blocking relationship between two stories:
// the subject blocks the object.
type StoryLink struct {
	SubjectID int    `json:"subject_id"`
	ObjectID  int    `json:"object_id"`
	Verb      string `json:"verb"`
}

// Delta is a sparse field-level change set for one story, computed by
// comparing a local task against its snapshot counterpart. Nil pointer
// fields mean "unchanged". Link creations and deletions are carried
// separately because they map to dedicated remote endpoints rather
// than a story update.
type Delta struct {
	Name            *string
	WorkflowStateID *int
	ProjectID       *int
	Deadline        *string // nil = unchanged; pointer to "" = clear the deadline
	Labels          []Label // nil = unchanged; non-nil = full label replacement
	LinkCreates     []StoryLink
	LinkDeletes     []string // story-link ids
}

// Empty reports whether the delta carries no change at all.
func (d *Delta) Empty() bool {
	return d == nil || (d.FieldsEmpty() && len(d.LinkCreates) == 0 && len(d.LinkDeletes) == 0)
}

// FieldsEmpty reports whether the story-update portion of the delta is
// empty, i.e. only link operations remain.
func (d *Delta) FieldsEmpty() bool {
	return d == nil ||
		(d.Name == nil &&
			d.WorkflowStateID == nil &&
			d.ProjectID == nil &&
			d.Deadline == nil &&
			d.Labels == nil)
}
