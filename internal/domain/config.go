package domain

import "slices"

// PriorityMapping maps a local single-letter priority code to a tracker
// priority label. Mappings are ranked: earlier entries outrank later ones.
type PriorityMapping struct {
	Code  string // Local code, e.g. "H"
	Label string // Tracker label, e.g. "High"
}

// Config is the immutable application configuration, passed explicitly
// into each component at construction.
type Config struct {
	Owner            string            // Tracker username whose stories are synced (required)
	APIToken         string            // Tracker API token
	DevelopmentState string            // Workflow state equivalent to an active task
	ReviewState      string            // Workflow state a completed task transitions to
	PostDevStates    []string          // Workflow states past active development
	Priorities       []PriorityMapping // Ranked priority mappings, highest first
	IgnoreTags       []string          // Locally managed tags, never pushed or pulled
	LabelColors      map[string]string // Label name -> display color; key "default" = fallback
	AutoResolve      bool              // Resolve conflicts without confirmation
	Debug            bool              // Verbose logging, including remote requests
}

// NewDefaultConfig returns the configuration defaults. Owner and APIToken
// must still be provided by the user.
func NewDefaultConfig() *Config {
	return &Config{
		DevelopmentState: "In Development",
		ReviewState:      "Ready for Review",
		PostDevStates:    []string{"Ready for Review", "Deploying", "Completed", "Tabled", "Cancelled"},
		Priorities: []PriorityMapping{
			{Code: "H", Label: "High"},
			{Code: "M", Label: "Medium"},
			{Code: "L", Label: "Low"},
		},
		IgnoreTags: []string{"next"},
		LabelColors: map[string]string{
			"High":    "#ff0000",
			"Medium":  "#ffa500",
			"Low":     "#ffff00",
			"default": "#ffff00",
		},
	}
}

// PriorityLabel returns the tracker label for a local priority code,
// or "" when the code is not mapped (including the empty code).
func (c *Config) PriorityLabel(code string) string {
	for _, p := range c.Priorities {
		if p.Code == code {
			return p.Label
		}
	}
	return ""
}

// PriorityCode returns the local priority code for a tracker label,
// or "" when the label is not a configured priority.
func (c *Config) PriorityCode(label string) string {
	for _, p := range c.Priorities {
		if p.Label == label {
			return p.Code
		}
	}
	return ""
}

// PriorityRank returns the rank of a priority label (0 = highest),
// or -1 when the label is not a configured priority.
func (c *Config) PriorityRank(label string) int {
	for i, p := range c.Priorities {
		if p.Label == label {
			return i
		}
	}
	return -1
}

// IsPostDev reports whether the workflow state is past active development.
func (c *Config) IsPostDev(state string) bool {
	return slices.Contains(c.PostDevStates, state)
}

// IsIgnoredTag reports whether the tag is managed locally and excluded
// from synchronization.
func (c *Config) IsIgnoredTag(tag string) bool {
	return slices.Contains(c.IgnoreTags, tag)
}

// LabelColor returns the configured display color for a label name,
// falling back to the "default" entry. Returns "" when neither is set;
// such labels are sent uncolored.
func (c *Config) LabelColor(name string) string {
	if color, ok := c.LabelColors[name]; ok {
		return color
	}
	return c.LabelColors["default"]
}
