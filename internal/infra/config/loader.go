// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitaka/clubsync/internal/domain"
	"github.com/pelletier/go-toml/v2"
)

// Environment fallbacks for the two credentials that must not live in
// a dotfile checked into version control.
const (
	envOwner    = "CLUBSYNC_OWNER"
	envAPIToken = "CLUBSYNC_API_TOKEN"
)

// fileConfig is the TOML document schema. Every field is optional;
// unset fields keep their defaults. Priorities are an array of tables
// because their order defines the rank.
type fileConfig struct {
	Owner       string            `toml:"owner"`
	APIToken    string            `toml:"api_token"`
	AutoResolve *bool             `toml:"auto_resolve"`
	Debug       *bool             `toml:"debug"`
	Tracker     trackerConfig     `toml:"tracker"`
	Priorities  []priorityConfig  `toml:"priorities"`
	IgnoreTags  []string          `toml:"ignore_tags"`
	LabelColors map[string]string `toml:"label_colors"`
}

type trackerConfig struct {
	DevelopmentState string   `toml:"development_state"`
	ReviewState      string   `toml:"review_state"`
	PostDevStates    []string `toml:"post_dev_states"`
}

type priorityConfig struct {
	Code  string `toml:"code"`
	Label string `toml:"label"`
}

// Loader loads configuration from a TOML file.
type Loader struct {
	confDir string
}

// NewLoader creates a Loader reading from the user config directory.
func NewLoader() *Loader {
	return &Loader{confDir: domain.ConfigDir()}
}

// NewLoaderWithDir creates a Loader with a custom config directory.
// This is useful for testing.
func NewLoaderWithDir(dir string) *Loader {
	return &Loader{confDir: dir}
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return domain.ConfigPath(l.confDir)
}

// Load returns the configuration: defaults, overlaid with the config
// file, overlaid with the credential environment variables. A missing
// file is not an error; Init writes one. A config without an owner is
// unusable and fails with ErrOwnerNotSet naming the file to edit.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()

	file, err := l.loadFile()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if file != nil {
		applyFile(cfg, file)
	}

	if v := os.Getenv(envOwner); v != "" {
		cfg.Owner = v
	}
	if v := os.Getenv(envAPIToken); v != "" {
		cfg.APIToken = v
	}

	if cfg.Owner == "" {
		return nil, fmt.Errorf("%w: set owner in %s or the %s environment variable",
			domain.ErrOwnerNotSet, l.Path(), envOwner)
	}
	return cfg, nil
}

// Init writes a default configuration file for the user to fill in.
// An existing file is left untouched.
func (l *Loader) Init() (string, error) {
	path := l.Path()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(l.confDir, 0o750); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTOML), 0o600); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	return path, nil
}

func (l *Loader) loadFile() (*fileConfig, error) {
	content, err := os.ReadFile(l.Path())
	if err != nil {
		return nil, err
	}

	var file fileConfig
	if err := toml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.Path(), err)
	}
	return &file, nil
}

func applyFile(cfg *domain.Config, file *fileConfig) {
	if file.Owner != "" {
		cfg.Owner = file.Owner
	}
	if file.APIToken != "" {
		cfg.APIToken = file.APIToken
	}
	if file.AutoResolve != nil {
		cfg.AutoResolve = *file.AutoResolve
	}
	if file.Debug != nil {
		cfg.Debug = *file.Debug
	}
	if file.Tracker.DevelopmentState != "" {
		cfg.DevelopmentState = file.Tracker.DevelopmentState
	}
	if file.Tracker.ReviewState != "" {
		cfg.ReviewState = file.Tracker.ReviewState
	}
	if file.Tracker.PostDevStates != nil {
		cfg.PostDevStates = file.Tracker.PostDevStates
	}
	if file.Priorities != nil {
		cfg.Priorities = make([]domain.PriorityMapping, 0, len(file.Priorities))
		for _, p := range file.Priorities {
			cfg.Priorities = append(cfg.Priorities, domain.PriorityMapping{Code: p.Code, Label: p.Label})
		}
	}
	if file.IgnoreTags != nil {
		cfg.IgnoreTags = file.IgnoreTags
	}
	if file.LabelColors != nil {
		cfg.LabelColors = file.LabelColors
	}
}

// defaultConfigTOML documents every setting at its default value, with
// the two required credentials left blank.
const defaultConfigTOML = `# clubsync configuration

# Tracker username whose stories are synchronized (required).
# Also settable via ` + envOwner + `.
owner = ""

# Tracker API token. Also settable via ` + envAPIToken + `.
api_token = ""

# Resolve conflicts in the remote's favor without asking.
auto_resolve = false

# Verbose logging, including remote requests.
debug = false

# Tags managed locally and never synchronized.
ignore_tags = ["next"]

[tracker]
development_state = "In Development"
review_state = "Ready for Review"
post_dev_states = ["Ready for Review", "Deploying", "Completed", "Tabled", "Cancelled"]

# Priority labels, highest first. The order defines which label wins
# when a story carries several.
[[priorities]]
code = "H"
label = "High"

[[priorities]]
code = "M"
label = "Medium"

[[priorities]]
code = "L"
label = "Low"

# Label display colors; "default" applies to any unlisted label.
[label_colors]
High = "#ff0000"
Medium = "#ffa500"
Low = "#ffff00"
default = "#ffff00"
`
