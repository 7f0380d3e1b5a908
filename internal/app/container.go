// Package app provides the dependency injection container for the application.
package app

import (
	"os"

	"github.com/mitaka/clubsync/internal/domain"
	"github.com/mitaka/clubsync/internal/infra/clubhouse"
	"github.com/mitaka/clubsync/internal/infra/config"
	"github.com/mitaka/clubsync/internal/infra/logging"
	"github.com/mitaka/clubsync/internal/infra/prompt"
	"github.com/mitaka/clubsync/internal/infra/snapshot"
	"github.com/mitaka/clubsync/internal/infra/taskwarrior"
	"github.com/mitaka/clubsync/internal/usecase"
)

// Container wires configuration, adapters and use cases together.
// Configuration loads lazily so commands that do not need a complete
// config (init, help, version) work before one exists.
type Container struct {
	Loader *config.Loader
}

// New creates a new Container using the default XDG directories.
func New() *Container {
	return &Container{Loader: config.NewLoader()}
}

// NewSync assembles one reconciliation cycle from the loaded
// configuration.
func (c *Container) NewSync() (*usecase.Sync, error) {
	cfg, err := c.Loader.Load()
	if err != nil {
		return nil, err
	}

	dataDir := domain.DataDir()
	logger := logging.New(domain.LogPath(dataDir), logging.LevelFor(cfg.Debug))

	tracker := clubhouse.NewClient(cfg, logger)
	tasks := taskwarrior.NewClient(logger)
	snapshots := snapshot.New(domain.SnapshotPath(dataDir))
	confirmer := prompt.New(os.Stdin, os.Stdout)

	return usecase.NewSync(cfg, tracker, tasks, snapshots, confirmer, logger), nil
}
