// Package cli provides the command-line interface for clubsync.
package cli

import (
	"github.com/mitaka/clubsync/internal/app"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for clubsync.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "clubsync",
		Short: "Synchronize Clubhouse stories with TaskWarrior tasks",
		Long: `clubsync keeps your Clubhouse stories and your TaskWarrior task
database in sync, in both directions.

Each run performs one reconciliation cycle: local task changes are
pushed to Clubhouse, remote story changes are applied to TaskWarrior,
and new stories become new tasks. A snapshot of the last synchronized
state is kept between runs to tell local edits apart from remote ones.

Run it by hand or from cron; a cycle with nothing to do is cheap.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sync, err := c.NewSync()
			if err != nil {
				return err
			}
			return sync.Execute(cmd.Context())
		},
	}

	root.AddCommand(newInitCommand(c))

	return root
}
