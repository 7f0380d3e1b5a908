package cli

import (
	"fmt"

	"github.com/mitaka/clubsync/internal/app"
	"github.com/spf13/cobra"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default configuration file for clubsync.

The file documents every setting at its default value. Set owner and
api_token before the first sync. An existing file is left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := c.Loader.Init()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration file at %s\n", path)
			return nil
		},
	}
}
