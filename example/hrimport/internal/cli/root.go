// Package cli implements the hrimport commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/tigerroll/sheetload/example/hrimport/internal/app"
)

// NewRootCmd builds the hrimport command tree over res.
func NewRootCmd(res app.Resources) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hrimport",
		Short:         "Import HR catalogue rows into the database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newImportCmd(res))
	cmd.AddCommand(newMigrateCmd(res))
	cmd.AddCommand(newProfilesCmd(res))
	return cmd
}
