package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tigerroll/sheetload/example/hrimport/internal/app"
	"github.com/tigerroll/sheetload/pkg/batch/component/migration"
	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
)

func newMigrateCmd(res app.Resources) *cobra.Command {
	var connName string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the import_runs and entity tables",
	}
	cmd.PersistentFlags().StringVar(&connName, "db", "", "Database connection name (default: sheetload.import.db_ref)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd.Context(), res, connName, func(ctx context.Context, r *migration.Runner, name string) error {
				if err := r.Up(ctx, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrations applied to '%s'\n", name)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd.Context(), res, connName, func(ctx context.Context, r *migration.Runner, name string) error {
				if err := r.Down(ctx, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrations rolled back on '%s'\n", name)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied version of each migration set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd.Context(), res, connName, func(ctx context.Context, r *migration.Runner, name string) error {
				statuses, err := r.Status(ctx, name)
				if err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), statuses)
			})
		},
	})
	return cmd
}

func withRunner(ctx context.Context, res app.Resources, connName string, fn func(context.Context, *migration.Runner, string) error) error {
	var (
		runner *migration.Runner
		cfg    *config.Config
	)
	a, err := app.Start(ctx, res, app.MigrationModule(res), &runner, &cfg)
	if err != nil {
		return withCode(exitDB, fmt.Errorf("failed to start: %w", err))
	}
	defer app.Stop(a)

	if connName == "" {
		connName = cfg.Sheetload.Import.DBRef
	}
	return withCode(exitDB, fn(ctx, runner, connName))
}

func printStatus(out io.Writer, statuses []migration.Status) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tVERSION\tDIRTY")
	for _, s := range statuses {
		version := "-"
		if s.Applied {
			version = fmt.Sprintf("%d", s.Version)
		}
		fmt.Fprintf(w, "%s\t%s\t%t\n", s.Table, version, s.Dirty)
	}
	return w.Flush()
}
