package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tigerroll/sheetload/example/hrimport/internal/app"
	usecase "github.com/tigerroll/sheetload/pkg/batch/core/application/usecase"
	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	model "github.com/tigerroll/sheetload/pkg/batch/core/domain/model"
	"github.com/tigerroll/sheetload/pkg/batch/support/util/serialization"
)

type importOptions struct {
	entity string
	file   string
	user   string
	dryRun bool
}

func newImportCmd(res app.Resources) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON array of rows into one entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), res, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.entity, "entity", "", "Entity name as configured under sheetload.entities (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "JSON file holding an array of row objects, '-' for stdin (required)")
	cmd.Flags().StringVar(&opts.user, "user", "", "Id of the user performing the import")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Write to an empty in-memory store instead of the database")

	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(ctx context.Context, res app.Resources, opts importOptions, out io.Writer) error {
	rows, err := readRows(opts.file)
	if err != nil {
		return withCode(exitUsage, err)
	}

	var (
		importer *usecase.Importer
		cfg      *config.Config
	)
	a, err := app.Start(ctx, res, app.ImportModule(opts.dryRun), &importer, &cfg)
	if err != nil {
		return withCode(exitDB, fmt.Errorf("failed to start: %w", err))
	}
	defer app.Stop(a)

	profile, err := cfg.EntityProfile(strings.TrimSpace(opts.entity))
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("%w (configured: %s)", err, strings.Join(cfg.EntityNames(), ", ")))
	}

	result, importErr := importer.Import(ctx, profile, usecase.ImportRequest{Rows: rows, UserID: strings.TrimSpace(opts.user)})
	if importErr != nil && result.Inserted == 0 && result.Updated == 0 && len(result.Errors) == 0 {
		return withCode(importErrorCode(importErr), importErr)
	}
	if err := serialization.WriteReport(out, result); err != nil {
		return err
	}
	if importErr != nil {
		return withCode(importErrorCode(importErr), importErr)
	}
	if !result.Succeeded() {
		return withCode(exitRowsFailed, fmt.Errorf("%d of %d rows were not imported", result.Failed(), len(rows)))
	}
	return nil
}

func importErrorCode(err error) int {
	switch {
	case errors.Is(err, usecase.ErrImportCancelled):
		return exitCancelled
	case errors.Is(err, usecase.ErrInvalidProfile), errors.Is(err, usecase.ErrMissingActor):
		return exitUsage
	default:
		return exitDB
	}
}

// readRows decodes the row file, or stdin when path is "-".
func readRows(path string) ([]model.RawRow, error) {
	if path == "-" {
		return serialization.ReadRows(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open row file: %w", err)
	}
	defer f.Close()
	return serialization.ReadRows(f)
}
