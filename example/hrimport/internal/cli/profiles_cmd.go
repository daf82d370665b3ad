package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tigerroll/sheetload/example/hrimport/internal/app"
	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
)

func newProfilesCmd(res app.Resources) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the configured entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(res.EnvFilePath, res.Config)
			if err != nil {
				return withCode(exitUsage, err)
			}
			return printProfiles(cmd.OutOrStdout(), cfg)
		},
	}
}

func printProfiles(out io.Writer, cfg *config.Config) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENTITY\tTABLE\tKEY\tFIELDS\tCHUNK")
	for _, name := range cfg.EntityNames() {
		p, err := cfg.EntityProfile(name)
		if err != nil {
			return withCode(exitUsage, err)
		}
		fields := make([]string, 0, len(p.Fields))
		for _, f := range p.Fields {
			label := f.Name + ":" + string(f.Type)
			if f.Required {
				label += "*"
			}
			fields = append(fields, label)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", name, p.Table, strings.Join(p.KeyFields, "+"), strings.Join(fields, ","), p.ChunkSize)
	}
	return w.Flush()
}
