// Package stats implements the stats command.
package stats

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/app"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/stats"
)

// Command creates the stats command.
func Command(env *app.Env) *cobra.Command {
	var year, state string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard aggregates as JSON",
		Long: `Loads the unified dataset from the normalized store and the legacy source
and prints every dashboard aggregate for the given filter. Omitted filters,
or "all", cover every year and state.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := stats.ParseFilter(year, state)
			if err != nil {
				return err
			}

			a, err := env.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ds, err := a.Datasets(false).Load(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats.ComputeSummary(ds, filter))
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "Calendar year, or all")
	cmd.Flags().StringVar(&state, "state", "", "State (UF) code, or all")

	return cmd
}
