// Package migrate implements the migrate command.
package migrate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/app"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/migration"
)

// Command creates the migrate command.
func Command(env *app.Env) *cobra.Command {
	var opts migration.Options

	cmd := &cobra.Command{
		Use:   "migrate [shelters|volunteers|vacancies|events|all]...",
		Short: "Copy legacy CMS posts into the normalized store",
		Long: `Extracts legacy posts of the given kinds, maps their attributes and
upserts them into the normalized store keyed by legacy id. Running the
command again updates rows in place. Without arguments every kind is
migrated, shelters first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("include-drafts") {
				opts.IncludeDrafts = env.Settings.Migration.IncludeDrafts
			}
			if opts.BatchSize <= 0 {
				opts.BatchSize = env.Settings.Migration.BatchSize
			}

			a, err := env.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			report, err := a.Runner().Run(cmd.Context(), kinds, opts)
			if report != nil {
				report.Print(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}
			if report.HasFailures() {
				return fmt.Errorf("%d legacy records failed to migrate", report.Totals().Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Map and count without writing to the store")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum records examined per kind (0 for all)")
	cmd.Flags().BoolVar(&opts.IncludeDrafts, "include-drafts", false, "Migrate non-published legacy posts too")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "Legacy records read per page (default from config)")

	return cmd
}

// parseKinds resolves the command arguments to entity types in migration
// order. No arguments, or "all", select every kind.
func parseKinds(args []string) ([]legacy.EntityType, error) {
	if len(args) == 0 {
		return slices.Clone(legacy.AllEntityTypes), nil
	}

	selected := make(map[legacy.EntityType]bool, len(args))
	for _, arg := range args {
		if strings.EqualFold(strings.TrimSpace(arg), "all") {
			return slices.Clone(legacy.AllEntityTypes), nil
		}
		kind, ok := legacy.ParseEntityType(arg)
		if !ok {
			return nil, errors.Newf("unknown entity kind %q", arg).
				Component("cli").
				Category(errors.CategoryValidation).
				Build()
		}
		selected[kind] = true
	}

	kinds := make([]legacy.EntityType, 0, len(selected))
	for _, kind := range legacy.AllEntityTypes {
		if selected[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}
