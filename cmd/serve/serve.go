// Package serve implements the serve command.
package serve

import (
	"github.com/spf13/cobra"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/api"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/app"
)

// Command creates the serve command.
func Command(env *app.Env) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the statistics API and the login hook over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := env.Settings.Dashboard
			if listen != "" {
				settings.Listen = listen
			}

			a, err := env.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			svc, err := a.IdentityService()
			if err != nil {
				return err
			}

			deps := api.Dependencies{
				Datasets:   a.Datasets(true),
				Identities: svc,
				Ping:       a.Store.Ping,
			}
			if env.Settings.Telemetry.MetricsEnabled {
				deps.Metrics = a.Metrics
			}

			return api.New(&settings, deps, env.Logger).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")

	return cmd
}
