// Package cmd holds the command line interface of the shelter registry.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/cmd/configure"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/cmd/link"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/cmd/migrate"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/cmd/serve"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/cmd/stats"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/app"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/buildinfo"
)

// Execute runs the command line with the process arguments and releases the
// environment afterwards.
func Execute(ctx context.Context, info *buildinfo.Context) error {
	env := app.NewEnv(info)
	defer func() { _ = env.Close() }()
	return RootCommand(env).ExecuteContext(ctx)
}

// RootCommand creates and returns the root command
func RootCommand(env *app.Env) *cobra.Command {
	info := env.Info

	rootCmd := &cobra.Command{
		Use:          "registry",
		Short:        "Shelter registry legacy reconciliation and statistics",
		SilenceUsage: true,
	}

	// Set up the global flags for the root command.
	rootCmd.PersistentFlags().StringVarP(&env.ConfigPath, "config", "c", "", "Path to config.yaml (default: ./config.yaml or the user config directory)")
	rootCmd.PersistentFlags().BoolVarP(&env.Debug, "debug", "d", false, "Enable debug output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
		},
	}
	configCmd := configure.Command(env)

	rootCmd.AddCommand(
		migrate.Command(env),
		link.Command(env),
		stats.Command(env),
		serve.Command(env),
		configCmd,
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		// version and config subcommands work without a valid configuration
		if cmd == versionCmd || (cmd.HasParent() && cmd.Parent() == configCmd) {
			return nil
		}
		return env.Init()
	}

	return rootCmd
}
