// Package configure implements the config command group.
package configure

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/app"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
)

const defaultConfigFile = "config.yaml"

// Command creates the config command and its subcommands. They run without
// loading the configuration through the root command.
func Command(env *app.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	cmd.AddCommand(initCommand(env), validateCommand(env))
	return cmd
}

func targetPath(env *app.Env) string {
	if env.ConfigPath != "" {
		return env.ConfigPath
	}
	return defaultConfigFile
}

func initCommand(env *app.Env) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := targetPath(env)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := conf.SaveYAMLConfig(path, conf.Defaults()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func validateCommand(env *app.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := conf.Load(env.ConfigPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (store: %s, legacy: %s, policy: %s)\n",
				settings.Store.Driver, settings.Legacy.Driver, settings.Linker.Policy)
			return nil
		},
	}
}
