package main

import (
	"github.com/spf13/cobra"

	"github.com/qsnshell/qsn/internal/config"
	clierrors "github.com/qsnshell/qsn/internal/errors"
	"github.com/qsnshell/qsn/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View and modify qsn configuration settings.`,
		Example: `  qsn config list
  qsn config get encode.mode
  qsn config set encode.mode x_escape`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Long:  `Print every configured key, or render the settings as YAML with --format yaml.`,
		Example: `  qsn config list
  qsn config list --format yaml`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			if format == "yaml" {
				yamlOut, err := cfg.YAML()
				if err != nil {
					return err
				}

				out.Print("%s", yamlOut)

				return nil
			}

			settings := cfg.All()

			if out.JSON {
				return out.PrintJSON(settings)
			}

			if len(settings) == 0 {
				out.Muted("No configuration set.")
				out.Println()
				out.Println("Available settings:")
				out.Print("  encode.mode                 Default display mode for 'qsn encode' (default: %s)\n", config.DefaultDisplayMode)
				out.Print("  transcript.enabled          Enable PTY transcript capture (default: true)\n")
				out.Print("  transcript.dir              Transcript storage directory (default: ~/.local/state/qsn/transcripts)\n")
				out.Print("  transcript.scrollback_lines In-memory transcript lines per session (default: 10000)\n")
				out.Print("  transcript.retention        Default prune window (default: %s)\n", config.DefaultRetention)

				return nil
			}

			for key, value := range settings {
				out.Print("%s = %v\n", key, value)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Output format: yaml")

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Long:    `Print the current value of a single configuration key.`,
		Example: `  qsn config get transcript.retention`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key := args[0]
			cfg := config.Load()
			value := cfg.Get(key)

			if value == nil {
				out.Muted("%s is not set", key)
				return nil
			}

			out.Print("%s = %v\n", key, value)

			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Set a configuration value",
		Long:    `Persist a configuration key to the config file, creating it if necessary.`,
		Example: `  qsn config set transcript.retention 168h`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key, value := args[0], args[1]
			cfg := config.Load()

			if err := cfg.Set(key, value); err != nil {
				return clierrors.ConfigFailed("set config", err)
			}

			out.Success("Set %s = %s", key, value)

			return nil
		},
	}
}
