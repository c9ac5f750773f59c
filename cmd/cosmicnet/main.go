package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "cosmicnet",
		Short:        "Galaxy-scale star network simulation",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $COSMICNET_CONFIG or config/cosmicnet.toml)")

	rootCmd.AddCommand(runCmd(&configPath))
	rootCmd.AddCommand(validateCmd(&configPath))
	rootCmd.AddCommand(presetCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd(configPath *string) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath = *configPath
			return runSim(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.preset, "preset", "", "load the simulation section from a stored preset")
	cmd.Flags().BoolVar(&opts.serve, "serve", false, "serve the viewer stream even if disabled in config")
	cmd.Flags().DurationVar(&opts.maxRuntime, "for", 0, "stop after this much wall time (overrides loop.max_runtime)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "override simulation.seed")
	return cmd
}

func validateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and galaxy table without running",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runValidate(*configPath)
		},
	}
}

func presetCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage simulation presets stored in the database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "save [name]",
		Short: "Store the config's simulation section under name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresetSave(cmd.Context(), *configPath, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show [name]",
		Short: "Print a stored preset as TOML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresetShow(cmd.Context(), *configPath, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPresetList(cmd.Context(), *configPath)
		},
	})
	return cmd
}
