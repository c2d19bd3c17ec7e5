package main

import (
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.yaml"

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "whisperbatch",
		Short:         "Batch audio transcription with WhisperX",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), ctx, cmd.OutOrStdout())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", defaultConfigPath, "Configuration file path")
	pf.StringVar(&flags.input, "input", "", "Input directory (overrides paths.input)")
	pf.StringVar(&flags.output, "output", "", "Output directory (overrides paths.output)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARNING or ERROR")
	pf.StringVar(&flags.device, "device", "", "Device: cuda, cpu or auto")
	pf.StringVar(&flags.model, "model", "", "Model size: tiny, base, small, medium, large-v1, large-v2, large-v3 or large-v3-turbo")
	rootCmd.Flags().BoolVar(&flags.skipPreflight, "skip-preflight", false, "Start the run without dependency checks")

	rootCmd.AddCommand(newRunCommand(ctx, flags))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))

	return rootCmd
}

func newRunCommand(ctx *commandContext, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe every audio file in the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), ctx, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&flags.skipPreflight, "skip-preflight", false, "Start the run without dependency checks")
	return cmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
