package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"whisperbatch/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "init [path|-]",
		Short:       "Create a sample configuration file (\"-\" prints it)",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ctx.configPath()
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				target = args[0]
			}
			if target == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
				return err
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			if err := config.CreateSample(expanded); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", expanded)
			fmt.Fprintln(out, "Set paths.input and paths.output, and export HF_TOKEN if diarization is enabled.")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after flag overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg.Tree())
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", cfg.Path())
			fmt.Fprint(out, string(data))

			rows := [][]string{
				{"Backend", cfg.Backend()},
				{"Model", cfg.ModelSize()},
				{"Device", cfg.DeviceType() + " / " + cfg.ComputeType()},
				{"Language", languageLabel(cfg.Language())},
				{"Input", cfg.InputDir()},
				{"Output", cfg.OutputDir()},
				{"Formats", strings.Join(cfg.OutputFormats(), ", ")},
				{"Alignment", yesNo(cfg.AlignmentEnabled())},
				{"Diarization", yesNo(cfg.DiarizationEnabled())},
				{"HF token", yesNo(cfg.HFToken() != "")},
				{"History", yesNo(cfg.HistoryEnabled())},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows))
			return nil
		},
	}
}

func languageLabel(code string) string {
	if code == "" {
		return "auto-detect"
	}
	return code
}
