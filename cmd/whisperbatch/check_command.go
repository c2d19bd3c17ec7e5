package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperbatch/internal/notifications"
	"whisperbatch/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check directories, binaries, GPU and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n", cfg.Path())
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows(results)))
			if notify {
				if cfg.NtfyTopic() == "" {
					fmt.Fprintln(out, "Notifications disabled (notifications.ntfy_topic is empty)")
				} else if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					return fmt.Errorf("test notification: %w", err)
				} else {
					fmt.Fprintln(out, "Test notification sent")
				}
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "Send a test notification to the configured ntfy topic")
	return cmd
}

func checkRows(results []preflight.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		switch {
		case r.Passed:
		case r.Advisory:
			status = "warn"
		default:
			status = "FAIL"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return rows
}
