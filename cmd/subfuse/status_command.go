package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subfuse/internal/preflight"
	"subfuse/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment checks and queue summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			summary, err := store.Summary(cmd.Context())
			if err != nil {
				return fmt.Errorf("summarize queue: %w", err)
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Total", statusOK, fmt.Sprintf("%d", summary.Total), colorize))
			fmt.Fprintln(out, renderStatusLine("Pending", statusOK, fmt.Sprintf("%d", summary.Pending), colorize))
			fmt.Fprintln(out, renderStatusLine("Processing", statusOK, fmt.Sprintf("%d", summary.Processing), colorize))
			fmt.Fprintln(out, renderStatusLine("Completed", statusOK, fmt.Sprintf("%d", summary.Completed), colorize))
			failedKind := statusOK
			if summary.Failed > 0 {
				failedKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", summary.Failed), colorize))
			return nil
		},
	}
}
