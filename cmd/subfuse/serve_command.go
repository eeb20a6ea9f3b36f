package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"subfuse/internal/daemon"
	"subfuse/internal/logging"
	"subfuse/internal/preflight"
	"subfuse/internal/queue"
	"subfuse/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon: HTTP API plus background queue worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := buildLogger(cfg, true)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if !skipPreflight {
				results := preflight.RunAll(runCtx, cfg)
				for _, result := range results {
					if result.Passed {
						continue
					}
					logger.Warn("preflight check failed",
						logging.String("check", result.Name),
						logging.String("detail", result.Detail),
					)
				}
				if !preflight.Passed(results) {
					return fmt.Errorf("preflight checks failed; fix the environment or pass --skip-preflight")
				}
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}

			p, err := buildPipeline(cfg, store, logger)
			if err != nil {
				store.Close()
				return fmt.Errorf("build pipeline: %w", err)
			}

			api, err := server.New(cfg, store, p, logger)
			if err != nil {
				store.Close()
				return fmt.Errorf("build api server: %w", err)
			}

			d, err := daemon.New(cfg, store, p, api, logger)
			if err != nil {
				store.Close()
				return fmt.Errorf("build daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(runCtx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "subfuse daemon listening on %s\n", d.Status().APIAddress)
			<-runCtx.Done()
			logger.Info("shutting down")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start even when preflight checks fail")
	return cmd
}
