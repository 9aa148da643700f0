package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"framestash/internal/logging"
	"framestash/internal/pipeline"
	"framestash/internal/preflight"
	"framestash/internal/queue"
	"framestash/internal/staging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process every pending job, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := preflight.Failures(preflight.RunAll(cfg)); err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			return ctx.withWorker(out, func(_ *queue.Store, worker *pipeline.Worker) error {
				// Only safe while the worker lock is held.
				logger, _ := ctx.ensureLogger()
				staging.CleanStale(runCtx, cfg.Paths.WorkDir, staging.DefaultMaxAge, logging.NewComponentLogger(logger, "staging"))

				summary, err := worker.RunPending(runCtx)
				fmt.Fprintf(out, "Run %s: %d completed, %d failed\n", summary.RunID, summary.Completed, summary.Failed)
				return err
			})
		},
	}
}
