package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/watch"
	"mediaflow/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var metricsAddr string
	var quiet time.Duration
	var initial bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process the source directory whenever new files settle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requireReady(cmd.Context(), cfg, false); err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			defaults := jobs.DefaultsFromConfig(cfg)

			return ctx.withPipeline(cmd, metricsAddr, func(runCtx context.Context, p *pipeline.Pipeline) error {
				w := watch.New(logger)
				w.Initial = initial
				return w.Run(runCtx, cfg.Paths.SourceDir, quiet, func(triggerCtx context.Context) error {
					list, err := jobs.FromPaths([]string{cfg.Paths.SourceDir}, defaults)
					if err != nil {
						return err
					}
					result, err := p.Orchestrator.Run(triggerCtx, list)
					var runErr *workflow.RunError
					if errors.As(err, &runErr) {
						if runErr.Interrupted() {
							return nil
						}
						// Keep watching; the failed run stays resumable.
						logging.WarnWithContext(logger, "watch-triggered run stopped", "watch_run_failed",
							logging.String(logging.FieldRunID, runErr.RunID),
							logging.Error(err),
						)
						return nil
					}
					if err != nil {
						return err
					}
					return reportResult(cmd.OutOrStdout(), result, nil)
				})
			})
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (overrides metrics.bind)")
	cmd.Flags().DurationVar(&quiet, "quiet", watch.DefaultQuiet, "How long the inbox must be idle before a run starts")
	cmd.Flags().BoolVar(&initial, "initial", true, "Process existing files once at startup")
	return cmd
}
