package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediaflow/internal/config"
	"mediaflow/internal/jobs"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/preflight"
	"mediaflow/internal/store"
	"mediaflow/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var metricsAddr string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run [source...]",
		Short: "Process one or more source directories",
		Long: "Run the capability chain over each source directory in turn. With no\n" +
			"arguments the configured paths.source_dir is used; --jobs reads a YAML\n" +
			"manifest of sources with per-job overrides.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			list, err := buildJobs(cfg, manifestPath, args)
			if err != nil {
				return err
			}
			if !skipPreflight {
				if err := requireReady(cmd.Context(), cfg, len(args) > 0 || manifestPath != ""); err != nil {
					return err
				}
			}
			return ctx.withPipeline(cmd, metricsAddr, func(runCtx context.Context, p *pipeline.Pipeline) error {
				result, err := p.Orchestrator.Run(runCtx, list)
				return reportResult(cmd.OutOrStdout(), result, err)
			})
		},
	}

	cmd.Flags().StringVar(&manifestPath, "jobs", "", "YAML job manifest")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (overrides metrics.bind)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start even when preflight checks fail")
	return cmd
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "resume [run-id]",
		Short: "Continue an interrupted or failed run",
		Long:  "Continue a run that did not complete. Without an id the newest unfinished run is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd, metricsAddr, func(runCtx context.Context, p *pipeline.Pipeline) error {
				runID := ""
				if len(args) == 1 {
					runID = strings.TrimSpace(args[0])
				}
				if runID == "" {
					latest, err := p.Store.LatestResumable(runCtx)
					if errors.Is(err, store.ErrNotFound) {
						fmt.Fprintln(cmd.OutOrStdout(), "No unfinished runs")
						return nil
					}
					if err != nil {
						return err
					}
					runID = latest
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Resuming run %s\n\n", runID)
				result, err := p.Orchestrator.Resume(runCtx, runID)
				return reportResult(cmd.OutOrStdout(), result, err)
			})
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (overrides metrics.bind)")
	return cmd
}

// withPipeline opens the pipeline with a transcript printer and metrics, and
// hands fn a context cancelled by SIGINT/SIGTERM.
func (c *commandContext) withPipeline(cmd *cobra.Command, metricsFlag string, fn func(context.Context, *pipeline.Pipeline) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return err
	}

	runCtx, stop := signalContext(cmd)
	defer stop()

	addr := resolveMetricsAddr(metricsFlag, cfg)
	p, err := pipeline.Open(cfg, logger, pipeline.Options{
		Observer: newTranscriptPrinter(cmd.OutOrStdout()),
		Metrics:  addr != "",
	})
	if err != nil {
		return err
	}
	defer p.Close()

	serveMetrics(runCtx, addr, logger)
	return fn(runCtx, p)
}

func buildJobs(cfg *config.Config, manifestPath string, sources []string) ([]jobs.Job, error) {
	defaults := jobs.DefaultsFromConfig(cfg)
	if manifestPath != "" {
		if len(sources) > 0 {
			return nil, errors.New("pass either source directories or --jobs, not both")
		}
		return jobs.LoadManifest(manifestPath, defaults)
	}
	if len(sources) == 0 {
		sources = []string{cfg.Paths.SourceDir}
	}
	return jobs.FromPaths(sources, defaults)
}

// requireReady fails when a blocking preflight check fails. The configured
// source directory is ignored when the jobs name their own sources.
func requireReady(ctx context.Context, cfg *config.Config, explicitSources bool) error {
	var problems []string
	for _, r := range preflight.Blocking(preflight.RunAll(ctx, cfg)) {
		if explicitSources && r.Name == preflight.SourceCheckName {
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed (run `mediaflow check` for details):\n  %s", strings.Join(problems, "\n  "))
}

func reportResult(out io.Writer, result workflow.Result, err error) error {
	if len(result.Jobs) > 0 {
		rows := make([][]string, 0, len(result.Jobs))
		for _, jr := range result.Jobs {
			rows = append(rows, []string{
				strconv.Itoa(jr.Job.Seq),
				jr.Job.Source,
				string(jr.Status),
				strconv.Itoa(jr.Turns),
				string(jr.Reason),
			})
		}
		fmt.Fprintln(out, renderTable([]column{
			{title: "Job", right: true},
			{title: "Source"},
			{title: "Status"},
			{title: "Turns", right: true},
			{title: "Reason"},
		}, rows))
	}

	var runErr *workflow.RunError
	if errors.As(err, &runErr) {
		if runErr.Interrupted() {
			fmt.Fprintf(out, "Run %s interrupted; continue with `mediaflow resume %s`\n", runErr.RunID, runErr.RunID)
			return nil
		}
		fmt.Fprintf(out, "Run %s stopped; fix the cause and continue with `mediaflow resume %s`\n", runErr.RunID, runErr.RunID)
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run %s completed in %s\n", result.RunID, result.Duration.Round(time.Millisecond))
	return nil
}
