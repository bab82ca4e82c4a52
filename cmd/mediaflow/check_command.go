package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediaflow/internal/pipeline"
	"mediaflow/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, the state lock, and the detection service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			registry, err := pipeline.NewRegistry(cfg, logger, pipeline.NewDetector(cfg), nil)
			if err != nil {
				return err
			}
			capabilities := preflight.CheckCapabilities(cmd.Context(), registry)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			writeCheckSection(out, "Environment", results, colorize)
			writeCheckSection(out, "Capabilities", capabilities, colorize)

			if failed := preflight.Blocking(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
}
