package preflight

import (
	"context"

	"mediaflow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Advisory results are reported but never block a run.
	Advisory bool
}

// SourceCheckName names the configured source directory check.
const SourceCheckName = "Source directory"

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess(SourceCheckName, cfg.Paths.SourceDir),
		CheckDirectoryAccess("Target directory", cfg.Paths.TargetDir),
		CheckDirectoryAccess("Defective directory", cfg.Paths.DefectiveDir),
		CheckDirectoryAccess("Non-media directory", cfg.Paths.NonMediaDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckStateLock(cfg.Paths.StateDir),
	}

	if cfg.Content.Detector == config.DetectorLLM {
		results = append(results, CheckLLM(ctx, "Vision LLM", cfg.LLM))
	}
	return results
}

// Blocking returns the failed results that should stop a run.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Advisory {
			failed = append(failed, r)
		}
	}
	return failed
}
