package preflight

import (
	"context"

	"mediaflow/internal/capability"
)

// CheckCapabilities converts capability health reports into advisory results.
// A capability that is not ready degrades output but does not stop a run.
func CheckCapabilities(ctx context.Context, registry *capability.Registry) []Result {
	if registry == nil {
		return nil
	}
	var results []Result
	for _, h := range registry.HealthChecks(ctx) {
		detail := h.Detail
		if h.Ready && detail == "" {
			detail = "Ready"
		}
		results = append(results, Result{
			Name:     h.Name,
			Passed:   h.Ready,
			Detail:   detail,
			Advisory: true,
		})
	}
	return results
}
