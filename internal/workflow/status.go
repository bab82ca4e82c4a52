package workflow

import (
	"context"

	"mediaflow/internal/capability"
)

// StatusSummary represents lightweight orchestrator diagnostics.
type StatusSummary struct {
	Running          bool
	State            State
	RunID            string
	LastError        string
	CapabilityHealth []capability.Health
}

// Status returns the latest orchestrator information and capability health.
func (o *Orchestrator) Status(ctx context.Context) StatusSummary {
	o.mu.RLock()
	summary := StatusSummary{
		Running: o.running.Load(),
		State:   o.State(),
		RunID:   o.runID,
	}
	if o.lastErr != nil {
		summary.LastError = o.lastErr.Error()
	}
	o.mu.RUnlock()

	summary.CapabilityHealth = o.registry.HealthChecks(ctx)
	return summary
}

func (o *Orchestrator) setLastError(err error) {
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
}

func (o *Orchestrator) setRunID(id string) {
	o.mu.Lock()
	o.runID = id
	o.mu.Unlock()
}
