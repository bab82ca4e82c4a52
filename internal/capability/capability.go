// Package capability defines the leaf workers the orchestrator dispatches to
// and the fixed registry it resolves names against.
package capability

import (
	"context"
	"fmt"
	"sort"

	"mediaflow/internal/chat"
	"mediaflow/internal/jobs"
)

// Task is what a capability receives for one turn.
type Task struct {
	Job     jobs.Job
	History []chat.Message
	// Attempt is the 1-based retry attempt for this turn.
	Attempt int
}

// Params returns the job's context map.
func (t Task) Params() map[string]string {
	return t.Job.Params()
}

// Capability performs one unit of work over a job and reports a
// human-readable result. Returned errors are classified by the retry policy.
type Capability interface {
	Name() chat.CapabilityName
	Invoke(ctx context.Context, task Task) (string, error)
}

// Func adapts a function into a Capability.
type Func struct {
	ID chat.CapabilityName
	Fn func(ctx context.Context, task Task) (string, error)
}

func (f Func) Name() chat.CapabilityName { return f.ID }

func (f Func) Invoke(ctx context.Context, task Task) (string, error) {
	return f.Fn(ctx, task)
}

// HealthChecker is implemented by capabilities that can report readiness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) Health
}

// Registry maps names to capabilities. It is built once and read-only afterwards.
type Registry struct {
	byName map[chat.CapabilityName]Capability
}

// NewRegistry registers caps, rejecting empty and duplicate names.
func NewRegistry(caps ...Capability) (*Registry, error) {
	r := &Registry{byName: make(map[chat.CapabilityName]Capability, len(caps))}
	for _, c := range caps {
		if c == nil {
			return nil, fmt.Errorf("register capability: nil capability")
		}
		name := c.Name()
		if name == "" {
			return nil, fmt.Errorf("register capability: empty name")
		}
		if name == chat.User {
			return nil, fmt.Errorf("register capability: %q is reserved for seeds", name)
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("register capability: duplicate name %q", name)
		}
		r.byName[name] = c
	}
	return r, nil
}

// Lookup returns the capability registered under name.
func (r *Registry) Lookup(name chat.CapabilityName) (Capability, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.byName[name]
	return c, ok
}

// Names lists registered names in sorted order.
func (r *Registry) Names() []chat.CapabilityName {
	if r == nil {
		return nil
	}
	out := make([]chat.CapabilityName, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Missing returns the names not present in the registry.
func (r *Registry) Missing(names ...chat.CapabilityName) []chat.CapabilityName {
	var missing []chat.CapabilityName
	for _, name := range names {
		if _, ok := r.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// HealthChecks collects readiness from every capability that reports it.
func (r *Registry) HealthChecks(ctx context.Context) []Health {
	var out []Health
	for _, name := range r.Names() {
		if hc, ok := r.byName[name].(HealthChecker); ok {
			out = append(out, hc.HealthCheck(ctx))
		}
	}
	return out
}
