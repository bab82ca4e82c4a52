package services

import "context"

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	jobSeqKey     contextKey = "job_seq"
	capabilityKey contextKey = "capability"
	requestIDKey  contextKey = "request_id"
)

// WithRunID annotates context with the orchestrator run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithJobSeq annotates context with the 1-based job sequence number.
func WithJobSeq(ctx context.Context, seq int) context.Context {
	return context.WithValue(ctx, jobSeqKey, seq)
}

// JobSeqFromContext extracts the job sequence number if present.
func JobSeqFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(jobSeqKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithCapability annotates context with the capability taking the turn.
func WithCapability(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, capabilityKey, name)
}

// CapabilityFromContext returns the capability name if present.
func CapabilityFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(capabilityKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
