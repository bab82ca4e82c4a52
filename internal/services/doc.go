// Package services defines shared utilities consumed by the capabilities,
// the orchestrator, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, job sequence numbers, capability
//     names, and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper. The markers drive the
//     orchestrator's failure taxonomy: ErrTransient is retried after backoff,
//     ErrNotFound fails the current job only, everything else aborts the run.
//
// Use these helpers when wiring new capability logic so retry and failure
// behaviour stays uniform across the pipeline.
package services
