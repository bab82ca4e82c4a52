// Package logging assembles structured slog loggers and formatting helpers used
// across mediaflow.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so capability and orchestrator
// code automatically tags log lines with run IDs, job sequence numbers,
// capability names, and correlation IDs. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
