// Package retry wraps a single capability turn with classification-driven
// backoff.
//
// Transient failures (throttling by the remote reasoning service) are retried
// after a flat or exponential delay, optionally raised by a Retry-After hint.
// Invalid job input and everything else return immediately so the
// orchestrator can decide whether the job or the whole run fails. Sleeps go
// through an injectable sleeper and honour context cancellation.
package retry
