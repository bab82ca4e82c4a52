// Package llm provides an OpenRouter-compatible chat client for the remote
// reasoning service.
//
// ContentAnalyst uses DetectObjects to tag images: the image travels as a
// base64 data URL and the model answers {"tags": [...]}. HealthCheck backs
// the preflight command.
//
// # Retry Behaviour
//
// The client retries HTTP 408/5xx errors, empty completions, and network
// timeouts with exponential backoff (base 1s, max 10s, 3 attempts by
// default). HTTP 429 and provider "rate limit" errors are returned at once
// as *RateLimitError, which wraps services.ErrTransient and carries any
// Retry-After hint, so the orchestrator's retry policy decides how long to
// wait. Requests are paced by a token-bucket limiter when
// requests_per_minute is set. Context cancellation aborts immediately.
package llm
