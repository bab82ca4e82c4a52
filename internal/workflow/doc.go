// Package workflow drives capabilities turn by turn over a shared transcript.
//
// The Orchestrator seeds one user message per job, asks the selection
// strategy which capability takes the next turn, dispatches it through the
// retry policy, appends the result, and consults the termination strategy
// before choosing again. Exactly one turn is in flight at a time, so the
// history order is the order capabilities complete.
//
// A started turn runs on a context detached from caller cancellation and
// bounded by the turn timeout; cancellation is honoured between turns and
// during retry backoff. Invalid job input fails only the job. Fatal errors and
// exhausted retry budgets stop the run with a *RunError that carries the
// partial history.
//
// When a Recorder is configured every append is persisted, which lets Resume
// rebuild the transcript of an interrupted run and continue its unfinished
// jobs.
package workflow
