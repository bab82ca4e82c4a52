package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mediaflow/internal/chat"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/retry"
	"mediaflow/internal/services"
)

// RunError stops a run. History holds every message appended before the stop.
type RunError struct {
	RunID      string
	Job        jobs.Job
	Capability chat.CapabilityName
	Class      retry.Class
	History    []chat.Message
	Err        error

	interrupted bool
}

func (e *RunError) Error() string {
	var b strings.Builder
	b.WriteString("run ")
	b.WriteString(e.RunID)
	if e.Job.Seq > 0 {
		fmt.Fprintf(&b, " job %d", e.Job.Seq)
	}
	if e.Capability != "" {
		fmt.Fprintf(&b, " (%s)", e.Capability)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("stopped")
	}
	return b.String()
}

func (e *RunError) Unwrap() error { return e.Err }

// Interrupted reports whether the run stopped because the caller's context
// ended rather than because a turn failed.
func (e *RunError) Interrupted() bool { return e.interrupted }

// failureText is the body of the failed message appended for a turn error.
func failureText(err error) string {
	details := services.Details(err)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = "failed without error detail"
	}
	kind := string(details.Kind)
	if errors.Is(err, retry.ErrExhausted) {
		kind = "retries_exhausted"
	}
	return fmt.Sprintf("error (%s): %s", kind, message)
}

func (o *Orchestrator) logTurnFailure(logger *slog.Logger, name chat.CapabilityName, class retry.Class, state retry.State, err error) {
	details := services.Details(err)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "turn_failed"),
		logging.String(logging.FieldCapability, string(name)),
		logging.String("classification", class.String()),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.String("error_operation", details.Operation),
		logging.Int("attempts", state.Attempt),
		logging.Duration("backoff_total", state.Waited),
		logging.String(logging.FieldErrorHint, failureHint(class, details.Kind)),
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.Error(details.Cause))
	} else {
		attrs = append(attrs, logging.Error(err))
	}
	if class == retry.ClassInvalidInput {
		logger.Warn("turn failed; skipping job", logging.Args(attrs...)...)
		return
	}
	logger.Error("turn failed; stopping run", logging.Args(attrs...)...)
}

func failureHint(class retry.Class, kind services.Kind) string {
	switch {
	case class == retry.ClassInvalidInput:
		return "check that the job's directories exist and are readable"
	case kind == services.KindTimeout:
		return "raise orchestrator.turn_timeout_seconds or check the remote service"
	case kind == services.KindTransient:
		return "the remote service kept throttling; raise retry.max_attempts or try later"
	default:
		return "inspect the error and resume the run with `mediaflow resume`"
	}
}
