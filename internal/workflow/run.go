package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mediaflow/internal/capability"
	"mediaflow/internal/chat"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/retry"
	"mediaflow/internal/services"
	"mediaflow/internal/store"
	"mediaflow/internal/strategy"
)

// JobResult is the outcome of one job.
type JobResult struct {
	Job    jobs.Job
	Status jobs.Status
	Reason strategy.Reason
	Turns  int
	// Err is set when the job failed.
	Err error
}

// Result summarises a run. History is the full transcript, seeds included.
type Result struct {
	RunID    string
	Jobs     []JobResult
	History  []chat.Message
	Duration time.Duration
}

type runState struct {
	id      string
	history *chat.History
}

// Run processes list in order, one job at a time, and returns when the last
// job has stopped. A *RunError is returned (alongside the partial Result)
// when a fatal failure or cancellation stops the run early.
func (o *Orchestrator) Run(ctx context.Context, list []jobs.Job) (Result, error) {
	if len(list) == 0 {
		return Result{}, ErrNoJobs
	}
	if !o.running.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer o.running.Store(false)

	runID := uuid.NewString()
	if o.recorder != nil {
		if err := o.recorder.CreateRun(context.WithoutCancel(ctx), runID, list); err != nil {
			return Result{RunID: runID}, fmt.Errorf("record run: %w", err)
		}
	}
	return o.execute(ctx, &runState{id: runID, history: chat.NewHistory()}, list, nil, false)
}

// Resume rebuilds the transcript of an unfinished run from the recorder and
// continues with its unfinished jobs. Each unfinished job is seeded again, so
// its chain restarts from the head while earlier messages stay in place.
func (o *Orchestrator) Resume(ctx context.Context, runID string) (Result, error) {
	if o.recorder == nil {
		return Result{RunID: runID}, fmt.Errorf("%w: no recorder configured", ErrNotResumable)
	}
	if !o.running.CompareAndSwap(false, true) {
		return Result{RunID: runID}, ErrBusy
	}
	defer o.running.Store(false)

	run, err := o.recorder.LoadRun(ctx, runID)
	if err != nil {
		return Result{RunID: runID}, err
	}
	if !run.Status.Resumable() {
		return Result{RunID: runID, History: run.Messages}, fmt.Errorf("%w: run %s already completed", ErrNotResumable, runID)
	}

	var (
		finished []JobResult
		pending  []jobs.Job
	)
	for _, rec := range run.Jobs {
		if rec.Status.Terminal() {
			finished = append(finished, JobResult{
				Job:    rec.Job,
				Status: rec.Status,
				Reason: strategy.Reason(rec.Reason),
				Turns:  turnsForJob(run.Messages, rec.Job.Seq),
			})
			continue
		}
		pending = append(pending, rec.Job)
	}

	if err := o.recorder.ReopenRun(context.WithoutCancel(ctx), runID); err != nil {
		return Result{RunID: runID}, fmt.Errorf("reopen run: %w", err)
	}
	return o.execute(ctx, &runState{id: runID, history: chat.NewHistory(run.Messages...)}, pending, finished, true)
}

func (o *Orchestrator) execute(ctx context.Context, rs *runState, pending []jobs.Job, finished []JobResult, resumed bool) (Result, error) {
	defer o.setState(StateIdle)
	o.setRunID(rs.id)
	o.setLastError(nil)

	ctx = services.WithRunID(ctx, rs.id)
	logger := logging.WithContext(ctx, o.logger)
	started := time.Now()
	result := Result{RunID: rs.id, Jobs: finished}

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("jobs", len(pending)),
		logging.Bool("resumed", resumed),
	)

	for _, job := range pending {
		jr, err := o.runJob(ctx, rs, job)
		if jr.Status != "" {
			result.Jobs = append(result.Jobs, jr)
		}
		if err != nil {
			result.History = rs.history.Messages()
			result.Duration = time.Since(started)
			return result, o.abort(ctx, logger, rs, err)
		}
	}

	result.History = rs.history.Messages()
	result.Duration = time.Since(started)
	o.finishRun(ctx, logger, rs.id, store.RunCompleted, "")
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("jobs", len(result.Jobs)),
		logging.Int("messages", len(result.History)),
		logging.Duration("run_duration", result.Duration),
	)
	return result, nil
}

func (o *Orchestrator) runJob(ctx context.Context, rs *runState, job jobs.Job) (JobResult, error) {
	ctx = services.WithJobSeq(ctx, job.Seq)
	logger := logging.WithContext(ctx, o.logger)
	jr := JobResult{Job: job}

	if err := ctx.Err(); err != nil {
		return jr, &RunError{RunID: rs.id, Job: job, Class: retry.ClassFatal, Err: err, interrupted: true}
	}

	o.setState(StateAwaitingSeed)
	seed := o.newMessage(chat.User, chat.RoleUser, job.Source, chat.OutcomeOK, job.Seq)
	if err := o.append(ctx, rs, seed); err != nil {
		return jr, &RunError{RunID: rs.id, Job: job, Class: retry.ClassFatal, Err: err}
	}
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source", job.Source),
	)

	for {
		if err := ctx.Err(); err != nil {
			return jr, &RunError{RunID: rs.id, Job: job, Class: retry.ClassFatal, Err: err, interrupted: true}
		}

		o.setState(StateSelectingTurn)
		name := o.selection.Select(rs.history)
		c, ok := o.registry.Lookup(name)
		if !ok {
			return jr, &RunError{
				RunID: rs.id, Job: job, Capability: name, Class: retry.ClassFatal,
				Err: fmt.Errorf("%w: %s", ErrUnknownCapability, name),
			}
		}

		turnCtx := services.WithCapability(ctx, string(name))
		turnLogger := logging.WithContext(turnCtx, o.logger)
		turnLogger.Debug("turn dispatched", logging.String(logging.FieldEventType, "turn_start"))

		started := time.Now()
		task := capability.Task{Job: job, History: rs.history.Messages()}
		body, state, err := o.dispatch(turnCtx, turnLogger, c, task)
		elapsed := time.Since(started)
		o.metrics.recordRetries(name, state.Attempt-1, state.Waited)

		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) && !errors.Is(err, services.ErrTimeout) {
			turnLogger.Info("turn abandoned by cancellation",
				logging.String(logging.FieldEventType, "turn_cancelled"),
				logging.Int("attempts", state.Attempt),
			)
			return jr, &RunError{RunID: rs.id, Job: job, Capability: name, Class: retry.ClassFatal, Err: err, interrupted: true}
		}

		jr.Turns++
		o.setState(StateAppending)
		if err != nil {
			class := retry.Classify(err)
			msg := o.newMessage(name, chat.RoleAssistant, failureText(err), chat.OutcomeFailed, job.Seq)
			appendErr := o.append(ctx, rs, msg)
			o.metrics.recordTurn(name, chat.OutcomeFailed, elapsed)
			o.logTurnFailure(turnLogger, name, class, state, err)

			jr.Status, jr.Reason, jr.Err = jobs.StatusFailed, strategy.ReasonFailed, err
			if appendErr != nil {
				return jr, &RunError{RunID: rs.id, Job: job, Capability: name, Class: retry.ClassFatal, Err: errors.Join(err, appendErr)}
			}
			if class == retry.ClassInvalidInput {
				o.finishJob(ctx, logger, rs.id, jr)
				return jr, nil
			}
			// The job stays unfinished in the recorder so Resume retries it.
			o.metrics.recordJob(jr.Status)
			return jr, &RunError{RunID: rs.id, Job: job, Capability: name, Class: class, Err: err}
		}

		msg := o.newMessage(name, chat.RoleAssistant, body, chat.OutcomeOK, job.Seq)
		if err := o.append(ctx, rs, msg); err != nil {
			return jr, &RunError{RunID: rs.id, Job: job, Capability: name, Class: retry.ClassFatal, Err: err}
		}
		o.metrics.recordTurn(name, chat.OutcomeOK, elapsed)
		turnLogger.Info("turn completed",
			logging.String(logging.FieldEventType, "turn_complete"),
			logging.String("result", body),
			logging.Int("attempts", state.Attempt),
			logging.Duration("turn_duration", elapsed),
		)

		o.setState(StateCheckingTermination)
		if o.termination.ShouldStop(rs.history) {
			jr.Reason = o.reason(rs.history)
			jr.Status = statusForReason(jr.Reason)
			o.finishJob(ctx, logger, rs.id, jr)
			return jr, nil
		}
	}
}

// append adds msg to the history, notifies the observer, and persists it.
func (o *Orchestrator) append(ctx context.Context, rs *runState, msg chat.Message) error {
	rs.history.Append(msg)
	position := rs.history.Len() - 1
	if o.observer != nil {
		o.observer.Observe(msg)
	}
	if o.recorder == nil {
		return nil
	}
	if err := o.recorder.AppendMessage(context.WithoutCancel(ctx), rs.id, position, msg); err != nil {
		return fmt.Errorf("record message %d: %w", position, err)
	}
	return nil
}

func (o *Orchestrator) finishJob(ctx context.Context, logger *slog.Logger, runID string, jr JobResult) {
	o.metrics.recordJob(jr.Status)
	logger.Info("job finished",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("status", string(jr.Status)),
		logging.String("reason", string(jr.Reason)),
		logging.Int("turns", jr.Turns),
	)
	if o.recorder == nil {
		return
	}
	if err := o.recorder.FinishJob(context.WithoutCancel(ctx), runID, jr.Job.Seq, jr.Status, string(jr.Reason)); err != nil {
		logging.WarnWithContext(logger, "failed to persist job status", "job_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database"),
		)
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, logger *slog.Logger, runID string, status store.RunStatus, errMsg string) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.FinishRun(context.WithoutCancel(ctx), runID, status, errMsg); err != nil {
		logging.WarnWithContext(logger, "failed to persist run status", "run_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database"),
		)
	}
}

func (o *Orchestrator) abort(ctx context.Context, logger *slog.Logger, rs *runState, err error) error {
	var runErr *RunError
	if !errors.As(err, &runErr) {
		runErr = &RunError{RunID: rs.id, Class: retry.ClassFatal, Err: err}
	}
	runErr.History = rs.history.Messages()
	o.setLastError(runErr)

	status := store.RunFailed
	event := "run_failed"
	if runErr.Interrupted() {
		status = store.RunInterrupted
		event = "run_interrupted"
	}
	o.finishRun(ctx, logger, rs.id, status, runErr.Error())
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, event),
		logging.Int("messages", len(runErr.History)),
		logging.Error(runErr.Err),
	}
	if runErr.Interrupted() {
		logger.Warn("run interrupted", logging.Args(attrs...)...)
	} else {
		logger.Error("run stopped", logging.Args(attrs...)...)
	}
	return runErr
}

func statusForReason(reason strategy.Reason) jobs.Status {
	switch reason {
	case strategy.ReasonCeiling:
		return jobs.StatusCeiling
	case strategy.ReasonFailed:
		return jobs.StatusFailed
	default:
		return jobs.StatusCompleted
	}
}

func turnsForJob(msgs []chat.Message, seq int) int {
	n := 0
	for _, msg := range msgs {
		if msg.JobSeq == seq && msg.Role == chat.RoleAssistant {
			n++
		}
	}
	return n
}
