package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediaflow/internal/capability"
	"mediaflow/internal/chat"
	"mediaflow/internal/logging"
	"mediaflow/internal/retry"
	"mediaflow/internal/services"
)

const defaultHeartbeat = 30 * time.Second

// turnGrace bounds how long a timed-out turn may keep running after its
// context is cancelled before the orchestrator moves on.
const turnGrace = 5 * time.Second

type turnResult struct {
	body string
	err  error
}

// dispatch runs one turn through the retry policy. Backoff sleeps honour ctx;
// each attempt runs detached from it.
func (o *Orchestrator) dispatch(ctx context.Context, logger *slog.Logger, c capability.Capability, task capability.Task) (string, retry.State, error) {
	o.setState(StateDispatching)
	return o.retry.Do(ctx, func(ctx context.Context, attempt int) (string, error) {
		if attempt > 1 {
			logger.Info("retrying turn",
				logging.String(logging.FieldEventType, "turn_retry"),
				logging.Int("attempt", attempt),
			)
		}
		o.setState(StateAwaitingResult)
		attemptTask := task
		attemptTask.Attempt = attempt
		body, err := o.invoke(ctx, logger, c, attemptTask)
		if err != nil && retry.Classify(err) == retry.ClassTransient {
			logging.WarnWithContext(logger, "transient turn failure", "turn_transient",
				logging.Int("attempt", attempt),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "waiting for the retry backoff before trying again"),
			)
		}
		return body, err
	})
}

// invoke calls the capability on a context that ignores caller cancellation
// and expires after the turn timeout. A capability that overruns the timeout
// is abandoned and the turn fails as a timeout.
func (o *Orchestrator) invoke(ctx context.Context, logger *slog.Logger, c capability.Capability, task capability.Task) (string, error) {
	callCtx := services.WithRequestID(context.WithoutCancel(ctx), uuid.NewString())
	var cancel context.CancelFunc
	if o.turnTimeout > 0 {
		callCtx, cancel = context.WithTimeout(callCtx, o.turnTimeout)
	} else {
		callCtx, cancel = context.WithCancel(callCtx)
	}
	defer cancel()

	done := make(chan turnResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- turnResult{err: fmt.Errorf("capability %s panicked: %v\n%s", c.Name(), r, debug.Stack())}
			}
		}()
		body, err := c.Invoke(callCtx, task)
		done <- turnResult{body: body, err: err}
	}()

	hbCtx, hbCancel := context.WithCancel(callCtx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go o.heartbeatLoop(hbCtx, &hbWG, logging.WithContext(callCtx, logger))
	defer func() {
		hbCancel()
		hbWG.Wait()
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(res.err, services.ErrTimeout) {
			return "", services.Wrap(services.ErrTimeout, string(c.Name()), "invoke",
				fmt.Sprintf("turn exceeded %s", o.turnTimeout), res.err)
		}
		return res.body, res.err
	case <-callCtx.Done():
		cancel()
		o.awaitAbandoned(logger, c.Name(), done)
		return "", services.Wrap(services.ErrTimeout, string(c.Name()), "invoke",
			fmt.Sprintf("turn exceeded %s", o.turnTimeout), callCtx.Err())
	}
}

// awaitAbandoned waits for a cancelled capability to return so its file moves
// do not overlap the next turn.
func (o *Orchestrator) awaitAbandoned(logger *slog.Logger, name chat.CapabilityName, done <-chan turnResult) {
	timer := time.NewTimer(turnGrace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		logging.WarnWithContext(logger, "capability still running after turn timeout", "turn_abandoned",
			logging.String("capability", string(name)),
			logging.Duration("grace", turnGrace),
			logging.String(logging.FieldErrorHint, "the capability does not honour cancellation; file moves may overlap the next turn"),
		)
	}
}

// heartbeatLoop logs while a turn is awaited so long remote calls stay visible.
func (o *Orchestrator) heartbeatLoop(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger) {
	defer wg.Done()
	ticker := time.NewTicker(o.heartbeat)
	defer ticker.Stop()

	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("turn still running",
				logging.String(logging.FieldEventType, "turn_heartbeat"),
				logging.Duration("elapsed", time.Since(started).Round(time.Second)),
			)
		}
	}
}

func (o *Orchestrator) newMessage(author chat.CapabilityName, role chat.Role, body string, outcome chat.Outcome, seq int) chat.Message {
	return chat.Message{
		Author:    author,
		Role:      role,
		Content:   chat.FormatContent(author, body),
		Outcome:   outcome,
		JobSeq:    seq,
		CreatedAt: o.now(),
	}
}
