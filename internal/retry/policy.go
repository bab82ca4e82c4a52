package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediaflow/internal/services"
)

const (
	defaultBackoff  = 60 * time.Second
	defaultMaxDelay = 10 * time.Minute
)

// ErrExhausted marks a turn whose transient retries ran out.
var ErrExhausted = errors.New("retry budget exhausted")

// Class groups errors by how the orchestrator reacts to them.
type Class int

const (
	ClassNone Class = iota
	ClassTransient
	ClassInvalidInput
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassInvalidInput:
		return "invalid_input"
	default:
		return "fatal"
	}
}

// Classify maps an error onto a Class. Cancellation and timeouts are fatal.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassFatal
	case errors.Is(err, ErrExhausted), errors.Is(err, services.ErrTimeout):
		return ClassFatal
	case errors.Is(err, services.ErrTransient):
		return ClassTransient
	case errors.Is(err, services.ErrNotFound):
		return ClassInvalidInput
	default:
		return ClassFatal
	}
}

// Hinted is implemented by errors that carry a server-suggested delay.
type Hinted interface {
	RetryAfterHint() time.Duration
}

// Strategy selects how the delay grows between attempts.
type Strategy string

const (
	Flat        Strategy = "flat"
	Exponential Strategy = "exponential"
)

// State describes one Do call. It is discarded once the turn completes.
type State struct {
	Attempt     int
	MaxAttempts int
	BackoffBase time.Duration
	Elapsed     time.Duration
	// Waited sums the backoff sleeps performed.
	Waited time.Duration
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Notify observes each scheduled retry.
type Notify func(state State, err error, delay time.Duration)

// Policy retries transient failures.
type Policy struct {
	strategy    Strategy
	backoff     time.Duration
	maxDelay    time.Duration
	maxAttempts int
	sleeper     Sleeper
	notify      Notify
	now         func() time.Time
}

// Option customizes the policy.
type Option func(*Policy)

// WithBackoff sets the strategy and its delays. maxDelay caps exponential growth
// and Retry-After hints.
func WithBackoff(strategy Strategy, base, maxDelay time.Duration) Option {
	return func(p *Policy) {
		p.strategy = strategy
		p.backoff = base
		p.maxDelay = maxDelay
	}
}

// WithMaxAttempts bounds the total attempts per turn. Zero retries indefinitely.
func WithMaxAttempts(attempts int) Option {
	return func(p *Policy) {
		p.maxAttempts = attempts
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper Sleeper) Option {
	return func(p *Policy) {
		if sleeper != nil {
			p.sleeper = sleeper
		}
	}
}

// WithNotify registers a callback invoked before each backoff sleep.
func WithNotify(fn Notify) Option {
	return func(p *Policy) {
		p.notify = fn
	}
}

// New returns a policy with a flat 60s backoff and unlimited attempts.
func New(opts ...Option) *Policy {
	p := &Policy{
		strategy: Flat,
		backoff:  defaultBackoff,
		maxDelay: defaultMaxDelay,
		sleeper:  sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.strategy != Exponential {
		p.strategy = Flat
	}
	if p.backoff < 0 {
		p.backoff = 0
	}
	if p.maxDelay < p.backoff {
		p.maxDelay = p.backoff
	}
	if p.maxAttempts < 0 {
		p.maxAttempts = 0
	}
	return p
}

// Do runs fn until it succeeds or fails with a non-transient error. fn receives
// the 1-based attempt number.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) (string, error)) (string, State, error) {
	if p == nil {
		p = New()
	}
	state := State{MaxAttempts: p.maxAttempts, BackoffBase: p.backoff}
	started := p.now()

	for {
		state.Attempt++
		result, err := fn(ctx, state.Attempt)
		state.Elapsed = p.now().Sub(started)
		if err == nil {
			return result, state, nil
		}
		if Classify(err) != ClassTransient {
			return "", state, err
		}
		if p.maxAttempts > 0 && state.Attempt >= p.maxAttempts {
			return "", state, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, state.Attempt, err)
		}

		delay := p.Delay(state.Attempt, err)
		if p.notify != nil {
			p.notify(state, err, delay)
		}
		if err := p.sleeper(ctx, delay); err != nil {
			state.Elapsed = p.now().Sub(started)
			return "", state, fmt.Errorf("retry backoff interrupted: %w", err)
		}
		state.Waited += delay
	}
}

// Delay returns the wait before the attempt following attempt.
func (p *Policy) Delay(attempt int, err error) time.Duration {
	delay := p.backoff
	if p.strategy == Exponential {
		delay = p.exponential(attempt)
	}
	var hinted Hinted
	if errors.As(err, &hinted) {
		if hint := hinted.RetryAfterHint(); hint > delay {
			delay = hint
		}
	}
	if p.maxDelay > 0 && delay > p.maxDelay {
		delay = p.maxDelay
	}
	return delay
}

// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
func (p *Policy) exponential(attempt int) time.Duration {
	if p.backoff <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := p.backoff
	for i := 1; i < attempt; i++ {
		if delay > p.maxDelay/2 {
			return p.maxDelay
		}
		delay *= 2
	}
	return delay
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
