package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mediaflow/internal/capability"
	"mediaflow/internal/chat"
	"mediaflow/internal/logging"
	"mediaflow/internal/retry"
	"mediaflow/internal/strategy"
)

const defaultTurnTimeout = 300 * time.Second

var (
	// ErrUnknownCapability reports a strategy naming a capability the registry lacks.
	ErrUnknownCapability = errors.New("unknown capability")
	// ErrNoJobs reports a Run call with an empty job list.
	ErrNoJobs = errors.New("no jobs to run")
	// ErrBusy reports a Run or Resume while another is in progress.
	ErrBusy = errors.New("orchestrator is already running")
	// ErrNotResumable reports a Resume of a completed run or without a recorder.
	ErrNotResumable = errors.New("run cannot be resumed")
)

// Options wires an Orchestrator. Registry, Selection, and Termination are required.
type Options struct {
	Registry    *capability.Registry
	Selection   strategy.SelectionStrategy
	Termination strategy.TerminationStrategy
	// Retry defaults to retry.New() (flat 60s, unlimited attempts).
	Retry *retry.Policy
	// TurnTimeout bounds each capability call. Zero uses 300s; negative disables.
	TurnTimeout time.Duration
	// Heartbeat is how often a running turn is logged. Zero uses 30s.
	Heartbeat time.Duration
	Observer  Observer
	Recorder  Recorder
	Logger    *slog.Logger
	Metrics   *Metrics
	// Now overrides the message clock (tests).
	Now func() time.Time
}

// Orchestrator runs jobs through capabilities one turn at a time.
type Orchestrator struct {
	registry    *capability.Registry
	selection   strategy.SelectionStrategy
	termination strategy.TerminationStrategy
	retry       *retry.Policy
	turnTimeout time.Duration
	heartbeat   time.Duration
	observer    Observer
	recorder    Recorder
	logger      *slog.Logger
	metrics     *Metrics
	now         func() time.Time

	state   atomic.Int32
	running atomic.Bool

	mu      sync.RWMutex
	lastErr error
	runID   string
}

// New validates opts and builds an Orchestrator. Every capability name the
// strategies refer to must be registered.
func New(opts Options) (*Orchestrator, error) {
	if opts.Registry == nil {
		return nil, errors.New("orchestrator requires a capability registry")
	}
	if opts.Selection == nil || opts.Termination == nil {
		return nil, errors.New("orchestrator requires selection and termination strategies")
	}

	referenced := append([]chat.CapabilityName(nil), opts.Selection.Names()...)
	if named, ok := opts.Termination.(interface{ Names() []chat.CapabilityName }); ok {
		referenced = append(referenced, named.Names()...)
	}
	if len(opts.Selection.Names()) == 0 {
		return nil, errors.New("selection strategy names no capabilities")
	}
	if missing := opts.Registry.Missing(referenced...); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, name := range missing {
			names[i] = string(name)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, strings.Join(names, ", "))
	}

	o := &Orchestrator{
		registry:    opts.Registry,
		selection:   opts.Selection,
		termination: opts.Termination,
		retry:       opts.Retry,
		turnTimeout: opts.TurnTimeout,
		heartbeat:   opts.Heartbeat,
		observer:    opts.Observer,
		recorder:    opts.Recorder,
		logger:      logging.NewComponentLogger(opts.Logger, "orchestrator"),
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
	if o.retry == nil {
		o.retry = retry.New()
	}
	if o.turnTimeout == 0 {
		o.turnTimeout = defaultTurnTimeout
	}
	if o.heartbeat <= 0 {
		o.heartbeat = defaultHeartbeat
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// State reports the current position in the turn cycle.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
	o.metrics.setState(s)
}

// reason asks the termination strategy why it stopped, when it can say.
func (o *Orchestrator) reason(history *chat.History) strategy.Reason {
	if r, ok := o.termination.(interface {
		Reason(*chat.History) strategy.Reason
	}); ok {
		return r.Reason(history)
	}
	return strategy.ReasonApproved
}
