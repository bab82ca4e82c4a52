package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mediaflow/internal/capability"
	"mediaflow/internal/config"
	"mediaflow/internal/content"
	"mediaflow/internal/logging"
	"mediaflow/internal/metadata"
	"mediaflow/internal/retry"
	"mediaflow/internal/services/llm"
	"mediaflow/internal/store"
	"mediaflow/internal/strategy"
	"mediaflow/internal/validator"
	"mediaflow/internal/workflow"
)

// Options customizes Open.
type Options struct {
	Observer workflow.Observer
	// Metrics registers Prometheus collectors for the orchestrator.
	Metrics bool
	// Detector overrides the configured object detector.
	Detector content.Detector
	// Sleeper overrides retry backoff sleeps.
	Sleeper retry.Sleeper
}

// Pipeline owns the resources behind one mediaflow process.
type Pipeline struct {
	Config       *config.Config
	Store        *store.Store
	Registry     *capability.Registry
	Orchestrator *workflow.Orchestrator

	lock   *store.Lock
	logger *slog.Logger
}

// Open locks the state directory, opens the run store, and builds the
// orchestrator. Close releases everything.
func Open(cfg *config.Config, logger *slog.Logger, opts Options) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	lock, err := store.AcquireLock(cfg.Paths.StateDir)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("open run store: %w", err)
	}

	p := &Pipeline{Config: cfg, Store: st, lock: lock, logger: logger}
	detector := opts.Detector
	if detector == nil {
		detector = NewDetector(cfg)
	}
	p.Registry, err = NewRegistry(cfg, logger, detector, st)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	var metrics *workflow.Metrics
	if opts.Metrics {
		metrics = workflow.NewMetrics()
	}
	p.Orchestrator, err = workflow.New(workflow.Options{
		Registry:    p.Registry,
		Selection:   strategy.NewSequential(strategy.DefaultChain...),
		Termination: NewTermination(cfg),
		Retry:       NewRetryPolicy(cfg, logger, opts.Sleeper),
		TurnTimeout: cfg.TurnTimeout(),
		Observer:    opts.Observer,
		Recorder:    st,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Close closes the store and releases the state-directory lock.
func (p *Pipeline) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.Store != nil {
		errs = append(errs, p.Store.Close())
	}
	if p.lock != nil {
		errs = append(errs, p.lock.Release())
	}
	return errors.Join(errs...)
}

// NewDetector returns the object detector selected by content.detector.
func NewDetector(cfg *config.Config) content.Detector {
	if cfg.Content.Detector != config.DetectorLLM {
		return content.NopDetector{}
	}
	return content.LLMDetector{Tagger: NewLLMClient(cfg), Detail: cfg.Content.Detail}
}

// NewLLMClient builds the reasoning-service client from the [llm] section.
func NewLLMClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Referer:           cfg.LLM.Referer,
		Title:             cfg.LLM.Title,
		TimeoutSeconds:    cfg.LLM.TimeoutSeconds,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})
}

// NewRegistry registers the three reference capabilities. index may be nil.
func NewRegistry(cfg *config.Config, logger *slog.Logger, detector content.Detector, index content.Index) (*capability.Registry, error) {
	var opts []content.Option
	if index != nil {
		opts = append(opts, content.WithIndex(index))
	}
	return capability.NewRegistry(
		validator.New(cfg, logger),
		metadata.New(cfg, logger),
		content.New(cfg, detector, logger, opts...),
	)
}

// NewTermination builds the approval strategy from [orchestrator].
func NewTermination(cfg *config.Config) strategy.Approval {
	return strategy.Approval{
		MaxIterations:  cfg.Orchestrator.MaxIterations,
		AutomaticReset: cfg.Orchestrator.AutomaticReset,
	}
}

// NewRetryPolicy builds the turn retry policy from [retry]. Each scheduled
// retry is logged.
func NewRetryPolicy(cfg *config.Config, logger *slog.Logger, sleeper retry.Sleeper) *retry.Policy {
	strat := retry.Flat
	if cfg.Retry.Strategy == config.RetryExponential {
		strat = retry.Exponential
	}
	retryLogger := logging.NewComponentLogger(logger, "retry")
	return retry.New(
		retry.WithBackoff(strat, cfg.RetryBackoff(), cfg.RetryMaxBackoff()),
		retry.WithMaxAttempts(cfg.Retry.MaxAttempts),
		retry.WithSleeper(sleeper),
		retry.WithNotify(func(state retry.State, err error, delay time.Duration) {
			retryLogger.Info("backing off before retry",
				logging.String(logging.FieldEventType, "retry_backoff"),
				logging.Int("attempt", state.Attempt),
				logging.Int("max_attempts", state.MaxAttempts),
				logging.Duration("delay", delay),
				logging.Error(err),
			)
		}),
	)
}
