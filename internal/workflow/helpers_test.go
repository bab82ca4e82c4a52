package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"mediaflow/internal/capability"
	"mediaflow/internal/chat"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/retry"
	"mediaflow/internal/strategy"
	"mediaflow/internal/workflow"
)

// stubCapability answers turns from a script; once the script runs out it
// repeats its fallback.
type stubCapability struct {
	name     chat.CapabilityName
	mu       sync.Mutex
	calls    int
	script   []func(ctx context.Context, task capability.Task) (string, error)
	fallback string
	tasks    []capability.Task
}

func newStub(name chat.CapabilityName, fallback string, script ...func(context.Context, capability.Task) (string, error)) *stubCapability {
	return &stubCapability{name: name, fallback: fallback, script: script}
}

func (s *stubCapability) Name() chat.CapabilityName { return s.name }

func (s *stubCapability) Invoke(ctx context.Context, task capability.Task) (string, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	if idx < len(s.script) && s.script[idx] != nil {
		return s.script[idx](ctx, task)
	}
	return s.fallback, nil
}

func (s *stubCapability) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func reply(body string) func(context.Context, capability.Task) (string, error) {
	return func(context.Context, capability.Task) (string, error) { return body, nil }
}

func fail(err error) func(context.Context, capability.Task) (string, error) {
	return func(context.Context, capability.Task) (string, error) { return "", err }
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

type messageLog struct {
	mu   sync.Mutex
	msgs []chat.Message
}

func (l *messageLog) Observe(msg chat.Message) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

func (l *messageLog) Messages() []chat.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]chat.Message(nil), l.msgs...)
}

type harness struct {
	validator *stubCapability
	metadata  *stubCapability
	content   *stubCapability
	sleeper   *sleepRecorder
	observer  *messageLog
	opts      workflow.Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		validator: newStub(chat.MediaValidator, "No action needed."),
		metadata:  newStub(chat.MetadataAnalyst, "relocated=0 unprocessed=0 skipped=0"),
		content:   newStub(chat.ContentAnalyst, "images_processed=1 images_with_detections=1"),
		sleeper:   &sleepRecorder{},
		observer:  &messageLog{},
	}
	h.opts = workflow.Options{
		Selection:   strategy.NewSequential(strategy.DefaultChain...),
		Termination: strategy.Approval{MaxIterations: 10, AutomaticReset: true},
		Retry: retry.New(
			retry.WithBackoff(retry.Flat, 60*time.Second, 10*time.Minute),
			retry.WithSleeper(h.sleeper.Sleep),
		),
		TurnTimeout: time.Second,
		Observer:    h.observer,
		Logger:      logging.NewNop(),
	}
	return h
}

func (h *harness) build(t *testing.T) *workflow.Orchestrator {
	t.Helper()
	registry, err := capability.NewRegistry(h.validator, h.metadata, h.content)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	opts := h.opts
	opts.Registry = registry
	o, err := workflow.New(opts)
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	return o
}

func makeJobs(sources ...string) []jobs.Job {
	out := make([]jobs.Job, len(sources))
	for i, src := range sources {
		out[i] = jobs.Job{Seq: i + 1, Source: src}
	}
	return out
}

func authors(msgs []chat.Message) []chat.CapabilityName {
	out := make([]chat.CapabilityName, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Author
	}
	return out
}

func assertAuthors(t *testing.T, msgs []chat.Message, want ...chat.CapabilityName) {
	t.Helper()
	got := authors(msgs)
	if len(got) != len(want) {
		t.Fatalf("authors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("authors = %v, want %v", got, want)
		}
	}
}
