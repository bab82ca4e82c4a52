package workflow

import (
	"context"

	"mediaflow/internal/chat"
	"mediaflow/internal/jobs"
	"mediaflow/internal/store"
)

// Observer is notified of every appended message, seeds included. It is a
// notification only and never influences scheduling.
type Observer interface {
	Observe(msg chat.Message)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(msg chat.Message)

func (f ObserverFunc) Observe(msg chat.Message) { f(msg) }

// Recorder persists runs so they can be listed and resumed. *store.Store
// satisfies it.
type Recorder interface {
	CreateRun(ctx context.Context, runID string, list []jobs.Job) error
	AppendMessage(ctx context.Context, runID string, position int, msg chat.Message) error
	FinishJob(ctx context.Context, runID string, seq int, status jobs.Status, reason string) error
	FinishRun(ctx context.Context, runID string, status store.RunStatus, errMsg string) error
	ReopenRun(ctx context.Context, runID string) error
	LoadRun(ctx context.Context, runID string) (*store.Run, error)
}

var _ Recorder = (*store.Store)(nil)
