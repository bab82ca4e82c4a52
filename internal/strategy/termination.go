package strategy

import (
	"strings"

	"mediaflow/internal/chat"
)

// TerminationStrategy decides after every append whether the current job stops.
type TerminationStrategy interface {
	ShouldStop(history *chat.History) bool
}

// ApprovalPhrase is the marker a capability emits when it found nothing to do.
const ApprovalPhrase = "no action needed"

// DefaultMaxIterations is the per-job turn ceiling.
const DefaultMaxIterations = 10

// Reason names the rule that stopped a job.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonApproved Reason = "approved"
	ReasonFailed   Reason = "failed"
	ReasonCeiling  Reason = "ceiling"
)

// Approval stops on the approval phrase, on a failed turn, or on the ceiling.
type Approval struct {
	// MaxIterations caps completed turns. Zero uses DefaultMaxIterations.
	MaxIterations int
	// AutomaticReset counts turns since the most recent seed rather than
	// across the whole transcript.
	AutomaticReset bool
	// Agents restricts approval to messages authored by these capabilities.
	// Empty accepts any assistant.
	Agents []chat.CapabilityName
}

func (a Approval) ShouldStop(history *chat.History) bool {
	return a.Reason(history) != ReasonNone
}

// Reason reports which rule fires for the transcript, ReasonNone when the job
// should continue.
func (a Approval) Reason(history *chat.History) Reason {
	last, ok := history.Last()
	if !ok {
		return ReasonNone
	}
	if last.Failed() {
		return ReasonFailed
	}
	if a.eligible(last.Author) && strings.Contains(strings.ToLower(last.Content), ApprovalPhrase) {
		return ReasonApproved
	}
	if a.Turns(history) >= a.ceiling() {
		return ReasonCeiling
	}
	return ReasonNone
}

// Turns counts the completed turns the ceiling applies to.
func (a Approval) Turns(history *chat.History) int {
	if a.AutomaticReset {
		return chat.AssistantTurns(history.SinceLastSeed())
	}
	return chat.AssistantTurns(history.Messages())
}

func (a Approval) ceiling() int {
	if a.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return a.MaxIterations
}

func (a Approval) eligible(author chat.CapabilityName) bool {
	if len(a.Agents) == 0 {
		return true
	}
	for _, name := range a.Agents {
		if name == author {
			return true
		}
	}
	return false
}

// Names lists capabilities the strategy refers to.
func (a Approval) Names() []chat.CapabilityName {
	return append([]chat.CapabilityName(nil), a.Agents...)
}
