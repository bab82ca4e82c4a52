package chat

import "sync"

// History is the append-only transcript of a run. It is safe for concurrent
// readers; the orchestrator is the single writer.
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// NewHistory returns a history prefilled with msgs, used when resuming a run.
func NewHistory(msgs ...Message) *History {
	h := &History{}
	h.messages = append(h.messages, msgs...)
	return h
}

// Append adds a message to the end of the transcript.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the most recent message.
func (h *History) Last() (Message, bool) {
	if h == nil {
		return Message{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Messages returns a copy of the transcript.
func (h *History) Messages() []Message {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// SinceLastSeed returns the messages from the most recent user message onward.
// The whole transcript is returned when no seed exists.
func (h *History) SinceLastSeed() []Message {
	msgs := h.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i:]
		}
	}
	return msgs
}

// AssistantTurns counts assistant messages in msgs.
func AssistantTurns(msgs []Message) int {
	n := 0
	for _, m := range msgs {
		if m.Role == RoleAssistant {
			n++
		}
	}
	return n
}
