package strategy

import "mediaflow/internal/chat"

// SelectionStrategy chooses the next capability from the transcript.
type SelectionStrategy interface {
	Select(history *chat.History) chat.CapabilityName
	Names() []chat.CapabilityName
}

// DefaultChain is the dependency order of the reference capabilities.
var DefaultChain = []chat.CapabilityName{chat.MediaValidator, chat.MetadataAnalyst, chat.ContentAnalyst}

// Sequential selects capabilities in chain order.
type Sequential struct {
	chain []chat.CapabilityName
	next  map[chat.CapabilityName]chat.CapabilityName
}

// NewSequential builds a selector over chain. An empty chain uses DefaultChain.
func NewSequential(chain ...chat.CapabilityName) *Sequential {
	if len(chain) == 0 {
		chain = DefaultChain
	}
	s := &Sequential{
		chain: append([]chat.CapabilityName(nil), chain...),
		next:  make(map[chat.CapabilityName]chat.CapabilityName, len(chain)),
	}
	for i := 0; i < len(chain)-1; i++ {
		s.next[chain[i]] = chain[i+1]
	}
	return s
}

// Select returns the successor of the last author. Seeds, the final stage,
// unknown authors, and an empty history all map to the head of the chain.
func (s *Sequential) Select(history *chat.History) chat.CapabilityName {
	head := s.chain[0]
	last, ok := history.Last()
	if !ok || last.Role == chat.RoleUser {
		return head
	}
	if next, ok := s.next[last.Author]; ok {
		return next
	}
	return head
}

func (s *Sequential) Names() []chat.CapabilityName {
	return append([]chat.CapabilityName(nil), s.chain...)
}
