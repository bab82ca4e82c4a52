package workflow

// State is the orchestrator's position in its turn cycle.
type State int32

const (
	StateIdle State = iota
	StateAwaitingSeed
	StateSelectingTurn
	StateDispatching
	StateAwaitingResult
	StateAppending
	StateCheckingTermination
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSeed:
		return "awaiting_seed"
	case StateSelectingTurn:
		return "selecting_turn"
	case StateDispatching:
		return "dispatching"
	case StateAwaitingResult:
		return "awaiting_result"
	case StateAppending:
		return "appending"
	case StateCheckingTermination:
		return "checking_termination"
	default:
		return "unknown"
	}
}
