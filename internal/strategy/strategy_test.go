package strategy

import (
	"fmt"
	"testing"

	"mediaflow/internal/chat"
)

func seed(seq int) chat.Message {
	return chat.Message{Author: chat.User, Role: chat.RoleUser, Content: chat.FormatContent(chat.User, "/src"), Outcome: chat.OutcomeOK, JobSeq: seq}
}

func turn(author chat.CapabilityName, body string, seq int) chat.Message {
	return chat.Message{Author: author, Role: chat.RoleAssistant, Content: chat.FormatContent(author, body), Outcome: chat.OutcomeOK, JobSeq: seq}
}

func TestSequentialFollowsDependencyOrder(t *testing.T) {
	s := NewSequential()
	h := chat.NewHistory()
	if got := s.Select(h); got != chat.MediaValidator {
		t.Fatalf("empty history selected %s", got)
	}
	h.Append(seed(1))
	want := []chat.CapabilityName{
		chat.MediaValidator, chat.MetadataAnalyst, chat.ContentAnalyst,
		chat.MediaValidator, chat.MetadataAnalyst,
	}
	for i, expected := range want {
		got := s.Select(h)
		if got != expected {
			t.Fatalf("turn %d: selected %s, want %s", i, got, expected)
		}
		h.Append(turn(got, "processed=0", 1))
	}
}

func TestSequentialIsDeterministic(t *testing.T) {
	s := NewSequential()
	h := chat.NewHistory(seed(1), turn(chat.MediaValidator, "x", 1))
	first := s.Select(h)
	for i := 0; i < 5; i++ {
		if got := s.Select(h); got != first {
			t.Fatalf("selection changed between calls: %s vs %s", got, first)
		}
	}
	if first != chat.MetadataAnalyst {
		t.Fatalf("expected MetadataAnalyst after MediaValidator, got %s", first)
	}
}

func TestSequentialUnknownAuthorRestartsChain(t *testing.T) {
	s := NewSequential()
	h := chat.NewHistory(seed(1), turn("Stranger", "hello", 1))
	if got := s.Select(h); got != chat.MediaValidator {
		t.Fatalf("expected head after unknown author, got %s", got)
	}
}

func TestSequentialSeedRestartsChain(t *testing.T) {
	s := NewSequential()
	h := chat.NewHistory(seed(1), turn(chat.MediaValidator, "x", 1), seed(2))
	if got := s.Select(h); got != chat.MediaValidator {
		t.Fatalf("expected head after new seed, got %s", got)
	}
}

func TestSequentialCustomChain(t *testing.T) {
	s := NewSequential(chat.MetadataAnalyst, chat.ContentAnalyst)
	h := chat.NewHistory(seed(1), turn(chat.ContentAnalyst, "x", 1))
	if got := s.Select(h); got != chat.MetadataAnalyst {
		t.Fatalf("expected custom head, got %s", got)
	}
	names := s.Names()
	names[0] = "mutated"
	if s.Names()[0] != chat.MetadataAnalyst {
		t.Fatal("Names must return a copy")
	}
}

func TestApprovalStopsOnPhraseCaseInsensitive(t *testing.T) {
	a := Approval{MaxIterations: 10, AutomaticReset: true}
	for _, body := range []string{"No action needed.", "NO ACTION NEEDED", "nothing left: no Action Needed"} {
		h := chat.NewHistory(seed(1), turn(chat.MediaValidator, body, 1))
		if !a.ShouldStop(h) {
			t.Fatalf("expected stop for %q", body)
		}
		if a.Reason(h) != ReasonApproved {
			t.Fatalf("expected approved reason for %q", body)
		}
	}
}

func TestApprovalStopsOnFailedTurn(t *testing.T) {
	a := Approval{MaxIterations: 10}
	failed := turn(chat.MetadataAnalyst, "source directory missing", 1)
	failed.Outcome = chat.OutcomeFailed
	h := chat.NewHistory(seed(1), failed)
	if a.Reason(h) != ReasonFailed {
		t.Fatalf("expected failed reason, got %q", a.Reason(h))
	}
}

func TestApprovalCeilingIffProperty(t *testing.T) {
	for ceiling := 1; ceiling <= 12; ceiling++ {
		t.Run(fmt.Sprintf("ceiling=%d", ceiling), func(t *testing.T) {
			a := Approval{MaxIterations: ceiling, AutomaticReset: true}
			s := NewSequential()
			h := chat.NewHistory(seed(1))
			for turns := 1; turns <= ceiling+2; turns++ {
				h.Append(turn(s.Select(h), "processed=1", 1))
				got := a.ShouldStop(h)
				want := turns >= ceiling
				if got != want {
					t.Fatalf("turns=%d: ShouldStop=%v want %v", turns, got, want)
				}
			}
		})
	}
}

func TestApprovalAutomaticResetCountsPerJob(t *testing.T) {
	h := chat.NewHistory(
		seed(1),
		turn(chat.MediaValidator, "a", 1),
		turn(chat.MetadataAnalyst, "b", 1),
		seed(2),
		turn(chat.MediaValidator, "c", 2),
	)
	reset := Approval{MaxIterations: 2, AutomaticReset: true}
	if reset.ShouldStop(h) {
		t.Fatal("expected reset mode to count only the current job's turns")
	}
	if reset.Turns(h) != 1 {
		t.Fatalf("expected 1 turn since seed, got %d", reset.Turns(h))
	}
	noReset := Approval{MaxIterations: 2}
	if !noReset.ShouldStop(h) {
		t.Fatal("expected whole-history counting to hit the ceiling")
	}
	if noReset.Reason(h) != ReasonCeiling {
		t.Fatalf("expected ceiling reason, got %q", noReset.Reason(h))
	}
}

func TestApprovalDefaultsCeiling(t *testing.T) {
	a := Approval{AutomaticReset: true}
	h := chat.NewHistory(seed(1))
	for i := 0; i < DefaultMaxIterations-1; i++ {
		h.Append(turn(chat.MediaValidator, "x", 1))
	}
	if a.ShouldStop(h) {
		t.Fatal("stopped before default ceiling")
	}
	h.Append(turn(chat.MediaValidator, "x", 1))
	if !a.ShouldStop(h) {
		t.Fatal("expected stop at default ceiling")
	}
}

func TestApprovalAgentsFilter(t *testing.T) {
	a := Approval{MaxIterations: 10, Agents: []chat.CapabilityName{chat.ContentAnalyst}}
	h := chat.NewHistory(seed(1), turn(chat.MediaValidator, "No action needed.", 1))
	if a.ShouldStop(h) {
		t.Fatal("expected approval from a non-listed agent to be ignored")
	}
	h.Append(turn(chat.ContentAnalyst, "No action needed.", 1))
	if !a.ShouldStop(h) {
		t.Fatal("expected approval from listed agent")
	}
}

func TestApprovalEmptyHistoryContinues(t *testing.T) {
	if (Approval{}).ShouldStop(chat.NewHistory()) {
		t.Fatal("empty history must not stop")
	}
}
