package app

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"royale/internal/domain"
)

func kinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestJoinAssignsOwner(t *testing.T) {
	svc := NewService(domain.StandardConfig())

	evs, err := svc.Join("u1", "Alice")
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventParticipantJoined, EventSnapshot}) {
		t.Fatalf("join events = %v", got)
	}
	joined := evs[0].Payload.(ParticipantJoinedPayload)
	if !joined.Owner || joined.UserID != "u1" || joined.DisplayName != "Alice" {
		t.Fatalf("unexpected joined payload: %+v", joined)
	}
	if got := evs[1].Recipients; !reflect.DeepEqual(got, []string{"u1"}) {
		t.Fatalf("snapshot recipients = %v, want [u1]", got)
	}

	evs, err = svc.Join("u2", "Bob")
	if err != nil {
		t.Fatalf("second join error: %v", err)
	}
	if evs[0].Payload.(ParticipantJoinedPayload).Owner {
		t.Fatal("second joiner should not be owner")
	}
	if svc.OwnerID() != "u1" {
		t.Fatalf("owner = %q, want u1", svc.OwnerID())
	}

	// rejoin is a quiet no-op
	evs, err = svc.Join("u1", "Alice")
	if err != nil || evs != nil {
		t.Fatalf("rejoin = (%v, %v), want (nil, nil)", evs, err)
	}
}

func TestLeaveTransfersOwnership(t *testing.T) {
	svc := NewService(domain.StandardConfig())
	svc.Join("u1", "Alice")
	svc.Join("u2", "Bob")
	svc.Join("u3", "Cara")

	evs := svc.Leave("u1")
	left := evs[0].Payload.(ParticipantLeftPayload)
	if left.NewOwnerID != "u2" {
		t.Fatalf("new owner = %q, want u2", left.NewOwnerID)
	}
	if svc.OwnerID() != "u2" {
		t.Fatalf("owner = %q, want u2", svc.OwnerID())
	}

	if evs := svc.Leave("ghost"); evs != nil {
		t.Fatalf("leaving unknown user produced events: %v", evs)
	}

	svc.Leave("u2")
	svc.Leave("u3")
	if svc.OwnerID() != "" || svc.ParticipantCount() != 0 {
		t.Fatalf("roster should be empty, owner %q count %d", svc.OwnerID(), svc.ParticipantCount())
	}
}

func TestAgentsNeverOwn(t *testing.T) {
	svc := NewService(domain.StandardConfig())

	evs, err := svc.JoinAgent("bot-1", "RapidKnight")
	if err != nil {
		t.Fatalf("agent join error: %v", err)
	}
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventParticipantJoined}) {
		t.Fatalf("agent join events = %v", got)
	}
	joined := evs[0].Payload.(ParticipantJoinedPayload)
	if joined.Owner || !joined.Agent {
		t.Fatalf("unexpected agent payload: %+v", joined)
	}
	if svc.OwnerID() != "" {
		t.Fatalf("owner = %q, want none while only agents are seated", svc.OwnerID())
	}

	// the first human in still takes control
	svc.Join("u1", "Alice")
	if svc.OwnerID() != "u1" {
		t.Fatalf("owner = %q, want u1", svc.OwnerID())
	}

	// agents spend like any participant
	svc.Start("u1")
	if _, err := svc.Spend("bot-1", 2); err != nil {
		t.Fatalf("agent spend error: %v", err)
	}

	// ownership never falls back to an agent
	svc.Leave("u1")
	if svc.OwnerID() != "" {
		t.Fatalf("owner = %q, want none after last human left", svc.OwnerID())
	}
	if _, err := svc.Start("bot-1"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("agent start = %v, want ErrNotOwner", err)
	}
}

func TestStartGating(t *testing.T) {
	svc := NewService(domain.StandardConfig())
	svc.Join("u1", "Alice")
	svc.Join("u2", "Bob")

	if _, err := svc.Start("ghost"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("start by stranger = %v, want ErrNotParticipant", err)
	}
	if _, err := svc.Start("u2"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("start by non-owner = %v, want ErrNotOwner", err)
	}

	evs, err := svc.Start("u1")
	if err != nil {
		t.Fatalf("start error: %v", err)
	}
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventMatchStarted, EventSnapshot}) {
		t.Fatalf("start events = %v", got)
	}
	started := evs[0].Payload.(MatchStartedPayload)
	if started.Variant != domain.VariantStandard || started.Phase != domain.PhaseRegulation {
		t.Fatalf("unexpected started payload: %+v", started)
	}

	if _, err := svc.Start("u1"); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second start = %v, want ErrAlreadyRunning", err)
	}
}

func TestPauseResumeFlow(t *testing.T) {
	svc := NewService(domain.StandardConfig())
	svc.Join("u1", "Alice")
	svc.Start("u1")

	evs, err := svc.Pause("u1")
	if err != nil {
		t.Fatalf("pause error: %v", err)
	}
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventMatchPaused, EventSnapshot}) {
		t.Fatalf("pause events = %v", got)
	}

	// pausing a paused match dispatches nothing
	evs, err = svc.Pause("u1")
	if err != nil || evs != nil {
		t.Fatalf("double pause = (%v, %v), want (nil, nil)", evs, err)
	}

	evs, err = svc.Resume("u1")
	if err != nil {
		t.Fatalf("resume error: %v", err)
	}
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventMatchResumed, EventSnapshot}) {
		t.Fatalf("resume events = %v", got)
	}

	if _, err := svc.Resume("u1"); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("resume while running = %v, want ErrAlreadyRunning", err)
	}
}

func TestLifecycleAfterMatchEnds(t *testing.T) {
	svc := NewService(domain.StandardConfig())
	svc.Join("u1", "Alice")
	svc.Start("u1")
	svc.Advance(500 * time.Second)

	if !svc.Over() || svc.Running() {
		t.Fatalf("match should be over and stopped, over=%v running=%v", svc.Over(), svc.Running())
	}
	if _, err := svc.Resume("u1"); !errors.Is(err, ErrNothingToResume) {
		t.Fatalf("resume after end = %v, want ErrNothingToResume", err)
	}
	if _, err := svc.Spend("u1", 2); !errors.Is(err, ErrMatchOver) {
		t.Fatalf("spend after end = %v, want ErrMatchOver", err)
	}
	if _, err := svc.Join("u9", "Zed"); !errors.Is(err, ErrMatchOver) {
		t.Fatalf("join after end = %v, want ErrMatchOver", err)
	}

	// reset brings the table back, then the owner can start again
	if _, err := svc.Reset("u1"); err != nil {
		t.Fatalf("reset error: %v", err)
	}
	if svc.Over() {
		t.Fatal("reset match should not be over")
	}
	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("restart error: %v", err)
	}
}

func TestSpendEvents(t *testing.T) {
	svc := NewService(domain.StandardConfig())
	svc.Join("u1", "Alice")
	svc.Join("u2", "Bob")
	svc.Start("u1")

	if _, err := svc.Spend("ghost", 2); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("spend by stranger = %v, want ErrNotParticipant", err)
	}
	if _, err := svc.Spend("u2", 0); !errors.Is(err, ErrInvalidSpend) {
		t.Fatalf("zero spend = %v, want ErrInvalidSpend", err)
	}

	// any participant may spend, not just the owner
	evs, err := svc.Spend("u2", 3)
	if err != nil {
		t.Fatalf("spend error: %v", err)
	}
	spent := evs[0].Payload.(ElixirSpentPayload)
	if spent.UserID != "u2" || spent.Requested != 3 || spent.Spent != 3 || spent.Elixir != 2 {
		t.Fatalf("unexpected spent payload: %+v", spent)
	}

	// overdraw clamps at the floor
	evs, err = svc.Spend("u2", 9)
	if err != nil {
		t.Fatalf("overdraw spend error: %v", err)
	}
	spent = evs[0].Payload.(ElixirSpentPayload)
	if spent.Spent != 2 || spent.Elixir != 0 {
		t.Fatalf("overdraw payload = %+v, want spent 2 elixir 0", spent)
	}
}

func TestAdvanceEmitsOnChange(t *testing.T) {
	svc := NewService(domain.StandardConfig())
	svc.Join("u1", "Alice")
	svc.Start("u1")

	// half a second moves no observable field
	if evs := svc.Advance(500 * time.Millisecond); evs != nil {
		t.Fatalf("sub-second advance emitted: %v", kinds(evs))
	}
	evs := svc.Advance(600 * time.Millisecond)
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventSnapshot}) {
		t.Fatalf("countdown advance events = %v", got)
	}

	// regulation running out announces the phase change
	evs = svc.Advance(180 * time.Second)
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventPhaseChanged, EventSnapshot}) {
		t.Fatalf("transition events = %v", got)
	}
	changed := evs[0].Payload.(PhaseChangedPayload)
	if changed.Phase != domain.PhaseOvertime {
		t.Fatalf("phase = %q, want %q", changed.Phase, domain.PhaseOvertime)
	}

	// overtime running out ends the match
	evs = svc.Advance(120 * time.Second)
	if got := kinds(evs); !reflect.DeepEqual(got, []EventKind{EventMatchEnded, EventSnapshot}) {
		t.Fatalf("end events = %v", got)
	}

	if evs := svc.Advance(time.Second); evs != nil {
		t.Fatalf("advance after end emitted: %v", kinds(evs))
	}
}

func TestSnapshotFields(t *testing.T) {
	svc := NewService(domain.StandardConfig())
	svc.Join("u2", "Bob")
	svc.Join("u1", "Alice")
	svc.Start("u2")

	snap := svc.Snapshot()
	if snap.Variant != domain.VariantStandard || snap.Phase != domain.PhaseRegulation {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.RemainingSeconds != 180 || snap.FormattedTime != "3:00" {
		t.Fatalf("countdown fields = (%d, %q)", snap.RemainingSeconds, snap.FormattedTime)
	}
	if snap.Elixir != 5 || snap.MaxSpend != 7 {
		t.Fatalf("elixir fields = (%d, %d), want (5, 7)", snap.Elixir, snap.MaxSpend)
	}
	if snap.PastThreshold || !snap.Running || snap.Over {
		t.Fatalf("flags = %+v", snap)
	}
	if !reflect.DeepEqual(snap.Participants, []string{"u1", "u2"}) {
		t.Fatalf("participants = %v, want sorted ids", snap.Participants)
	}
	if snap.OwnerID != "u2" {
		t.Fatalf("owner = %q, want u2", snap.OwnerID)
	}
}
