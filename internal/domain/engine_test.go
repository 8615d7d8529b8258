package domain

import (
	"testing"
	"time"
)

const tick = 100 * time.Millisecond

// engineState is the full observable and carry state, comparable so test
// failures show the whole picture at once.
type engineState struct {
	phase       string
	remaining   int
	elixir      int
	running     bool
	matchCarry  time.Duration
	elixirCarry time.Duration
}

func captureState(e *Engine) engineState {
	return engineState{
		phase:       e.Phase(),
		remaining:   e.RemainingSeconds(),
		elixir:      e.Elixir(),
		running:     e.Running(),
		matchCarry:  e.matchCarry,
		elixirCarry: e.elixirCarry,
	}
}

func TestNewEngineStartsStopped(t *testing.T) {
	e := NewEngine(StandardConfig())
	if e.Running() {
		t.Fatal("fresh engine should not be running")
	}
	if got := e.Phase(); got != PhaseRegulation {
		t.Fatalf("Phase() = %q, want %q", got, PhaseRegulation)
	}
	if got := e.RemainingSeconds(); got != 180 {
		t.Fatalf("RemainingSeconds() = %d, want 180", got)
	}
	if got := e.Elixir(); got != 5 {
		t.Fatalf("Elixir() = %d, want 5", got)
	}
}

func TestStartResetLifecycle(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	if !e.Running() {
		t.Fatal("Start should set the engine running")
	}
	e.Advance(10 * time.Second)
	e.Spend(3)
	e.Reset()
	if e.Running() {
		t.Fatal("Reset should stop the engine")
	}
	if e.RemainingSeconds() != 180 || e.Elixir() != 5 {
		t.Fatalf("reset state = (%d, %d), want (180, 5)", e.RemainingSeconds(), e.Elixir())
	}
	if e.matchCarry != 0 || e.elixirCarry != 0 {
		t.Fatalf("reset carries = (%v, %v), want zero", e.matchCarry, e.elixirCarry)
	}
}

func TestAdvanceCountsDown(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.Advance(1500 * time.Millisecond)
	if got := e.RemainingSeconds(); got != 179 {
		t.Fatalf("RemainingSeconds() = %d, want 179", got)
	}
	e.Advance(500 * time.Millisecond)
	if got := e.RemainingSeconds(); got != 178 {
		t.Fatalf("RemainingSeconds() = %d, want 178", got)
	}
	if e.matchCarry != 0 {
		t.Fatalf("matchCarry = %v, want 0", e.matchCarry)
	}
}

func TestAdvanceIgnoresNonPositiveDelta(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.Advance(0)
	e.Advance(-time.Second)
	if got := captureState(e); got != (engineState{PhaseRegulation, 180, 5, true, 0, 0}) {
		t.Fatalf("state changed on non-positive delta: %+v", got)
	}
}

func TestAdvanceWhilePausedIsNoop(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.Advance(2 * time.Second)
	e.Pause()
	before := captureState(e)
	e.Advance(30 * time.Second)
	if got := captureState(e); got != before {
		t.Fatalf("paused engine advanced: %+v -> %+v", before, got)
	}
}

func TestPauseKeepsCarries(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.Advance(500 * time.Millisecond)
	e.Pause()
	if !e.Resume() {
		t.Fatal("Resume() = false, want true")
	}
	// the half second from before the pause still counts
	e.Advance(500 * time.Millisecond)
	if got := e.RemainingSeconds(); got != 179 {
		t.Fatalf("RemainingSeconds() = %d, want 179", got)
	}
}

func TestSubdivisionEquivalence(t *testing.T) {
	for _, config := range []MatchConfig{StandardConfig(), SimpleConfig()} {
		t.Run(config.Variant, func(t *testing.T) {
			whole := NewEngine(config)
			split := NewEngine(config)
			whole.Start()
			split.Start()
			for sec := 1; sec <= 320; sec++ {
				// an occasional spend keeps the level below the cap so
				// accrual stays observable across rate changes
				if sec%15 == 0 {
					whole.Spend(4)
					split.Spend(4)
				}
				whole.Advance(time.Second)
				for i := 0; i < 10; i++ {
					split.Advance(tick)
				}
				want := captureState(whole)
				if got := captureState(split); got != want {
					t.Fatalf("second %d: split advance = %+v, whole advance = %+v", sec, got, want)
				}
				if want.elixir < 0 || want.elixir > ResourceCap {
					t.Fatalf("second %d: elixir %d out of range", sec, want.elixir)
				}
				if want.remaining < 0 {
					t.Fatalf("second %d: negative countdown %d", sec, want.remaining)
				}
			}
			if whole.Running() {
				t.Fatal("engine should have stopped after the final phase")
			}
		})
	}
}

func TestThresholdSwitchesRateMidCall(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.remainingSeconds = 61
	e.elixir = 0

	// second 61->60 accrues at the 2.8s interval, second 60->59 at 1.4s,
	// so two seconds of credit yield one elixir with 600ms left over
	e.Advance(2 * time.Second)
	if got := e.Elixir(); got != 1 {
		t.Fatalf("Elixir() = %d, want 1", got)
	}
	if got := e.elixirCarry; got != 600*time.Millisecond {
		t.Fatalf("elixirCarry = %v, want 600ms", got)
	}
	if got := e.RemainingSeconds(); got != 59 {
		t.Fatalf("RemainingSeconds() = %d, want 59", got)
	}
	if !e.PastThreshold() {
		t.Fatal("PastThreshold() = false, want true")
	}
}

func TestPhaseCompletionEntersOvertime(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.remainingSeconds = 1
	e.elixir = 7

	e.Advance(time.Second)
	if got := e.Phase(); got != PhaseOvertime {
		t.Fatalf("Phase() = %q, want %q", got, PhaseOvertime)
	}
	if got := e.RemainingSeconds(); got != 120 {
		t.Fatalf("RemainingSeconds() = %d, want 120", got)
	}
	if e.matchCarry != 0 || e.elixirCarry != 0 {
		t.Fatalf("carries = (%v, %v), want zero after transition", e.matchCarry, e.elixirCarry)
	}
	if !e.Running() {
		t.Fatal("engine should keep running into overtime")
	}
	if got := e.Elixir(); got != 7 {
		t.Fatalf("Elixir() = %d, want 7", got)
	}
}

func TestFinalPhaseEndStopsEngine(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.phaseIndex = 1
	e.remainingSeconds = 1

	e.Advance(time.Second)
	if e.Running() {
		t.Fatal("engine should stop when the final phase runs out")
	}
	if got := e.RemainingSeconds(); got != 0 {
		t.Fatalf("RemainingSeconds() = %d, want 0", got)
	}
	if !e.Over() {
		t.Fatal("Over() = false, want true")
	}

	// the terminal state is inert
	e.Advance(time.Second)
	if got := e.RemainingSeconds(); got != 0 {
		t.Fatalf("terminal RemainingSeconds() = %d, want 0", got)
	}
	if e.Resume() {
		t.Fatal("Resume() after the match ended should report false")
	}
}

func TestOversizedDeltaCrossesPhases(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.Advance(200 * time.Second)
	if got := e.Phase(); got != PhaseOvertime {
		t.Fatalf("Phase() = %q, want %q", got, PhaseOvertime)
	}
	if got := e.RemainingSeconds(); got != 100 {
		t.Fatalf("RemainingSeconds() = %d, want 100", got)
	}
	if !e.Running() {
		t.Fatal("engine should still be running mid-overtime")
	}
}

func TestOversizedDeltaExhaustsMatch(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.Advance(500 * time.Second)
	if e.Running() {
		t.Fatal("engine should have stopped")
	}
	if got := e.Phase(); got != PhaseOvertime {
		t.Fatalf("Phase() = %q, want %q", got, PhaseOvertime)
	}
	if got := e.RemainingSeconds(); got != 0 {
		t.Fatalf("RemainingSeconds() = %d, want 0", got)
	}
	if got := e.Elixir(); got != ResourceCap {
		t.Fatalf("Elixir() = %d, want %d", got, ResourceCap)
	}
}

func TestCapStopsAccrual(t *testing.T) {
	e := NewEngine(StandardConfig())
	e.Start()
	e.elixir = ResourceCap
	for i := 0; i < 100; i++ {
		e.Advance(tick)
		if got := e.Elixir(); got != ResourceCap {
			t.Fatalf("tick %d: Elixir() = %d, want %d", i, got, ResourceCap)
		}
		if e.elixirCarry != 0 {
			t.Fatalf("tick %d: elixirCarry = %v, want 0", i, e.elixirCarry)
		}
	}
	if got := e.RemainingSeconds(); got != 170 {
		t.Fatalf("RemainingSeconds() = %d, want 170", got)
	}
}

func TestSpend(t *testing.T) {
	tests := []struct {
		name       string
		config     MatchConfig
		elixir     int
		amount     int
		wantElixir int
		wantSpent  int
	}{
		{name: "overdraw from zero stays floored", config: StandardConfig(), elixir: 0, amount: 9, wantElixir: 0, wantSpent: 0},
		{name: "overdraw past the floor", config: StandardConfig(), elixir: 2, amount: 3, wantElixir: 0, wantSpent: 2},
		{name: "no overdraw in simple variant", config: SimpleConfig(), elixir: 3, amount: 5, wantElixir: 0, wantSpent: 3},
		{name: "covered spend", config: StandardConfig(), elixir: 8, amount: 4, wantElixir: 4, wantSpent: 4},
		{name: "zero amount rejected", config: StandardConfig(), elixir: 6, amount: 0, wantElixir: 6, wantSpent: 0},
		{name: "negative amount rejected", config: StandardConfig(), elixir: 6, amount: -2, wantElixir: 6, wantSpent: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.config)
			e.Start()
			e.elixir = tt.elixir
			if got := e.Spend(tt.amount); got != tt.wantSpent {
				t.Fatalf("Spend(%d) = %d, want %d", tt.amount, got, tt.wantSpent)
			}
			if got := e.Elixir(); got != tt.wantElixir {
				t.Fatalf("Elixir() = %d, want %d", got, tt.wantElixir)
			}
		})
	}
}

func TestMaxSpend(t *testing.T) {
	standard := NewEngine(StandardConfig())
	standard.Start()
	if got := standard.MaxSpend(); got != 7 {
		t.Fatalf("standard MaxSpend() = %d, want 7", got)
	}
	simple := NewEngine(SimpleConfig())
	simple.Start()
	if got := simple.MaxSpend(); got != 5 {
		t.Fatalf("simple MaxSpend() = %d, want 5", got)
	}
}

func TestFormattedTime(t *testing.T) {
	tests := []struct {
		remaining int
		want      string
	}{
		{remaining: 180, want: "3:00"},
		{remaining: 61, want: "1:01"},
		{remaining: 9, want: "0:09"},
		{remaining: 0, want: "0:00"},
	}
	for _, tt := range tests {
		e := NewEngine(StandardConfig())
		e.Start()
		e.remainingSeconds = tt.remaining
		if got := e.FormattedTime(); got != tt.want {
			t.Fatalf("FormattedTime() at %d = %q, want %q", tt.remaining, got, tt.want)
		}
	}
}
