package domain

import (
	"fmt"
	"time"
)

// Engine holds the authoritative countdown and elixir state for one
// match. It consumes elapsed time through Advance and never reads a
// clock, so a delta produces the same state however it is subdivided.
// Callers own serialization; an Engine is not safe for concurrent use.
type Engine struct {
	config MatchConfig

	phaseIndex       int
	remainingSeconds int
	elixir           int
	running          bool

	// Sub-second carries. Integer nanoseconds, never floats, so equal
	// deltas sum exactly and long sessions cannot drift.
	matchCarry  time.Duration
	elixirCarry time.Duration
}

// NewEngine returns a stopped engine loaded with config, first phase and
// starting elixir in place. Panics on a table no match could run on.
func NewEngine(config MatchConfig) *Engine {
	if len(config.Phases) == 0 {
		panic("domain: match config needs at least one phase")
	}
	for _, phase := range config.Phases {
		if phase.DurationSeconds <= 0 {
			panic(fmt.Sprintf("domain: phase %q needs a positive duration", phase.Name))
		}
		if phase.Rate.BaseMultiplier < 1 || phase.Rate.ThresholdMultiplier < 1 {
			panic(fmt.Sprintf("domain: phase %q needs positive rate multipliers", phase.Name))
		}
	}
	e := &Engine{config: config}
	e.Reset()
	return e
}

// Start loads the first phase and the starting elixir and begins running.
func (e *Engine) Start() {
	e.phaseIndex = 0
	e.remainingSeconds = e.config.Phases[0].DurationSeconds
	e.elixir = e.config.StartingElixir
	e.matchCarry = 0
	e.elixirCarry = 0
	e.running = true
}

// Reset restores the same initial state as Start without running.
func (e *Engine) Reset() {
	e.Start()
	e.running = false
}

// Pause halts advancement. Carries are kept so resuming loses no partial
// progress. Idempotent.
func (e *Engine) Pause() {
	e.running = false
}

// Resume restarts advancement. It reports false, and changes nothing,
// when no match time is left.
func (e *Engine) Resume() bool {
	if e.remainingSeconds == 0 {
		return false
	}
	e.running = true
	return true
}

// Spend deducts amount from the banked elixir and returns the deduction
// actually applied. The variant's overdraw allowance lets a spend exceed
// the current level; the result still floors at zero. Non-positive
// amounts change nothing.
func (e *Engine) Spend(amount int) int {
	if amount <= 0 {
		return 0
	}
	spend := e.elixir + e.config.OverdrawAllowance
	if amount < spend {
		spend = amount
	}
	next := e.elixir - spend
	if next < 0 {
		next = 0
	}
	spent := e.elixir - next
	e.elixir = next
	return spent
}

// Advance consumes delta of match time: counts the clock down, accrues
// elixir at the interval in force, and completes phases as the countdown
// empties. The delta is consumed in sub-steps bounded by second
// boundaries, so a rate threshold crossed mid-call switches the accrual
// interval at the right instant. One oversized delta may complete several
// phases; whatever remains after the last phase is discarded. No-op while
// paused or after the match ends.
func (e *Engine) Advance(delta time.Duration) {
	if !e.running || e.remainingSeconds == 0 || delta <= 0 {
		return
	}
	for delta > 0 {
		step := time.Second - e.matchCarry
		if delta < step {
			step = delta
		}
		delta -= step

		interval := e.config.Phases[e.phaseIndex].Rate.Interval(e.remainingSeconds)
		inc, carry := Accrue(step, e.elixirCarry, interval, e.elixir, ResourceCap)
		e.elixir += inc
		e.elixirCarry = carry

		e.matchCarry += step
		if e.matchCarry < time.Second {
			continue
		}
		e.matchCarry = 0
		e.remainingSeconds--
		if e.remainingSeconds > 0 {
			continue
		}
		if !e.nextPhase() {
			return
		}
	}
}

// nextPhase completes the active phase, reporting false when none follow.
// Both carries drop at the boundary; partial progress never crosses
// phases.
func (e *Engine) nextPhase() bool {
	e.matchCarry = 0
	e.elixirCarry = 0
	if e.phaseIndex+1 < len(e.config.Phases) {
		e.phaseIndex++
		e.remainingSeconds = e.config.Phases[e.phaseIndex].DurationSeconds
		return true
	}
	e.running = false
	return false
}

// Config returns the variant table the engine was built with.
func (e *Engine) Config() MatchConfig {
	return e.config
}

// Phase returns the active phase name.
func (e *Engine) Phase() string {
	return e.config.Phases[e.phaseIndex].Name
}

// RemainingSeconds returns the countdown value for the active phase.
func (e *Engine) RemainingSeconds() int {
	return e.remainingSeconds
}

// Elixir returns the banked elixir level.
func (e *Engine) Elixir() int {
	return e.elixir
}

// Running reports whether Advance is currently consuming time.
func (e *Engine) Running() bool {
	return e.running
}

// Over reports whether the final phase has run out.
func (e *Engine) Over() bool {
	return e.remainingSeconds == 0
}

// PastThreshold reports whether the countdown has entered the active
// phase's accelerated-rate window.
func (e *Engine) PastThreshold() bool {
	return e.remainingSeconds <= e.config.Phases[e.phaseIndex].Rate.ThresholdSeconds
}

// MaxSpend returns the most a single spend can deduct right now: the
// banked elixir plus the variant's overdraw allowance.
func (e *Engine) MaxSpend() int {
	return e.elixir + e.config.OverdrawAllowance
}

// FormattedTime renders the countdown as M:SS.
func (e *Engine) FormattedTime() string {
	return fmt.Sprintf("%d:%02d", e.remainingSeconds/60, e.remainingSeconds%60)
}
