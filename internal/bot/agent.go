package bot

import (
	"fmt"
	"math/rand"
	"time"

	"royale/internal/app"
)

// Agent represents an autonomous participant: a strategy plus tick
// pacing, so its spends land at an uneven rhythm instead of the instant
// the strategy allows one.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain

	minDelay  int
	maxDelay  int
	rng       *rand.Rand
	waitUntil int64 // tick when the agent acts; 0 means no spend scheduled
}

// NewAgent builds an autopilot participant with default strategy
// tuning. index keeps IDs unique within one match; delays are in ticks
// and bound the random pause between a strategy wanting to spend and
// the spend going out.
func NewAgent(index int, level Level, minDelay, maxDelay int, rng *rand.Rand) (*Agent, error) {
	return NewTunedAgent(index, level, minDelay, maxDelay, DefaultTuning, rng)
}

// NewTunedAgent builds an autopilot participant whose strategy plays by
// the given spend thresholds.
func NewTunedAgent(index int, level Level, minDelay, maxDelay int, tuning Tuning, rng *rand.Rand) (*Agent, error) {
	brain, err := NewTunedBrain(level, tuning)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if minDelay < 0 {
		minDelay = 0
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Agent{
		ID:       fmt.Sprintf("bot-%d", index),
		Name:     fmt.Sprintf("AI Player %d", index+1),
		Strategy: brain,
		minDelay: minDelay,
		maxDelay: maxDelay,
		rng:      rng,
	}, nil
}

// Act consumes one tick and returns the spend to apply, if one is due.
// The first tick the strategy wants to spend schedules a random delay;
// the spend fires once the host tick reaches it.
func (a *Agent) Act(tick int64, snap app.Snapshot) (int, bool) {
	if !snap.Running {
		a.waitUntil = 0
		return 0, false
	}
	move := a.Strategy.CalculateMove(snap)
	if move.Wait || move.Amount <= 0 {
		a.waitUntil = 0
		return 0, false
	}
	if a.waitUntil == 0 {
		delay := a.minDelay
		if a.maxDelay > a.minDelay {
			delay += a.rng.Intn(a.maxDelay - a.minDelay + 1)
		}
		a.waitUntil = tick + int64(delay)
	}
	if tick < a.waitUntil {
		return 0, false
	}
	a.waitUntil = 0
	return move.Amount, true
}
