package bot

import (
	"fmt"

	"royale/internal/app"
)

// Move represents the decision made by an autopilot strategy.
type Move struct {
	Wait   bool // hold this tick, nothing to do yet
	Amount int  // elixir to spend when not waiting
}

// Brain is the interface that all autopilot strategies must implement.
type Brain interface {
	CalculateMove(snap app.Snapshot) Move
}

// Level selects an autopilot strategy.
type Level int

const (
	LevelSteady Level = iota
	LevelSaver
	LevelBurst
)

// ParseLevel maps a config string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "steady":
		return LevelSteady, nil
	case "saver":
		return LevelSaver, nil
	case "burst":
		return LevelBurst, nil
	}
	return 0, fmt.Errorf("unknown autopilot level: %q", s)
}
