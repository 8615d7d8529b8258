package bot

import (
	"fmt"
)

// NewBrain creates a strategy for the given level with default tuning.
func NewBrain(level Level) (Brain, error) {
	return NewTunedBrain(level, DefaultTuning)
}

// NewTunedBrain creates a strategy for the given level with custom
// spend thresholds.
func NewTunedBrain(level Level, tuning Tuning) (Brain, error) {
	switch level {
	case LevelSteady:
		return &SteadyBot{}, nil
	case LevelSaver:
		return &SaverBot{Tuning: tuning}, nil
	case LevelBurst:
		return &BurstBot{Tuning: tuning}, nil
	default:
		return nil, fmt.Errorf("unknown autopilot level: %d", level)
	}
}
