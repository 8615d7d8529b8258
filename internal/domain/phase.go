package domain

import "time"

const (
	// ResourceCap is the most elixir a match can bank at once.
	ResourceCap = 10

	// baseInterval is the time needed to accrue one elixir at single rate.
	baseInterval = 2800 * time.Millisecond
)

// Phase names shared by the shipped variants.
const (
	PhaseRegulation = "regulation"
	PhaseOvertime   = "overtime"
)

// Variant names accepted by match creation.
const (
	VariantStandard = "standard"
	VariantSimple   = "simple"
)

// RateRule decides the accrual multiplier from the countdown value:
// BaseMultiplier while more than ThresholdSeconds remain on the clock,
// ThresholdMultiplier for the rest of the phase.
type RateRule struct {
	ThresholdSeconds    int
	BaseMultiplier      int
	ThresholdMultiplier int
}

// Multiplier returns the multiplier in force at the given countdown value.
func (r RateRule) Multiplier(remainingSeconds int) int {
	if remainingSeconds <= r.ThresholdSeconds {
		return r.ThresholdMultiplier
	}
	return r.BaseMultiplier
}

// Interval returns the time needed to accrue one elixir at the given
// countdown value.
func (r RateRule) Interval(remainingSeconds int) time.Duration {
	return baseInterval / time.Duration(r.Multiplier(remainingSeconds))
}

// PhaseConfig describes one timed phase of a match.
type PhaseConfig struct {
	Name            string
	DurationSeconds int
	Rate            RateRule
}

// MatchConfig is the phase and spend table for one match variant. Engine
// control flow never branches on the variant name; adding a phase or a
// new rate curve is a table change only.
type MatchConfig struct {
	Variant           string
	Phases            []PhaseConfig
	StartingElixir    int
	OverdrawAllowance int
}

// StandardConfig returns the two-phase table: 180s regulation with double
// rate inside its last 60s, then 120s overtime with double rate rising to
// triple inside its last 60s. Spends may overdraw by 2.
func StandardConfig() MatchConfig {
	return MatchConfig{
		Variant: VariantStandard,
		Phases: []PhaseConfig{
			{
				Name:            PhaseRegulation,
				DurationSeconds: 180,
				Rate:            RateRule{ThresholdSeconds: 60, BaseMultiplier: 1, ThresholdMultiplier: 2},
			},
			{
				Name:            PhaseOvertime,
				DurationSeconds: 120,
				Rate:            RateRule{ThresholdSeconds: 60, BaseMultiplier: 2, ThresholdMultiplier: 3},
			},
		},
		StartingElixir:    5,
		OverdrawAllowance: 2,
	}
}

// SimpleConfig returns the single-phase table: 180s with double rate
// inside its last 60s and no overdraw.
func SimpleConfig() MatchConfig {
	return MatchConfig{
		Variant: VariantSimple,
		Phases: []PhaseConfig{
			{
				Name:            PhaseRegulation,
				DurationSeconds: 180,
				Rate:            RateRule{ThresholdSeconds: 60, BaseMultiplier: 1, ThresholdMultiplier: 2},
			},
		},
		StartingElixir:    5,
		OverdrawAllowance: 0,
	}
}

// ConfigForVariant maps a variant name to its table.
func ConfigForVariant(variant string) (MatchConfig, bool) {
	switch variant {
	case VariantStandard:
		return StandardConfig(), true
	case VariantSimple:
		return SimpleConfig(), true
	}
	return MatchConfig{}, false
}
