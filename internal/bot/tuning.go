package bot

// Tuning holds the spend thresholds the shipped strategies play by.
// Strategies fall back to DefaultTuning for fields left at zero, so a
// zero-valued strategy plays the default game.
type Tuning struct {
	// SaverFloor is the banked level SaverBot hoards to before committing.
	SaverFloor int
	// SaverSpend is what SaverBot dumps once the floor is reached.
	SaverSpend int
	// BurstCost is the size of BurstBot's push.
	BurstCost int
}

// DefaultTuning keeps the saver camping just under the cap and the burst
// push at a mid-cost play.
var DefaultTuning = Tuning{
	SaverFloor: 8,
	SaverSpend: 6,
	BurstCost:  4,
}

func (t Tuning) saverFloor() int {
	if t.SaverFloor > 0 {
		return t.SaverFloor
	}
	return DefaultTuning.SaverFloor
}

func (t Tuning) saverSpend() int {
	if t.SaverSpend > 0 {
		return t.SaverSpend
	}
	return DefaultTuning.SaverSpend
}

func (t Tuning) burstCost() int {
	if t.BurstCost > 0 {
		return t.BurstCost
	}
	return DefaultTuning.BurstCost
}
