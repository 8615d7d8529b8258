package bot

import (
	"royale/internal/app"
)

// SteadyBot keeps constant pressure: it spends a single unit whenever
// one is banked.
type SteadyBot struct{}

func (b *SteadyBot) CalculateMove(snap app.Snapshot) Move {
	if snap.Elixir < 1 {
		return Move{Wait: true}
	}
	return Move{Amount: 1}
}

// SaverBot hoards until the bank is nearly full, then commits a heavy
// spend. Near the cap accrual is wasted, so it never sits at the limit.
type SaverBot struct {
	Tuning Tuning
}

func (b *SaverBot) CalculateMove(snap app.Snapshot) Move {
	if snap.Elixir < b.Tuning.saverFloor() {
		return Move{Wait: true}
	}
	return Move{Amount: b.Tuning.saverSpend()}
}

// BurstBot plays mid-cost pushes as soon as it can afford one, leaning
// on the overdraw allowance late in the match.
type BurstBot struct {
	Tuning Tuning
}

func (b *BurstBot) CalculateMove(snap app.Snapshot) Move {
	cost := b.Tuning.burstCost()
	if snap.PastThreshold && snap.MaxSpend >= cost {
		return Move{Amount: cost}
	}
	if snap.Elixir < cost {
		return Move{Wait: true}
	}
	return Move{Amount: cost}
}
