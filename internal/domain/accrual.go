package domain

import "time"

// Accrue converts elapsed time into whole elixir increments. It folds
// delta into the running carry and divides out full intervals, stopping
// once level plus increments reaches limit. The returned carry is what is
// still owed toward the next increment; it is discarded whenever the
// level sits at limit so nothing is banked while full.
func Accrue(delta, carry, interval time.Duration, level, limit int) (int, time.Duration) {
	if level >= limit {
		return 0, 0
	}
	if interval <= 0 {
		return 0, carry
	}
	carry += delta
	increments := 0
	for carry >= interval && level+increments < limit {
		carry -= interval
		increments++
	}
	if level+increments >= limit {
		carry = 0
	}
	return increments, carry
}
