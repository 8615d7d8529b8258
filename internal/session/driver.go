package session

import (
	"context"
	"sync"
	"time"
)

// Driver feeds wall time into one session at a fixed cadence. Each tick
// hands the tick interval itself to the session, so simulated time never
// drifts from the cadence the relay advertises.
type Driver struct {
	session  *Session
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewDriver wires a driver to a session. A non-positive interval falls
// back to 100ms.
func NewDriver(sess *Session, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Driver{
		session:  sess,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Interval returns the tick cadence.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Run begins the tick loop. Blocks until the context ends or Stop is
// called.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.session.Tick(d.interval)
		}
	}
}

// Stop halts the tick loop. Safe to call more than once.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
}
