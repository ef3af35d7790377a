package search

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

// DebounceDelay is how long typing must pause before a search runs.
const DebounceDelay = 150 * time.Millisecond

// Debouncer runs only the last of a burst of calls, once the burst has been
// quiet for the delay.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu    sync.Mutex
	timer clock.Timer
}

// NewDebouncer creates a debouncer on clk.
func NewDebouncer(clk clock.Clock, delay time.Duration) *Debouncer {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Debouncer{clock: clk, delay: delay}
}

// Trigger schedules fn, cancelling any call still pending.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, fn)
}

// Stop cancels the pending call, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
