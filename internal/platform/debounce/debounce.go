// Package debounce coalesces bursts of triggers into a single deferred call.
package debounce

import (
	"sync"
	"time"

	"stillpoint/internal/platform/clock"
)

// Debouncer holds at most one pending task. Every Trigger replaces the
// pending task and restarts the quiet period.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu      sync.Mutex
	gen     uint64
	pending clock.Timer
}

func New(clk clock.Clock, delay time.Duration) *Debouncer {
	return &Debouncer{clock: clk, delay: delay}
}

// Trigger schedules fn after the quiet period, cancelling any pending task.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if gen != d.gen || d.pending == nil {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending task and reports whether one existed.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return false
	}
	d.pending.Stop()
	d.pending = nil
	d.gen++
	return true
}

// Pending reports whether a task is waiting for its quiet period.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
