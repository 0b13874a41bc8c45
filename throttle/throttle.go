// Package throttle gates rapidly repeated triggers such as held keys.
package throttle

import (
	"sync"
	"time"
)

// Gate lets the first call through and then drops calls until interval has
// passed since the last call it let through.
type Gate struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
	open bool
}

// NewGate returns a gate on the wall clock. An interval of zero or less
// never drops a call.
func NewGate(interval time.Duration) *Gate {
	return NewGateWithClock(interval, time.Now)
}

func NewGateWithClock(interval time.Duration, now func() time.Time) *Gate {
	return &Gate{interval: interval, now: now}
}

func (g *Gate) Allow() bool {
	if g.interval <= 0 {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now()
	if g.open && t.Sub(g.last) < g.interval {
		return false
	}
	g.last = t
	g.open = true
	return true
}

// Debouncer runs only the last of a burst of triggers, delay after the
// burst ends.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = f
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire ignores timers that were superseded after they had already expired.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	f := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if f != nil {
		f()
	}
}

// Flush runs the pending call, if any, on the calling goroutine.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	f := d.pending
	d.pending = nil
	d.mu.Unlock()

	if f != nil {
		f()
	}
}

// Stop drops the pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
