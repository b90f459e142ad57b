// Package debounce provides a trailing-edge debouncer: a burst of Schedule
// calls results in a single invocation of the last scheduled function, once
// the burst has been quiet for the configured delay.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays a function call until no new call has been scheduled for
// the quiet period. It is safe for concurrent use.
//
// The zero value is not usable; create one with New.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	// gen identifies the most recent Schedule call. A timer that fires after
	// being superseded sees a different gen and does nothing; Timer.Stop alone
	// cannot guarantee that once the timer goroutine has started.
	gen uint64
}

// New creates a Debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule cancels any pending invocation and arranges for fn to run after
// the quiet period. fn runs on its own goroutine.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
}

// Cancel drops the pending invocation, if any. It reports whether something
// was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.gen++
	d.timer.Stop()
	d.timer = nil
	return true
}
