package sched

import "time"

// DefaultDebounceDuration is the default debounce window.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces rapid triggers into a single callback invocation on a
// Loop. When Trigger is called again before the window elapses, the earlier
// pending callback is cancelled: last write wins.
//
// All methods must be called from loop callbacks (or before the loop starts
// delivering events); the Debouncer carries no locking of its own.
type Debouncer struct {
	loop    Loop
	window  time.Duration
	pending Timer
	seq     uint64
}

// NewDebouncer creates a Debouncer with the given window. A zero window
// falls back to DefaultDebounceDuration.
func NewDebouncer(loop Loop, window time.Duration) *Debouncer {
	if window == 0 {
		window = DefaultDebounceDuration
	}
	return &Debouncer{loop: loop, window: window}
}

// Window returns the debounce window.
func (d *Debouncer) Window() time.Duration { return d.window }

// Trigger schedules callback after the window, cancelling any earlier
// pending callback.
func (d *Debouncer) Trigger(callback func()) {
	d.seq++
	seq := d.seq
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.loop.After(d.window, func() {
		// Only the most recently scheduled callback may run; a stale timer
		// that slipped past Stop is discarded here.
		if seq != d.seq {
			return
		}
		d.pending = nil
		callback()
	})
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.seq++
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

// Pending reports whether a callback is scheduled.
func (d *Debouncer) Pending() bool { return d.pending != nil }
