package sched

import "time"

// Retry is an explicit bounded-retry state machine: attempt, wait a fixed
// delay, attempt again, up to a bound, then give up. It replaces ad-hoc
// chained timer callbacks so the attempt counter and the terminal give-up
// transition are inspectable.
type Retry struct {
	loop     Loop
	delay    time.Duration
	max      int
	attempt  int
	pending  Timer
	done     bool
	try      func() bool
	onGiveUp func()
}

// NewRetry builds a retry machine that calls try up to max times, waiting
// delay between attempts. try returns true on success. onGiveUp (optional)
// fires once after the final failed attempt.
func NewRetry(loop Loop, max int, delay time.Duration, try func() bool, onGiveUp func()) *Retry {
	return &Retry{loop: loop, delay: delay, max: max, try: try, onGiveUp: onGiveUp}
}

// Start runs the first attempt immediately (on the caller's stack) and
// schedules follow-ups as needed.
func (r *Retry) Start() {
	if r.done {
		return
	}
	r.step()
}

// Attempt returns the number of attempts made so far.
func (r *Retry) Attempt() int { return r.attempt }

// Exhausted reports whether the machine gave up.
func (r *Retry) Exhausted() bool { return r.done && r.attempt >= r.max }

// Done reports whether the machine reached a terminal state, by success or
// by give-up.
func (r *Retry) Done() bool { return r.done }

// Cancel stops any scheduled attempt and terminates the machine without
// invoking onGiveUp.
func (r *Retry) Cancel() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	r.done = true
}

func (r *Retry) step() {
	r.pending = nil
	r.attempt++
	if r.try() {
		r.done = true
		return
	}
	if r.attempt >= r.max {
		r.done = true
		if r.onGiveUp != nil {
			r.onGiveUp()
		}
		return
	}
	r.pending = r.loop.After(r.delay, r.step)
}
