package sched

import (
	"sort"
	"time"
)

// Manual is a deterministic Loop for tests. Nothing runs until the caller
// advances the virtual clock or flushes a frame; everything executes on the
// caller's goroutine.
type Manual struct {
	now    time.Time
	queue  []func()
	frames []func()
	timers []*manualTimer
	seq    int
}

// NewManual returns a manual loop with the clock at an arbitrary fixed epoch.
func NewManual() *Manual {
	return &Manual{now: time.Unix(1_700_000_000, 0)}
}

// Now returns the virtual clock.
func (m *Manual) Now() time.Time { return m.now }

// Post enqueues fn; it runs on the next Drain/Advance/Flush.
func (m *Manual) Post(fn func()) {
	m.queue = append(m.queue, fn)
}

// After schedules fn at now+d on the virtual clock.
func (m *Manual) After(d time.Duration, fn func()) Timer {
	m.seq++
	t := &manualTimer{due: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// NextFrame defers fn until the next FlushFrame.
func (m *Manual) NextFrame(fn func()) {
	m.frames = append(m.frames, fn)
}

// Drain runs all posted callbacks, including ones posted while draining.
func (m *Manual) Drain() {
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue = m.queue[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in (due, seq)
// order and draining the queue after each.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		m.Drain()
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.due
		m.removeTimer(next)
		if !next.stopped {
			next.fired = true
			next.fn()
		}
	}
	m.now = target
	m.Drain()
}

// FlushFrame runs one frame flush: every deferral registered so far, in
// order. Deferrals registered during the flush wait for the next one.
func (m *Manual) FlushFrame() {
	m.Drain()
	frames := m.frames
	m.frames = nil
	for _, fn := range frames {
		fn()
	}
	m.Drain()
}

// FlushFrames runs n frame flushes.
func (m *Manual) FlushFrames(n int) {
	for i := 0; i < n; i++ {
		m.FlushFrame()
	}
}

// PendingTimers reports how many timers are armed.
func (m *Manual) PendingTimers() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (m *Manual) nextDue(limit time.Time) *manualTimer {
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired && !t.due.After(limit) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].due.Equal(due[j].due) {
			return due[i].due.Before(due[j].due)
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

func (m *Manual) removeTimer(t *manualTimer) {
	for i, cand := range m.timers {
		if cand == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

type manualTimer struct {
	due     time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
