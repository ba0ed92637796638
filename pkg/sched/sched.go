// Package sched provides the cooperative, single-threaded scheduler the grid
// controllers run on. All controller state is mutated only from loop
// callbacks; "waiting" is expressed as timers and next-frame deferrals, never
// as blocking calls.
package sched

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one render frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Timer is a cancelable pending callback.
type Timer interface {
	// Stop cancels the callback if it has not fired yet. Returns false when
	// the callback already ran or was already stopped.
	Stop() bool
}

// Loop schedules callbacks onto a single logical thread.
//
// Post enqueues fn to run as soon as the loop is free. After runs fn once the
// duration elapses. NextFrame defers fn to the next frame flush, after all
// work already queued for the current frame; it is the hook for DOM-style
// mutations that must land after the grid's own layout pass.
type Loop interface {
	Post(fn func())
	After(d time.Duration, fn func()) Timer
	NextFrame(fn func())
}

// RunLoop is the production Loop. A single goroutine drains the queue, so
// callbacks never run concurrently with each other.
type RunLoop struct {
	frameInterval time.Duration

	mu      sync.Mutex
	queue   []func()
	frames  []func()
	wake    chan struct{}
	flushAt *time.Timer
	closed  bool
}

// NewRunLoop starts a run loop draining on its own goroutine.
func NewRunLoop() *RunLoop {
	l := &RunLoop{
		frameInterval: DefaultFrameInterval,
		wake:          make(chan struct{}, 1),
	}
	go l.run()
	return l
}

// Post enqueues fn onto the loop.
func (l *RunLoop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.wakeup()
}

// After schedules fn on the loop once d elapses.
func (l *RunLoop) After(d time.Duration, fn func()) Timer {
	t := &runTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.markFired() {
				fn()
			}
		})
	})
	return t
}

// NextFrame defers fn to the next frame flush.
func (l *RunLoop) NextFrame(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.frames = append(l.frames, fn)
	if l.flushAt == nil {
		l.flushAt = time.AfterFunc(l.frameInterval, func() {
			l.Post(l.flushFrames)
		})
	}
	l.mu.Unlock()
}

// Close stops accepting work. Queued callbacks are dropped.
func (l *RunLoop) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.frames = nil
	if l.flushAt != nil {
		l.flushAt.Stop()
		l.flushAt = nil
	}
	l.mu.Unlock()
	l.wakeup()
}

func (l *RunLoop) wakeup() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *RunLoop) run() {
	for range l.wake {
		for {
			l.mu.Lock()
			if l.closed {
				l.mu.Unlock()
				return
			}
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue = l.queue[1:]
			l.mu.Unlock()
			fn()
		}
	}
}

func (l *RunLoop) flushFrames() {
	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	l.flushAt = nil
	l.mu.Unlock()
	for _, fn := range frames {
		fn()
	}
}

type runTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	fired bool
	dead  bool
}

func (t *runTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.dead {
		return false
	}
	t.dead = true
	t.timer.Stop()
	return true
}

func (t *runTimer) markFired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dead || t.fired {
		return false
	}
	t.fired = true
	return true
}
