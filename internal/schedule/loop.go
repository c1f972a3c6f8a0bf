package schedule

import "time"

// Loop drives a per-frame function through a Scheduler with at most one
// request in flight. Callbacks that fire after Stop (or that belong to an
// earlier Start) are no-ops.
type Loop struct {
	sched    Scheduler
	fn       FrameFunc
	handle   Handle
	inFlight bool
	running  bool
	gen      uint64
	frames   int
}

// NewLoop creates a stopped loop.
func NewLoop(s Scheduler, fn FrameFunc) *Loop {
	return &Loop{sched: s, fn: fn}
}

// Start begins requesting frames. Calling Start on a running loop does nothing.
func (l *Loop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.gen++
	l.request()
}

// Stop cancels the pending request. Calling Stop on a stopped loop does nothing.
func (l *Loop) Stop() {
	if !l.running {
		return
	}
	l.running = false
	if l.inFlight {
		l.sched.Cancel(l.handle)
		l.inFlight = false
	}
}

// Running reports whether the loop is started.
func (l *Loop) Running() bool { return l.running }

// Frames returns the number of frames run since creation.
func (l *Loop) Frames() int { return l.frames }

func (l *Loop) request() {
	if l.inFlight {
		return
	}
	gen := l.gen
	l.handle = l.sched.RequestFrame(func(now time.Time) { l.run(gen, now) })
	l.inFlight = true
}

func (l *Loop) run(gen uint64, now time.Time) {
	if gen != l.gen || !l.running {
		return
	}
	l.inFlight = false
	l.frames++
	l.fn(now)
	if l.running && gen == l.gen {
		l.request()
	}
}
