// Package schedule abstracts the "next frame" callback so the same scene can
// be driven by a ticker, a live front end, or a test stepping frames by hand.
package schedule

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Handle identifies a pending frame request.
type Handle uint64

// FrameFunc is called once per frame.
type FrameFunc func(now time.Time)

// Scheduler runs frame callbacks.
type Scheduler interface {
	RequestFrame(cb FrameFunc) Handle
	Cancel(h Handle)
}

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 60

type entry struct {
	handle Handle
	cb     FrameFunc
}

// ─── Manual ───

// Manual is a headless scheduler advanced explicitly with Step. Its clock
// starts at the zero time and moves one frame interval per step.
type Manual struct {
	interval  time.Duration
	now       time.Time
	next      Handle
	pending   []entry
	requested int
	cancelled int
}

// NewManual creates a manual scheduler whose clock advances at fps.
func NewManual(fps int) *Manual {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Manual{interval: time.Second / time.Duration(fps)}
}

// RequestFrame queues cb for the next Step.
func (m *Manual) RequestFrame(cb FrameFunc) Handle {
	m.next++
	m.requested++
	m.pending = append(m.pending, entry{handle: m.next, cb: cb})
	return m.next
}

// Cancel drops a pending request. Unknown handles are ignored.
func (m *Manual) Cancel(h Handle) {
	for i, e := range m.pending {
		if e.handle == h {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			m.cancelled++
			return
		}
	}
}

// Step advances the clock by one frame and runs the callbacks that were
// pending when it was called. Requests made by those callbacks wait for the
// next Step. It returns the number of callbacks run.
func (m *Manual) Step() int {
	m.now = m.now.Add(m.interval)
	due := m.pending
	m.pending = nil
	for _, e := range due {
		e.cb(m.now)
	}
	return len(due)
}

// StepN runs n steps and returns the total number of callbacks run.
func (m *Manual) StepN(n int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += m.Step()
	}
	return total
}

// Pending returns the number of queued requests.
func (m *Manual) Pending() int { return len(m.pending) }

// Requested returns the total number of RequestFrame calls.
func (m *Manual) Requested() int { return m.requested }

// Cancelled returns the number of requests actually cancelled.
func (m *Manual) Cancelled() int { return m.cancelled }

// Now returns the scheduler clock.
func (m *Manual) Now() time.Time { return m.now }

// ─── Ticker ───

// Ticker fires pending frame callbacks at a fixed rate on the goroutine
// running Run. Host input is marshalled onto that goroutine with Post, so
// scene state is only ever touched from one goroutine.
type Ticker struct {
	interval time.Duration
	posts    chan func()

	mu      sync.Mutex
	next    Handle
	pending map[Handle]FrameFunc
}

// NewTicker creates a ticker scheduler running at fps.
func NewTicker(fps int) *Ticker {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Ticker{
		interval: time.Second / time.Duration(fps),
		posts:    make(chan func(), 256),
		pending:  make(map[Handle]FrameFunc),
	}
}

// RequestFrame queues cb for the next tick.
func (t *Ticker) RequestFrame(cb FrameFunc) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.pending[t.next] = cb
	return t.next
}

// Cancel drops a pending request.
func (t *Ticker) Cancel(h Handle) {
	t.mu.Lock()
	delete(t.pending, h)
	t.mu.Unlock()
}

// Pending returns the number of queued requests.
func (t *Ticker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Post runs fn on the loop goroutine. It blocks while the queue is full and
// gives up when ctx ends.
func (t *Ticker) Post(ctx context.Context, fn func()) error {
	select {
	case t.posts <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives frames and posted work until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-t.posts:
			fn()
		case now := <-tk.C:
			for _, e := range t.takeDue() {
				e.cb(now)
			}
		}
	}
}

func (t *Ticker) takeDue() []entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	due := make([]entry, 0, len(t.pending))
	for h, cb := range t.pending {
		due = append(due, entry{handle: h, cb: cb})
	}
	t.pending = make(map[Handle]FrameFunc)
	sort.Slice(due, func(i, j int) bool { return due[i].handle < due[j].handle })
	return due
}
