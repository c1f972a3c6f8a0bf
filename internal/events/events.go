// Package events carries node interaction notifications out of the scene:
// the Emitter contract, an in-memory recorder and a JSONL event log.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/flowviz/internal/graph"
)

// Emitter receives interaction notifications. Calls arrive on the scene
// goroutine and must not block.
type Emitter interface {
	NodeActivated(id string)
	NodeMoved(id string, pos graph.Position)
}

// Kind names an event in the log.
type Kind string

const (
	Activated Kind = "activated"
	Moved     Kind = "moved"
)

// Entry is one recorded event.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Node      string    `json:"node"`
	X         float64   `json:"x,omitempty"`
	Y         float64   `json:"y,omitempty"`
	Z         *float64  `json:"z,omitempty"`
}

func movedEntry(now time.Time, id string, pos graph.Position) Entry {
	e := Entry{Timestamp: now, Kind: Moved, Node: id, X: pos.X, Y: pos.Y}
	if pos.HasZ {
		z := pos.Z
		e.Z = &z
	}
	return e
}

// Position returns the entry's coordinates.
func (e Entry) Position() graph.Position {
	p := graph.Position{X: e.X, Y: e.Y}
	if e.Z != nil {
		p.Z, p.HasZ = *e.Z, true
	}
	return p
}

// ─── Recorder ───

// Recorder keeps events in memory. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NodeActivated implements Emitter.
func (r *Recorder) NodeActivated(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Timestamp: time.Now(), Kind: Activated, Node: id})
}

// NodeMoved implements Emitter.
func (r *Recorder) NodeMoved(id string, pos graph.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, movedEntry(time.Now(), id, pos))
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// ─── Fan-out ───

// Multi forwards every event to each emitter in order.
type Multi []Emitter

// NodeActivated implements Emitter.
func (m Multi) NodeActivated(id string) {
	for _, e := range m {
		e.NodeActivated(id)
	}
}

// NodeMoved implements Emitter.
func (m Multi) NodeMoved(id string, pos graph.Position) {
	for _, e := range m {
		e.NodeMoved(id, pos)
	}
}

// Logger reports events through zap at debug level.
type Logger struct {
	Log *zap.Logger
}

// NodeActivated implements Emitter.
func (l Logger) NodeActivated(id string) {
	l.Log.Debug("node activated", zap.String("node", id))
}

// NodeMoved implements Emitter.
func (l Logger) NodeMoved(id string, pos graph.Position) {
	l.Log.Debug("node moved", zap.String("node", id), zap.Float64("x", pos.X), zap.Float64("y", pos.Y))
}

// Nop discards events.
type Nop struct{}

func (Nop) NodeActivated(string) {}

func (Nop) NodeMoved(string, graph.Position) {}
