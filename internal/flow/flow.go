// Package flow animates particles along graph connections. Each connection
// owns an independent looping progress counter; nothing is shared between
// connections and no wall clock is involved.
package flow

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/msalah0e/flowviz/internal/geom"
	"github.com/msalah0e/flowviz/internal/graph"
)

const (
	// DefaultStep is the per-frame progress increment. A full loop takes
	// about 67 frames, 1.1s at 60fps.
	DefaultStep = 0.015
	// DefaultRadius is the node radius curves start and end on.
	DefaultRadius = 30.0

	// Accumulated float error must not keep progress just under 1 after
	// ceil(1/step) ticks.
	wrapTolerance = 1e-9
)

// Positions resolves node ids to positions. Both *graph.Graph (live) and
// graph.Snapshot (frame-consistent) satisfy it.
type Positions interface {
	Position(id string) (graph.Position, bool)
}

type counter struct {
	progress float64
	loops    int
}

// Animator holds one progress counter per connection.
type Animator struct {
	step        float64
	radius      float64
	curveOffset float64
	counters    map[graph.ConnectionID]*counter
}

// Options configures an Animator. Non-positive Step and Radius fall back to
// defaults; CurveOffset only does when negative since 0 is a valid offset.
type Options struct {
	Step        float64
	Radius      float64
	CurveOffset float64
}

// New creates an Animator. Steps outside (0,1) fall back to DefaultStep.
func New(opts Options) *Animator {
	if opts.Step <= 0 || opts.Step >= 1 {
		opts.Step = DefaultStep
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	if opts.CurveOffset < 0 {
		opts.CurveOffset = geom.DefaultCurveOffset
	}
	return &Animator{
		step:        opts.Step,
		radius:      opts.Radius,
		curveOffset: opts.CurveOffset,
		counters:    make(map[graph.ConnectionID]*counter),
	}
}

// Step returns the per-tick increment.
func (a *Animator) Step() float64 { return a.step }

// Radius returns the node radius used for curve geometry.
func (a *Animator) Radius() float64 { return a.radius }

// CurveOffset returns the control point offset fraction.
func (a *Animator) CurveOffset() float64 { return a.curveOffset }

// Tick advances the counter of every listed connection by one step,
// creating counters that do not exist yet and discarding counters for
// connections no longer listed.
func (a *Animator) Tick(ids []graph.ConnectionID) {
	live := make(map[graph.ConnectionID]bool, len(ids))
	for _, id := range ids {
		live[id] = true
		c, ok := a.counters[id]
		if !ok {
			c = &counter{}
			a.counters[id] = c
		}
		c.progress += a.step
		if c.progress >= 1-wrapTolerance {
			c.progress = 0
			c.loops++
		}
	}
	for id := range a.counters {
		if !live[id] {
			delete(a.counters, id)
		}
	}
}

// Progress returns a connection's phase in [0,1).
func (a *Animator) Progress(id graph.ConnectionID) (float64, bool) {
	c, ok := a.counters[id]
	if !ok {
		return 0, false
	}
	return c.progress, true
}

// Loops returns how many times a connection's counter has wrapped.
func (a *Animator) Loops(id graph.ConnectionID) int {
	if c, ok := a.counters[id]; ok {
		return c.loops
	}
	return 0
}

// Len returns the number of live counters.
func (a *Animator) Len() int { return len(a.counters) }

// Reset drops every counter.
func (a *Animator) Reset() {
	a.counters = make(map[graph.ConnectionID]*counter)
}

// Curve computes the connection's curve from the given positions.
func (a *Animator) Curve(l graph.Link, pos Positions) (geom.Curve, error) {
	src, ok := pos.Position(l.Source)
	if !ok {
		return geom.Curve{}, &graph.DataIntegrityError{Connection: l.ID, Missing: l.Source}
	}
	dst, ok := pos.Position(l.Target)
	if !ok {
		return geom.Curve{}, &graph.DataIntegrityError{Connection: l.ID, Missing: l.Target}
	}
	return geom.Connect(
		r2.Vec{X: src.X, Y: src.Y},
		r2.Vec{X: dst.X, Y: dst.Y},
		a.radius, a.curveOffset,
	)
}

// CurrentPoint returns the particle position of a connection. The curve is
// rebuilt from pos on every call so a dragged endpoint bends the path of a
// particle already in flight. Connections not ticked yet sit at progress 0.
func (a *Animator) CurrentPoint(l graph.Link, pos Positions) (r2.Vec, error) {
	curve, err := a.Curve(l, pos)
	if err != nil {
		return r2.Vec{}, err
	}
	p, _ := a.Progress(l.ID)
	return curve.At(p), nil
}
