// Package vector is the flat, path-based scene backend: circles for nodes,
// cubic curves for connections and a pulsing marker riding each curve.
package vector

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/scene"
)

// Name is the backend name used in configuration.
const Name = "vector"

// Options tunes the drawing. Zero values take defaults.
type Options struct {
	PulsePeriod    int     // frames per marker pulse
	PulseBase      float64 // marker radius at rest
	PulseAmplitude float64
	IconSize       float64
	LabelSize      float64
	LabelGap       float64 // distance from the circle edge to the label baseline
}

func (o Options) withDefaults() Options {
	if o.PulsePeriod <= 0 {
		o.PulsePeriod = 45
	}
	if o.PulseBase <= 0 {
		o.PulseBase = 4
	}
	if o.PulseAmplitude <= 0 {
		o.PulseAmplitude = 2
	}
	if o.IconSize <= 0 {
		o.IconSize = 18
	}
	if o.LabelSize <= 0 {
		o.LabelSize = 12
	}
	if o.LabelGap <= 0 {
		o.LabelGap = 18
	}
	return o
}

// Renderer implements scene.Renderer.
type Renderer struct {
	opts  Options
	ctx   *scene.Context
	pulse int
}

var _ scene.Renderer = (*Renderer)(nil)

// New creates an unmounted renderer.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts.withDefaults()}
}

// Name implements scene.Renderer.
func (r *Renderer) Name() string { return Name }

// Mount implements scene.Renderer.
func (r *Renderer) Mount(ctx *scene.Context) error {
	if ctx == nil || ctx.Graph == nil || ctx.Surface == nil {
		return errors.New("vector: incomplete scene context")
	}
	r.ctx = ctx
	r.pulse = 0
	return nil
}

// Unmount implements scene.Renderer. The vector backend registers no
// listeners and holds no graphics resources.
func (r *Renderer) Unmount() {
	r.ctx = nil
}

func (r *Renderer) radius() float64 {
	return r.ctx.Animator.Radius()
}

// PulseRadius returns the marker radius for the current pulse frame.
func (r *Renderer) PulseRadius() float64 {
	phase := 2 * math.Pi * float64(r.pulse%r.opts.PulsePeriod) / float64(r.opts.PulsePeriod)
	return r.opts.PulseBase + r.opts.PulseAmplitude*math.Sin(phase)
}

// RenderConnections implements scene.Renderer. Connections whose geometry
// cannot be built are skipped and reported once.
func (r *Renderer) RenderConnections(f *scene.Frame, snap graph.Snapshot, links []graph.Link) {
	if r.ctx == nil {
		return
	}
	r.pulse++
	radius := r.PulseRadius()

	for _, l := range links {
		key := string(l.ID)
		curve, err := r.ctx.Animator.Curve(l, snap)
		if err != nil {
			r.ctx.Diagnostics.Report(key, err)
			continue
		}
		r.ctx.Diagnostics.Clear(key)

		progress, _ := r.ctx.Animator.Progress(l.ID)
		f.Add(
			scene.CurvePath{ID: l.ID, Curve: curve, Label: l.Label},
			scene.Marker{ID: l.ID, At: curve.At(progress), Radius: radius},
		)
	}
}

// RenderNodes implements scene.Renderer.
func (r *Renderer) RenderNodes(f *scene.Frame, snap graph.Snapshot) {
	if r.ctx == nil {
		return
	}
	radius := r.radius()
	for _, n := range snap.Nodes {
		c := r2.Vec{X: n.Position.X, Y: n.Position.Y}
		label := n.Label
		if label == "" {
			label = n.ID
		}
		f.Add(
			scene.Circle{NodeID: n.ID, Center: c, Radius: radius, Category: n.Category},
			scene.Glyph{NodeID: n.ID, At: c, Text: scene.IconFor(r.ctx.Icons, n.Category), Size: r.opts.IconSize},
			scene.Text{NodeID: n.ID, At: r2.Vec{X: c.X, Y: c.Y + radius + r.opts.LabelGap}, Text: label, Size: r.opts.LabelSize},
		)
	}
}

// ProjectPoint implements scene.Renderer. Layout space is surface space.
func (r *Renderer) ProjectPoint(p graph.Position) (r2.Vec, bool) {
	return r2.Vec{X: p.X, Y: p.Y}, true
}

// ScreenToLayout implements scene.Renderer, keeping ref's depth.
func (r *Renderer) ScreenToLayout(x, y float64, ref graph.Position) (graph.Position, bool) {
	return graph.Position{X: x, Y: y, Z: ref.Z, HasZ: ref.HasZ}, true
}

// Pick implements scene.Renderer against live positions. The node drawn
// last wins where circles overlap.
func (r *Renderer) Pick(x, y float64) (string, bool) {
	if r.ctx == nil {
		return "", false
	}
	radius := r.radius()
	nodes := r.ctx.Graph.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		dx := x - nodes[i].Position.X
		dy := y - nodes[i].Position.Y
		if dx*dx+dy*dy <= radius*radius {
			return nodes[i].ID, true
		}
	}
	return "", false
}

// Resize implements scene.Renderer. Layout space does not scale with the
// surface, so there is nothing to recompute.
func (r *Renderer) Resize(width, height int) {}
