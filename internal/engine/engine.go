// Package engine mounts a flow view: it builds the scene context, picks a
// backend, wires interaction and drives the per-frame render loop.
package engine

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/flowviz/internal/events"
	"github.com/msalah0e/flowviz/internal/flow"
	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/interact"
	"github.com/msalah0e/flowviz/internal/scene"
	"github.com/msalah0e/flowviz/internal/schedule"
	"github.com/msalah0e/flowviz/internal/solid"
	"github.com/msalah0e/flowviz/internal/vector"
)

// FrameSink receives every rendered frame. It runs on the scheduler's
// goroutine and must not keep the frame past the call unless it owns it.
type FrameSink func(f *scene.Frame)

// Options configures a mount. Only Graph is required.
type Options struct {
	Graph   *graph.Graph
	Surface *scene.Surface
	Width   int
	Height  int

	Renderer string // vector | solid
	Vector   vector.Options
	Solid    solid.Options
	Flow     flow.Options // the zero value takes every default
	Icons    scene.IconSet

	Scheduler schedule.Scheduler
	Emitter   events.Emitter
	Threshold float64
	Sink      FrameSink
	Logger    *zap.Logger
}

// ErrNoGraph is returned when Options.Graph is nil.
var ErrNoGraph = errors.New("engine: no graph")

// UnknownRendererError names a backend that does not exist.
type UnknownRendererError struct {
	Name string
}

func (e *UnknownRendererError) Error() string {
	return fmt.Sprintf("unknown renderer %q (want %s or %s)", e.Name, vector.Name, solid.Name)
}

// NewRenderer creates an unmounted backend by name. Empty selects vector.
func NewRenderer(name string, vo vector.Options, so solid.Options) (scene.Renderer, error) {
	switch name {
	case "", vector.Name:
		return vector.New(vo), nil
	case solid.Name:
		return solid.New(so), nil
	default:
		return nil, &UnknownRendererError{Name: name}
	}
}

// View is one mounted flow visualization.
type View struct {
	ctx       *scene.Context
	renderer  scene.Renderer
	control   *interact.Controller
	scheduler schedule.Scheduler
	loop      *schedule.Loop
	sink      FrameSink
	log       *zap.Logger

	links []graph.Link
	ids   []graph.ConnectionID
	seq   int

	mounted bool
}

// Mount builds the scene and starts rendering. Connections that reference
// missing nodes are logged and left out of the scene.
func Mount(opts Options) (*View, error) {
	if opts.Graph == nil {
		return nil, ErrNoGraph
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	surface := opts.Surface
	if surface == nil {
		w, h := opts.Width, opts.Height
		if w <= 0 || h <= 0 {
			w, h = 800, 600
		}
		surface = scene.NewSurface(w, h)
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.NewManual(schedule.DefaultFPS)
	}

	so := opts.Solid
	if so.ClickSlop <= 0 {
		so.ClickSlop = opts.Threshold
	}
	r, err := NewRenderer(opts.Renderer, opts.Vector, so)
	if err != nil {
		return nil, err
	}

	fo := opts.Flow
	if fo == (flow.Options{}) {
		fo.CurveOffset = -1
	}
	ctx := scene.NewContext(opts.Graph, surface, flow.New(fo), opts.Icons, log.Named(r.Name()))

	links, problems := opts.Graph.Resolve()
	for _, p := range problems {
		log.Warn("skipping connection", zap.Error(p))
	}

	if err := r.Mount(ctx); err != nil {
		return nil, fmt.Errorf("mount %s renderer: %w", r.Name(), err)
	}

	emitter := opts.Emitter
	if emitter == nil {
		emitter = events.Nop{}
	}

	v := &View{
		ctx:       ctx,
		renderer:  r,
		scheduler: sched,
		sink:      opts.Sink,
		log:       log,
		links:     links,
		ids:       make([]graph.ConnectionID, len(links)),
		mounted:   true,
	}
	for i, l := range links {
		v.ids[i] = l.ID
	}

	v.control = interact.New(opts.Graph, r, interact.Options{
		Threshold: opts.Threshold,
		Emitter:   emitter,
		Logger:    log,
	})
	v.control.Attach(surface)

	v.loop = schedule.NewLoop(sched, v.frame)
	v.loop.Start()

	log.Info("view mounted",
		zap.String("renderer", r.Name()),
		zap.Int("nodes", len(opts.Graph.Nodes())),
		zap.Int("connections", len(links)),
		zap.Int("skipped", len(problems)),
	)
	return v, nil
}

func (v *View) frame(time.Time) {
	if !v.mounted {
		return
	}
	v.seq++
	snap := v.ctx.Graph.Snapshot()
	v.ctx.Animator.Tick(v.ids)

	w, h := v.ctx.Surface.Size()
	f := scene.NewFrame(v.seq, w, h, v.renderer.Name())
	v.renderer.RenderConnections(f, snap, v.links)
	v.renderer.RenderNodes(f, snap)

	if v.sink != nil {
		v.sink(f)
	}
}

// Render draws one frame outside the loop without ticking the animator.
func (v *View) Render() *scene.Frame {
	w, h := v.ctx.Surface.Size()
	f := scene.NewFrame(v.seq, w, h, v.renderer.Name())
	if !v.mounted {
		return f
	}
	snap := v.ctx.Graph.Snapshot()
	v.renderer.RenderConnections(f, snap, v.links)
	v.renderer.RenderNodes(f, snap)
	return f
}

// Unmount stops the loop, detaches interaction and tears the renderer
// down. Safe to call more than once.
func (v *View) Unmount() {
	if !v.mounted {
		return
	}
	v.mounted = false
	v.loop.Stop()
	v.control.Detach()
	v.renderer.Unmount()
	v.log.Info("view unmounted", zap.Int("frames", v.seq))
}

// Mounted reports whether the view is live.
func (v *View) Mounted() bool { return v.mounted }

// Context returns the scene context.
func (v *View) Context() *scene.Context { return v.ctx }

// Surface returns the surface input is dispatched on.
func (v *View) Surface() *scene.Surface { return v.ctx.Surface }

// Renderer returns the mounted backend.
func (v *View) Renderer() scene.Renderer { return v.renderer }

// Controller returns the interaction controller.
func (v *View) Controller() *interact.Controller { return v.control }

// Links returns the connections being drawn.
func (v *View) Links() []graph.Link { return v.links }

// Frames returns how many frames have been rendered.
func (v *View) Frames() int { return v.seq }
