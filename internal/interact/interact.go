// Package interact turns pointer input on the surface into node drags and
// activations.
package interact

import (
	"math"

	"go.uber.org/zap"

	"github.com/msalah0e/flowviz/internal/events"
	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/scene"
)

// DefaultThreshold is how far, in pixels, a press must travel before it
// becomes a drag.
const DefaultThreshold = 3.0

// State is the controller's gesture state.
type State int

const (
	Idle State = iota
	Pressed
	Dragging
)

func (s State) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Options configures a Controller.
type Options struct {
	Threshold float64
	Emitter   events.Emitter
	Logger    *zap.Logger
}

// Controller is the press/drag/activate state machine. A press on a node
// that is released within the threshold activates it; travel beyond the
// threshold drags it, writing positions straight into the graph.
type Controller struct {
	graph     *graph.Graph
	hits      scene.HitTester
	emit      events.Emitter
	log       *zap.Logger
	threshold float64

	state          State
	node           string
	startX, startY float64
	grabX, grabY   float64
	grabZ          float64

	listeners scene.Listeners
}

// New creates a detached controller.
func New(g *graph.Graph, hits scene.HitTester, opts Options) *Controller {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Emitter == nil {
		opts.Emitter = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		graph:     g,
		hits:      hits,
		emit:      opts.Emitter,
		log:       opts.Logger,
		threshold: opts.Threshold,
	}
}

// Attach registers the controller's listeners on s.
func (c *Controller) Attach(s *scene.Surface) {
	c.Detach()
	c.listeners.On(s, scene.PointerDown, c.down)
	c.listeners.On(s, scene.PointerMove, c.move)
	c.listeners.On(s, scene.PointerUp, c.up)
	c.listeners.On(s, scene.PointerLeave, c.leave)
}

// Detach removes every listener Attach registered and drops any gesture.
func (c *Controller) Detach() {
	c.listeners.RemoveAll()
	c.reset()
}

// State returns the current gesture state.
func (c *Controller) State() State { return c.state }

// Node returns the node under the current gesture, if any.
func (c *Controller) Node() (string, bool) {
	return c.node, c.state != Idle
}

func (c *Controller) down(e scene.Event) {
	c.reset()
	id, ok := c.hits.Pick(e.X, e.Y)
	if !ok {
		return
	}
	pos, ok := c.graph.Position(id)
	if !ok {
		return
	}
	c.state = Pressed
	c.node = id
	c.startX, c.startY = e.X, e.Y
	c.grabX, c.grabY, c.grabZ = 0, 0, 0
	// A pixel that cannot be mapped back to layout space still presses the
	// node; the drag then starts without a grab offset.
	if under, ok := c.hits.ScreenToLayout(e.X, e.Y, pos); ok {
		c.grabX, c.grabY, c.grabZ = pos.X-under.X, pos.Y-under.Y, pos.Z-under.Z
	}
}

func (c *Controller) move(e scene.Event) {
	switch c.state {
	case Idle:
		return
	case Pressed:
		if math.Hypot(e.X-c.startX, e.Y-c.startY) <= c.threshold {
			return
		}
		c.state = Dragging
		c.log.Debug("drag started", zap.String("node", c.node))
	}

	cur, ok := c.graph.Position(c.node)
	if !ok {
		c.reset()
		return
	}
	under, ok := c.hits.ScreenToLayout(e.X, e.Y, cur)
	if !ok {
		return
	}
	next := graph.Position{X: under.X + c.grabX, Y: under.Y + c.grabY, HasZ: cur.HasZ}
	if cur.HasZ {
		next.Z = under.Z + c.grabZ
	}
	if err := c.graph.SetPosition(c.node, next); err != nil {
		c.log.Warn("drag target vanished", zap.String("node", c.node), zap.Error(err))
		c.reset()
		return
	}
	c.emit.NodeMoved(c.node, next)
}

func (c *Controller) up(scene.Event) {
	if c.state == Pressed {
		c.emit.NodeActivated(c.node)
	}
	c.reset()
}

func (c *Controller) leave(scene.Event) {
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.node = ""
}
