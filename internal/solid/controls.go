package solid

import (
	"math"

	"github.com/msalah0e/flowviz/internal/scene"
)

type controlMode int

const (
	modeNone controlMode = iota
	modeOrbit
	modePan
)

// controls turns surface input into camera moves: drag on empty space
// orbits, shift-drag pans, the wheel zooms. Presses that land on a node
// belong to node dragging and leave the camera alone. A press released
// without moving is a click and selects the node under it.
type controls struct {
	r *Renderer

	pressed      bool
	moved        bool
	mode         controlMode
	pressX       float64
	pressY       float64
	lastX, lastY float64
}

const zoomFactor = 1.1

func (c *controls) attach(s *scene.Surface, l *scene.Listeners) {
	l.On(s, scene.PointerDown, c.down)
	l.On(s, scene.PointerMove, c.move)
	l.On(s, scene.PointerUp, c.up)
	l.On(s, scene.PointerLeave, c.leave)
	l.On(s, scene.Wheel, c.wheel)
	l.On(s, scene.Resize, func(e scene.Event) { c.r.Resize(e.Width, e.Height) })
}

func (c *controls) down(e scene.Event) {
	c.pressed, c.moved = true, false
	c.pressX, c.pressY = e.X, e.Y
	c.lastX, c.lastY = e.X, e.Y

	c.mode = modeNone
	if _, onNode := c.r.Pick(e.X, e.Y); onNode {
		return
	}
	if e.Shift {
		c.mode = modePan
	} else {
		c.mode = modeOrbit
	}
}

func (c *controls) move(e scene.Event) {
	if !c.pressed {
		return
	}
	if math.Hypot(e.X-c.pressX, e.Y-c.pressY) > c.r.opts.ClickSlop {
		c.moved = true
	}
	dx, dy := e.X-c.lastX, e.Y-c.lastY
	c.lastX, c.lastY = e.X, e.Y

	cam := c.r.camera
	_, h := cam.Viewport()
	switch c.mode {
	case modeOrbit:
		unit := 2 * math.Pi / float64(h)
		cam.Orbit(-dx*unit, -dy*unit)
	case modePan:
		cam.Pan(dx, dy)
	}
}

func (c *controls) up(e scene.Event) {
	click := c.pressed && !c.moved
	c.reset()
	if click {
		c.r.Select(e.X, e.Y)
	}
}

func (c *controls) leave(scene.Event) {
	c.reset()
}

func (c *controls) wheel(e scene.Event) {
	switch {
	case e.DeltaY > 0:
		c.r.camera.Zoom(zoomFactor)
	case e.DeltaY < 0:
		c.r.camera.Zoom(1 / zoomFactor)
	}
}

func (c *controls) reset() {
	c.pressed, c.moved = false, false
	c.mode = modeNone
}
