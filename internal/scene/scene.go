// Package scene holds what both render backends share: the scene context
// built on mount, the surface events arrive on, the frame display list and
// its encoders.
package scene

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/msalah0e/flowviz/internal/flow"
	"github.com/msalah0e/flowviz/internal/graph"
)

// Renderer is a presentation backend. The engine calls Mount once, then
// RenderConnections and RenderNodes every frame, then Unmount.
type Renderer interface {
	Name() string
	Mount(ctx *Context) error
	Unmount()

	RenderConnections(f *Frame, snap graph.Snapshot, links []graph.Link)
	RenderNodes(f *Frame, snap graph.Snapshot)

	// ProjectPoint maps a layout position to surface pixels.
	ProjectPoint(p graph.Position) (r2.Vec, bool)
	// Pick returns the node under a surface pixel, if any.
	Pick(x, y float64) (string, bool)
	// ScreenToLayout maps a surface pixel back into layout space on the
	// plane through ref facing the viewer.
	ScreenToLayout(x, y float64, ref graph.Position) (graph.Position, bool)
	Resize(width, height int)
}

// HitTester is the part of a Renderer interaction needs.
type HitTester interface {
	Pick(x, y float64) (string, bool)
	ScreenToLayout(x, y float64, ref graph.Position) (graph.Position, bool)
}

// Context is the scene state owned by one mount. It is built before the
// renderer mounts and discarded after it unmounts.
type Context struct {
	Graph       *graph.Graph
	Surface     *Surface
	Animator    *flow.Animator
	Icons       IconSet
	Logger      *zap.Logger
	Diagnostics *Diagnostics
}

// NewContext fills in defaults for nil collaborators.
func NewContext(g *graph.Graph, s *Surface, a *flow.Animator, icons IconSet, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	if icons == nil {
		icons = IconMap(nil)
	}
	if a == nil {
		a = flow.New(flow.Options{CurveOffset: -1})
	}
	return &Context{
		Graph:       g,
		Surface:     s,
		Animator:    a,
		Icons:       icons,
		Logger:      log,
		Diagnostics: NewDiagnostics(log),
	}
}

// ─── Icons ───

// IconSet maps a category to the glyph drawn inside its node. The table
// itself belongs to the host.
type IconSet interface {
	Icon(category string) (string, bool)
}

// IconMap is an IconSet backed by a map.
type IconMap map[string]string

// Icon implements IconSet.
func (m IconMap) Icon(category string) (string, bool) {
	s, ok := m[category]
	return s, ok
}

// IconFor returns the host icon for a category, or the category's first
// letter when the host has none.
func IconFor(icons IconSet, category string) string {
	if icons != nil {
		if s, ok := icons.Icon(category); ok && s != "" {
			return s
		}
	}
	for _, r := range strings.TrimSpace(category) {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// ─── Diagnostics ───

// Diagnostics logs per-element failures once while they persist, so a
// broken element does not flood the log every frame.
type Diagnostics struct {
	log    *zap.Logger
	active map[string]error
}

// NewDiagnostics creates an empty set.
func NewDiagnostics(log *zap.Logger) *Diagnostics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Diagnostics{log: log, active: make(map[string]error)}
}

// Report records err under key and logs it the first time.
func (d *Diagnostics) Report(key string, err error) {
	if _, seen := d.active[key]; seen {
		d.active[key] = err
		return
	}
	d.active[key] = err
	d.log.Warn("skipping scene element", zap.String("element", key), zap.Error(err))
}

// Clear forgets key once its element renders again.
func (d *Diagnostics) Clear(key string) {
	if _, ok := d.active[key]; ok {
		delete(d.active, key)
		d.log.Debug("scene element recovered", zap.String("element", key))
	}
}

// Active returns the currently failing elements.
func (d *Diagnostics) Active() map[string]error {
	out := make(map[string]error, len(d.active))
	for k, v := range d.active {
		out[k] = v
	}
	return out
}

// Len returns the number of failing elements.
func (d *Diagnostics) Len() int { return len(d.active) }
