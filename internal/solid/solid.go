// Package solid is the volumetric scene backend: a textured cube per node,
// straight segments for connections and an orbiting perspective camera.
package solid

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/msalah0e/flowviz/internal/geom"
	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/scene"
)

// Name is the backend name used in configuration.
const Name = "solid"

// Options tunes the backend. Zero values take defaults.
type Options struct {
	Scale          r3.Vec
	Distance       float64 // initial camera distance
	FOV            float64 // degrees
	MinDistance    float64
	MaxDistance    float64
	MeshHalf       float64
	ParticleRadius float64

	// ClickSlop is how far in pixels a press may travel and still select.
	ClickSlop float64

	// Highlight lists the categories that get a floating label when clicked.
	Highlight []string

	// Textures maps category to texture file. Nil uses DefaultTextures.
	Textures    map[string]string
	TextureDir  string // empty draws procedural textures
	TextureSize int
}

func (o Options) withDefaults() Options {
	if o.Scale.X == 0 || o.Scale.Y == 0 || o.Scale.Z == 0 {
		o.Scale = DefaultScale
	}
	if o.Distance <= 0 {
		o.Distance = 20
	}
	if o.FOV <= 0 || o.FOV >= 180 {
		o.FOV = 60
	}
	if o.MinDistance <= 0 {
		o.MinDistance = 2
	}
	if o.MaxDistance <= o.MinDistance {
		o.MaxDistance = 200
	}
	if o.MeshHalf <= 0 {
		o.MeshHalf = 0.6
	}
	if o.ParticleRadius <= 0 {
		o.ParticleRadius = 4
	}
	if o.ClickSlop <= 0 {
		o.ClickSlop = 3
	}
	if o.Textures == nil {
		o.Textures = DefaultTextures
	}
	if o.TextureSize <= 0 {
		o.TextureSize = DefaultTextureSize
	}
	return o
}

// Renderer implements scene.Renderer.
type Renderer struct {
	opts      Options
	highlight map[string]bool

	ctx       *scene.Context
	mapping   Mapping
	camera    *Camera
	meshes    []*Mesh
	byID      map[string]*Mesh
	textures  *Textures
	listeners scene.Listeners
	controls  controls
	selected  string
}

var _ scene.Renderer = (*Renderer)(nil)

// New creates an unmounted renderer.
func New(opts Options) *Renderer {
	opts = opts.withDefaults()
	r := &Renderer{opts: opts, highlight: make(map[string]bool, len(opts.Highlight))}
	for _, c := range opts.Highlight {
		r.highlight[c] = true
	}
	r.controls.r = r
	return r
}

// Name implements scene.Renderer.
func (r *Renderer) Name() string { return Name }

// Mount implements scene.Renderer. It frames the graph, builds one mesh per
// node and registers camera controls on the surface.
func (r *Renderer) Mount(ctx *scene.Context) error {
	if ctx == nil || ctx.Graph == nil || ctx.Surface == nil {
		return errors.New("solid: incomplete scene context")
	}
	if r.ctx != nil {
		r.Unmount()
	}
	r.ctx = ctx

	nodes := ctx.Graph.Nodes()
	r.mapping = NewMapping(nodes, r.opts.Scale)

	w, h := ctx.Surface.Size()
	r.camera = NewCamera(r.opts.Distance, r.opts.FOV, w, h)
	r.camera.MinDistance = r.opts.MinDistance
	r.camera.MaxDistance = r.opts.MaxDistance

	var load Loader
	if r.opts.TextureDir != "" {
		load = DirLoader(r.opts.TextureDir)
	}
	r.textures = LoadTextures(r.opts.Textures, load, r.opts.TextureSize, ctx.Logger)

	r.meshes = make([]*Mesh, 0, len(nodes))
	r.byID = make(map[string]*Mesh, len(nodes))
	for _, n := range nodes {
		m := &Mesh{
			NodeID:   n.ID,
			Category: n.Category,
			Center:   r.mapping.ToWorld(n.Position),
			Half:     r.opts.MeshHalf,
			Texture:  r.textures.For(n.Category),
		}
		r.meshes = append(r.meshes, m)
		r.byID[n.ID] = m
	}

	r.controls.reset()
	r.controls.attach(ctx.Surface, &r.listeners)
	return nil
}

// Unmount implements scene.Renderer. Every listener registered by Mount is
// removed and all meshes and textures are released.
func (r *Renderer) Unmount() {
	r.listeners.RemoveAll()
	r.textures.Release()
	r.textures = nil
	r.meshes = nil
	r.byID = nil
	r.selected = ""
	r.ctx = nil
}

// Resources returns the number of live meshes and textures.
func (r *Renderer) Resources() (meshes, textures int) {
	return len(r.meshes), r.textures.Allocated()
}

// Camera exposes the view camera. It is nil while unmounted.
func (r *Renderer) Camera() *Camera {
	if r.ctx == nil {
		return nil
	}
	return r.camera
}

// Mapping returns the layout-to-world mapping computed at mount.
func (r *Renderer) Mapping() Mapping { return r.mapping }

// Selected returns the node whose label is showing, if any.
func (r *Renderer) Selected() (string, bool) {
	return r.selected, r.selected != ""
}

func (r *Renderer) sync(nodes []graph.Node) {
	for _, n := range nodes {
		if m, ok := r.byID[n.ID]; ok {
			m.Center = r.mapping.ToWorld(n.Position)
		}
	}
}

// RenderConnections implements scene.Renderer.
func (r *Renderer) RenderConnections(f *scene.Frame, snap graph.Snapshot, links []graph.Link) {
	if r.ctx == nil {
		return
	}
	for _, l := range links {
		key := string(l.ID)
		src, ok := snap.Position(l.Source)
		if !ok {
			r.ctx.Diagnostics.Report(key, &graph.DataIntegrityError{Connection: l.ID, Missing: l.Source})
			continue
		}
		dst, ok := snap.Position(l.Target)
		if !ok {
			r.ctx.Diagnostics.Report(key, &graph.DataIntegrityError{Connection: l.ID, Missing: l.Target})
			continue
		}
		a, b := r.mapping.ToWorld(src), r.mapping.ToWorld(dst)
		if r3.Norm(r3.Sub(b, a)) < 1e-9 {
			r.ctx.Diagnostics.Report(key, &geom.DegenerateGeometryError{At: r2.Vec{X: src.X, Y: src.Y}})
			continue
		}
		r.ctx.Diagnostics.Clear(key)

		from, _, okA := r.camera.Project(a)
		to, _, okB := r.camera.Project(b)
		if !okA || !okB {
			continue
		}
		f.Add(scene.Line{ID: l.ID, From: from, To: to})

		progress, _ := r.ctx.Animator.Progress(l.ID)
		p := r3.Add(a, r3.Scale(progress, r3.Sub(b, a)))
		if at, _, ok := r.camera.Project(p); ok {
			f.Add(scene.Marker{ID: l.ID, At: at, Radius: r.opts.ParticleRadius})
		}
	}
}

// RenderNodes implements scene.Renderer. Sprites are painted far to near.
func (r *Renderer) RenderNodes(f *scene.Frame, snap graph.Snapshot) {
	if r.ctx == nil {
		return
	}
	r.sync(snap.Nodes)

	sprites := make([]scene.Sprite, 0, len(r.meshes))
	for _, m := range r.meshes {
		at, depth, ok := r.camera.Project(m.Center)
		if !ok {
			continue
		}
		sprites = append(sprites, scene.Sprite{
			NodeID:   m.NodeID,
			Center:   at,
			Size:     r.camera.PixelSize(2*m.Half, depth),
			Depth:    depth,
			Category: m.Category,
			Texture:  m.Texture,
		})
	}
	sort.SliceStable(sprites, func(i, j int) bool { return sprites[i].Depth > sprites[j].Depth })
	for _, s := range sprites {
		f.Add(s)
	}

	if r.selected == "" {
		return
	}
	n, ok := snap.Node(r.selected)
	if !ok {
		return
	}
	if at, ok := r.ProjectPoint(n.Position); ok {
		text := n.Label
		if text == "" {
			text = n.ID
		}
		f.Add(scene.Label{NodeID: n.ID, At: at, Text: text})
	}
}

// ProjectPoint implements scene.Renderer.
func (r *Renderer) ProjectPoint(p graph.Position) (r2.Vec, bool) {
	if r.ctx == nil {
		return r2.Vec{}, false
	}
	at, _, ok := r.camera.Project(r.mapping.ToWorld(p))
	return at, ok
}

// Pick implements scene.Renderer: the nearest mesh along the ray through
// the pixel, using live positions.
func (r *Renderer) Pick(x, y float64) (string, bool) {
	if r.ctx == nil {
		return "", false
	}
	r.sync(r.ctx.Graph.Nodes())
	origin, dir := r.camera.Ray(x, y)
	m, ok := nearest(r.meshes, origin, dir)
	if !ok {
		return "", false
	}
	return m.NodeID, true
}

// Select shows the floating label for a highlightable node under the pixel
// and clears it otherwise.
func (r *Renderer) Select(x, y float64) (string, bool) {
	r.selected = ""
	id, ok := r.Pick(x, y)
	if !ok {
		return "", false
	}
	n, ok := r.ctx.Graph.Node(id)
	if !ok || !r.highlight[n.Category] {
		return "", false
	}
	r.selected = id
	return id, true
}

// grazing is the smallest ray/plane cosine the layout plane accepts. Below
// it the intersection runs off toward infinity.
const grazing = 0.1

// ScreenToLayout implements scene.Renderer. Nodes with depth move on the
// plane through ref facing the camera; flat nodes stay on their layout
// plane unless the camera sees that plane nearly edge-on, in which case
// they also use the camera-facing plane.
func (r *Renderer) ScreenToLayout(x, y float64, ref graph.Position) (graph.Position, bool) {
	if r.ctx == nil {
		return graph.Position{}, false
	}
	origin, dir := r.camera.Ray(x, y)
	anchor := r.mapping.ToWorld(ref)
	forward, _, _ := r.camera.basis()

	normal := forward
	if !ref.HasZ && math.Abs(r3.Dot(dir, r3.Vec{Z: 1})) >= grazing {
		normal = r3.Vec{Z: 1}
	}
	denom := r3.Dot(dir, normal)
	if math.Abs(denom) < 1e-9 {
		return graph.Position{}, false
	}
	t := r3.Dot(r3.Sub(anchor, origin), normal) / denom
	if t < 0 {
		return graph.Position{}, false
	}
	p := r.mapping.ToLayout(r3.Add(origin, r3.Scale(t, dir)), ref.HasZ)
	if !ref.HasZ {
		p.Z = 0
	}
	return p, true
}

// Resize implements scene.Renderer.
func (r *Renderer) Resize(width, height int) {
	if r.camera != nil {
		r.camera.SetViewport(width, height)
	}
}
