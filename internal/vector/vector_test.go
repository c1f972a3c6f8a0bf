package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/msalah0e/flowviz/internal/flow"
	"github.com/msalah0e/flowviz/internal/graph"
	"github.com/msalah0e/flowviz/internal/scene"
)

func mount(t *testing.T, data graph.Data) (*Renderer, *scene.Context) {
	t.Helper()
	g, err := graph.New(data)
	require.NoError(t, err)
	ctx := scene.NewContext(g, scene.NewSurface(800, 600), flow.New(flow.Options{Step: 0.25, CurveOffset: 0.5}), scene.IconMap{"database": "DB"}, nil)
	r := New(Options{})
	require.NoError(t, r.Mount(ctx))
	return r, ctx
}

func fiveNodes() graph.Data {
	return graph.Data{
		Nodes: []graph.Node{
			{ID: "n1", Label: "One", Category: "service", Position: graph.Position{X: 100, Y: 100}},
			{ID: "n2", Label: "Two", Category: "database", Position: graph.Position{X: 300, Y: 100}},
			{ID: "n3", Label: "Three", Category: "cache", Position: graph.Position{X: 500, Y: 100}},
			{ID: "n4", Label: "Four", Category: "mystery", Position: graph.Position{X: 100, Y: 400}},
			{ID: "n5", Category: "queue", Position: graph.Position{X: 500, Y: 400}},
		},
		Connections: []graph.Connection{{Source: "n1", Target: "nowhere"}},
	}
}

func render(r *Renderer, ctx *scene.Context) *scene.Frame {
	f := scene.NewFrame(1, 800, 600, Name)
	snap := ctx.Graph.Snapshot()
	r.RenderConnections(f, snap, ctx.Graph.Links())
	r.RenderNodes(f, snap)
	return f
}

func TestBrokenConnectionSkipped(t *testing.T) {
	r, ctx := mount(t, fiveNodes())

	var f *scene.Frame
	require.NotPanics(t, func() { f = render(r, ctx) })

	assert.Equal(t, 5, scene.Count[scene.Circle](f))
	assert.Equal(t, 0, scene.Count[scene.CurvePath](f))
	assert.Equal(t, 0, scene.Count[scene.Marker](f))
	assert.Equal(t, 1, ctx.Diagnostics.Len())
}

func TestDegenerateConnectionSkipsCurveKeepsNodes(t *testing.T) {
	data := fiveNodes()
	data.Nodes[1].Position = data.Nodes[0].Position
	data.Connections = []graph.Connection{{Source: "n1", Target: "n2"}, {Source: "n2", Target: "n3"}}
	r, ctx := mount(t, data)

	f := render(r, ctx)
	assert.Equal(t, 5, scene.Count[scene.Circle](f))
	assert.Equal(t, 1, scene.Count[scene.CurvePath](f))

	// Dragging the node apart restores the curve.
	require.NoError(t, ctx.Graph.SetPosition("n2", graph.Position{X: 300, Y: 300}))
	f = render(r, ctx)
	assert.Equal(t, 2, scene.Count[scene.CurvePath](f))
	assert.Equal(t, 0, ctx.Diagnostics.Len())
}

func TestNodeDrawing(t *testing.T) {
	r, ctx := mount(t, fiveNodes())
	f := render(r, ctx)

	var glyphs []string
	var labels []string
	for _, it := range f.Items {
		switch v := it.(type) {
		case scene.Glyph:
			glyphs = append(glyphs, v.Text)
		case scene.Text:
			labels = append(labels, v.Text)
			if v.NodeID == "n1" {
				assert.Equal(t, r2.Vec{X: 100, Y: 100 + 30 + 18}, v.At)
			}
		}
	}
	assert.Equal(t, []string{"S", "DB", "C", "M", "Q"}, glyphs)
	assert.Equal(t, "n5", labels[4], "unlabeled nodes fall back to their id")
}

func TestMarkerRidesCurve(t *testing.T) {
	data := fiveNodes()
	data.Connections = []graph.Connection{{Source: "n1", Target: "n3"}}
	r, ctx := mount(t, data)
	link := ctx.Graph.Links()[0]

	ctx.Animator.Tick([]graph.ConnectionID{link.ID})
	f := render(r, ctx)

	var curve scene.CurvePath
	var marker scene.Marker
	for _, it := range f.Items {
		switch v := it.(type) {
		case scene.CurvePath:
			curve = v
		case scene.Marker:
			marker = v
		}
	}
	assert.Equal(t, curve.Curve.At(0.25), marker.At)
}

func TestPulseIndependentOfProgress(t *testing.T) {
	r := New(Options{PulsePeriod: 4, PulseBase: 4, PulseAmplitude: 2})
	var radii []float64
	for i := 0; i < 4; i++ {
		radii = append(radii, r.PulseRadius())
		r.pulse++
	}
	assert.InDelta(t, 4, radii[0], 1e-9)
	assert.InDelta(t, 6, radii[1], 1e-9)
	assert.InDelta(t, 4, radii[2], 1e-9)
	assert.InDelta(t, 2, radii[3], 1e-9)
}

func TestPick(t *testing.T) {
	r, ctx := mount(t, fiveNodes())

	id, ok := r.Pick(110, 95)
	require.True(t, ok)
	assert.Equal(t, "n1", id)

	_, ok = r.Pick(200, 250)
	assert.False(t, ok)

	// Picking reads live positions.
	require.NoError(t, ctx.Graph.SetPosition("n1", graph.Position{X: 200, Y: 250}))
	id, ok = r.Pick(200, 250)
	require.True(t, ok)
	assert.Equal(t, "n1", id)
}

func TestPickTopmostWins(t *testing.T) {
	data := fiveNodes()
	data.Nodes[1].Position = graph.Position{X: 120, Y: 100}
	r, _ := mount(t, data)

	id, ok := r.Pick(110, 100)
	require.True(t, ok)
	assert.Equal(t, "n2", id)
}

func TestScreenToLayoutKeepsDepth(t *testing.T) {
	r := New(Options{})
	p, ok := r.ScreenToLayout(5, 6, graph.Position{Z: 9, HasZ: true})
	require.True(t, ok)
	assert.Equal(t, graph.Position{X: 5, Y: 6, Z: 9, HasZ: true}, p)
}

func TestUnmountedRendererIsInert(t *testing.T) {
	r := New(Options{})
	require.Error(t, r.Mount(nil))
	f := scene.NewFrame(1, 10, 10, Name)
	r.RenderNodes(f, graph.Snapshot{})
	assert.Empty(t, f.Items)
	_, ok := r.Pick(0, 0)
	assert.False(t, ok)
}
