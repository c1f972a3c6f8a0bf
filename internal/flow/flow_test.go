package flow

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/flowviz/internal/geom"
	"github.com/msalah0e/flowviz/internal/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(graph.Data{
		Nodes: []graph.Node{
			{ID: "a", Position: graph.Position{X: 0, Y: 0}},
			{ID: "b", Position: graph.Position{X: 300, Y: 200}},
			{ID: "c", Position: graph.Position{X: 300, Y: 200}},
		},
		Connections: []graph.Connection{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
			{Source: "a", Target: "missing"},
		},
	})
	require.NoError(t, err)
	return g
}

func TestDefaults(t *testing.T) {
	a := New(Options{CurveOffset: -1})
	assert.Equal(t, DefaultStep, a.Step())
	assert.Equal(t, DefaultRadius, a.Radius())
	assert.Equal(t, geom.DefaultCurveOffset, a.CurveOffset())

	assert.Equal(t, DefaultStep, New(Options{Step: 1.5}).Step())
	assert.Equal(t, 0.0, New(Options{}).CurveOffset())
}

func TestProgressWrapsWithinBounds(t *testing.T) {
	for _, step := range []float64{DefaultStep, 0.1, 0.25, 0.3, 0.07} {
		a := New(Options{Step: step})
		id := graph.ConnectionID("x")
		ticks := int(math.Ceil(1 / step))

		for i := 0; i < ticks; i++ {
			a.Tick([]graph.ConnectionID{id})
			p, ok := a.Progress(id)
			require.True(t, ok)
			require.GreaterOrEqual(t, p, 0.0, "step %v tick %d", step, i)
			require.Less(t, p, 1.0, "step %v tick %d", step, i)
		}
		assert.GreaterOrEqual(t, a.Loops(id), 1, "step %v should wrap after %d ticks", step, ticks)
	}
}

func TestDefaultLoopLength(t *testing.T) {
	a := New(Options{})
	id := graph.ConnectionID("x")
	for i := 0; i < 66; i++ {
		a.Tick([]graph.ConnectionID{id})
	}
	assert.Equal(t, 0, a.Loops(id))
	a.Tick([]graph.ConnectionID{id})
	assert.Equal(t, 1, a.Loops(id))
	p, _ := a.Progress(id)
	assert.Equal(t, 0.0, p)
}

func TestCountersAreIndependent(t *testing.T) {
	a := New(Options{Step: 0.1})
	first := graph.ConnectionID("first")
	second := graph.ConnectionID("second")

	for i := 0; i < 3; i++ {
		a.Tick([]graph.ConnectionID{first})
	}
	a.Tick([]graph.ConnectionID{first, second})

	p1, _ := a.Progress(first)
	p2, _ := a.Progress(second)
	assert.InDelta(t, 0.4, p1, 1e-9)
	assert.InDelta(t, 0.1, p2, 1e-9)
}

func TestTickDiscardsVanishedConnections(t *testing.T) {
	a := New(Options{})
	a.Tick([]graph.ConnectionID{"a", "b"})
	require.Equal(t, 2, a.Len())

	a.Tick([]graph.ConnectionID{"b"})
	assert.Equal(t, 1, a.Len())
	_, ok := a.Progress("a")
	assert.False(t, ok)

	a.Reset()
	assert.Equal(t, 0, a.Len())
}

func TestCurrentPointFollowsLivePositions(t *testing.T) {
	g := testGraph(t)
	link := g.Links()[0]
	a := New(Options{Step: 0.5})
	a.Tick([]graph.ConnectionID{link.ID})

	before, err := a.CurrentPoint(link, g)
	require.NoError(t, err)

	require.NoError(t, g.SetPosition("b", graph.Position{X: -300, Y: 500}))
	after, err := a.CurrentPoint(link, g)
	require.NoError(t, err)

	assert.NotEqual(t, before, after, "moving an endpoint must bend the in-flight path")

	curve, err := a.Curve(link, g)
	require.NoError(t, err)
	assert.Equal(t, curve.At(0.5), after)
}

func TestCurrentPointUsesSnapshot(t *testing.T) {
	g := testGraph(t)
	link := g.Links()[0]
	a := New(Options{})
	snap := g.Snapshot()

	want, err := a.CurrentPoint(link, snap)
	require.NoError(t, err)
	g.SetPosition("a", graph.Position{X: 1000, Y: 1000})
	got, err := a.CurrentPoint(link, snap)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCurrentPointBeforeFirstTick(t *testing.T) {
	g := testGraph(t)
	link := g.Links()[0]
	a := New(Options{})

	p, err := a.CurrentPoint(link, g)
	require.NoError(t, err)
	curve, _ := a.Curve(link, g)
	assert.Equal(t, curve.Start, p)
}

func TestCurrentPointErrors(t *testing.T) {
	g := testGraph(t)
	links := g.Links()
	a := New(Options{})

	_, err := a.CurrentPoint(links[1], g)
	var dge *geom.DegenerateGeometryError
	assert.True(t, errors.As(err, &dge), "coincident centers: %v", err)

	_, err = a.CurrentPoint(links[2], g)
	var die *graph.DataIntegrityError
	assert.True(t, errors.As(err, &die), "missing node: %v", err)

	_, err = a.Curve(links[0], g)
	assert.NoError(t, err)
}
