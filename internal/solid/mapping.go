package solid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/msalah0e/flowviz/internal/graph"
)

// DefaultScale converts layout units (pixels, y down) to world units (y up).
var DefaultScale = r3.Vec{X: 0.05, Y: -0.05, Z: 0.05}

// Mapping rescales layout coordinates per axis and recenters the node set's
// bounding box on the origin, so the default camera distance frames the
// graph whatever the raw coordinate magnitude.
type Mapping struct {
	Scale  r3.Vec
	Center r3.Vec
}

// NewMapping computes the mapping for a node set.
func NewMapping(nodes []graph.Node, scale r3.Vec) Mapping {
	if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		scale = DefaultScale
	}
	m := Mapping{Scale: scale}
	if len(nodes) == 0 {
		return m
	}

	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, n := range nodes {
		p := m.scaled(n.Position)
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	m.Center = r3.Scale(0.5, r3.Add(lo, hi))
	return m
}

func (m Mapping) scaled(p graph.Position) r3.Vec {
	return r3.Vec{X: p.X * m.Scale.X, Y: p.Y * m.Scale.Y, Z: p.Z * m.Scale.Z}
}

// ToWorld maps a layout position into world space.
func (m Mapping) ToWorld(p graph.Position) r3.Vec {
	return r3.Sub(m.scaled(p), m.Center)
}

// ToLayout is the inverse of ToWorld.
func (m Mapping) ToLayout(w r3.Vec, hasZ bool) graph.Position {
	s := r3.Add(w, m.Center)
	return graph.Position{
		X:    s.X / m.Scale.X,
		Y:    s.Y / m.Scale.Y,
		Z:    s.Z / m.Scale.Z,
		HasZ: hasZ,
	}
}
