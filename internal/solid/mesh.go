package solid

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is the axis-aligned cube standing in for one node.
type Mesh struct {
	NodeID   string
	Category string
	Center   r3.Vec
	Half     float64
	Texture  image.Image
}

func (m *Mesh) bounds() (lo, hi r3.Vec) {
	h := r3.Vec{X: m.Half, Y: m.Half, Z: m.Half}
	return r3.Sub(m.Center, h), r3.Add(m.Center, h)
}

// Intersect returns the ray distance to the cube's nearest face using the
// slab test. A ray starting inside the cube hits its exit face.
func (m *Mesh) Intersect(origin, dir r3.Vec) (float64, bool) {
	lo, hi := m.bounds()
	tmin, tmax := math.Inf(-1), math.Inf(1)

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	l := [3]float64{lo.X, lo.Y, lo.Z}
	h := [3]float64{hi.X, hi.Y, hi.Z}

	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if o[i] < l[i] || o[i] > h[i] {
				return 0, false
			}
			continue
		}
		t1 := (l[i] - o[i]) / d[i]
		t2 := (h[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// nearest returns the mesh the ray hits first.
func nearest(meshes []*Mesh, origin, dir r3.Vec) (*Mesh, bool) {
	var best *Mesh
	bestT := math.Inf(1)
	for _, m := range meshes {
		if t, ok := m.Intersect(origin, dir); ok && t < bestT {
			best, bestT = m, t
		}
	}
	return best, best != nil
}
