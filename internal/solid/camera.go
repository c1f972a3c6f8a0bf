package solid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	minPolar = 0.01
	maxPolar = math.Pi - 0.01
)

var worldUp = r3.Vec{X: 0, Y: 1, Z: 0}

// Camera is a perspective camera orbiting a target point. Angles follow
// the usual y-up spherical convention: azimuth around y, polar from +y.
type Camera struct {
	Target   r3.Vec
	Distance float64
	Azimuth  float64
	Polar    float64

	FOV  float64 // vertical, radians
	Near float64
	Far  float64

	MinDistance float64
	MaxDistance float64

	width, height int
	aspect        float64
}

// NewCamera creates a camera looking down -z at the origin from distance.
func NewCamera(distance, fovDegrees float64, width, height int) *Camera {
	c := &Camera{
		Distance:    distance,
		Polar:       math.Pi / 2,
		FOV:         fovDegrees * math.Pi / 180,
		Near:        0.1,
		Far:         1000,
		MinDistance: 2,
		MaxDistance: 200,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the viewport and the aspect ratio together.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.aspect = float64(width) / float64(height)
}

// Viewport returns the viewport size in pixels.
func (c *Camera) Viewport() (int, int) { return c.width, c.height }

// Aspect returns the current aspect ratio.
func (c *Camera) Aspect() float64 { return c.aspect }

// Position returns the camera eye in world space.
func (c *Camera) Position() r3.Vec {
	s := math.Sin(c.Polar)
	offset := r3.Vec{
		X: s * math.Sin(c.Azimuth),
		Y: math.Cos(c.Polar),
		Z: s * math.Cos(c.Azimuth),
	}
	return r3.Add(c.Target, r3.Scale(c.Distance, offset))
}

// basis returns the forward, right and up unit vectors of the view.
func (c *Camera) basis() (forward, right, up r3.Vec) {
	forward = r3.Unit(r3.Sub(c.Target, c.Position()))
	right = r3.Unit(r3.Cross(forward, worldUp))
	up = r3.Cross(right, forward)
	return forward, right, up
}

func (c *Camera) tanHalf() float64 {
	return math.Tan(c.FOV / 2)
}

// Project maps a world point to viewport pixels. depth is the distance
// along the view direction; ok is false outside the near/far range.
func (c *Camera) Project(p r3.Vec) (screen r2.Vec, depth float64, ok bool) {
	forward, right, up := c.basis()
	rel := r3.Sub(p, c.Position())
	depth = r3.Dot(rel, forward)
	if depth < c.Near || depth > c.Far {
		return r2.Vec{}, depth, false
	}
	th := c.tanHalf()
	ndcX := r3.Dot(rel, right) / (depth * th * c.aspect)
	ndcY := r3.Dot(rel, up) / (depth * th)
	return r2.Vec{
		X: (ndcX + 1) / 2 * float64(c.width),
		Y: (1 - ndcY) / 2 * float64(c.height),
	}, depth, true
}

// PixelSize returns the on-screen size of a world length seen at depth.
func (c *Camera) PixelSize(length, depth float64) float64 {
	if depth <= 0 {
		return 0
	}
	return length / (depth * c.tanHalf()) * float64(c.height) / 2
}

// Ray returns the origin and unit direction of the ray through a pixel.
func (c *Camera) Ray(x, y float64) (origin, dir r3.Vec) {
	forward, right, up := c.basis()
	th := c.tanHalf()
	ndcX := x/float64(c.width)*2 - 1
	ndcY := 1 - y/float64(c.height)*2
	dir = r3.Add(forward, r3.Add(
		r3.Scale(ndcX*th*c.aspect, right),
		r3.Scale(ndcY*th, up),
	))
	return c.Position(), r3.Unit(dir)
}

// Orbit rotates the eye around the target.
func (c *Camera) Orbit(dAzimuth, dPolar float64) {
	c.Azimuth += dAzimuth
	c.Polar = math.Max(minPolar, math.Min(maxPolar, c.Polar+dPolar))
}

// Zoom scales the orbit distance, clamped to the allowed range.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.Distance = math.Max(c.MinDistance, math.Min(c.MaxDistance, c.Distance*factor))
}

// Pan moves the target in the view plane by a pixel delta.
func (c *Camera) Pan(dx, dy float64) {
	_, right, up := c.basis()
	// World units per pixel at the target's depth.
	scale := 2 * c.Distance * c.tanHalf() / float64(c.height)
	c.Target = r3.Add(c.Target, r3.Add(
		r3.Scale(-dx*scale, right),
		r3.Scale(dy*scale, up),
	))
}
