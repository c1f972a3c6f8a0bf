// Package geom computes the curves drawn between graph nodes. Every function
// is pure: the same centers, radius and offset always give the same result.
package geom

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultCurveOffset is the fraction of min(|dx|,|dy|) the control points are
// pushed away from the midpoint.
const DefaultCurveOffset = 0.5

// DegenerateGeometryError reports two centers that coincide, leaving the
// direction between them undefined.
type DegenerateGeometryError struct {
	At r2.Vec
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate geometry: centers coincide at (%g, %g)", e.At.X, e.At.Y)
}

// BoundaryPoint returns the point where a circle of radius r around c meets
// the line toward another center.
func BoundaryPoint(c, toward r2.Vec, r float64) (r2.Vec, error) {
	if c == toward {
		return r2.Vec{}, &DegenerateGeometryError{At: c}
	}
	angle := math.Atan2(toward.Y-c.Y, toward.X-c.X)
	return r2.Vec{
		X: c.X + r*math.Cos(angle),
		Y: c.Y + r*math.Sin(angle),
	}, nil
}

// ControlPoints returns the two inner control points of the cubic curve from
// p1 to p2. The curve leaves p1 and enters p2 horizontally.
func ControlPoints(p1, p2 r2.Vec, fraction float64) (cp1, cp2 r2.Vec) {
	mx := (p1.X + p2.X) / 2
	offset := fraction * math.Min(math.Abs(p2.X-p1.X), math.Abs(p2.Y-p1.Y))
	return r2.Vec{X: mx - offset, Y: p1.Y}, r2.Vec{X: mx + offset, Y: p2.Y}
}

// BezierPoint evaluates a cubic Bezier curve at t in [0,1]. The endpoints are
// returned verbatim at the bounds.
func BezierPoint(t float64, p0, cp1, cp2, p1 r2.Vec) r2.Vec {
	switch {
	case t <= 0:
		return p0
	case t >= 1:
		return p1
	}
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return r2.Vec{
		X: a*p0.X + b*cp1.X + c*cp2.X + d*p1.X,
		Y: a*p0.Y + b*cp1.Y + c*cp2.Y + d*p1.Y,
	}
}

// Curve is a cubic Bezier segment between two node boundaries.
type Curve struct {
	Start, C1, C2, End r2.Vec
}

// Connect builds the curve between two circles of the given radius.
func Connect(a, b r2.Vec, radius, fraction float64) (Curve, error) {
	start, err := BoundaryPoint(a, b, radius)
	if err != nil {
		return Curve{}, err
	}
	end, err := BoundaryPoint(b, a, radius)
	if err != nil {
		return Curve{}, err
	}
	c1, c2 := ControlPoints(start, end, fraction)
	return Curve{Start: start, C1: c1, C2: c2, End: end}, nil
}

// At evaluates the curve at t.
func (c Curve) At(t float64) r2.Vec {
	return BezierPoint(t, c.Start, c.C1, c.C2, c.End)
}

// Length approximates the arc length with n chords.
func (c Curve) Length(n int) float64 {
	if n < 1 {
		n = 1
	}
	total := 0.0
	prev := c.Start
	for i := 1; i <= n; i++ {
		p := c.At(float64(i) / float64(n))
		total += r2.Norm(r2.Sub(p, prev))
		prev = p
	}
	return total
}

// SVGPath renders the curve as an SVG path "d" attribute.
func (c Curve) SVGPath() string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, c.Start)
	b.WriteString(" C ")
	writePoint(&b, c.C1)
	b.WriteString(", ")
	writePoint(&b, c.C2)
	b.WriteString(", ")
	writePoint(&b, c.End)
	return b.String()
}

func writePoint(b *strings.Builder, p r2.Vec) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', 2, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', 2, 64))
}
