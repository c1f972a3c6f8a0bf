package scene

import (
	"hash/fnv"
	"image"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/msalah0e/flowviz/internal/geom"
	"github.com/msalah0e/flowviz/internal/graph"
)

// Item is one element of a frame's display list.
type Item interface {
	item()
}

// CurvePath is a connection drawn as a cubic curve.
type CurvePath struct {
	ID    graph.ConnectionID
	Curve geom.Curve
	Label string
}

// Line is a connection drawn as a straight segment.
type Line struct {
	ID       graph.ConnectionID
	From, To r2.Vec
}

// Marker is a flow particle.
type Marker struct {
	ID     graph.ConnectionID
	At     r2.Vec
	Radius float64
}

// Circle is a node disc.
type Circle struct {
	NodeID   string
	Center   r2.Vec
	Radius   float64
	Category string
}

// Glyph is a node's category icon, centered on At.
type Glyph struct {
	NodeID string
	At     r2.Vec
	Text   string
	Size   float64
}

// Text is a node label, horizontally centered on At.
type Text struct {
	NodeID string
	At     r2.Vec
	Text   string
	Size   float64
}

// Sprite is a textured node mesh projected to the surface.
type Sprite struct {
	NodeID   string
	Center   r2.Vec
	Size     float64
	Depth    float64
	Category string
	Texture  image.Image
}

// Label is a floating label anchored at a projected node position.
type Label struct {
	NodeID string
	At     r2.Vec
	Text   string
}

func (CurvePath) item() {}
func (Line) item()      {}
func (Marker) item()    {}
func (Circle) item()    {}
func (Glyph) item()     {}
func (Text) item()      {}
func (Sprite) item()    {}
func (Label) item()     {}

// Frame is the display list produced by one render pass, in paint order.
type Frame struct {
	Seq     int
	Width   int
	Height  int
	Backend string
	Items   []Item
}

// NewFrame creates an empty frame.
func NewFrame(seq, width, height int, backend string) *Frame {
	return &Frame{Seq: seq, Width: width, Height: height, Backend: backend}
}

// Add appends items in paint order.
func (f *Frame) Add(items ...Item) {
	f.Items = append(f.Items, items...)
}

// Count returns how many items of type T the frame holds.
func Count[T Item](f *Frame) int {
	n := 0
	for _, it := range f.Items {
		if _, ok := it.(T); ok {
			n++
		}
	}
	return n
}

// Palette is the category color cycle.
var Palette = []string{"#2DB682", "#0171E3", "#E07C3A", "#9B59B6", "#E74C3C", "#1ABC9C", "#F1C40F", "#3498DB", "#E91E63", "#00BCD4"}

const (
	backgroundColor = "#0a0e17"
	curveColor      = "#4a5568"
	markerColor     = "#2DB682"
	textColor       = "#e0e0e0"
	labelColor      = "#ffffff"
)

// CategoryColor returns a stable palette color for a category.
func CategoryColor(category string) string {
	h := fnv.New32a()
	h.Write([]byte(category))
	return Palette[h.Sum32()%uint32(len(Palette))]
}
