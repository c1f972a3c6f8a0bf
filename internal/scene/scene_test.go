package scene

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/msalah0e/flowviz/internal/geom"
)

func TestSurfaceDispatchOrderAndRemoval(t *testing.T) {
	s := NewSurface(100, 100)
	var order []string
	a := s.AddListener(PointerDown, func(Event) { order = append(order, "a") })
	s.AddListener(PointerDown, func(Event) { order = append(order, "b") })
	s.AddListener(PointerUp, func(Event) { order = append(order, "up") })

	s.Dispatch(Event{Kind: PointerDown})
	assert.Equal(t, []string{"a", "b"}, order)

	s.RemoveListener(a)
	s.RemoveListener(a)
	order = nil
	s.Dispatch(Event{Kind: PointerDown})
	assert.Equal(t, []string{"b"}, order)
	assert.Equal(t, 2, s.ListenerCount())
}

func TestSurfaceResizeUpdatesSizeFirst(t *testing.T) {
	s := NewSurface(100, 50)
	var seenW, seenH int
	s.AddListener(Resize, func(Event) { seenW, seenH = s.Size() })

	s.Dispatch(Event{Kind: Resize, Width: 800, Height: 600})
	assert.Equal(t, 800, seenW)
	assert.Equal(t, 600, seenH)
}

func TestListenersRemoveAll(t *testing.T) {
	s := NewSurface(10, 10)
	var l Listeners
	l.On(s, PointerDown, func(Event) {})
	l.On(s, Wheel, func(Event) {})
	require.Equal(t, 2, s.ListenerCount())

	l.RemoveAll()
	assert.Equal(t, 0, s.ListenerCount())
	assert.Equal(t, 0, l.Len())

	var empty Listeners
	empty.RemoveAll()
}

func TestListenerMayRemoveItselfDuringDispatch(t *testing.T) {
	s := NewSurface(10, 10)
	calls := 0
	var id ListenerID
	id = s.AddListener(PointerMove, func(Event) {
		calls++
		s.RemoveListener(id)
	})
	s.Dispatch(Event{Kind: PointerMove})
	s.Dispatch(Event{Kind: PointerMove})
	assert.Equal(t, 1, calls)
}

func TestParseEventKind(t *testing.T) {
	k, ok := ParseEventKind("pointerleave")
	require.True(t, ok)
	assert.Equal(t, PointerLeave, k)
	assert.Equal(t, "pointerleave", k.String())

	_, ok = ParseEventKind("click")
	assert.False(t, ok)
}

func TestIconFor(t *testing.T) {
	icons := IconMap{"database": "DB"}
	assert.Equal(t, "DB", IconFor(icons, "database"))
	assert.Equal(t, "S", IconFor(icons, "service"))
	assert.Equal(t, "?", IconFor(icons, ""))
	assert.Equal(t, "Q", IconFor(nil, "queue"))
}

func TestDiagnosticsLogOnce(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d := NewDiagnostics(zap.New(core))

	err := errors.New("boom")
	d.Report("conn-1", err)
	d.Report("conn-1", err)
	d.Report("conn-2", err)

	assert.Equal(t, 2, logs.FilterMessage("skipping scene element").Len())
	assert.Equal(t, 2, d.Len())

	d.Clear("conn-1")
	assert.Equal(t, 1, d.Len())
	d.Report("conn-1", err)
	assert.Equal(t, 3, logs.FilterMessage("skipping scene element").Len())
}

func sampleFrame() *Frame {
	f := NewFrame(7, 200, 120, "vector")
	f.Add(
		CurvePath{ID: "a->b#0", Curve: geom.Curve{End: r2.Vec{X: 100, Y: 50}}},
		Marker{ID: "a->b#0", At: r2.Vec{X: 50, Y: 25}, Radius: 4},
		Circle{NodeID: "a", Center: r2.Vec{X: 40, Y: 40}, Radius: 30, Category: "svc"},
		Glyph{NodeID: "a", At: r2.Vec{X: 40, Y: 40}, Text: "S", Size: 16},
		Text{NodeID: "a", At: r2.Vec{X: 40, Y: 85}, Text: "<API>", Size: 12},
		Line{ID: "b->c#1", From: r2.Vec{X: 1, Y: 1}, To: r2.Vec{X: 2, Y: 2}},
		Label{NodeID: "a", At: r2.Vec{X: 40, Y: 40}, Text: "API"},
	)
	return f
}

func TestCount(t *testing.T) {
	f := sampleFrame()
	assert.Equal(t, 1, Count[Circle](f))
	assert.Equal(t, 1, Count[CurvePath](f))
	assert.Equal(t, 0, Count[Sprite](f))
}

func TestEncodeSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeSVG(&buf, sampleFrame()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, `data-frame="7"`)
	assert.Contains(t, out, `data-connection="a-&gt;b#0"`)
	assert.Contains(t, out, `data-node="a"`)
	assert.Contains(t, out, "&lt;API&gt;")
	assert.Contains(t, out, `class="flow"`)
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestSVGLabelWidthCountsRunes(t *testing.T) {
	f := NewFrame(1, 200, 120, "solid")
	f.Add(Label{NodeID: "db", At: r2.Vec{X: 40, Y: 40}, Text: "Bücher-Café"})

	var buf bytes.Buffer
	require.NoError(t, EncodeSVG(&buf, f))
	assert.Contains(t, buf.String(), `width="100" height="20"`, "11 runes, not 13 bytes")
}

func TestSVGEncoderCachesTextures(t *testing.T) {
	tex := image.NewRGBA(image.Rect(0, 0, 4, 4))
	tex.Set(1, 1, color.White)

	f := NewFrame(1, 50, 50, "solid")
	f.Add(Sprite{NodeID: "n", Center: r2.Vec{X: 25, Y: 25}, Size: 10, Texture: tex})

	e := NewSVGEncoder()
	var a, b bytes.Buffer
	require.NoError(t, e.Encode(&a, f))
	require.NoError(t, e.Encode(&b, f))
	assert.Equal(t, a.String(), b.String())
	assert.Len(t, e.textures, 1)
	assert.Contains(t, a.String(), "data:image/png;base64,")
}

func TestEncodePNG(t *testing.T) {
	f := sampleFrame()
	f.Add(Sprite{NodeID: "t", Center: r2.Vec{X: 150, Y: 60}, Size: 20, Texture: image.NewRGBA(image.Rect(0, 0, 8, 8))})

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, f))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}

func TestRasterizeRejectsEmptyFrame(t *testing.T) {
	_, err := Rasterize(NewFrame(0, 0, 0, "vector"))
	assert.Error(t, err)
}

func TestCategoryColorStable(t *testing.T) {
	assert.Equal(t, CategoryColor("database"), CategoryColor("database"))
	assert.Contains(t, Palette, CategoryColor("anything"))
}
