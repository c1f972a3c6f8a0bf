package scene

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontTTF, fontErr = truetype.Parse(goregular.TTF)
	})
	return fontTTF, fontErr
}

func fontFace(size float64) (font.Face, error) {
	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Rasterize paints a frame into an RGBA image.
func Rasterize(f *Frame) (image.Image, error) {
	w, h := f.Width, f.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetHexColor(backgroundColor)
	dc.Clear()

	faces := make(map[float64]font.Face)
	setFace := func(size float64) error {
		if size <= 0 {
			size = 12
		}
		face, ok := faces[size]
		if !ok {
			var err error
			if face, err = fontFace(size); err != nil {
				return err
			}
			faces[size] = face
		}
		dc.SetFontFace(face)
		return nil
	}

	for _, it := range f.Items {
		switch v := it.(type) {
		case CurvePath:
			c := v.Curve
			dc.SetHexColor(curveColor)
			dc.SetLineWidth(2)
			dc.MoveTo(c.Start.X, c.Start.Y)
			dc.CubicTo(c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.End.X, c.End.Y)
			dc.Stroke()
		case Line:
			dc.SetHexColor(curveColor)
			dc.SetLineWidth(1.5)
			dc.DrawLine(v.From.X, v.From.Y, v.To.X, v.To.Y)
			dc.Stroke()
		case Marker:
			dc.SetHexColor(markerColor)
			dc.DrawCircle(v.At.X, v.At.Y, v.Radius)
			dc.Fill()
		case Circle:
			col := CategoryColor(v.Category)
			dc.DrawCircle(v.Center.X, v.Center.Y, v.Radius)
			dc.SetHexColor(col + "99")
			dc.FillPreserve()
			dc.SetHexColor(col)
			dc.SetLineWidth(2)
			dc.Stroke()
		case Glyph:
			if err := setFace(v.Size); err != nil {
				return nil, err
			}
			dc.SetHexColor(labelColor)
			dc.DrawStringAnchored(v.Text, v.At.X, v.At.Y, 0.5, 0.35)
		case Text:
			if err := setFace(v.Size); err != nil {
				return nil, err
			}
			dc.SetHexColor(textColor)
			dc.DrawStringAnchored(v.Text, v.At.X, v.At.Y, 0.5, 0)
		case Sprite:
			if v.Texture == nil {
				continue
			}
			b := v.Texture.Bounds()
			if b.Dx() == 0 || b.Dy() == 0 {
				continue
			}
			dc.Push()
			dc.Translate(v.Center.X, v.Center.Y)
			dc.Scale(v.Size/float64(b.Dx()), v.Size/float64(b.Dy()))
			dc.DrawImageAnchored(v.Texture, 0, 0, 0.5, 0.5)
			dc.Pop()
		case Label:
			if err := setFace(12); err != nil {
				return nil, err
			}
			tw, _ := dc.MeasureString(v.Text)
			dc.SetHexColor(backgroundColor + "e6")
			dc.DrawRoundedRectangle(v.At.X+8, v.At.Y-28, tw+12, 20, 4)
			dc.Fill()
			dc.SetHexColor(labelColor)
			dc.DrawStringAnchored(v.Text, v.At.X+14, v.At.Y-18, 0, 0.35)
		}
	}
	return dc.Image(), nil
}

// EncodePNG rasterizes f and writes it as PNG.
func EncodePNG(w io.Writer, f *Frame) error {
	img, err := Rasterize(f)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
