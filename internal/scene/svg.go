package scene

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"image"
	"image/png"
	"io"
	"unicode/utf8"
)

// SVGEncoder writes frames as standalone SVG documents. Textures are encoded
// once and reused across frames.
type SVGEncoder struct {
	textures map[image.Image]string
}

// NewSVGEncoder creates an encoder with an empty texture cache.
func NewSVGEncoder() *SVGEncoder {
	return &SVGEncoder{textures: make(map[image.Image]string)}
}

// Encode writes f to w.
func (e *SVGEncoder) Encode(w io.Writer, f *Frame) error {
	b := bufio.NewWriter(w)

	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" data-frame="%d">`+"\n",
		f.Width, f.Height, f.Width, f.Height, f.Seq)
	fmt.Fprintf(b, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", backgroundColor)

	for _, it := range f.Items {
		switch v := it.(type) {
		case CurvePath:
			fmt.Fprintf(b, `  <path data-connection="%s" d="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
				html.EscapeString(string(v.ID)), v.Curve.SVGPath(), curveColor)
		case Line:
			fmt.Fprintf(b, `  <line data-connection="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1.5"/>`+"\n",
				html.EscapeString(string(v.ID)), v.From.X, v.From.Y, v.To.X, v.To.Y, curveColor)
		case Marker:
			fmt.Fprintf(b, `  <circle class="flow" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
				v.At.X, v.At.Y, v.Radius, markerColor)
		case Circle:
			col := CategoryColor(v.Category)
			fmt.Fprintf(b, `  <circle data-node="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="%s99" stroke="%s" stroke-width="2"/>`+"\n",
				html.EscapeString(v.NodeID), v.Center.X, v.Center.Y, v.Radius, col, col)
		case Glyph:
			fmt.Fprintf(b, `  <text x="%.2f" y="%.2f" font-size="%.0f" text-anchor="middle" dominant-baseline="central" fill="%s">%s</text>`+"\n",
				v.At.X, v.At.Y, v.Size, labelColor, html.EscapeString(v.Text))
		case Text:
			fmt.Fprintf(b, `  <text x="%.2f" y="%.2f" font-size="%.0f" text-anchor="middle" fill="%s">%s</text>`+"\n",
				v.At.X, v.At.Y, v.Size, textColor, html.EscapeString(v.Text))
		case Sprite:
			href, err := e.textureHref(v.Texture)
			if err != nil {
				return err
			}
			half := v.Size / 2
			fmt.Fprintf(b, `  <image data-node="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" href="%s"/>`+"\n",
				html.EscapeString(v.NodeID), v.Center.X-half, v.Center.Y-half, v.Size, v.Size, href)
		case Label:
			fmt.Fprintf(b, `  <g class="label"><rect x="%.2f" y="%.2f" width="%d" height="20" rx="4" fill="%s" fill-opacity="0.9"/><text x="%.2f" y="%.2f" font-size="12" fill="%s">%s</text></g>`+"\n",
				v.At.X+8, v.At.Y-28, 8*utf8.RuneCountInString(v.Text)+12, backgroundColor, v.At.X+14, v.At.Y-14, labelColor, html.EscapeString(v.Text))
		}
	}

	b.WriteString("</svg>\n")
	return b.Flush()
}

// EncodeSVG writes one frame without a shared texture cache.
func EncodeSVG(w io.Writer, f *Frame) error {
	return NewSVGEncoder().Encode(w, f)
}

func (e *SVGEncoder) textureHref(img image.Image) (string, error) {
	if img == nil {
		return "", nil
	}
	if href, ok := e.textures[img]; ok {
		return href, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode texture: %w", err)
	}
	href := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	e.textures[img] = href
	return href, nil
}
