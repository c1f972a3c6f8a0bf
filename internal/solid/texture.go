package solid

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/msalah0e/flowviz/internal/scene"
)

// DefaultTextureSize is the edge length textures are scaled to.
const DefaultTextureSize = 64

// DefaultTextures is the category texture table used when the host
// configures none.
var DefaultTextures = map[string]string{
	"service":  "service.png",
	"database": "database.png",
	"cache":    "cache.png",
	"queue":    "queue.png",
	"user":     "user.png",
	"document": "document.png",
}

// ResourceError reports a texture that could not be loaded.
type ResourceError struct {
	Category string
	Path     string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("texture %s for %q: %v", e.Path, e.Category, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Loader reads a texture image by path.
type Loader func(path string) (image.Image, error)

// DirLoader loads textures relative to dir.
func DirLoader(dir string) Loader {
	return func(path string) (image.Image, error) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		return img, nil
	}
}

// Textures holds one scaled texture per known category plus a fallback.
type Textures struct {
	size       int
	byCategory map[string]*image.RGBA
	fallback   *image.RGBA
}

// LoadTextures builds the texture set. With a nil loader every table entry
// gets a procedural texture in its category color. Entries that fail to
// load are logged as *ResourceError and use the fallback.
func LoadTextures(table map[string]string, load Loader, size int, log *zap.Logger) *Textures {
	if size <= 0 {
		size = DefaultTextureSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := &Textures{
		size:       size,
		byCategory: make(map[string]*image.RGBA, len(table)),
		fallback:   procedural(size, "#6b7280"),
	}
	for category, path := range table {
		if load == nil {
			t.byCategory[category] = procedural(size, scene.CategoryColor(category))
			continue
		}
		img, err := load(path)
		if err != nil {
			rerr := &ResourceError{Category: category, Path: path, Err: err}
			log.Warn("using default texture", zap.Error(rerr))
			continue
		}
		t.byCategory[category] = scaleTo(img, size)
	}
	return t
}

// For returns the texture for a category, or the fallback.
func (t *Textures) For(category string) image.Image {
	if t == nil {
		return nil
	}
	if img, ok := t.byCategory[category]; ok {
		return img
	}
	return t.fallback
}

// Allocated returns how many textures the set holds.
func (t *Textures) Allocated() int {
	if t == nil || t.fallback == nil {
		return 0
	}
	return len(t.byCategory) + 1
}

// Release drops every texture.
func (t *Textures) Release() {
	if t == nil {
		return
	}
	t.byCategory = nil
	t.fallback = nil
}

func scaleTo(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// procedural draws a filled square with a lighter border.
func procedural(size int, hex string) *image.RGBA {
	fill := parseHex(hex)
	border := color.RGBA{
		R: lighten(fill.R),
		G: lighten(fill.G),
		B: lighten(fill.B),
		A: 0xff,
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)
	edge := size / 16
	if edge < 1 {
		edge = 1
	}
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, size, edge),
		image.Rect(0, size-edge, size, size),
		image.Rect(0, 0, edge, size),
		image.Rect(size-edge, 0, size, size),
	} {
		draw.Draw(img, r, &image.Uniform{C: border}, image.Point{}, draw.Src)
	}
	return img
}

func lighten(c uint8) uint8 {
	return c + (0xff-c)/2
}

func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
