package render

import (
	"context"
	"errors"
	"strings"
)

// PNGOptions are the image settings passed to a Rasterizer. Zero fields are
// left to the rasterizer's own defaults.
type PNGOptions struct {
	Scale      float64
	Width      int
	Height     int
	Background string
}

// EffectiveScale returns the scale to request. An explicit width or height
// overrides the scale.
func (o PNGOptions) EffectiveScale() float64 {
	if o.Width > 0 || o.Height > 0 {
		return 0
	}
	return o.Scale
}

// Background returns the default image background for a color scheme.
func Background(scheme string) string {
	if strings.EqualFold(scheme, SchemeDark) {
		return "#1e1e1e"
	}
	return "#ffffff"
}

// Rasterizer renders Mermaid text into an image file at out.
type Rasterizer interface {
	Rasterize(ctx context.Context, code, out string, opts PNGOptions) error
}

// ErrRasterizerUnavailable is returned by a Rasterizer whose backing tool is
// not installed. Retrying with PNG-safe code does not help.
var ErrRasterizerUnavailable = errors.New("rasterizer not available")
