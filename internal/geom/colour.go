package geom

import "fmt"

// Colour is an 8-bit straight alpha RGBA value, the per-vertex colour format
// of every geometry container.
type Colour struct {
	R, G, B, A uint8
}

var (
	White = Colour{255, 255, 255, 255}
	Black = Colour{0, 0, 0, 255}
)

// WithAlpha returns c with its alpha replaced.
func (c Colour) WithAlpha(a uint8) Colour {
	c.A = a
	return c
}

// Hex formats the colour as #rrggbb, dropping alpha.
func (c Colour) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Opacity returns alpha as a fraction in [0, 1].
func (c Colour) Opacity() float64 { return float64(c.A) / 255 }

// FromRGBInt unpacks a 0xRRGGBBAA integer, the form colours take when they
// are stored as numeric object properties.
func FromRGBInt(v uint32) Colour {
	return Colour{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}
}
