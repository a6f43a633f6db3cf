package viz

import (
	"math"

	"github.com/san-kum/dyntrace/internal/geom"
)

// Camera projects model space onto the screen. Points are first normalised
// into a unit sphere around Centre, then rotated, zoomed and projected with
// a simple perspective divide.
type Camera struct {
	Centre     geom.Vec3
	Radius     float64
	RotX, RotY float64
	Zoom       float64
	// Distance of the eye from the centre in unit-sphere units.
	Distance float64
}

func NewCamera() *Camera {
	return &Camera{Radius: 1, Zoom: 1, Distance: 3}
}

// Fit centres the camera on b.
func (c *Camera) Fit(b geom.Bounds) {
	if b.Empty() {
		return
	}
	c.Centre = b.Center()
	c.Radius = float64(b.Size()) / 2
	if c.Radius == 0 {
		c.Radius = 1
	}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) Reset() {
	c.RotX, c.RotY, c.Zoom = 0, 0, 1
}

// rotate applies the X then Y rotation.
func (c *Camera) rotate(x, y, z float64) (float64, float64, float64) {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	y, z = y*cx-z*sx, y*sx+z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	x, z = x*cy+z*sy, -x*sy+z*cy
	return x, y, z
}

// ProjectF maps p to continuous screen coordinates on a w x h surface.
// depth grows towards the viewer; ok is false behind the eye.
func (c *Camera) ProjectF(p geom.Vec3, w, h int) (sx, sy, depth float64, ok bool) {
	r := c.Radius
	if r == 0 {
		r = 1
	}
	d := p.Sub(c.Centre)
	x, y, z := c.rotate(float64(d.X)/r, float64(d.Y)/r, float64(d.Z)/r)
	x, y, z = x*c.Zoom, y*c.Zoom, z*c.Zoom
	if z >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - z)
	half := math.Min(float64(w), float64(h)) / 2
	sx = x*scale*half*0.9 + float64(w)/2
	sy = -y*scale*half*0.9 + float64(h)/2
	return sx, sy, z, true
}

// Project is ProjectF rounded to pixels.
func (c *Camera) Project(p geom.Vec3, w, h int) (int, int, float64, bool) {
	x, y, depth, ok := c.ProjectF(p, w, h)
	return int(math.Round(x)), int(math.Round(y)), depth, ok
}
