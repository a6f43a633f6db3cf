// Package mesh builds procedural triangle geometry for tube rendered
// tracers: tapered shaft segments and cone arrowheads.
package mesh

import (
	"math"

	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/geometry"
)

const (
	minLength = 1e-6
	minSides  = 3
	// head cone base radius relative to the tip radius
	headWidth = 2
)

// ShaftVertices is the vertex count of a shaft with the given quality.
func ShaftVertices(quality int) int { return 2 * (sides(quality) + 1) }

// HeadVertices is the vertex count of an arrowhead with the given quality.
func HeadVertices(quality int) int { return sides(quality) + 3 }

func sides(quality int) int { return max(quality, minSides) }

// Trajectory appends a tapered tube from p0 (radius r0) to p1 (radius r1)
// to dst, capped with a cone arrowhead of length arrow*r1 when arrow > 0.
// Geometry is built with coordinates multiplied by scale so the tube cross
// section is round in display space, then stored back in model space. A
// non-zero limit caps the arrowhead at half of it. quality is the number of
// sides around the tube.
//
// Vertex layout: the shaft is a closed strip where even vertices lie on the
// base ring and odd vertices on the tip ring, 2*(sides+1) in all; the
// arrowhead follows with its base ring, apex and cap centre. The returned
// count lets callers colour base vertices differently from tip and head.
func Trajectory(dst *geometry.Block, p0, p1 geom.Vec3, r0, r1, arrow float32, scale geom.Vec3, limit float32, quality int) int {
	s := unitScale(scale)
	a, b := p0.Mul(s), p1.Mul(s)
	axis := b.Sub(a)
	length := axis.Length()
	if length < minLength || !axis.IsFinite() {
		return 0
	}
	dir := axis.Scale(1 / length)
	n := sides(quality)
	u, w := geom.Orthonormal(dir)

	headLen := float32(0)
	if arrow > 0 {
		headLen = min(arrow*r1, length/2)
		if limit > 0 {
			headLen = min(headLen, limit/2)
		}
	}
	tip := b.Sub(dir.Scale(headLen))

	e := emitter{dst: dst, scale: s}
	first := uint32(dst.Count())
	for k := 0; k <= n; k++ {
		radial := ring(u, w, k, n)
		t := float32(k) / float32(n)
		e.vertex(a.Add(radial.Scale(r0)), radial, t, 0)
		e.vertex(tip.Add(radial.Scale(r1)), radial, t, 1)
	}
	for k := uint32(0); k < uint32(n); k++ {
		i := first + 2*k
		dst.Index(i, i+1, i+2, i+2, i+1, i+3)
	}
	count := 2 * (n + 1)
	if headLen <= 0 {
		return count
	}

	hr := headWidth * r1
	base := first + uint32(count)
	for k := 0; k <= n; k++ {
		radial := ring(u, w, k, n)
		normal := radial.Scale(headLen).Add(dir.Scale(hr)).Normalize()
		e.vertex(tip.Add(radial.Scale(hr)), normal, float32(k)/float32(n), 0)
	}
	apex := base + uint32(n+1)
	e.vertex(b, dir, 0.5, 1)
	centre := apex + 1
	e.vertex(tip, dir.Scale(-1), 0.5, 0)
	for k := uint32(0); k < uint32(n); k++ {
		dst.Index(base+k, base+k+1, apex)
		dst.Index(base+k+1, base+k, centre)
	}
	return count + n + 3
}

func ring(u, w geom.Vec3, k, n int) geom.Vec3 {
	theta := 2 * math.Pi * float64(k) / float64(n)
	return u.Scale(float32(math.Cos(theta))).Add(w.Scale(float32(math.Sin(theta))))
}

type emitter struct {
	dst   *geometry.Block
	scale geom.Vec3
}

func (e emitter) vertex(p, normal geom.Vec3, tu, tv float32) {
	e.dst.Vertex(p.Div(e.scale))
	e.dst.Normal(normal.Mul(e.scale).Normalize())
	e.dst.TexCoord(tu, tv)
}

func unitScale(s geom.Vec3) geom.Vec3 {
	if s.X == 0 {
		s.X = 1
	}
	if s.Y == 0 {
		s.Y = 1
	}
	if s.Z == 0 {
		s.Z = 1
	}
	return s
}
