// Package geom holds the small value types shared by the tracer pipeline:
// single precision 3-D vectors and 8-bit RGBA colours.
package geom

import "math"

// Vec3 is a position, direction or per-axis scale in model space.
type Vec3 struct {
	X, Y, Z float32
}

func V(x, y, z float32) Vec3 { return Vec3{x, y, z} }

// Vec3 methods.
func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Mul(o Vec3) Vec3      { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }
func (v Vec3) Dot(o Vec3) float32   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Length() float32      { return float32(math.Sqrt(float64(v.Dot(v)))) }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}

func (v Vec3) Normalize() Vec3 {
	if l := v.Length(); l != 0 {
		return v.Scale(1 / l)
	}
	return Vec3{}
}

// Div divides component-wise. Zero components of o leave v unchanged.
func (v Vec3) Div(o Vec3) Vec3 {
	r := v
	if o.X != 0 {
		r.X /= o.X
	}
	if o.Y != 0 {
		r.Y /= o.Y
	}
	if o.Z != 0 {
		r.Z /= o.Z
	}
	return r
}

// Distance returns |v-o|.
func (v Vec3) Distance(o Vec3) float32 { return v.Sub(o).Length() }

// IsFinite reports whether no component is NaN or Inf.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float32{v.X, v.Y, v.Z} {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Orthonormal returns two unit vectors perpendicular to axis and to each
// other. axis must be non-zero.
func Orthonormal(axis Vec3) (Vec3, Vec3) {
	a := axis.Normalize()
	ref := Vec3{0, 0, 1}
	if abs32(a.Z) > 0.9 {
		ref = Vec3{1, 0, 0}
	}
	u := a.Cross(ref).Normalize()
	w := a.Cross(u).Normalize()
	return u, w
}

// Bounds is an axis aligned bounding box.
type Bounds struct {
	Min, Max Vec3
	empty    bool
}

func EmptyBounds() Bounds { return Bounds{empty: true} }

func (b *Bounds) Extend(p Vec3) {
	if b.empty {
		b.Min, b.Max, b.empty = p, p, false
		return
	}
	b.Min = Vec3{min(b.Min.X, p.X), min(b.Min.Y, p.Y), min(b.Min.Z, p.Z)}
	b.Max = Vec3{max(b.Max.X, p.X), max(b.Max.Y, p.Y), max(b.Max.Z, p.Z)}
}

func (b Bounds) Empty() bool { return b.empty }

// Size is the length of the box diagonal, 0 for an empty box.
func (b Bounds) Size() float32 {
	if b.empty {
		return 0
	}
	return b.Max.Sub(b.Min).Length()
}

func (b Bounds) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
