// Package flow advects particle swarms through analytic velocity fields and
// records their positions as tracer records.
package flow

import "math"

// Point is a position or velocity in double precision.
type Point [3]float64

func (p Point) Add(o Point) Point { return Point{p[0] + o[0], p[1] + o[1], p[2] + o[2]} }

func (p Point) Scale(s float64) Point { return Point{p[0] * s, p[1] * s, p[2] * s} }

func (p Point) Norm() float64 { return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2]) }

func (p Point) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Field is a time dependent velocity field.
type Field interface {
	Velocity(x Point, t float64) Point
	// Seed returns the centre and half width of the box particles start in.
	Seed() (centre Point, spread float64)
}

type Integrator interface {
	Step(f Field, x Point, t, dt float64) Point
}

// Configurable fields expose named parameters.
type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}
