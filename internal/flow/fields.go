package flow

import (
	"fmt"
	"math"
)

type Lorenz struct{ sigma, rho, beta float64 }

func NewLorenz() *Lorenz { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }

// Velocity is the Lorenz system.
func (l *Lorenz) Velocity(s Point, _ float64) Point {
	return Point{l.sigma * (s[1] - s[0]), s[0]*(l.rho-s[2]) - s[1], s[0]*s[1] - l.beta*s[2]}
}
func (l *Lorenz) Seed() (Point, float64) { return Point{1, 1, 1}, 2 }
func (l *Lorenz) Params() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}
func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.sigma = v
	case "rho":
		l.rho = v
	case "beta":
		l.beta = v
	default:
		return fmt.Errorf("%w: lorenz %s", ErrUnknownParam, n)
	}
	return nil
}

type Rossler struct{ a, b, c float64 }

func NewRossler() *Rossler { return &Rossler{0.2, 0.2, 5.7} }

func (r *Rossler) Velocity(s Point, _ float64) Point {
	return Point{-s[1] - s[2], s[0] + r.a*s[1], r.b + s[2]*(s[0]-r.c)}
}
func (r *Rossler) Seed() (Point, float64) { return Point{1, 1, 0}, 1 }
func (r *Rossler) Params() map[string]float64 {
	return map[string]float64{"a": r.a, "b": r.b, "c": r.c}
}
func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.a = v
	case "b":
		r.b = v
	case "c":
		r.c = v
	default:
		return fmt.Errorf("%w: rossler %s", ErrUnknownParam, n)
	}
	return nil
}

// Vortex is a Rankine vortex about the z axis with a uniform updraft: solid
// body rotation inside the core radius, decaying as 1/r outside it.
type Vortex struct{ omega, core, lift float64 }

func NewVortex() *Vortex { return &Vortex{1.0, 1.0, 0.2} }

func (v *Vortex) Velocity(s Point, _ float64) Point {
	r := math.Hypot(s[0], s[1])
	w := v.omega
	if r > v.core {
		w = v.omega * v.core * v.core / (r * r)
	}
	return Point{-w * s[1], w * s[0], v.lift}
}
func (v *Vortex) Seed() (Point, float64) { return Point{0, 0, 0}, 2 }
func (v *Vortex) Params() map[string]float64 {
	return map[string]float64{"omega": v.omega, "core": v.core, "lift": v.lift}
}
func (v *Vortex) SetParam(n string, val float64) error {
	switch n {
	case "omega":
		v.omega = val
	case "core":
		if val <= 0 {
			return fmt.Errorf("flow: vortex core must be positive, got %g", val)
		}
		v.core = val
	case "lift":
		v.lift = val
	default:
		return fmt.Errorf("%w: vortex %s", ErrUnknownParam, n)
	}
	return nil
}

// Uniform moves every particle with the same constant velocity.
type Uniform struct{ v Point }

func NewUniform() *Uniform { return &Uniform{Point{1, 0, 0}} }

func (u *Uniform) Velocity(Point, float64) Point { return u.v }
func (u *Uniform) Seed() (Point, float64)       { return Point{}, 1 }
func (u *Uniform) Params() map[string]float64 {
	return map[string]float64{"vx": u.v[0], "vy": u.v[1], "vz": u.v[2]}
}
func (u *Uniform) SetParam(n string, val float64) error {
	switch n {
	case "vx":
		u.v[0] = val
	case "vy":
		u.v[1] = val
	case "vz":
		u.v[2] = val
	default:
		return fmt.Errorf("%w: uniform %s", ErrUnknownParam, n)
	}
	return nil
}
