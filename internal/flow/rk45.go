package flow

import "math"

// Dormand-Prince coefficients
const (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 integrates each step with adaptive Dormand-Prince substeps, so the
// stored spacing dt stays fixed while the error per substep stays under Tol.
type RK45 struct {
	Tol      float64
	safety   float64
	minScale float64
	maxScale float64
	// MaxSubsteps bounds the work per step; the last substep is taken
	// regardless of its error.
	MaxSubsteps int
}

func NewRK45() *RK45 {
	return &RK45{
		Tol:         1e-6,
		safety:      0.9,
		minScale:    0.2,
		maxScale:    10.0,
		MaxSubsteps: 1000,
	}
}

func (r *RK45) Step(f Field, x Point, t, dt float64) Point {
	end := t + dt
	h := dt
	for i := 0; i < r.MaxSubsteps && t < end; i++ {
		h = math.Min(h, end-t)
		next, errRatio := r.try(f, x, t, h)
		last := i == r.MaxSubsteps-1
		if errRatio <= 1 || last {
			x, t = next, t+h
		}
		h *= r.scale(errRatio)
	}
	return x
}

// try takes one embedded step and returns it with its error relative to Tol.
func (r *RK45) try(f Field, x Point, t, h float64) (Point, float64) {
	var x2, x3, x4, x5, x6, xNew Point

	k1 := f.Velocity(x, t)
	for i := range x2 {
		x2[i] = x[i] + h*b21*k1[i]
	}
	k2 := f.Velocity(x2, t+a2*h)

	for i := range x3 {
		x3[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := f.Velocity(x3, t+a3*h)

	for i := range x4 {
		x4[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := f.Velocity(x4, t+a4*h)

	for i := range x5 {
		x5[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := f.Velocity(x5, t+a5*h)

	for i := range x6 {
		x6[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := f.Velocity(x6, t+h)

	for i := range xNew {
		xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	k7 := f.Velocity(xNew, t+h)

	errMax := 0.0
	for i := range xNew {
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(h*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}
	return xNew, errMax / r.Tol
}

func (r *RK45) scale(errRatio float64) float64 {
	switch {
	case errRatio > 1:
		return math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		return math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	}
	return r.maxScale
}
