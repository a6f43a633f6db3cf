package flow

// RK4 is the classic fourth order Runge-Kutta step.
type RK4 struct{}

func NewRK4() *RK4 { return &RK4{} }

func (RK4) Step(f Field, x Point, t, dt float64) Point {
	k1 := f.Velocity(x, t)
	k2 := f.Velocity(x.Add(k1.Scale(dt*0.5)), t+dt*0.5)
	k3 := f.Velocity(x.Add(k2.Scale(dt*0.5)), t+dt*0.5)
	k4 := f.Velocity(x.Add(k3.Scale(dt)), t+dt)

	dt6 := dt / 6.0
	var out Point
	for i := range out {
		out[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}

// Euler is the explicit first order step.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (Euler) Step(f Field, x Point, t, dt float64) Point {
	return x.Add(f.Velocity(x, t).Scale(dt))
}
