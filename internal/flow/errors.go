package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField indicates a field name missing from the registry.
	ErrUnknownField = errors.New("flow: unknown field")

	// ErrUnknownIntegrator indicates an integrator name missing from the registry.
	ErrUnknownIntegrator = errors.New("flow: unknown integrator")

	// ErrDiverged indicates a particle position became NaN or Inf.
	ErrDiverged = errors.New("flow: particle diverged (NaN or Inf detected)")

	// ErrUnknownParam indicates a parameter the field does not have.
	ErrUnknownParam = errors.New("flow: unknown parameter")

	// ErrBadOptions indicates generation options that cannot produce records.
	ErrBadOptions = errors.New("flow: invalid generation options")
)

// AdvectionError wraps an error with the swarm, particle and step it hit.
type AdvectionError struct {
	Swarm    int
	Particle int
	Step     int
	Time     float64
	Wrapped  error
}

func (e *AdvectionError) Error() string {
	return fmt.Sprintf("swarm %d particle %d step %d (t=%.4f): %v", e.Swarm, e.Particle, e.Step, e.Time, e.Wrapped)
}

func (e *AdvectionError) Unwrap() error {
	return e.Wrapped
}
