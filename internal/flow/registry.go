package flow

import (
	"fmt"
	"sort"
)

type Registry struct {
	fields      map[string]func() Field
	integrators map[string]func() Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		fields:      make(map[string]func() Field),
		integrators: make(map[string]func() Integrator),
	}

	r.fields["lorenz"] = func() Field { return NewLorenz() }
	r.fields["rossler"] = func() Field { return NewRossler() }
	r.fields["vortex"] = func() Field { return NewVortex() }
	r.fields["uniform"] = func() Field { return NewUniform() }

	r.integrators["euler"] = func() Integrator { return NewEuler() }
	r.integrators["rk4"] = func() Integrator { return NewRK4() }
	r.integrators["rk45"] = func() Integrator { return NewRK45() }

	return r
}

func (r *Registry) RegisterField(name string, f func() Field) { r.fields[name] = f }

func (r *Registry) Field(name string) (Field, error) {
	f, ok := r.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return f(), nil
}

func (r *Registry) Integrator(name string) (Integrator, error) {
	f, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return f(), nil
}

func (r *Registry) ListFields() []string      { return sortedNames(r.fields) }
func (r *Registry) ListIntegrators() []string { return sortedNames(r.integrators) }

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
