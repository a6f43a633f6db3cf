package flow

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/record"
	"github.com/san-kum/dyntrace/internal/scene"
)

// Options control synthetic dataset generation.
type Options struct {
	Field      string
	Integrator string
	Params     map[string]float64
	Swarms     int
	Particles  int
	// Steps is the number of stored timesteps.
	Steps int
	// Gap is the number of integrator steps between stored timesteps.
	Gap  int
	Dt   float64
	Seed int64
	// Shuffle stores particles in a random slot order each step, with an
	// index map recording which particle each slot holds.
	Shuffle bool
	// Props are the initial properties of every swarm object.
	Props map[string]any
}

func DefaultOptions() Options {
	return Options{
		Field:      "lorenz",
		Integrator: "rk4",
		Swarms:     1,
		Particles:  16,
		Steps:      200,
		Gap:        1,
		Dt:         0.01,
		Seed:       1,
	}
}

func (o Options) validate() error {
	if o.Swarms < 1 || o.Particles < 1 || o.Steps < 1 || o.Gap < 1 || o.Dt <= 0 {
		return fmt.Errorf("%w: swarms=%d particles=%d steps=%d gap=%d dt=%g",
			ErrBadOptions, o.Swarms, o.Particles, o.Steps, o.Gap, o.Dt)
	}
	return nil
}

// Result is a generated dataset: one object per swarm and the records of
// all swarms interleaved step by step.
type Result struct {
	Objects []*scene.Object
	Records []*record.Record
	Times   []float64
}

// Generate advects every swarm in its own goroutine. The speed of each
// particle is stored as the colour value series.
func Generate(ctx context.Context, reg *Registry, alloc *scene.Allocator, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if _, err := reg.Field(opts.Field); err != nil {
		return nil, err
	}
	if _, err := reg.Integrator(opts.Integrator); err != nil {
		return nil, err
	}

	res := &Result{Times: make([]float64, opts.Steps)}
	for s := 0; s < opts.Swarms; s++ {
		res.Objects = append(res.Objects, scene.NewObject(alloc, 0, fmt.Sprintf("swarm%d", s), opts.Props))
	}
	for step := range res.Times {
		res.Times[step] = float64(step*opts.Gap) * opts.Dt
	}

	tracks := make([][]*record.Record, opts.Swarms)
	errs := make([]error, opts.Swarms)

	var wg sync.WaitGroup
	for i := 0; i < opts.Swarms; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			tracks[idx], errs[idx] = advect(ctx, reg, opts, idx, res.Objects[idx])
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	res.Records = make([]*record.Record, 0, opts.Steps*opts.Swarms)
	for step := 0; step < opts.Steps; step++ {
		for s := range tracks {
			res.Records = append(res.Records, tracks[s][step])
		}
	}
	return res, nil
}

func advect(ctx context.Context, reg *Registry, opts Options, swarm int, obj *scene.Object) ([]*record.Record, error) {
	f, err := reg.Field(opts.Field)
	if err != nil {
		return nil, err
	}
	if c, ok := f.(Configurable); ok {
		for k, v := range opts.Params {
			if err := c.SetParam(k, v); err != nil {
				return nil, err
			}
		}
	}
	integ, err := reg.Integrator(opts.Integrator)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed + int64(swarm)))
	centre, spread := f.Seed()
	pos := make([]Point, opts.Particles)
	for p := range pos {
		for k := range pos[p] {
			pos[p][k] = centre[k] + spread*(2*rng.Float64()-1)
		}
	}

	out := make([]*record.Record, opts.Steps)
	t := 0.0
	for step := 0; step < opts.Steps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if step > 0 {
			for sub := 0; sub < opts.Gap; sub++ {
				for p := range pos {
					pos[p] = integ.Step(f, pos[p], t, opts.Dt)
					if !pos[p].IsValid() {
						return nil, &AdvectionError{Swarm: swarm, Particle: p, Step: step, Time: t, Wrapped: ErrDiverged}
					}
				}
				t += opts.Dt
			}
		}
		out[step] = snapshot(f, pos, t, step, obj, rng, opts.Shuffle)
	}
	return out, nil
}

func snapshot(f Field, pos []Point, t float64, step int, obj *scene.Object, rng *rand.Rand, shuffle bool) *record.Record {
	n := len(pos)
	rec := &record.Record{
		Step:      step,
		Owner:     obj,
		Positions: make([]geom.Vec3, n),
		Values:    map[string][]float32{record.ColourValues: make([]float32, n)},
	}
	order := identity(n)
	if shuffle {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		rec.Indices = make([]uint32, n)
	}
	speed := rec.Values[record.ColourValues]
	for slot, p := range order {
		x := pos[p]
		rec.Positions[slot] = geom.V(float32(x[0]), float32(x[1]), float32(x[2]))
		speed[slot] = float32(f.Velocity(x, t).Norm())
		if rec.Indices != nil {
			rec.Indices[slot] = uint32(p)
		}
	}
	return rec
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
