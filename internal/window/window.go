// Package window plans which stored timesteps a tracer object displays.
package window

import "math"

// Window is the inclusive range of timestep indices drawn for one object.
type Window struct {
	Start, End int
	// Timesteps is the simulated span after the per-object step limit.
	Timesteps int
	// Range is the number of stored steps that span covers after gap
	// correction; End-Start+1 never exceeds it.
	Range int
}

// Len is the number of steps in the window.
func (w Window) Len() int { return w.End - w.Start + 1 }

// Contains reports whether step lies in the window.
func (w Window) Contains(step int) bool { return step >= w.Start && step <= w.End }

// Planner holds the playback state shared by every object in a pass.
type Planner struct {
	// Now is the current playback step index.
	Now int
	// Gap is the number of simulation steps between stored steps.
	Gap int
	// Datasteps is the number of stored timesteps.
	Datasteps int
}

// Plan computes the window for an object with the given step limit (0 for
// unlimited). With Gap > 1 the span is divided by Gap-1, rounding up: an
// approximation that picks the closest stored steps rather than resampling.
func (p Planner) Plan(limit int) Window {
	gap := max(p.Gap, 1)
	timesteps := (p.Datasteps-1)*gap + 1
	if limit > 0 && timesteps > limit {
		timesteps = limit
	}
	rng := timesteps
	if gap > 1 {
		rng = int(math.Ceil(float64(timesteps) / float64(gap-1)))
	}
	rng = max(rng, 1)
	end := p.Now
	start := max(end-rng+1, 0)
	return Window{Start: start, End: end, Timesteps: timesteps, Range: rng}
}
