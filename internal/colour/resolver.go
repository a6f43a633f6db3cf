package colour

import (
	"math"

	"github.com/san-kum/dyntrace/internal/geom"
)

// Mode selects how tracer colours are calibrated for one object.
type Mode int

const (
	// ModeTime colours every particle by the sampled time of the step.
	ModeTime Mode = iota
	// ModeValue colours each particle by its own scalar value.
	ModeValue
)

func (m Mode) String() string {
	switch m {
	case ModeTime:
		return "time"
	case ModeValue:
		return "value"
	}
	return "unknown"
}

// SelectMode picks time calibration when there is a map to calibrate and no
// colour series to drive it, value calibration otherwise.
func SelectMode(cmap *Map, hasColourData bool) Mode {
	if cmap != nil && !hasColourData {
		return ModeTime
	}
	return ModeValue
}

// Resolver produces tracer colours under one Mode. It is not safe for
// concurrent use; a synthesis pass owns one resolver per object.
type Resolver struct {
	mode    Mode
	cmap    *Map
	base    geom.Colour
	opacity float64

	vals, ovals []float32
}

// NewResolver binds a mode to a colour map (may be nil), the object's fixed
// colour and its opacity multiplier. The resolver calibrates its own copy of
// cmap and never modifies the caller's map.
func NewResolver(mode Mode, cmap *Map, base geom.Colour, opacity float64) *Resolver {
	if cmap != nil {
		cmap = cmap.Clone()
	}
	return &Resolver{mode: mode, cmap: cmap, base: base, opacity: clamp01(opacity)}
}

func (r *Resolver) Mode() Mode { return r.mode }

// CalibrateTime fixes the time range for ModeTime. It is a no-op in value
// mode.
func (r *Resolver) CalibrateTime(t0, t1 float64) {
	if r.mode == ModeTime && r.cmap != nil {
		r.cmap.Calibrate(t0, t1)
	}
}

// Init points the value lookup at one record's colour and opacity series.
// The map is recalibrated on the colour series range only when the series
// changes.
func (r *Resolver) Init(vals, ovals []float32) {
	r.ovals = ovals
	if sameSeries(r.vals, vals) {
		return
	}
	r.vals = vals
	if r.cmap == nil || len(vals) == 0 {
		return
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		lo, hi = math.Min(lo, f), math.Max(hi, f)
	}
	if lo <= hi {
		r.cmap.Calibrate(lo, hi)
	}
}

// At returns the colour at storage slot i of a step sampled at time t.
func (r *Resolver) At(i int, t float64) geom.Colour {
	if r.mode == ModeTime {
		return r.applyOpacity(r.cmap.Get(t))
	}
	return r.Value(i)
}

// Value returns the colour of storage slot i from the current series. Value
// series are stored in slot order, like positions.
func (r *Resolver) Value(i int) geom.Colour {
	c := r.base
	if r.cmap != nil && i >= 0 && i < len(r.vals) {
		c = r.applyOpacity(r.cmap.Get(float64(r.vals[i])))
	}
	if i >= 0 && i < len(r.ovals) {
		c.A = uint8(math.Round(255 * clamp01(float64(r.ovals[i]))))
	}
	return c
}

func (r *Resolver) applyOpacity(c geom.Colour) geom.Colour {
	c.A = uint8(math.Round(float64(c.A) * r.opacity))
	return c
}

// Fade sets alpha from the step's position in [start, end]: transparent at
// the tail, opaque at the head. A single-step window is fully opaque.
func Fade(c geom.Colour, step, start, end int) geom.Colour {
	if end <= start {
		c.A = 255
		return c
	}
	c.A = uint8(255 * float32(step-start) / float32(end-start))
	return c
}

func sameSeries(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
