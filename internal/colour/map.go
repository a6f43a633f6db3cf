// Package colour turns scalars into RGBA colours: calibrated colour maps and
// the resolver that picks between time and value calibration for tracers.
package colour

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/dyntrace/internal/geom"
)

var ErrBadColour = errors.New("colour: unrecognised colour")

// Stop is one colour at a normalised map position in [0, 1].
type Stop struct {
	Pos    float64
	Colour geom.Colour
}

// Map is a piecewise linear colour map. Calibrate fixes the scalar range
// mapped onto the stops; Get is then safe to call in hot loops.
type Map struct {
	Name  string
	Stops []Stop
	Log   bool

	min, max   float64
	calibrated bool
}

// NewMap spaces the colours evenly over [0, 1].
func NewMap(name string, colours ...geom.Colour) *Map {
	m := &Map{Name: name, Stops: make([]Stop, len(colours))}
	for i, c := range colours {
		pos := 0.0
		if len(colours) > 1 {
			pos = float64(i) / float64(len(colours)-1)
		}
		m.Stops[i] = Stop{Pos: pos, Colour: c}
	}
	return m
}

// Calibrate sets the scalar range. Reversed bounds are swapped.
func (m *Map) Calibrate(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	m.min, m.max, m.calibrated = lo, hi, true
}

// Clone returns an uncalibrated copy sharing the read-only stops.
func (m *Map) Clone() *Map {
	return &Map{Name: m.Name, Stops: m.Stops, Log: m.Log}
}

// Range returns the calibrated range and whether Calibrate has been called.
func (m *Map) Range() (float64, float64, bool) { return m.min, m.max, m.calibrated }

// Get maps a scalar through the calibrated range. An uncalibrated map or a
// zero-width range resolves to the first stop.
func (m *Map) Get(v float64) geom.Colour {
	return m.At(m.normalise(v))
}

func (m *Map) normalise(v float64) float64 {
	if !m.calibrated || m.max == m.min || math.IsNaN(v) {
		return 0
	}
	if m.Log && m.min > 0 && v > 0 {
		lo, hi := math.Log10(m.min), math.Log10(m.max)
		return (math.Log10(v) - lo) / (hi - lo)
	}
	return (v - m.min) / (m.max - m.min)
}

// At samples the map at normalised position t, clamped to [0, 1].
func (m *Map) At(t float64) geom.Colour {
	n := len(m.Stops)
	if n == 0 {
		return geom.White
	}
	t = math.Max(0, math.Min(1, t))
	if n == 1 || t <= m.Stops[0].Pos {
		return m.Stops[0].Colour
	}
	if t >= m.Stops[n-1].Pos {
		return m.Stops[n-1].Colour
	}
	i := sort.Search(n, func(i int) bool { return m.Stops[i].Pos >= t })
	a, b := m.Stops[i-1], m.Stops[i]
	f := (t - a.Pos) / (b.Pos - a.Pos)
	return blend(a.Colour, b.Colour, f)
}

func blend(a, b geom.Colour, f float64) geom.Colour {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	r, g, bl := ca.BlendRgb(cb, f).Clamped().RGB255()
	alpha := float64(a.A) + (float64(b.A)-float64(a.A))*f
	return geom.Colour{R: r, G: g, B: bl, A: uint8(math.Round(alpha))}
}

// Parse builds a map from a whitespace separated list of colours. Entries
// may carry an explicit position as "pos=colour"; entries without one are
// spaced evenly.
func Parse(name, spec string) (*Map, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return nil, fmt.Errorf("colour map %q: no colours", name)
	}
	m := &Map{Name: name}
	explicit := false
	for i, f := range fields {
		pos := 0.0
		if len(fields) > 1 {
			pos = float64(i) / float64(len(fields)-1)
		}
		if k := strings.IndexByte(f, '='); k > 0 {
			p, err := strconv.ParseFloat(f[:k], 64)
			if err != nil {
				return nil, fmt.Errorf("colour map %q: position %q: %w", name, f[:k], err)
			}
			pos, f, explicit = p, f[k+1:], true
		}
		c, err := ParseColour(f)
		if err != nil {
			return nil, fmt.Errorf("colour map %q: %w", name, err)
		}
		m.Stops = append(m.Stops, Stop{Pos: pos, Colour: c})
	}
	if explicit {
		sort.SliceStable(m.Stops, func(i, j int) bool { return m.Stops[i].Pos < m.Stops[j].Pos })
	}
	return m, nil
}

var named = map[string]geom.Colour{
	"white":   geom.White,
	"black":   geom.Black,
	"red":     {R: 255, G: 0, B: 0, A: 255},
	"green":   {R: 0, G: 255, B: 0, A: 255},
	"blue":    {R: 0, G: 0, B: 255, A: 255},
	"yellow":  {R: 255, G: 255, B: 0, A: 255},
	"cyan":    {R: 0, G: 255, B: 255, A: 255},
	"magenta": {R: 255, G: 0, B: 255, A: 255},
	"orange":  {R: 255, G: 165, B: 0, A: 255},
	"grey":    {R: 128, G: 128, B: 128, A: 255},
	"gray":    {R: 128, G: 128, B: 128, A: 255},
}

// ParseColour accepts colour names, #rgb, #rrggbb and #rrggbbaa.
func ParseColour(s string) (geom.Colour, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return geom.Colour{}, fmt.Errorf("%w: %q", ErrBadColour, s)
		}
		alpha, s = uint8(a), s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return geom.Colour{}, fmt.Errorf("%w: %q", ErrBadColour, s)
	}
	r, g, b := c.RGB255()
	return geom.Colour{R: r, G: g, B: b, A: alpha}, nil
}

func mustParse(name, spec string) *Map {
	m, err := Parse(name, spec)
	if err != nil {
		panic(err)
	}
	return m
}

var builtin = map[string]string{
	"viridis":   "#440154 #3b528b #21918c #5ec962 #fde725",
	"cool":      "#00ffff #ff00ff",
	"hot":       "#000000 #ff0000 #ffff00 #ffffff",
	"greyscale": "#000000 #ffffff",
	"diverge":   "#3b4cc0 #dddddd #b40426",
}

// Named returns a fresh copy of a built-in map.
func Named(name string) (*Map, bool) {
	spec, ok := builtin[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return mustParse(strings.ToLower(name), spec), true
}

// Names lists the built-in maps in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
