// Package scene holds the drawing objects tracer records belong to: their
// identity, property map, colour map and particle filters.
package scene

import (
	"sync"

	"github.com/san-kum/dyntrace/internal/colour"
	"github.com/san-kum/dyntrace/internal/geom"
)

// Allocator hands out object ids. One allocator belongs to a session; ids
// are unique within it and never reused.
type Allocator struct {
	mu   sync.Mutex
	last uint32
}

func NewAllocator() *Allocator { return &Allocator{} }

// Assign returns id unchanged when it is non-zero, otherwise the next free
// id. Either way later automatic ids continue after the returned one.
func (a *Allocator) Assign(id uint32) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id == 0 {
		id = a.last + 1
	}
	a.last = id
	return id
}

// Last returns the most recently assigned id.
func (a *Allocator) Last() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Filter reports whether a particle should be excluded from rendering at
// one record. values are the record's named scalar arrays, read at slot.
type Filter func(particle, slot int, values map[string][]float32) bool

// Object is a drawable entity owning a group of tracer records.
type Object struct {
	ID        uint32
	Name      string
	Props     *Properties
	ColourMap *colour.Map
	Filters   []Filter
}

// NewObject creates an object with an id from alloc. The colour and opacity
// properties are seeded when absent so later edits go through Props.
func NewObject(alloc *Allocator, id uint32, name string, props map[string]any) *Object {
	o := &Object{
		ID:    alloc.Assign(id),
		Name:  name,
		Props: NewProperties(props),
	}
	if !o.Props.Has("opacity") {
		o.Props.Set("opacity", 1.0)
	}
	if !o.Props.Has("colour") {
		o.Props.Set("colour", "#ffffff")
	}
	return o
}

// Visible reports whether the object is drawable at all.
func (o *Object) Visible() bool { return o.Props.Bool("visible", true) }

// Filtered reports whether any filter excludes the particle.
func (o *Object) Filtered(particle, slot int, values map[string][]float32) bool {
	for _, f := range o.Filters {
		if f(particle, slot, values) {
			return true
		}
	}
	return false
}

// BaseColour is the object's fixed colour property scaled by its opacity.
func (o *Object) BaseColour() geom.Colour {
	c, err := colour.ParseColour(o.Props.String("colour", "#ffffff"))
	if err != nil {
		c = geom.White
	}
	op := o.Props.Float("opacity", 1)
	if op < 0 {
		op = 0
	} else if op > 1 {
		op = 1
	}
	c.A = uint8(float64(c.A)*op + 0.5)
	return c
}

// RangeFilter excludes particles whose named value lies outside [lo, hi].
// Particles with no value for the slot are kept.
func RangeFilter(name string, lo, hi float32) Filter {
	return func(_, slot int, values map[string][]float32) bool {
		vals := values[name]
		if slot < 0 || slot >= len(vals) {
			return false
		}
		v := vals[slot]
		return v < lo || v > hi
	}
}

// ParticleFilter excludes every particle id not in keep.
func ParticleFilter(keep ...int) Filter {
	set := make(map[int]struct{}, len(keep))
	for _, p := range keep {
		set[p] = struct{}{}
	}
	return func(particle, _ int, _ map[string][]float32) bool {
		_, ok := set[particle]
		return !ok
	}
}
