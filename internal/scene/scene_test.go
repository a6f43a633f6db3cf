package scene

import (
	"sync"
	"testing"

	"github.com/san-kum/dyntrace/internal/geom"
)

func TestAllocator(t *testing.T) {
	a := NewAllocator()
	if id := a.Assign(0); id != 1 {
		t.Errorf("first id %d", id)
	}
	if id := a.Assign(10); id != 10 {
		t.Errorf("explicit id %d", id)
	}
	if id := a.Assign(0); id != 11 {
		t.Errorf("id after explicit %d", id)
	}

	b := NewAllocator()
	if id := b.Assign(0); id != 1 {
		t.Errorf("allocators share state: %d", id)
	}
}

func TestAllocatorConcurrent(t *testing.T) {
	a := NewAllocator()
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := a.Assign(0)
				if _, dup := seen.LoadOrStore(id, true); dup {
					t.Errorf("duplicate id %d", id)
				}
			}
		}()
	}
	wg.Wait()
	if a.Last() != 800 {
		t.Errorf("last id %d", a.Last())
	}
}

func TestProperties(t *testing.T) {
	p := NewProperties(map[string]any{"Steps": 5, "taper": "true", "limit": "0.5", "fade": 1})
	if p.Int("steps", 0) != 5 {
		t.Error("keys should be case insensitive")
	}
	if !p.Bool("taper", false) || !p.Bool("fade", false) {
		t.Error("bool coercion")
	}
	if p.Float("limit", 0) != 0.5 {
		t.Error("float from string")
	}
	if p.Float("missing", 2) != 2 {
		t.Error("default")
	}
	if p.String("steps", "") != "5" {
		t.Error("string formatting")
	}

	c := p.Clone()
	c.Set("steps", 9)
	if p.Int("steps", 0) != 5 {
		t.Error("clone shares storage")
	}
	p.Delete("STEPS")
	if p.Has("steps") {
		t.Error("delete")
	}
}

func TestNewObjectSeedsColour(t *testing.T) {
	o := NewObject(NewAllocator(), 0, "swarm", nil)
	if !o.Props.Has("colour") || !o.Props.Has("opacity") {
		t.Fatal("colour properties not seeded")
	}
	if o.BaseColour() != geom.White {
		t.Errorf("base colour %+v", o.BaseColour())
	}
	if !o.Visible() {
		t.Error("objects are visible by default")
	}

	o = NewObject(NewAllocator(), 3, "dim", map[string]any{"colour": "red", "opacity": 0.5})
	if o.ID != 3 {
		t.Errorf("id %d", o.ID)
	}
	if got := o.BaseColour(); got != (geom.Colour{R: 255, A: 128}) {
		t.Errorf("base colour %+v", got)
	}
}

func TestFilters(t *testing.T) {
	o := NewObject(NewAllocator(), 0, "swarm", nil)
	o.Filters = []Filter{RangeFilter("speed", 0, 1), ParticleFilter(0, 2)}
	vals := map[string][]float32{"speed": {0.5, 0.5, 3}}

	if o.Filtered(0, 0, vals) {
		t.Error("particle 0 should pass")
	}
	if !o.Filtered(1, 1, vals) {
		t.Error("particle 1 not kept by id filter")
	}
	if !o.Filtered(2, 2, vals) {
		t.Error("particle 2 out of value range")
	}
	if o.Filtered(0, 7, vals) {
		t.Error("missing value should not filter")
	}
}
