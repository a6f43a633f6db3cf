package colour

import (
	"testing"

	"github.com/san-kum/dyntrace/internal/geom"
)

func TestSelectMode(t *testing.T) {
	m := NewMap("bw", geom.Black, geom.White)
	if SelectMode(m, false) != ModeTime {
		t.Error("map without data should colour by time")
	}
	if SelectMode(m, true) != ModeValue {
		t.Error("map with data should colour by value")
	}
	if SelectMode(nil, false) != ModeValue {
		t.Error("no map should use the fixed colour")
	}
	if ModeTime.String() != "time" || ModeValue.String() != "value" {
		t.Error("mode names")
	}
}

func TestResolverTime(t *testing.T) {
	r := NewResolver(ModeTime, NewMap("bw", geom.Black, geom.White), geom.White, 0.5)
	r.CalibrateTime(0, 2)

	if got := r.At(0, 0); got != (geom.Colour{R: 0, G: 0, B: 0, A: 128}) {
		t.Errorf("start: %+v", got)
	}
	if got := r.At(7, 2); got != (geom.Colour{R: 255, G: 255, B: 255, A: 128}) {
		t.Errorf("end: %+v", got)
	}
	if r.At(0, 1) != r.At(3, 1) {
		t.Error("particles differ at the same time")
	}
}

func TestResolverValue(t *testing.T) {
	m := NewMap("bw", geom.Black, geom.White)
	r := NewResolver(ModeValue, m, geom.White, 1)
	vals := []float32{4, 2, 0}
	r.Init(vals, nil)

	if got := r.Value(0); got != geom.White {
		t.Errorf("max value: %+v", got)
	}
	if got := r.Value(2); got != geom.Black {
		t.Errorf("min value: %+v", got)
	}
	if got := r.Value(9); got != geom.White {
		t.Errorf("out of range particle should use base colour: %+v", got)
	}

	r.Init(vals, []float32{0.5, 1, 0})
	if got := r.Value(2); got.A != 0 {
		t.Errorf("opacity series ignored: %+v", got)
	}
	if got := r.Value(0); got.A != 128 {
		t.Errorf("opacity series: %+v", got)
	}

	lo, hi, _ := r.cmap.Range()
	r.Init([]float32{10, 20}, nil)
	lo2, hi2, _ := r.cmap.Range()
	if lo == lo2 || hi == hi2 || lo2 != 10 || hi2 != 20 {
		t.Errorf("new series not calibrated: %v..%v", lo2, hi2)
	}
}

func TestResolverKeepsCallerMap(t *testing.T) {
	m := NewMap("bw", geom.Black, geom.White)
	a := NewResolver(ModeValue, m, geom.White, 1)
	b := NewResolver(ModeTime, m, geom.White, 1)
	a.Init([]float32{0, 1}, nil)
	b.CalibrateTime(0, 100)

	if _, _, ok := m.Range(); ok {
		t.Error("resolver calibrated the shared map")
	}
	if got := a.Value(1); got != geom.White {
		t.Errorf("value resolver lost its range: %+v", got)
	}
	if got := b.At(0, 50); got == geom.White || got == geom.Black {
		t.Errorf("time resolver used the value range: %+v", got)
	}
}

func TestResolverFixed(t *testing.T) {
	base := geom.Colour{R: 10, G: 20, B: 30, A: 200}
	r := NewResolver(ModeValue, nil, base, 1)
	r.Init(nil, nil)
	if got := r.At(3, 99); got != base {
		t.Errorf("got %+v, want %+v", got, base)
	}
}

func TestFade(t *testing.T) {
	c := geom.White
	if got := Fade(c, 0, 0, 4).A; got != 0 {
		t.Errorf("tail alpha %d", got)
	}
	if got := Fade(c, 4, 0, 4).A; got != 255 {
		t.Errorf("head alpha %d", got)
	}
	if got := Fade(c, 3, 3, 3).A; got != 255 {
		t.Errorf("single step alpha %d", got)
	}
	prev := uint8(0)
	for s := 0; s <= 10; s++ {
		a := Fade(c, s, 0, 10).A
		if a < prev {
			t.Fatalf("alpha decreased at step %d", s)
		}
		prev = a
	}
}
