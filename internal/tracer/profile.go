package tracer

import (
	"github.com/san-kum/dyntrace/internal/colour"
	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/window"
)

// Profile is the radius and alpha every particle of an object takes at
// each step of its window, oldest first.
type Profile struct {
	Start  int
	Radius []float32
	Alpha  []uint8
}

// taper yields tube sizes along a window. size0 = 0.001*scaling and each
// step after the first grows it by scaling*scaletracers*gap*0.0005.
type taper struct {
	size0, factor, size float32
	on                  bool
}

func newTaper(opt Options, gap int) taper {
	size0 := 0.001 * opt.Scaling
	return taper{
		size0:  size0,
		factor: opt.Scaling * opt.ScaleTracers * float32(gap) * 0.0005,
		size:   size0,
		on:     opt.Taper,
	}
}

func (t *taper) reset() { t.size = t.size0 }

// next returns the size at step.
func (t *taper) next(step, start int) float32 {
	if t.on && step > start {
		t.size += t.factor
	}
	return t.size
}

// TraceProfile computes the per-step tube radius and fade alpha of an
// object's trails for a window.
func TraceProfile(opt Options, win window.Window, gap int) Profile {
	p := Profile{Start: win.Start}
	tp := newTaper(opt, max(gap, 1))
	for step := win.Start; step <= win.End; step++ {
		p.Radius = append(p.Radius, opt.ScaleTracers*tp.next(step, win.Start))
		a := uint8(255)
		if opt.Fade {
			a = colour.Fade(geom.White, step, win.Start, win.End).A
		}
		p.Alpha = append(p.Alpha, a)
	}
	return p
}
