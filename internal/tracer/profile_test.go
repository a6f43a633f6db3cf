package tracer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/scene"
	"github.com/san-kum/dyntrace/internal/tracer"
	"github.com/san-kum/dyntrace/internal/window"
)

var _ = Describe("TraceProfile", func() {
	win := window.Window{Start: 2, End: 6}

	It("keeps a constant radius without taper", func() {
		opt := tracer.Options{Scaling: 10, ScaleTracers: 2}
		p := tracer.TraceProfile(opt, win, 1)
		Expect(p.Start).To(Equal(2))
		Expect(p.Radius).To(HaveLen(5))
		for _, r := range p.Radius {
			Expect(r).To(BeNumerically("~", 0.02, 1e-6))
		}
		Expect(p.Alpha).To(HaveEach(uint8(255)))
	})

	It("grows the radius linearly with taper", func() {
		opt := tracer.Options{Scaling: 10, ScaleTracers: 1, Taper: true}
		p := tracer.TraceProfile(opt, win, 2)
		Expect(p.Radius[0]).To(BeNumerically("~", 0.01, 1e-6))
		for i := 1; i < len(p.Radius); i++ {
			Expect(p.Radius[i] - p.Radius[i-1]).To(BeNumerically("~", 0.01, 1e-6))
		}
	})

	It("ramps alpha from zero to opaque with fade", func() {
		p := tracer.TraceProfile(tracer.Options{Scaling: 1, ScaleTracers: 1, Fade: true}, win, 1)
		Expect(p.Alpha[0]).To(Equal(uint8(0)))
		Expect(p.Alpha[4]).To(Equal(uint8(255)))
		for i := 1; i < len(p.Alpha); i++ {
			Expect(p.Alpha[i]).To(BeNumerically(">", p.Alpha[i-1]))
		}
	})

	It("matches the alpha the synthesizer emits", func() {
		alloc := scene.NewAllocator()
		obj := newObject(alloc, "swarm", map[string]any{"flat": true, "fade": true, "limit": 0})
		st := buildStore([]*scene.Object{obj}, 5, 1, line)
		sink := geometry.NewSink()
		view := tracer.View{Scale: geom.V(1, 1, 1), ModelSize: 10}

		rep := tracer.New().Update(st, tracer.Playback{Now: 4, Gap: 1}, view, sink)
		or := rep.Objects[0]
		p := tracer.TraceProfile(or.Options, or.Window, 1)

		cols := sink.Lines.Blocks()[0].Colours
		for k := 0; k < 4; k++ {
			Expect(cols[2*k+1].A).To(Equal(p.Alpha[k+1]))
		}
	})
})
