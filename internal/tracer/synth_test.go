package tracer_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dyntrace/internal/colour"
	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/record"
	"github.com/san-kum/dyntrace/internal/scene"
	"github.com/san-kum/dyntrace/internal/tracer"
)

var _ = Describe("Synthesizer", func() {
	var (
		alloc *scene.Allocator
		synth *tracer.Synthesizer
		sink  *geometry.Sink
		view  tracer.View
	)

	BeforeEach(func() {
		alloc = scene.NewAllocator()
		synth = tracer.New()
		sink = geometry.NewSink()
		view = tracer.View{Scale: geom.V(1, 1, 1), ModelSize: 10}
	})

	Context("with no records", func() {
		It("emits nothing", func() {
			rep := synth.Update(record.NewStore(), tracer.Playback{Now: 3, Gap: 1}, view, sink)
			Expect(rep.Objects).To(BeEmpty())
			Expect(rep.Diagnostics).To(BeEmpty())
			Expect(sink.Stats().Vertices).To(Equal(0))
		})
	})

	Context("unconnected points", func() {
		It("emits one point per particle per step", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false})
			st := buildStore([]*scene.Object{obj}, 3, 2, line)

			rep := synth.Update(st, tracer.Playback{Now: 2, Gap: 1}, view, sink)

			Expect(rep.Stride).To(Equal(1))
			Expect(sink.Points.Vertices()).To(Equal(6))
			Expect(sink.Lines.Vertices()).To(Equal(0))
			Expect(sink.Triangles.Vertices()).To(Equal(0))
			Expect(sink.Points.Blocks()[0].Colours).To(HaveLen(6))
		})
	})

	Context("flat lines without a limit", func() {
		It("connects consecutive positions", func() {
			obj := newObject(alloc, "swarm", map[string]any{"flat": true, "limit": 0})
			st := buildStore([]*scene.Object{obj}, 5, 1, line)

			rep := synth.Update(st, tracer.Playback{Now: 4, Gap: 1}, view, sink)

			Expect(sink.Lines.Primitives()).To(Equal(4))
			Expect(sink.Points.Vertices()).To(Equal(0))
			blk := sink.Lines.Blocks()[0]
			Expect(blk.Vertices).To(HaveLen(8))
			Expect(blk.Colours).To(HaveLen(8))
			Expect(blk.Vertices[0]).To(Equal(geom.V(0, 0, 0)))
			Expect(blk.Vertices[1]).To(Equal(geom.V(1, 0, 0)))
			Expect(rep.Objects[0].Segments).To(Equal(4))
		})
	})

	Context("flat lines over the limit", func() {
		It("drops every segment", func() {
			obj := newObject(alloc, "swarm", map[string]any{"flat": true, "limit": 0.5})
			st := buildStore([]*scene.Object{obj}, 5, 1, line)

			rep := synth.Update(st, tracer.Playback{Now: 4, Gap: 1}, view, sink)

			Expect(sink.Lines.Primitives()).To(Equal(0))
			Expect(sink.Points.Vertices()).To(Equal(0))
			Expect(rep.Objects[0].Dropped).To(Equal(4))
		})
	})

	Context("per-object step limit", func() {
		It("keeps the window within the limit and ending now", func() {
			obj := newObject(alloc, "swarm", map[string]any{"steps": 2, "connect": false})
			st := buildStore([]*scene.Object{obj}, 10, 1, line)

			rep := synth.Update(st, tracer.Playback{Now: 9, Gap: 1}, view, sink)

			win := rep.Objects[0].Window
			Expect(win.End).To(Equal(9))
			Expect(win.Len()).To(BeNumerically("<=", 2))
			Expect(sink.Points.Vertices()).To(Equal(win.Len()))
		})
	})

	Context("time colouring", func() {
		It("gives every particle the same colour at a step", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false})
			obj.ColourMap, _ = colour.Named("hot")
			st := buildStore([]*scene.Object{obj}, 3, 2, line)

			rep := synth.Update(st, tracer.Playback{Now: 2, Gap: 1, Times: []float64{0, 0.5, 1}}, view, sink)

			Expect(rep.Objects[0].Mode).To(Equal(colour.ModeTime))
			cols := sink.Points.Blocks()[0].Colours
			for step := 0; step < 3; step++ {
				Expect(cols[step]).To(Equal(cols[3+step]))
			}
			Expect(cols[0]).NotTo(Equal(cols[2]))
		})
	})

	Context("value colouring", func() {
		It("colours each particle by its own value along the whole trail", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false})
			obj.ColourMap = colour.NewMap("bw", geom.Black, geom.White)
			st := record.NewStore()
			for step := 0; step < 3; step++ {
				st.Append(&record.Record{
					Step:      step,
					Owner:     obj,
					Positions: []geom.Vec3{line(0, step, 0), line(0, step, 1)},
					Values:    map[string][]float32{record.ColourValues: {0, 1}},
				})
			}

			rep := synth.Update(st, tracer.Playback{Now: 2, Gap: 1}, view, sink)

			Expect(rep.Objects[0].Mode).To(Equal(colour.ModeValue))
			cols := sink.Points.Blocks()[0].Colours
			Expect(cols[:3]).To(HaveEach(geom.Black))
			Expect(cols[3:]).To(HaveEach(geom.White))
		})

		It("falls back to the object colour without a map", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false, "colour": "#ff0000", "opacity": 0.5})
			st := buildStore([]*scene.Object{obj}, 2, 1, line)

			synth.Update(st, tracer.Playback{Now: 1, Gap: 1}, view, sink)

			Expect(sink.Points.Blocks()[0].Colours).To(HaveEach(geom.Colour{R: 255, A: 128}))
		})
	})

	Context("fade", func() {
		It("raises alpha monotonically from 0 at the tail to 255 at the head", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false, "fade": true})
			st := buildStore([]*scene.Object{obj}, 5, 2, line)

			synth.Update(st, tracer.Playback{Now: 4, Gap: 1}, view, sink)

			cols := sink.Points.Blocks()[0].Colours
			for p := 0; p < 2; p++ {
				trail := cols[p*5 : p*5+5]
				Expect(trail[0].A).To(Equal(uint8(0)))
				Expect(trail[4].A).To(Equal(uint8(255)))
				for k := 1; k < len(trail); k++ {
					Expect(trail[k].A).To(BeNumerically(">=", trail[k-1].A))
				}
			}
		})

		It("is fully opaque for a single step window", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false, "fade": true})
			st := buildStore([]*scene.Object{obj}, 1, 1, line)

			synth.Update(st, tracer.Playback{Now: 0, Gap: 1}, view, sink)

			Expect(sink.Points.Blocks()[0].Colours[0].A).To(Equal(uint8(255)))
		})
	})

	Context("tubes", func() {
		const quality = 4
		shaft := 2 * (quality + 1)

		It("widens tapered tubes monotonically", func() {
			obj := newObject(alloc, "swarm", map[string]any{"glyphs": 1, "taper": true, "arrowhead": 0, "scaling": 100})
			st := buildStore([]*scene.Object{obj}, 6, 1, line)

			rep := synth.Update(st, tracer.Playback{Now: 5, Gap: 1}, view, sink)

			Expect(rep.Objects[0].TubeVertices).To(Equal(5 * shaft))
			verts := sink.Triangles.Blocks()[0].Vertices
			last := float32(0)
			for seg := 0; seg < 5; seg++ {
				base := verts[seg*shaft]
				r0 := base.Distance(line(0, seg, 0))
				tip := verts[seg*shaft+1].Distance(line(0, seg+1, 0))
				Expect(r0).To(BeNumerically(">=", last-1e-6))
				Expect(tip).To(BeNumerically(">=", r0-1e-6))
				last = tip
			}
		})

		It("colours base vertices with the previous colour and tip and head with the current", func() {
			obj := newObject(alloc, "swarm", map[string]any{"glyphs": 1, "fade": true, "arrowhead": 2})
			st := buildStore([]*scene.Object{obj}, 2, 1, line)

			rep := synth.Update(st, tracer.Playback{Now: 1, Gap: 1}, view, sink)

			blk := sink.Triangles.Blocks()[0]
			Expect(rep.Objects[0].TubeVertices).To(Equal(shaft + quality + 3))
			Expect(blk.Colours).To(HaveLen(len(blk.Vertices)))
			for c, col := range blk.Colours {
				if c%2 == 1 || c > 2*quality {
					Expect(col.A).To(Equal(uint8(255)), "vertex %d", c)
				} else {
					Expect(col.A).To(Equal(uint8(0)), "vertex %d", c)
				}
			}
		})

		It("does not apply the distance limit", func() {
			obj := newObject(alloc, "swarm", map[string]any{"glyphs": 1, "limit": 0.1, "arrowhead": 0})
			st := buildStore([]*scene.Object{obj}, 3, 1, line)

			synth.Update(st, tracer.Playback{Now: 2, Gap: 1}, view, sink)

			Expect(sink.Triangles.Vertices()).To(Equal(2 * shaft))
			Expect(sink.Lines.Vertices()).To(Equal(0))
		})

		It("falls back to lines when flat is set", func() {
			obj := newObject(alloc, "swarm", map[string]any{"glyphs": 2, "flat": true, "limit": 0})
			st := buildStore([]*scene.Object{obj}, 3, 1, line)

			synth.Update(st, tracer.Playback{Now: 2, Gap: 1}, view, sink)

			Expect(sink.Triangles.Vertices()).To(Equal(0))
			Expect(sink.Lines.Primitives()).To(Equal(2))
		})
	})

	Context("distance guard", func() {
		It("never emits a flat segment longer than the limit", func() {
			obj := newObject(alloc, "swarm", map[string]any{"flat": true, "limit": 1.5})
			jumpy := func(o, step, p int) geom.Vec3 {
				return geom.V(float32(step*step%7), float32(p), 0)
			}
			st := buildStore([]*scene.Object{obj}, 8, 3, jumpy)

			synth.Update(st, tracer.Playback{Now: 7, Gap: 1}, view, sink)

			v := sink.Lines.Blocks()[0].Vertices
			Expect(len(v) % 2).To(Equal(0))
			for k := 0; k < len(v); k += 2 {
				Expect(v[k].Distance(v[k+1])).To(BeNumerically("<=", 1.5))
			}
		})
	})

	Context("index maps", func() {
		It("follows particles through reordered slots", func() {
			obj := newObject(alloc, "swarm", map[string]any{"flat": true, "limit": 0})
			st := record.NewStore()
			st.Append(&record.Record{Step: 0, Owner: obj, Positions: []geom.Vec3{geom.V(0, 0, 0), geom.V(0, 10, 0)}})
			st.Append(&record.Record{Step: 1, Owner: obj,
				Positions: []geom.Vec3{geom.V(1, 10, 0), geom.V(1, 0, 0)},
				Indices:   []uint32{1, 0},
			})

			synth.Update(st, tracer.Playback{Now: 1, Gap: 1}, view, sink)

			v := sink.Lines.Blocks()[0].Vertices
			Expect(v).To(Equal([]geom.Vec3{
				geom.V(0, 0, 0), geom.V(1, 0, 0),
				geom.V(0, 10, 0), geom.V(1, 10, 0),
			}))
		})

		It("takes value colours from the resolved slot", func() {
			obj := newObject(alloc, "swarm", map[string]any{"flat": true, "limit": 0})
			obj.ColourMap = colour.NewMap("bw", geom.Black, geom.White)
			st := record.NewStore()
			st.Append(&record.Record{Step: 0, Owner: obj,
				Positions: []geom.Vec3{geom.V(0, 0, 0), geom.V(0, 10, 0)},
				Values:    map[string][]float32{record.ColourValues: {0, 1}},
			})
			st.Append(&record.Record{Step: 1, Owner: obj,
				Positions: []geom.Vec3{geom.V(1, 10, 0), geom.V(1, 0, 0)},
				Indices:   []uint32{1, 0},
				Values:    map[string][]float32{record.ColourValues: {1, 0}},
			})

			synth.Update(st, tracer.Playback{Now: 1, Gap: 1}, view, sink)

			blk := sink.Lines.Blocks()[0]
			Expect(blk.Vertices).To(Equal([]geom.Vec3{
				geom.V(0, 0, 0), geom.V(1, 0, 0),
				geom.V(0, 10, 0), geom.V(1, 10, 0),
			}))
			Expect(blk.Colours).To(Equal([]geom.Colour{
				geom.Black, geom.Black,
				geom.White, geom.White,
			}))
		})

		It("skips a particle missing from the map and reports it", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false})
			st := record.NewStore()
			st.Append(&record.Record{Step: 0, Owner: obj, Positions: []geom.Vec3{geom.V(0, 0, 0), geom.V(0, 1, 0)}})
			st.Append(&record.Record{Step: 1, Owner: obj,
				Positions: []geom.Vec3{geom.V(1, 0, 0), geom.V(1, 1, 0)},
				Indices:   []uint32{0, 7},
			})

			rep := synth.Update(st, tracer.Playback{Now: 1, Gap: 1}, view, sink)

			Expect(sink.Points.Vertices()).To(Equal(3))
			Expect(rep.Objects[0].Skipped).To(Equal(1))
			Expect(rep.Diagnostics).To(HaveLen(1))
			Expect(errors.Is(rep.Diagnostics[0], record.ErrParticleNotFound)).To(BeTrue())
			var d *tracer.Diagnostic
			Expect(errors.As(rep.Diagnostics[0], &d)).To(BeTrue())
			Expect(d.Particle).To(Equal(1))
			Expect(d.Step).To(Equal(1))
		})
	})

	Context("empty records", func() {
		It("reports each empty record once and skips it", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false})
			st := record.NewStore()
			st.Append(&record.Record{Step: 0, Owner: obj, Positions: []geom.Vec3{geom.V(0, 0, 0), geom.V(0, 1, 0)}})
			st.Append(&record.Record{Step: 1, Owner: obj})
			st.Append(&record.Record{Step: 2, Owner: obj, Positions: []geom.Vec3{geom.V(2, 0, 0), geom.V(2, 1, 0)}})

			rep := synth.Update(st, tracer.Playback{Now: 2, Gap: 1}, view, sink)

			Expect(sink.Points.Vertices()).To(Equal(4))
			Expect(rep.Objects[0].Skipped).To(Equal(0))
			Expect(rep.Diagnostics).To(HaveLen(1))
			Expect(errors.Is(rep.Diagnostics[0], record.ErrEmptyRecord)).To(BeTrue())
			Expect(errors.Is(rep.Diagnostics[0], record.ErrParticleNotFound)).To(BeFalse())
			var d *tracer.Diagnostic
			Expect(errors.As(rep.Diagnostics[0], &d)).To(BeTrue())
			Expect(d.Step).To(Equal(1))
			Expect(d.Error()).To(ContainSubstring("swarm step 1"))
		})
	})

	Context("interleaved objects", func() {
		It("discovers the stride and keeps per-object blocks", func() {
			a := newObject(alloc, "a", map[string]any{"connect": false})
			b := newObject(alloc, "b", map[string]any{"connect": false})
			st := buildStore([]*scene.Object{a, b}, 4, 2, line)

			rep := synth.Update(st, tracer.Playback{Now: 3, Gap: 1}, view, sink)

			Expect(rep.Stride).To(Equal(2))
			Expect(rep.Datasteps).To(Equal(4))
			Expect(sink.Points.Blocks()).To(HaveLen(2))
			Expect(sink.Points.Blocks()[0].Owner).To(Equal(a.ID))
			Expect(sink.Points.Blocks()[1].Owner).To(Equal(b.ID))
			for _, v := range sink.Points.Blocks()[1].Vertices {
				Expect(v.Z).To(Equal(float32(1)))
			}
		})

		It("reports a record count that does not divide by the stride", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false})
			st := record.NewStore()
			for _, step := range []int{0, 0, 1} {
				st.Append(&record.Record{Step: step, Owner: obj, Positions: []geom.Vec3{{}}})
			}

			rep := synth.Update(st, tracer.Playback{Now: 0, Gap: 1}, view, sink)

			Expect(rep.Stride).To(Equal(2))
			Expect(rep.Datasteps).To(Equal(1))
			Expect(errors.Is(rep.Diagnostics[0], record.ErrStrideMismatch)).To(BeTrue())
		})

		It("skips hidden objects and objects without particles", func() {
			hidden := newObject(alloc, "hidden", map[string]any{"connect": false, "visible": false})
			empty := newObject(alloc, "empty", map[string]any{"connect": false})
			st := record.NewStore()
			st.Append(&record.Record{Step: 0, Owner: hidden, Positions: []geom.Vec3{{}}})
			st.Append(&record.Record{Step: 0, Owner: empty})

			rep := synth.Update(st, tracer.Playback{Now: 0, Gap: 1}, view, sink)

			Expect(rep.Objects).To(HaveLen(2))
			Expect(rep.Objects[0].Hidden).To(BeTrue())
			Expect(rep.Objects[1].Particles).To(Equal(0))
			Expect(sink.Stats().Vertices).To(Equal(0))
			Expect(rep.Diagnostics).To(BeEmpty())
		})
	})

	Context("filters", func() {
		It("silently excludes filtered particles", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false})
			obj.Filters = append(obj.Filters, scene.ParticleFilter(1))
			st := buildStore([]*scene.Object{obj}, 3, 3, line)

			rep := synth.Update(st, tracer.Playback{Now: 2, Gap: 1}, view, sink)

			Expect(sink.Points.Vertices()).To(Equal(3))
			for _, v := range sink.Points.Blocks()[0].Vertices {
				Expect(v.Y).To(Equal(float32(1)))
			}
			Expect(rep.Diagnostics).To(BeEmpty())
		})
	})

	Context("playback", func() {
		It("clamps a step past the stored data", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false})
			st := buildStore([]*scene.Object{obj}, 3, 1, line)

			rep := synth.Update(st, tracer.Playback{Now: 12, Gap: 1}, view, sink)

			Expect(rep.Now).To(Equal(2))
			Expect(errors.Is(rep.Diagnostics[0], record.ErrStepOutOfRange)).To(BeTrue())
			Expect(sink.Points.Vertices()).To(Equal(3))
		})

		It("shortens the window for subsampled data", func() {
			obj := newObject(alloc, "swarm", map[string]any{"connect": false, "steps": 12})
			st := buildStore([]*scene.Object{obj}, 10, 1, line)

			rep := synth.Update(st, tracer.Playback{Now: 9, Gap: 4}, view, sink)

			win := rep.Objects[0].Window
			Expect(win.Range).To(Equal(4))
			Expect(win.Start).To(Equal(6))
		})
	})

	Context("idempotence", func() {
		It("produces identical geometry on repeated passes", func() {
			obj := newObject(alloc, "swarm", map[string]any{"glyphs": 2, "taper": true, "fade": true})
			obj.ColourMap, _ = colour.Named("viridis")
			st := buildStore([]*scene.Object{obj}, 6, 4, line)
			pb := tracer.Playback{Now: 5, Gap: 1, Times: []float64{0, 1, 2, 3, 4, 5}}

			other := geometry.NewSink()
			synth.Update(st, pb, view, sink)
			tracer.New().Update(st, pb, view, other)
			Expect(other.Triangles.Blocks()).To(Equal(sink.Triangles.Blocks()))

			synth.Update(st, pb, view, other)
			Expect(other.Triangles.Blocks()).To(Equal(sink.Triangles.Blocks()))
		})
	})
})
