// Package tracer converts interleaved particle records into drawable
// trajectory geometry: points, line segments or tapered tubes with
// arrowheads, coloured by time or by per-particle value.
//
// # Record layout
//
// The store holds one record per object per timestep, all objects of a step
// stored contiguously before the next step begins:
//
//	[obj0 step0, obj1 step0, obj0 step1, obj1 step1, ...]
//
// The number of objects per step (the stride) is discovered from the data.
//
// # Thread Safety
//
// A Synthesizer runs one pass at a time. The store must not be appended to
// while [Synthesizer.Update] runs; [session.Session] serialises the two.
package tracer

import (
	"errors"
	"log/slog"

	"github.com/san-kum/dyntrace/internal/colour"
	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/mesh"
	"github.com/san-kum/dyntrace/internal/record"
	"github.com/san-kum/dyntrace/internal/scene"
	"github.com/san-kum/dyntrace/internal/window"
)

// Playback is the global timeline state.
type Playback struct {
	// Now is the current stored step index.
	Now int
	// Gap is the number of simulation steps between stored steps.
	Gap int
	// Times holds the sampled time of each stored step.
	Times []float64
}

// Time returns the sampled time of a stored step, the step index itself
// when no time was recorded for it.
func (p Playback) Time(step int) float64 {
	if step >= 0 && step < len(p.Times) {
		return p.Times[step]
	}
	return float64(step)
}

// View carries the display settings synthesis depends on.
type View struct {
	// Scale is the per-axis display scale. Tubes are built in scaled space.
	Scale geom.Vec3
	// ModelSize is the diagonal of the model bounding box; the default
	// segment distance limit is 30% of it.
	ModelSize float32
}

// Options are an object's tracer properties after defaults.
type Options struct {
	Steps        int
	Taper        bool
	Fade         bool
	Quality      int
	Scaling      float32
	ScaleTracers float32
	Limit        float32
	Arrowhead    float32
	Flat         bool
	Connect      bool
}

// ReadOptions reads tracer properties with their defaults.
func ReadOptions(p *scene.Properties, view View) Options {
	o := Options{
		Steps:        p.Int("steps", 0),
		Taper:        p.Bool("taper", false),
		Fade:         p.Bool("fade", false),
		Quality:      4 * p.Int("glyphs", 0),
		Scaling:      float32(p.Float("scaling", 1)),
		ScaleTracers: float32(p.Float("scaletracers", 1)),
		Limit:        float32(p.Float("limit", float64(view.ModelSize)*0.3)),
		Arrowhead:    float32(p.Float("arrowhead", 2)),
		Connect:      p.Bool("connect", true),
	}
	o.Flat = p.Bool("flat", false) || o.Quality < 1
	return o
}

// ObjectReport describes what one object contributed to a pass.
type ObjectReport struct {
	ID        uint32
	Name      string
	Particles int
	Window    window.Window
	Mode      colour.Mode
	Options   Options
	Points    int
	Segments  int
	// Dropped counts flat segments removed by the distance limit.
	Dropped      int
	TubeVertices int
	Skipped      int
	Hidden       bool
}

// Report summarises one synthesis pass.
type Report struct {
	Stride      int
	Datasteps   int
	Now         int
	Objects     []ObjectReport
	Diagnostics []error
	// Suppressed counts diagnostics beyond the kept maximum.
	Suppressed int
}

func (r *Report) diag(d *Diagnostic) {
	if len(r.Diagnostics) >= maxDiagnostics {
		r.Suppressed++
		return
	}
	r.Diagnostics = append(r.Diagnostics, d)
}

// Synthesizer turns a record store into geometry.
type Synthesizer struct {
	slots *record.Resolver
}

func New() *Synthesizer {
	return &Synthesizer{slots: record.NewResolver()}
}

// trail is the state carried from one step of a particle's walk to the
// next. It is reset for every particle.
type trail struct {
	pos    geom.Vec3
	colour geom.Colour
	radius float32
	valid  bool
}

// Update clears sink and fills it from the records in store. It never
// fails: defects are reported in the returned Report and logged.
func (s *Synthesizer) Update(store *record.Store, pb Playback, view View, sink *geometry.Sink) *Report {
	sink.Clear()
	s.slots.Reset()
	rep := &Report{}
	log := Logger()

	recs := store.Records()
	if len(recs) == 0 {
		return rep
	}

	stride, datasteps, err := record.Stride(recs)
	if err != nil {
		rep.diag(&Diagnostic{Particle: -1, Step: -1, Wrapped: err})
		log.Warn("tracer stride", "err", err)
	}
	rep.Stride, rep.Datasteps = stride, datasteps
	log.Debug("tracer records", "records", len(recs), "elements", stride, "datasteps", datasteps)

	now := pb.Now
	if now >= datasteps || now < 0 {
		rep.diag(&Diagnostic{Particle: -1, Step: now, Wrapped: record.ErrStepOutOfRange})
		log.Warn("tracer playback step clamped", "now", now, "datasteps", datasteps)
		now = min(max(now, 0), datasteps-1)
	}
	rep.Now = now
	planner := window.Planner{Now: now, Gap: max(pb.Gap, 1), Datasteps: datasteps}

	for i := 0; i < stride; i++ {
		obj := recs[i].Owner
		if obj == nil {
			rep.diag(&Diagnostic{Particle: -1, Step: -1, Wrapped: errors.New("tracer: record has no owning object")})
			continue
		}
		or := s.object(recs, i, stride, obj, planner, pb, view, sink, rep)
		rep.Objects = append(rep.Objects, or)
	}
	return rep
}

func (s *Synthesizer) object(recs []*record.Record, i, stride int, obj *scene.Object, planner window.Planner, pb Playback, view View, sink *geometry.Sink, rep *Report) ObjectReport {
	log := Logger()
	tris := sink.Triangles.Add(obj.ID, obj.Name)
	lines := sink.Lines.Add(obj.ID, obj.Name)
	points := sink.Points.Add(obj.ID, obj.Name)

	first := recs[i]
	or := ObjectReport{ID: obj.ID, Name: obj.Name, Particles: first.Width()}
	if or.Particles == 0 {
		log.Warn("no particles to trace", "object", obj.Name)
		return or
	}
	if !obj.Visible() {
		or.Hidden = true
		return or
	}

	opt := ReadOptions(obj.Props, view)
	win := planner.Plan(opt.Steps)
	or.Window, or.Options = win, opt
	log.Debug("tracing", "object", obj.Name, "particles", or.Particles,
		"start", win.Start, "end", win.End, "timesteps", win.Timesteps, "range", win.Range)

	mode := colour.SelectMode(obj.ColourMap, first.HasColourData())
	or.Mode = mode
	opacity := obj.Props.Float("opacity", 1)
	cr := colour.NewResolver(mode, obj.ColourMap, obj.BaseColour(), opacity)
	cr.CalibrateTime(pb.Time(win.Start), pb.Time(win.End))

	tp := newTaper(opt, planner.Gap)

	empty := make([]bool, win.Len())
	for step := win.Start; step <= win.End; step++ {
		if recs[i+step*stride].Width() == 0 {
			empty[step-win.Start] = true
			rep.diag(&Diagnostic{Object: obj.Name, Particle: -1, Step: step, Wrapped: record.ErrEmptyRecord})
		}
	}

	for p := 0; p < or.Particles; p++ {
		var prev trail
		tp.reset()
		for step := win.Start; step <= win.End; step++ {
			size := tp.next(step, win.Start)
			if empty[step-win.Start] {
				continue
			}
			rec := recs[i+step*stride]

			slot, ok := s.slots.Slot(rec, p)
			if !ok {
				or.Skipped++
				rep.diag(&Diagnostic{Object: obj.Name, Particle: p, Step: step, Wrapped: record.ErrParticleNotFound})
				continue
			}
			if obj.Filtered(p, slot, rec.Values) {
				continue
			}
			pos := rec.Positions[slot]

			if mode == colour.ModeValue {
				cr.Init(rec.Series(record.ColourValues), rec.Series(record.OpacityValues))
			}
			c := cr.At(slot, pb.Time(step))
			if opt.Fade {
				c = colour.Fade(c, step, win.Start, win.End)
			}
			cur := trail{pos: pos, colour: c, radius: opt.ScaleTracers * size, valid: true}

			switch {
			case !opt.Connect:
				points.Vertex(cur.pos)
				points.Colour(cur.colour)
				or.Points++
			case !prev.valid:
			case opt.Flat:
				if opt.Limit == 0 || cur.pos.Distance(prev.pos) <= opt.Limit {
					lines.Vertex(prev.pos)
					lines.Vertex(cur.pos)
					lines.Colour(prev.colour)
					lines.Colour(cur.colour)
					or.Segments++
				} else {
					or.Dropped++
				}
			default:
				or.TubeVertices += s.tube(tris, prev, cur, step == win.End, opt, view)
			}
			prev = cur
		}
	}

	if or.Skipped > 0 {
		log.Warn("particles missing from index map", "object", obj.Name, "lookups", or.Skipped)
	}
	if opt.Taper {
		log.Debug("tapered tracers", "object", obj.Name, "from", tp.size0, "to", tp.size, "step", tp.factor)
	}
	return or
}

// tube draws one tube segment and colours it: base ring vertices take the
// previous colour, tip ring and arrowhead vertices the current one.
func (s *Synthesizer) tube(dst *geometry.Block, prev, cur trail, head bool, opt Options, view View) int {
	arrow := float32(0)
	if head {
		arrow = opt.Arrowhead
	}
	n := mesh.Trajectory(dst, prev.pos, cur.pos, prev.radius, cur.radius, arrow, view.Scale, opt.Limit, opt.Quality)
	lastBase := mesh.ShaftVertices(opt.Quality) - 2
	for c := 0; c < n; c++ {
		if c%2 == 1 || c > lastBase {
			dst.Colour(cur.colour)
		} else {
			dst.Colour(prev.colour)
		}
	}
	return n
}

// LogReport writes a one-line summary per object at debug level.
func LogReport(rep *Report) {
	log := Logger()
	for _, o := range rep.Objects {
		log.Debug("tracer object", slog.String("object", o.Name), slog.Int("points", o.Points),
			slog.Int("segments", o.Segments), slog.Int("tube_vertices", o.TubeVertices),
			slog.String("colour", o.Mode.String()))
	}
}
