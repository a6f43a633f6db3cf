package tracer_test

import (
	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/record"
	"github.com/san-kum/dyntrace/internal/scene"
)

// line places particle p of object o at (step, p, o).
func line(o, step, p int) geom.Vec3 {
	return geom.V(float32(step), float32(p), float32(o))
}

// buildStore interleaves steps x objects records, each with particles slots.
func buildStore(objs []*scene.Object, steps, particles int, pos func(o, step, p int) geom.Vec3) *record.Store {
	st := record.NewStore()
	for step := 0; step < steps; step++ {
		for o, obj := range objs {
			rec := &record.Record{Step: step, Owner: obj, Positions: make([]geom.Vec3, particles)}
			for p := 0; p < particles; p++ {
				rec.Positions[p] = pos(o, step, p)
			}
			st.Append(rec)
		}
	}
	return st
}

func newObject(alloc *scene.Allocator, name string, props map[string]any) *scene.Object {
	return scene.NewObject(alloc, 0, name, props)
}
