package viz

import (
	"sort"

	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/geometry"
)

// minAlpha is the alpha below which primitives are not drawn.
const minAlpha = 8

type projected struct {
	x1, y1, x2, y2 int
	depth          float64
	colour         geom.Colour
}

// RenderSink draws every primitive in sink onto c, far to near.
func RenderSink(c *Canvas, sink *geometry.Sink, cam *Camera) {
	if c == nil || sink == nil || cam == nil {
		return
	}
	w, h := c.SubWidth(), c.SubHeight()
	var prims []projected

	add := func(a, b geom.Vec3, ca, cb geom.Colour) {
		col := ca
		if cb.A > col.A {
			col = cb
		}
		if col.A < minAlpha {
			return
		}
		x1, y1, d1, ok1 := cam.Project(a, w, h)
		x2, y2, d2, ok2 := cam.Project(b, w, h)
		if !ok1 || !ok2 {
			return
		}
		prims = append(prims, projected{x1, y1, x2, y2, (d1 + d2) / 2, col})
	}

	for _, blk := range sink.Points.Blocks() {
		for i, v := range blk.Vertices {
			col := colourAt(blk, i)
			add(v, v, col, col)
		}
	}
	for _, blk := range sink.Lines.Blocks() {
		for i := 0; i+1 < len(blk.Vertices); i += 2 {
			add(blk.Vertices[i], blk.Vertices[i+1], colourAt(blk, i), colourAt(blk, i+1))
		}
	}
	for _, blk := range sink.Triangles.Blocks() {
		for i := 0; i+2 < len(blk.Indices); i += 3 {
			a, b, t := blk.Indices[i], blk.Indices[i+1], blk.Indices[i+2]
			if int(max(a, b, t)) >= len(blk.Vertices) {
				continue
			}
			va, vb, vt := blk.Vertices[a], blk.Vertices[b], blk.Vertices[t]
			add(va, vb, colourAt(blk, int(a)), colourAt(blk, int(b)))
			add(vb, vt, colourAt(blk, int(b)), colourAt(blk, int(t)))
		}
	}

	sort.SliceStable(prims, func(i, j int) bool { return prims[i].depth < prims[j].depth })
	for _, p := range prims {
		if p.x1 == p.x2 && p.y1 == p.y2 {
			c.Set(p.x1, p.y1, p.colour)
		} else {
			c.DrawLine(p.x1, p.y1, p.x2, p.y2, p.colour)
		}
	}
}

func colourAt(b *geometry.Block, i int) geom.Colour {
	if i < len(b.Colours) {
		return b.Colours[i]
	}
	return geom.White
}
