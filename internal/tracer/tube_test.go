package tracer

import (
	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/mesh"
)

var _ = g.Describe("tube colouring", func() {
	prevCol := geom.Colour{R: 255, A: 255}
	curCol := geom.Colour{B: 255, A: 255}

	for _, quality := range []int{1, 2, 3, 4, 8} {
		quality := quality
		g.It("follows the mesh ring layout", func() {
			dst := geometry.NewContainer(geometry.Triangles).Add(1, "swarm")
			prev := trail{pos: geom.V(0, 0, 0), colour: prevCol, radius: 0.1, valid: true}
			cur := trail{pos: geom.V(2, 0, 0), colour: curCol, radius: 0.1, valid: true}
			opt := Options{Quality: quality, Arrowhead: 2}

			n := New().tube(dst, prev, cur, true, opt, View{Scale: geom.V(1, 1, 1)})

			shaft := mesh.ShaftVertices(quality)
			Expect(n).To(Equal(shaft + mesh.HeadVertices(quality)))
			Expect(dst.Colours).To(HaveLen(n))
			for c := 0; c < shaft; c++ {
				want := prevCol
				if c%2 == 1 {
					want = curCol
				}
				Expect(dst.Colours[c]).To(Equal(want), "quality %d vertex %d", quality, c)
			}
			Expect(dst.Colours[shaft:]).To(HaveEach(curCol))
		})
	}
})
