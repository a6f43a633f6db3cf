// Package geometry holds the per-frame output of tracer synthesis: three
// append-only containers of points, line segments and triangles grouped
// into per-object blocks. Insertion order is draw order.
package geometry

import "github.com/san-kum/dyntrace/internal/geom"

// Kind identifies a container's primitive type.
type Kind int

const (
	Points Kind = iota
	Lines
	Triangles
)

func (k Kind) String() string {
	switch k {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case Triangles:
		return "triangles"
	}
	return "unknown"
}

// Block is one object's geometry in one container. Lines are stored as
// vertex pairs; triangles as a vertex list plus an index list.
type Block struct {
	Owner     uint32
	Name      string
	Vertices  []geom.Vec3
	Colours   []geom.Colour
	Normals   []geom.Vec3
	TexCoords [][2]float32
	Indices   []uint32
}

func (b *Block) Vertex(v geom.Vec3)   { b.Vertices = append(b.Vertices, v) }
func (b *Block) Colour(c geom.Colour) { b.Colours = append(b.Colours, c) }
func (b *Block) Normal(n geom.Vec3)   { b.Normals = append(b.Normals, n) }
func (b *Block) TexCoord(u, v float32) {
	b.TexCoords = append(b.TexCoords, [2]float32{u, v})
}
func (b *Block) Index(idx ...uint32) { b.Indices = append(b.Indices, idx...) }

// Count is the number of vertices in the block.
func (b *Block) Count() int { return len(b.Vertices) }

// Container is an ordered list of blocks of one primitive kind.
type Container struct {
	Kind   Kind
	blocks []*Block
}

func NewContainer(k Kind) *Container { return &Container{Kind: k} }

// Add opens a new block for an owner and returns it.
func (c *Container) Add(owner uint32, name string) *Block {
	b := &Block{Owner: owner, Name: name}
	c.blocks = append(c.blocks, b)
	return b
}

// Current returns the most recent block for owner, nil if there is none.
func (c *Container) Current(owner uint32) *Block {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		if c.blocks[i].Owner == owner {
			return c.blocks[i]
		}
	}
	return nil
}

// VertexIndex is the running vertex count of owner's current block.
func (c *Container) VertexIndex(owner uint32) int {
	if b := c.Current(owner); b != nil {
		return b.Count()
	}
	return 0
}

func (c *Container) Blocks() []*Block { return c.blocks }

func (c *Container) Clear() { c.blocks = c.blocks[:0] }

// Vertices is the total vertex count over all blocks.
func (c *Container) Vertices() int {
	n := 0
	for _, b := range c.blocks {
		n += b.Count()
	}
	return n
}

// Primitives counts points, segments or triangles depending on Kind.
func (c *Container) Primitives() int {
	switch c.Kind {
	case Lines:
		return c.Vertices() / 2
	case Triangles:
		n := 0
		for _, b := range c.blocks {
			n += len(b.Indices) / 3
		}
		return n
	}
	return c.Vertices()
}

// Sink is the full output of one synthesis pass.
type Sink struct {
	Points    *Container
	Lines     *Container
	Triangles *Container
}

func NewSink() *Sink {
	return &Sink{
		Points:    NewContainer(Points),
		Lines:     NewContainer(Lines),
		Triangles: NewContainer(Triangles),
	}
}

// Clear empties every container. Synthesis calls it before repopulating.
func (s *Sink) Clear() {
	s.Points.Clear()
	s.Lines.Clear()
	s.Triangles.Clear()
}

// Containers returns the containers in draw order.
func (s *Sink) Containers() []*Container {
	return []*Container{s.Points, s.Lines, s.Triangles}
}

// Bounds covers every vertex in the sink.
func (s *Sink) Bounds() geom.Bounds {
	b := geom.EmptyBounds()
	for _, c := range s.Containers() {
		for _, blk := range c.blocks {
			for _, v := range blk.Vertices {
				b.Extend(v)
			}
		}
	}
	return b
}
