package geometry

import "sort"

// ObjectStats counts one object's emitted primitives.
type ObjectStats struct {
	Owner          uint32
	Name           string
	Points         int
	Segments       int
	TubeVertices   int
	TubeTriangles  int
	MinAlpha       uint8
	MaxAlpha       uint8
	colourVertices int
}

// Stats summarises a sink per object, ordered by owner id.
type Stats struct {
	Objects   []ObjectStats
	Points    int
	Segments  int
	Triangles int
	Vertices  int
}

func (s *Sink) Stats() Stats {
	byOwner := make(map[uint32]*ObjectStats)
	get := func(b *Block) *ObjectStats {
		os, ok := byOwner[b.Owner]
		if !ok {
			os = &ObjectStats{Owner: b.Owner, Name: b.Name, MinAlpha: 255}
			byOwner[b.Owner] = os
		}
		for _, c := range b.Colours {
			os.MinAlpha = min(os.MinAlpha, c.A)
			os.MaxAlpha = max(os.MaxAlpha, c.A)
			os.colourVertices++
		}
		return os
	}
	for _, b := range s.Points.blocks {
		get(b).Points += b.Count()
	}
	for _, b := range s.Lines.blocks {
		get(b).Segments += b.Count() / 2
	}
	for _, b := range s.Triangles.blocks {
		os := get(b)
		os.TubeVertices += b.Count()
		os.TubeTriangles += len(b.Indices) / 3
	}

	var st Stats
	for _, os := range byOwner {
		if os.colourVertices == 0 {
			os.MinAlpha = 0
		}
		st.Objects = append(st.Objects, *os)
	}
	sort.Slice(st.Objects, func(i, j int) bool { return st.Objects[i].Owner < st.Objects[j].Owner })
	st.Points = s.Points.Primitives()
	st.Segments = s.Lines.Primitives()
	st.Triangles = s.Triangles.Primitives()
	st.Vertices = s.Points.Vertices() + s.Lines.Vertices() + s.Triangles.Vertices()
	return st
}
