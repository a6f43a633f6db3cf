package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/tracer"
)

type ExportObject struct {
	ID           uint32 `json:"id"`
	Name         string `json:"name"`
	Particles    int    `json:"particles"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Colour       string `json:"colour_mode"`
	Points       int    `json:"points"`
	Segments     int    `json:"segments"`
	Dropped      int    `json:"dropped,omitempty"`
	TubeVertices int    `json:"tube_vertices"`
	Skipped      int    `json:"skipped,omitempty"`
	Hidden       bool   `json:"hidden,omitempty"`
}

type ExportBlock struct {
	Owner    uint32       `json:"owner"`
	Name     string       `json:"name"`
	Vertices [][3]float32 `json:"vertices"`
	// Colours are #rrggbbaa strings, one per vertex.
	Colours []string `json:"colours"`
	Indices []uint32 `json:"indices,omitempty"`
}

type ExportData struct {
	Dataset     string                   `json:"dataset"`
	Now         int                      `json:"now"`
	Stride      int                      `json:"stride"`
	Datasteps   int                      `json:"datasteps"`
	Objects     []ExportObject           `json:"objects"`
	Geometry    map[string][]ExportBlock `json:"geometry"`
	Diagnostics []string                 `json:"diagnostics,omitempty"`
}

// NewExportData collects a synthesis report and its sink into a
// serialisable document.
func NewExportData(dataset string, rep *tracer.Report, sink *geometry.Sink) *ExportData {
	data := &ExportData{Dataset: dataset, Geometry: make(map[string][]ExportBlock)}
	if rep != nil {
		data.Now, data.Stride, data.Datasteps = rep.Now, rep.Stride, rep.Datasteps
		for _, o := range rep.Objects {
			data.Objects = append(data.Objects, ExportObject{
				ID:           o.ID,
				Name:         o.Name,
				Particles:    o.Particles,
				Start:        o.Window.Start,
				End:          o.Window.End,
				Colour:       o.Mode.String(),
				Points:       o.Points,
				Segments:     o.Segments,
				Dropped:      o.Dropped,
				TubeVertices: o.TubeVertices,
				Skipped:      o.Skipped,
				Hidden:       o.Hidden,
			})
		}
		for _, d := range rep.Diagnostics {
			data.Diagnostics = append(data.Diagnostics, d.Error())
		}
	}
	if sink == nil {
		return data
	}
	for _, c := range sink.Containers() {
		var blocks []ExportBlock
		for _, b := range c.Blocks() {
			if b.Count() == 0 {
				continue
			}
			eb := ExportBlock{Owner: b.Owner, Name: b.Name, Indices: b.Indices}
			for _, v := range b.Vertices {
				eb.Vertices = append(eb.Vertices, [3]float32{v.X, v.Y, v.Z})
			}
			for _, col := range b.Colours {
				eb.Colours = append(eb.Colours, fmt.Sprintf("%s%02x", col.Hex(), col.A))
			}
			blocks = append(blocks, eb)
		}
		if len(blocks) > 0 {
			data.Geometry[c.Kind.String()] = blocks
		}
	}
	return data
}

// Encode writes data as indented JSON.
func (d *ExportData) Encode(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(d)
}

// ExportJSON writes data to path, or to stdout when path is "-".
func ExportJSON(path string, data *ExportData) error {
	if path == "-" {
		return data.Encode(os.Stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer file.Close()
	return data.Encode(file)
}
