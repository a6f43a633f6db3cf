package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/san-kum/dyntrace/internal/geom"
	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/viz"
)

// SVGOptions control vector output.
type SVGOptions struct {
	Width, Height int
	Background    string
	// StrokeWidth is used for line segments and tube edges.
	StrokeWidth float64
	// PointRadius is the radius of point glyphs.
	PointRadius float64
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 800, Height: 600, Background: "#0a0a0a", StrokeWidth: 1.5, PointRadius: 2}
}

type svgShape struct {
	depth float64
	text  string
}

// SinkToSVG projects every primitive in sink through cam and returns an SVG
// document. Shapes are ordered far to near and carry their vertex alpha as
// opacity.
func SinkToSVG(sink *geometry.Sink, cam *viz.Camera, opt SVGOptions) string {
	if opt.Width <= 0 || opt.Height <= 0 {
		d := DefaultSVGOptions()
		opt.Width, opt.Height = d.Width, d.Height
	}
	var shapes []svgShape

	if sink != nil && cam != nil {
		for _, blk := range sink.Points.Blocks() {
			for i, v := range blk.Vertices {
				x, y, d, ok := cam.ProjectF(v, opt.Width, opt.Height)
				if !ok {
					continue
				}
				c := colourAt(blk, i)
				shapes = append(shapes, svgShape{d, fmt.Sprintf(
					`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="%.3f"/>`,
					x, y, opt.PointRadius, c.Hex(), c.Opacity())})
			}
		}
		for _, blk := range sink.Lines.Blocks() {
			for i := 0; i+1 < len(blk.Vertices); i += 2 {
				x1, y1, d1, ok1 := cam.ProjectF(blk.Vertices[i], opt.Width, opt.Height)
				x2, y2, d2, ok2 := cam.ProjectF(blk.Vertices[i+1], opt.Width, opt.Height)
				if !ok1 || !ok2 {
					continue
				}
				c := colourAt(blk, i+1)
				shapes = append(shapes, svgShape{(d1 + d2) / 2, fmt.Sprintf(
					`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-opacity="%.3f" stroke-width="%.1f"/>`,
					x1, y1, x2, y2, c.Hex(), c.Opacity(), opt.StrokeWidth)})
			}
		}
		for _, blk := range sink.Triangles.Blocks() {
			for i := 0; i+2 < len(blk.Indices); i += 3 {
				if s, ok := polygon(blk, blk.Indices[i:i+3], cam, opt); ok {
					shapes = append(shapes, s)
				}
			}
		}
	}

	sort.SliceStable(shapes, func(i, j int) bool { return shapes[i].depth < shapes[j].depth })

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opt.Width, opt.Height, opt.Width, opt.Height, opt.Background)
	for _, s := range shapes {
		sb.WriteString(s.text)
		sb.WriteByte('\n')
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

func polygon(blk *geometry.Block, idx []uint32, cam *viz.Camera, opt SVGOptions) (svgShape, bool) {
	var pts []string
	var depth float64
	var alpha uint8
	c := geom.White
	for _, k := range idx {
		if int(k) >= len(blk.Vertices) {
			return svgShape{}, false
		}
		x, y, d, ok := cam.ProjectF(blk.Vertices[k], opt.Width, opt.Height)
		if !ok {
			return svgShape{}, false
		}
		pts = append(pts, fmt.Sprintf("%.1f,%.1f", x, y))
		depth += d / 3
		if vc := colourAt(blk, int(k)); vc.A >= alpha {
			c, alpha = vc, vc.A
		}
	}
	return svgShape{depth, fmt.Sprintf(`<polygon points="%s" fill="%s" fill-opacity="%.3f"/>`,
		strings.Join(pts, " "), c.Hex(), c.Opacity())}, true
}

func colourAt(b *geometry.Block, i int) geom.Colour {
	if i < len(b.Colours) {
		return b.Colours[i]
	}
	return geom.White
}

// WriteSVG writes the SVG for sink to path, or to w when path is "-".
func WriteSVG(path string, w io.Writer, sink *geometry.Sink, cam *viz.Camera, opt SVGOptions) error {
	doc := SinkToSVG(sink, cam, opt)
	if path == "-" {
		_, err := io.WriteString(w, doc)
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("export: write svg: %w", err)
	}
	return nil
}
