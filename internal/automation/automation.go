// Package automation runs scripted playback over a session: sequences of
// seeks and property changes with per-frame exports, and sweeps of one
// tracer property.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dyntrace/internal/export"
	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/session"
	"github.com/san-kum/dyntrace/internal/tracer"
	"github.com/san-kum/dyntrace/internal/viz"
)

var ErrBadScript = errors.New("automation: bad script")

// Script is a scripted playback sequence.
type Script struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Frames      []Frame `yaml:"frames"`
}

// Frame is one scripted step. Step seeks to an absolute playback step;
// otherwise Advance moves relative to the current one. Repeat runs the
// frame that many times. SVG and JSON paths may contain {step} and
// {frame}, replaced per output.
type Frame struct {
	Step    *int           `yaml:"step"`
	Advance int            `yaml:"advance"`
	Repeat  int            `yaml:"repeat"`
	Object  string         `yaml:"object"`
	Set     map[string]any `yaml:"set"`
	RotateX float64        `yaml:"rotate_x"`
	RotateY float64        `yaml:"rotate_y"`
	SVG     string         `yaml:"svg"`
	JSON    string         `yaml:"json"`
}

// FrameResult records what one executed frame produced.
type FrameResult struct {
	Frame       int
	Step        int
	Points      int
	Segments    int
	Triangles   int
	Diagnostics int
	Files       []string
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadScript, err)
	}
	if len(script.Frames) == 0 {
		return nil, fmt.Errorf("%w: %s has no frames", ErrBadScript, path)
	}

	return &script, nil
}

// RunScript executes every frame against sess. Relative output paths are
// resolved against outDir.
func RunScript(ctx context.Context, sess *session.Session, script *Script, outDir string) ([]FrameResult, error) {
	log := tracer.Logger()
	cam := viz.NewCamera()
	cam.Fit(sess.Bounds())
	sink := geometry.NewSink()

	var results []FrameResult
	n := 0
	for i, f := range script.Frames {
		for k := range f.Set {
			sess.SetProperty(f.Object, k, f.Set[k])
		}
		for r := 0; r < max(f.Repeat, 1); r++ {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			var step int
			if f.Step != nil && r == 0 {
				step = sess.Seek(*f.Step)
			} else {
				step = sess.Advance(f.Advance)
			}
			cam.RotateX(f.RotateX)
			cam.RotateY(f.RotateY)

			rep := sess.Update(sink)
			st := sink.Stats()
			res := FrameResult{
				Frame:       n,
				Step:        step,
				Points:      st.Points,
				Segments:    st.Segments,
				Triangles:   st.Triangles,
				Diagnostics: len(rep.Diagnostics) + rep.Suppressed,
			}

			if f.SVG != "" {
				path := outputPath(outDir, f.SVG, n, step)
				if err := export.WriteSVG(path, nil, sink, cam, export.DefaultSVGOptions()); err != nil {
					return results, fmt.Errorf("frame %d: %w", i+1, err)
				}
				res.Files = append(res.Files, path)
			}
			if f.JSON != "" {
				path := outputPath(outDir, f.JSON, n, step)
				if err := export.ExportJSON(path, export.NewExportData(sess.ID(), rep, sink)); err != nil {
					return results, fmt.Errorf("frame %d: %w", i+1, err)
				}
				res.Files = append(res.Files, path)
			}

			log.Info("script frame", "script", script.Name, "frame", n, "step", step,
				"segments", res.Segments, "triangles", res.Triangles)
			results = append(results, res)
			n++
		}
	}

	return results, nil
}

func outputPath(dir, pattern string, frame, step int) string {
	p := strings.NewReplacer("{frame}", fmt.Sprintf("%04d", frame), "{step}", strconv.Itoa(step)).Replace(pattern)
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}

// PropertySweep steps one tracer property across a range of values.
type PropertySweep struct {
	Object   string
	Property string
	Min      float64
	Max      float64
	NumSteps int
	// Integer rounds every value, for properties such as steps or glyphs.
	Integer bool
}

// SweepResult holds one sweep point summed over the swept objects.
type SweepResult struct {
	Value        float64
	Points       int
	Segments     int
	Dropped      int
	TubeVertices int
}

// RunSweep runs one synthesis pass per sweep value. The property is left at
// the last value.
func RunSweep(ctx context.Context, sess *session.Session, sweep *PropertySweep) ([]SweepResult, error) {
	if sweep.Property == "" || sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs a property and at least one step", ErrBadScript)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	sink := geometry.NewSink()

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		val := sweep.Min + float64(i)*paramStep
		if sweep.Integer {
			sess.SetProperty(sweep.Object, sweep.Property, int(math.Round(val)))
		} else {
			sess.SetProperty(sweep.Object, sweep.Property, val)
		}

		rep := sess.Update(sink)
		res := SweepResult{Value: val}
		for _, o := range rep.Objects {
			if sweep.Object != "" && o.Name != sweep.Object {
				continue
			}
			res.Points += o.Points
			res.Segments += o.Segments
			res.Dropped += o.Dropped
			res.TubeVertices += o.TubeVertices
		}
		results = append(results, res)
	}

	return results, nil
}
