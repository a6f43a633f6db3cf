package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/session"
	"github.com/san-kum/dyntrace/internal/tracer"
	"github.com/san-kum/dyntrace/internal/viz"
)

// summary formats one synthesis pass for the terminal.
func summary(sess *session.Session, rep *tracer.Report, sink *geometry.Sink, elapsed time.Duration) string {
	th := viz.CurrentTheme
	title := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)
	dim := lipgloss.NewStyle().Foreground(th.Muted)
	warn := lipgloss.NewStyle().Foreground(th.Warning)

	var b strings.Builder
	pb := sess.Playback()
	b.WriteString(fmt.Sprintf("%s %s\n", title.Render(sess.ID()), dim.Render(sess.Metadata().Flow)))
	b.WriteString(fmt.Sprintf("step %d/%d  t=%.3f  gap %d  stride %d  %s\n\n",
		rep.Now, max(rep.Datasteps-1, 0), pb.Time(rep.Now), pb.Gap, rep.Stride, dim.Render(elapsed.Round(time.Microsecond).String())))

	row := func(label, value string) {
		b.WriteString(viz.MetricLabel.Render(fmt.Sprintf("  %-14s", label)) + viz.MetricValue.Render(value) + "\n")
	}
	for _, o := range rep.Objects {
		b.WriteString(title.Render(o.Name))
		if o.Hidden {
			b.WriteString(dim.Render(" hidden") + "\n")
			continue
		}
		b.WriteString("\n")
		row("particles", fmt.Sprint(o.Particles))
		row("window", fmt.Sprintf("[%d, %d] range %d", o.Window.Start, o.Window.End, o.Window.Range))
		row("colour", o.Mode.String())
		switch {
		case !o.Options.Connect:
			row("points", fmt.Sprint(o.Points))
		case o.Options.Flat:
			row("segments", fmt.Sprint(o.Segments))
			if o.Dropped > 0 {
				row("over limit", fmt.Sprint(o.Dropped))
			}
		default:
			row("tube vertices", fmt.Sprint(o.TubeVertices))
		}
		if o.Skipped > 0 {
			b.WriteString(warn.Render(fmt.Sprintf("  %d lookups missing from index map", o.Skipped)) + "\n")
		}
	}

	st := sink.Stats()
	b.WriteString("\n" + dim.Render(fmt.Sprintf("points %d  segments %d  triangles %d  vertices %d",
		st.Points, st.Segments, st.Triangles, st.Vertices)) + "\n")

	if n := len(rep.Diagnostics); n > 0 {
		b.WriteString(warn.Render(fmt.Sprintf("%d diagnostics", n+rep.Suppressed)) + "\n")
		for i, d := range rep.Diagnostics {
			if i == 5 {
				b.WriteString(dim.Render(fmt.Sprintf("  ... %d more", n+rep.Suppressed-5)) + "\n")
				break
			}
			b.WriteString(dim.Render("  "+d.Error()) + "\n")
		}
	}
	return b.String()
}

func formatProps(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, m[k])
	}
	return strings.Join(parts, " ")
}
