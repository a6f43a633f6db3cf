// Package tui is the interactive playback viewer: a bubbletea program that
// re-runs tracer synthesis for the current step and draws it on a braille
// canvas.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/session"
	"github.com/san-kum/dyntrace/internal/tracer"
	"github.com/san-kum/dyntrace/internal/viz"
)

const (
	historyLen = 60
	panelWidth = 34
	maxGlyphs  = 4
)

type model struct {
	sess *session.Session
	sink *geometry.Sink
	rep  *tracer.Report
	cam  *viz.Camera
	help help.Model

	playing  bool
	speed    int
	glyphs   int
	history  []float64
	status   string
	reloads  int
	frameDur time.Duration

	width  int
	height int
}

// NewViewer builds the viewer model for a loaded session.
func NewViewer(sess *session.Session) *model {
	m := &model{
		sess:     sess,
		sink:     geometry.NewSink(),
		cam:      viz.NewCamera(),
		help:     help.New(),
		speed:    1,
		frameDur: 80 * time.Millisecond,
		width:    100,
		height:   32,
	}
	m.cam.Fit(sess.Bounds())
	if objs := sess.Objects(); len(objs) > 0 {
		m.glyphs = objs[0].Props.Int("glyphs", 0)
	}
	m.refresh()
	return m
}

// Run starts the viewer and, when watch is set, reloads the dataset on
// every change to its files.
func Run(ctx context.Context, sess *session.Session, watch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewViewer(sess), tea.WithAltScreen(), tea.WithContext(ctx))
	if watch {
		go watchSession(ctx, sess, p.Send)
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// watchSession forwards every reload to send. A watcher that cannot start or
// stops early is reported the same way so the status line shows it.
func watchSession(ctx context.Context, sess *session.Session, send func(tea.Msg)) {
	err := sess.Watch(ctx, func(err error) { send(reloadMsg{err}) })
	if err != nil && ctx.Err() == nil {
		send(reloadMsg{fmt.Errorf("watch: %w", err)})
	}
}

type tickMsg time.Time

type reloadMsg struct{ err error }

func (m *model) tick() tea.Cmd {
	return tea.Tick(m.frameDur, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tickMsg:
		if !m.playing {
			return m, nil
		}
		m.sess.Advance(m.speed)
		m.refresh()
		return m, m.tick()
	case reloadMsg:
		m.reloads++
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("reloaded (%d)", m.reloads)
		}
		m.refresh()
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Play):
		m.playing = !m.playing
		if m.playing {
			return m.tick()
		}
		return nil
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, keys.Next):
		m.sess.Advance(m.speed)
	case key.Matches(msg, keys.Prev):
		m.sess.Advance(-m.speed)
	case key.Matches(msg, keys.First):
		m.sess.Seek(0)
	case key.Matches(msg, keys.Last):
		m.sess.Seek(m.sess.Datasteps() - 1)
	case key.Matches(msg, keys.Faster):
		m.speed = min(m.speed*2, 16)
	case key.Matches(msg, keys.Slower):
		m.speed = max(m.speed/2, 1)
	case key.Matches(msg, keys.Fade):
		m.flag("fade", m.sess.Toggle("fade", false))
	case key.Matches(msg, keys.Taper):
		m.flag("taper", m.sess.Toggle("taper", false))
	case key.Matches(msg, keys.Connect):
		m.flag("connect", m.sess.Toggle("connect", true))
	case key.Matches(msg, keys.Flat):
		m.flag("flat", m.sess.Toggle("flat", false))
	case key.Matches(msg, keys.Glyphs):
		m.glyphs = (m.glyphs + 1) % (maxGlyphs + 1)
		m.sess.SetProperty("", "glyphs", m.glyphs)
		m.status = fmt.Sprintf("glyphs %d", m.glyphs)
	case key.Matches(msg, keys.Up):
		m.cam.RotateX(-0.1)
	case key.Matches(msg, keys.Down):
		m.cam.RotateX(0.1)
	case key.Matches(msg, keys.Left):
		m.cam.RotateY(-0.1)
	case key.Matches(msg, keys.Right):
		m.cam.RotateY(0.1)
	case key.Matches(msg, keys.ZoomIn):
		m.cam.ZoomIn()
	case key.Matches(msg, keys.ZoomOut):
		m.cam.ZoomOut()
	case key.Matches(msg, keys.Reset):
		m.cam.Reset()
	case key.Matches(msg, keys.Theme):
		m.status = "theme " + viz.NextTheme().Name
	default:
		return nil
	}
	m.refresh()
	return nil
}

func (m *model) flag(name string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	m.status = name + " " + state
}

// refresh runs a synthesis pass for the current step and records its
// primitive count for the side panel.
func (m *model) refresh() {
	m.rep = m.sess.Update(m.sink)
	st := m.sink.Stats()
	m.history = append(m.history, float64(st.Points+st.Segments+st.Triangles))
	if len(m.history) > historyLen {
		m.history = m.history[len(m.history)-historyLen:]
	}
}

func (m *model) View() string {
	th := viz.CurrentTheme
	title := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)
	dim := lipgloss.NewStyle().Foreground(th.Muted)
	warn := lipgloss.NewStyle().Foreground(th.Warning)

	var b strings.Builder

	pb := m.sess.Playback()
	n := max(m.sess.Datasteps(), 1)
	state := viz.StatusPaused.Render("○ paused")
	if m.playing {
		state = viz.StatusRunning.Render("● playing")
	}
	b.WriteString(fmt.Sprintf("\n  %s  %s  %s  %s\n",
		viz.GradientText("dyntrace", th.Primary, th.Secondary),
		title.Render(m.sess.ID()), state, dim.Render(fmt.Sprintf("x%d", m.speed))))

	progress := float64(pb.Now) / float64(max(n-1, 1))
	b.WriteString(fmt.Sprintf("  %s %s %s\n\n", viz.ProgressBar(progress, 40),
		dim.Render(fmt.Sprintf("step %d/%d", pb.Now, n-1)),
		dim.Render(fmt.Sprintf("t=%.3f", pb.Time(pb.Now)))))

	cw := max(m.width-panelWidth-6, 20)
	ch := max(m.height-12, 8)
	canvas := viz.NewCanvas(cw, ch)
	viz.RenderSink(canvas, m.sink, m.cam)

	main := viz.Panel.Render(strings.TrimRight(canvas.Render(), "\n"))
	side := viz.Panel.Width(panelWidth).Render(m.panel(dim, warn))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, main, side))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString("  " + warn.Render(m.status) + "\n")
	}
	b.WriteString("  " + m.help.View(keys) + "\n")
	return b.String()
}

func (m *model) panel(dim, warn lipgloss.Style) string {
	var b strings.Builder
	if m.rep != nil {
		for _, o := range m.rep.Objects {
			b.WriteString(viz.MetricLabel.Render(fmt.Sprintf("%-10s", o.Name)))
			switch {
			case o.Hidden:
				b.WriteString(dim.Render(" hidden"))
			case o.TubeVertices > 0:
				b.WriteString(viz.MetricValue.Render(fmt.Sprintf(" %d tube verts", o.TubeVertices)))
			case o.Segments > 0:
				b.WriteString(viz.MetricValue.Render(fmt.Sprintf(" %d segs", o.Segments)))
			default:
				b.WriteString(viz.MetricValue.Render(fmt.Sprintf(" %d pts", o.Points)))
			}
			b.WriteString(dim.Render(fmt.Sprintf(" [%d,%d] %s", o.Window.Start, o.Window.End, o.Mode)))
			b.WriteString("\n")
		}
		if d := len(m.rep.Diagnostics) + m.rep.Suppressed; d > 0 {
			b.WriteString(warn.Render(fmt.Sprintf("%d diagnostics", d)) + "\n")
		}
	}
	b.WriteString("\n" + viz.Separator(panelWidth-4) + "\n")
	if len(m.history) > 1 {
		b.WriteString(asciigraph.Plot(m.history,
			asciigraph.Height(6),
			asciigraph.Width(panelWidth-12),
			asciigraph.Caption("primitives")))
		b.WriteString("\n")
	}
	b.WriteString(viz.SparklineChart(m.history, panelWidth-4))
	return b.String()
}
