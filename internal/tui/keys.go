package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit    key.Binding
	Play    key.Binding
	Next    key.Binding
	Prev    key.Binding
	First   key.Binding
	Last    key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Fade    key.Binding
	Taper   key.Binding
	Connect key.Binding
	Flat    key.Binding
	Glyphs  key.Binding
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Reset   key.Binding
	Theme   key.Binding
	Help    key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Play:    key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
	Next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "step")),
	Prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back")),
	First:   key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first step")),
	Last:    key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last step")),
	Faster:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
	Slower:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
	Fade:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fade")),
	Taper:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "taper")),
	Connect: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
	Flat:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "flat")),
	Glyphs:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "glyphs")),
	Up:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "tilt up")),
	Down:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "tilt down")),
	Left:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "turn left")),
	Right:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "turn right")),
	ZoomIn:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("Z"), key.WithHelp("Z", "zoom out")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset view")),
	Theme:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "theme")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Next, k.Prev, k.Fade, k.Taper, k.Connect, k.Glyphs, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Next, k.Prev, k.First, k.Last, k.Faster, k.Slower},
		{k.Fade, k.Taper, k.Connect, k.Flat, k.Glyphs},
		{k.Up, k.Down, k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Reset},
		{k.Theme, k.Help, k.Quit},
	}
}
