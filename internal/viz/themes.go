package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colour scheme of the viewer chrome.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Warning   lipgloss.Color
	// Backdrop is blended under translucent trail colours.
	Backdrop string
}

var (
	ThemeNight = Theme{
		Name:      "night",
		Primary:   lipgloss.Color("#00ffff"),
		Secondary: lipgloss.Color("#ff00ff"),
		Accent:    lipgloss.Color("#ffff00"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666688"),
		Warning:   lipgloss.Color("#ff8800"),
		Backdrop:  "#000000",
	}

	ThemeRetro = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"),
		Secondary: lipgloss.Color("#00cc00"),
		Accent:    lipgloss.Color("#88ff88"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Warning:   lipgloss.Color("#ffff00"),
		Backdrop:  "#001100",
	}

	ThemeOcean = Theme{
		Name:      "ocean",
		Primary:   lipgloss.Color("#00a8cc"),
		Secondary: lipgloss.Color("#0077be"),
		Accent:    lipgloss.Color("#ffd700"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Warning:   lipgloss.Color("#ffcc00"),
		Backdrop:  "#001a33",
	}

	ThemeSunset = Theme{
		Name:      "sunset",
		Primary:   lipgloss.Color("#ff6b6b"),
		Secondary: lipgloss.Color("#feca57"),
		Accent:    lipgloss.Color("#ff9ff3"),
		Text:      lipgloss.Color("#fff5f5"),
		Muted:     lipgloss.Color("#8b6b8c"),
		Warning:   lipgloss.Color("#ffc048"),
		Backdrop:  "#2d1b2e",
	}

	CurrentTheme = ThemeNight

	Themes = []Theme{ThemeNight, ThemeRetro, ThemeOcean, ThemeSunset}
)

// GetTheme returns a theme by name, the night theme if none matches.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNight
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme makes the theme after the current one current and returns it.
func NextTheme() Theme {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return CurrentTheme
		}
	}
	CurrentTheme = Themes[0]
	return CurrentTheme
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
