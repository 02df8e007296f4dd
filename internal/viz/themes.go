package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the watch view. Cold, Warm and Hot color
// temperature bars from the lowest to the highest node.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Cold    lipgloss.Color
	Warm    lipgloss.Color
	Hot     lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeCherenkov = Theme{
		Name:    "cherenkov",
		Primary: lipgloss.Color("#3fa9ff"),
		Accent:  lipgloss.Color("#9fe7ff"),
		Text:    lipgloss.Color("#e6f2ff"),
		Muted:   lipgloss.Color("#5b6f87"),
		Border:  lipgloss.Color("#2b3d55"),
		Cold:    lipgloss.Color("#3fa9ff"),
		Warm:    lipgloss.Color("#ffcc00"),
		Hot:     lipgloss.Color("#ff4d4d"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeSalt = Theme{
		Name:    "salt",
		Primary: lipgloss.Color("#ff9f43"),
		Accent:  lipgloss.Color("#feca57"),
		Text:    lipgloss.Color("#fff5eb"),
		Muted:   lipgloss.Color("#8b7b6b"),
		Border:  lipgloss.Color("#4a3b2e"),
		Cold:    lipgloss.Color("#48dbfb"),
		Warm:    lipgloss.Color("#feca57"),
		Hot:     lipgloss.Color("#ff6b6b"),
		Error:   lipgloss.Color("#ff4757"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Border:  lipgloss.Color("#444444"),
		Cold:    lipgloss.Color("#aaaaaa"),
		Warm:    lipgloss.Color("#dddddd"),
		Hot:     lipgloss.Color("#ffffff"),
		Error:   lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeCherenkov, ThemeSalt, ThemeMinimal}

	// CurrentTheme is the theme new models start with.
	CurrentTheme = ThemeCherenkov
)

// GetTheme returns the named theme, or the first one when the name is
// unknown.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// next returns the theme after t in Themes.
func (t Theme) next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// heat picks the bar color for a value normalized to [0, 1].
func (t Theme) heat(norm float64) lipgloss.Color {
	switch {
	case norm > 0.7:
		return t.Hot
	case norm > 0.3:
		return t.Warm
	default:
		return t.Cold
	}
}
