package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles are the lipgloss styles of one theme.
type styles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	muted  lipgloss.Style
	err    lipgloss.Style
	graph  lipgloss.Style
	panel  lipgloss.Style
	status lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		label: lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value: lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		muted: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		err:   lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		graph: lipgloss.NewStyle().Foreground(t.Accent),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		status: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
	}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinner(frame int) string {
	return spinnerFrames[frame%len(spinnerFrames)]
}

// ProgressBar renders fraction in [0, 1] as a bar of width cells.
func ProgressBar(t Theme, fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(t.Primary).Render(bar)
}

// Sparkline renders the last width values, each scaled between the
// smallest and largest of them.
func Sparkline(t Theme, values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := bounds(values)
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		b.WriteString(lipgloss.NewStyle().Foreground(t.heat(norm)).Render(string(chars[idx])))
	}
	return b.String()
}

// HeatBar renders v on the scale [lo, hi] as a colored bar.
func HeatBar(t Theme, v, lo, hi float64, width int) string {
	norm := 0.5
	if hi > lo {
		norm = (v - lo) / (hi - lo)
	}
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	filled := int(norm*float64(width-1)) + 1
	bar := strings.Repeat("▮", filled) + strings.Repeat(" ", width-filled)
	return lipgloss.NewStyle().Foreground(t.heat(norm)).Render(bar)
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
