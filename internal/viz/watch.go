package viz

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/reactor"
	"github.com/san-kum/reactorsim/internal/units"
)

const (
	historyCapacity = 600
	hottestShown    = 8
	barWidth        = 20
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the watch view of one run. It only renders what it is sent;
// the run itself happens elsewhere.
type Model struct {
	title    string
	names    []string
	t0, tf   float64
	theme    Theme
	st       styles
	profile  *Canvas
	power    []float64
	rho      []float64
	last     *StepMsg
	frame    int
	showAll  bool
	showHelp bool
	done     bool
	result   *dynamo.Result
	err      error
	cancel   context.CancelFunc
}

// NewModel returns a view for a run over the network nodes names. cancel,
// if set, is called when the user quits.
func NewModel(title string, names []string, cfg dynamo.Config, cancel context.CancelFunc) Model {
	theme := CurrentTheme
	return Model{
		title:   title,
		names:   names,
		t0:      cfg.T0,
		tf:      cfg.T0 + cfg.Duration,
		theme:   theme,
		st:      newStyles(theme),
		profile: NewCanvas(40, 4),
		power:   make([]float64, 0, historyCapacity),
		rho:     make([]float64, 0, historyCapacity),
		cancel:  cancel,
	}
}

func (m Model) Result() (*dynamo.Result, error) { return m.result, m.err }

func (m Model) Done() bool { return m.done }

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "t":
			m.theme = m.theme.next()
			m.st = newStyles(m.theme)
		case "a":
			m.showAll = !m.showAll
		case "?":
			m.showHelp = !m.showHelp
		}
	case StepMsg:
		m.power = push(m.power, msg.Power)
		if !math.IsNaN(msg.Reactivity) {
			m.rho = push(m.rho, msg.Reactivity)
		}
		m.last = &msg
	case DoneMsg:
		m.done = true
		m.result, m.err = msg.Result, msg.Err
	case TickMsg:
		m.frame++
		if !m.done {
			return m, tick()
		}
	}
	return m, nil
}

func push(series []float64, v float64) []float64 {
	series = append(series, v)
	if len(series) > historyCapacity {
		series = series[1:]
	}
	return series
}

func (m Model) progress() float64 {
	if m.last == nil || m.tf <= m.t0 {
		return 0
	}
	return (m.last.Time - m.t0) / (m.tf - m.t0)
}

func (m Model) View() string {
	var s strings.Builder

	status := m.st.status.Render(spinner(m.frame) + " running")
	switch {
	case m.done && m.err != nil:
		status = m.st.err.Render("✗ " + m.err.Error())
	case m.done:
		status = m.st.status.Render("✓ finished")
	}
	s.WriteString(m.st.title.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(status + "\n\n")

	frac := m.progress()
	s.WriteString(ProgressBar(m.theme, frac, 40) + fmt.Sprintf(" %5.1f%%\n\n", 100*frac))

	if m.last == nil {
		s.WriteString(m.st.muted.Render("waiting for the first grid point") + "\n")
		s.WriteString(m.help())
		return s.String()
	}

	s.WriteString(m.row("time", fmt.Sprintf("%.3f s / %.3f s", m.last.Time, m.tf)))
	s.WriteString(m.row("power", fmt.Sprintf("%.6g", m.last.Power)))
	rho := "n/a"
	if !math.IsNaN(m.last.Reactivity) {
		rho = fmt.Sprintf("%+.2f pcm", m.last.Reactivity)
	}
	s.WriteString(m.row("reactivity", rho+"  "+Sparkline(m.theme, m.rho, 30)))
	s.WriteString(m.row("substeps", fmt.Sprintf("%d accepted, %d rejected", m.last.Accepted, m.last.Rejected)))
	s.WriteString("\n")

	if len(m.power) > 1 {
		chart := asciigraph.Plot(m.power, asciigraph.Height(6), asciigraph.Width(50), asciigraph.Caption("relative power"))
		s.WriteString(m.st.graph.Render(chart) + "\n\n")
	}

	s.WriteString(m.st.panel.Render(m.temperatures()) + "\n")
	s.WriteString(m.help())
	return s.String()
}

func (m Model) row(label, value string) string {
	return m.st.label.Render(label) + m.st.value.Render(value) + "\n"
}

type nodeTemp struct {
	name string
	t    units.Temperature
}

// temperatures lists the hottest nodes, or all of them in network order,
// followed by the profile across the network.
func (m Model) temperatures() string {
	temps := m.last.Temperatures
	if len(temps) == 0 {
		return m.st.muted.Render("no temperatures")
	}
	nodes := make([]nodeTemp, len(temps))
	values := make([]float64, len(temps))
	for i, t := range temps {
		name := fmt.Sprintf("#%d", i)
		if i < len(m.names) {
			name = m.names[i]
		}
		nodes[i] = nodeTemp{name: name, t: t}
		values[i] = t.Celsius()
	}
	lo, hi := bounds(values)

	shown := nodes
	if !m.showAll {
		shown = append([]nodeTemp(nil), nodes...)
		sort.SliceStable(shown, func(i, j int) bool { return shown[i].t > shown[j].t })
		if len(shown) > hottestShown {
			shown = shown[:hottestShown]
		}
	}

	var b strings.Builder
	for _, n := range shown {
		b.WriteString(fmt.Sprintf("%-12s %9.2f °C ", n.name, n.t.Celsius()))
		b.WriteString(HeatBar(m.theme, n.t.Celsius(), lo, hi, barWidth) + "\n")
	}
	if len(values) > 1 {
		m.profile.Profile(values, lo, hi)
		b.WriteString("\n" + m.st.graph.Render(m.profile.String()) + "\n")
		b.WriteString(m.st.muted.Render(fmt.Sprintf("profile %.1f °C to %.1f °C", lo, hi)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) help() string {
	if !m.showHelp {
		return "\n" + m.st.muted.Render("q quit · t theme · a all nodes · ? help")
	}
	keys := [][2]string{
		{"q", "stop the run and quit"},
		{"t", "next theme (" + m.theme.Name + ")"},
		{"a", "toggle all nodes or the hottest"},
		{"?", "toggle this help"},
	}
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%-3s %s\n", k[0], k[1]))
	}
	return "\n" + m.st.panel.Render(strings.TrimRight(b.String(), "\n"))
}

// Watch runs sim over sys in the background and shows its progress until
// the user quits. Quitting before the end cancels the run; the partial
// result comes back with the simulator's error.
func Watch(ctx context.Context, title string, sim *dynamo.Simulator, sys *reactor.System, cfg dynamo.Config, opts ...tea.ProgramOption) (*dynamo.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, sys.Network().Names(), cfg, cancel), opts...)
	steps := int(math.Round(cfg.Duration / cfg.Dt))
	sim.AddObserver(NewFeed(sys, p, steps, historyCapacity))

	type outcome struct {
		result *dynamo.Result
		err    error
	}
	finished := make(chan outcome, 1)
	go func() {
		result, err := sim.Run(ctx, sys.InitialState(), cfg)
		p.Send(DoneMsg{Result: result, Err: err})
		finished <- outcome{result, err}
	}()

	_, uiErr := p.Run()
	cancel()
	out := <-finished
	if uiErr != nil {
		return out.result, uiErr
	}
	return out.result, out.err
}

var _ tea.Model = Model{}
