package viz

import (
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/reactor"
	"github.com/san-kum/reactorsim/internal/units"
)

// Sender delivers messages to a running UI. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// StepMsg reports one committed grid point.
type StepMsg struct {
	Index        int
	Time         float64
	Power        float64
	Temperatures []units.Temperature
	// Reactivity is the total reactivity in pcm, NaN when it could not be
	// evaluated.
	Reactivity float64
	Accepted   int
	Rejected   int
}

// DoneMsg ends a run.
type DoneMsg struct {
	Result *dynamo.Result
	Err    error
}

// Feed observes a simulator and forwards progress to a Sender. At most
// about limit grid points are forwarded; the first and last always are.
type Feed struct {
	sys      *reactor.System
	out      Sender
	steps    int
	stride   int
	accepted int
	rejected int
}

func NewFeed(sys *reactor.System, out Sender, steps, limit int) *Feed {
	stride := 1
	if limit > 0 && steps > limit {
		stride = (steps + limit - 1) / limit
	}
	return &Feed{sys: sys, out: out, steps: steps, stride: stride}
}

func (f *Feed) OnSubstep(t, dt float64, accepted bool) {
	if accepted {
		f.accepted++
	} else {
		f.rejected++
	}
}

func (f *Feed) OnStep(index int, x dynamo.State, t float64) {
	if index%f.stride != 0 && index != f.steps {
		return
	}

	layout := f.sys.Layout()
	temps := make([]units.Temperature, layout.Temperatures)
	for i := range temps {
		temps[i] = units.Temperature(x[i])
	}
	rho := math.NaN()
	if total, _, err := f.sys.Reactivity(x, t); err == nil {
		rho = total.PCM()
	}

	f.out.Send(StepMsg{
		Index:        index,
		Time:         t,
		Power:        x[layout.PowerIndex()],
		Temperatures: temps,
		Reactivity:   rho,
		Accepted:     f.accepted,
		Rejected:     f.rejected,
	})
}
