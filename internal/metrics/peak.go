package metrics

import (
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/reactor"
	"github.com/san-kum/reactorsim/internal/units"
)

// PeakPower is the largest relative neutron power seen on the grid.
type PeakPower struct {
	index int
	peak  float64
	time  float64
}

func NewPeakPower(layout reactor.Layout) *PeakPower {
	return &PeakPower{index: layout.PowerIndex(), peak: math.Inf(-1)}
}

func (p *PeakPower) Name() string { return "peak_power" }

func (p *PeakPower) Observe(x dynamo.State, t float64) {
	if x[p.index] > p.peak {
		p.peak = x[p.index]
		p.time = t
	}
}

func (p *PeakPower) Value() float64 {
	if math.IsInf(p.peak, -1) {
		return 0
	}
	return p.peak
}

// Time is when the peak occurred.
func (p *PeakPower) Time() float64 { return p.time }

func (p *PeakPower) Reset() {
	p.peak = math.Inf(-1)
	p.time = 0
}

// PeakTemperature is the hottest component temperature seen on the grid.
type PeakTemperature struct {
	n         int
	peak      float64
	component int
}

func NewPeakTemperature(layout reactor.Layout) *PeakTemperature {
	return &PeakTemperature{n: layout.Temperatures}
}

func (p *PeakTemperature) Name() string { return "peak_temperature" }

func (p *PeakTemperature) Observe(x dynamo.State, t float64) {
	for i, v := range x[:p.n] {
		if v > p.peak {
			p.peak = v
			p.component = i
		}
	}
}

func (p *PeakTemperature) Value() float64 { return p.peak }

// Component is the network index of the hottest component.
func (p *PeakTemperature) Component() int { return p.component }

func (p *PeakTemperature) Reset() {
	p.peak = 0
	p.component = 0
}

// ReactivitySource evaluates total and external reactivity at a state.
type ReactivitySource interface {
	Reactivity(x dynamo.State, t float64) (total, external units.Reactivity, err error)
}

// PeakReactivity is the largest absolute total reactivity in pcm.
type PeakReactivity struct {
	src  ReactivitySource
	peak float64
}

func NewPeakReactivity(src ReactivitySource) *PeakReactivity {
	return &PeakReactivity{src: src}
}

func (p *PeakReactivity) Name() string { return "peak_reactivity_pcm" }

func (p *PeakReactivity) Observe(x dynamo.State, t float64) {
	total, _, err := p.src.Reactivity(x, t)
	if err != nil {
		return
	}
	p.peak = math.Max(p.peak, math.Abs(total.PCM()))
}

func (p *PeakReactivity) Value() float64 { return p.peak }
func (p *PeakReactivity) Reset()         { p.peak = 0 }

// Standard is the metric set reported for every run.
func Standard(sys *reactor.System, limit units.Temperature) []dynamo.Metric {
	l := sys.Layout()
	ms := []dynamo.Metric{
		NewPeakPower(l),
		NewPeakTemperature(l),
		NewPeakReactivity(sys),
		NewEnergyInventory(sys),
		NewEnergyDrift(sys),
	}
	if limit > 0 {
		ms = append(ms, NewTemperatureLimit(l, limit))
	}
	return ms
}
