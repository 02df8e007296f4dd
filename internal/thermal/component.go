package thermal

import (
	"errors"
	"fmt"

	"github.com/san-kum/reactorsim/internal/material"
	"github.com/san-kum/reactorsim/internal/timer"
	"github.com/san-kum/reactorsim/internal/units"
)

var (
	ErrInvalidComponent = errors.New("thermal: invalid component")
	ErrNegativeVolume   = errors.New("thermal: volume must be non-negative")
	ErrShellGeometry    = errors.New("thermal: shell needs ro > ri >= 0")
	ErrAlreadyRecorded  = errors.New("thermal: temperature already recorded")
	ErrNotRecorded      = errors.New("thermal: temperature not recorded")
	ErrIndexRange       = errors.New("thermal: index outside the time grid")
	ErrZeroVolume       = errors.New("thermal: derivative of a zero volume component")
	ErrZeroThermalMass  = errors.New("thermal: zero thermal mass")
)

// Shell is a spherical shell geometry. Count is the number of identical
// bodies the component stands for, as in a pebble bed; zero means one.
type Shell struct {
	Ri, Ro units.Length
	Count  float64
}

func (s Shell) count() float64 {
	if s.Count <= 0 {
		return 1
	}
	return s.Count
}

// Volume is the total volume of all Count shells.
func (s Shell) Volume() units.Volume {
	return units.ShellVolume(s.Ri, s.Ro) * units.Volume(s.count())
}

// Params describes a component before construction. Volume may be left zero
// when Shell is set; it is then derived from the shell.
type Params struct {
	Name     string
	Material *material.Material
	Volume   units.Volume
	T0       units.Temperature
	Feedback *units.FeedbackCoefficient
	Power    *units.Power
	Shell    *Shell
}

// Component is a lumped control volume with a single-write temperature
// history on the grid of its timer.
type Component struct {
	name     string
	mat      *material.Material
	vol      units.Volume
	t0       units.Temperature
	alpha    *units.FeedbackCoefficient
	power    *units.Power
	shell    *Shell
	timer    *timer.Timer
	history  []units.Temperature
	recorded []bool
	net      *Network

	conduction []conductionEdge
	convection []convectionEdge
	advection  []advectionEdge
	boundary   []boundaryEdge
}

func New(p Params, ti *timer.Timer) (*Component, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidComponent)
	}
	if p.Material == nil {
		return nil, fmt.Errorf("%w: %s has no material", ErrInvalidComponent, p.Name)
	}
	if ti == nil {
		return nil, fmt.Errorf("%w: %s has no timer", ErrInvalidComponent, p.Name)
	}
	if p.T0 < 0 {
		return nil, fmt.Errorf("%w: %s starts at %g K", ErrInvalidComponent, p.Name, float64(p.T0))
	}
	if p.Volume < 0 {
		return nil, fmt.Errorf("%w: %s has %g m^3", ErrNegativeVolume, p.Name, float64(p.Volume))
	}

	vol := p.Volume
	var shell *Shell
	if p.Shell != nil {
		if p.Shell.Ri < 0 || p.Shell.Ro <= p.Shell.Ri {
			return nil, fmt.Errorf("%w: %s has ri=%g ro=%g", ErrShellGeometry, p.Name, float64(p.Shell.Ri), float64(p.Shell.Ro))
		}
		s := *p.Shell
		shell = &s
		if vol == 0 {
			vol = s.Volume()
		}
	}

	n := ti.Timesteps()
	c := &Component{
		name:     p.Name,
		mat:      p.Material,
		vol:      vol,
		t0:       p.T0,
		alpha:    p.Feedback,
		power:    p.Power,
		shell:    shell,
		timer:    ti,
		history:  make([]units.Temperature, n),
		recorded: make([]bool, n),
	}
	c.history[0] = p.T0
	c.recorded[0] = true
	return c, nil
}

func (c *Component) Name() string                 { return c.name }
func (c *Component) Material() *material.Material { return c.mat }
func (c *Component) Volume() units.Volume         { return c.vol }
func (c *Component) T0() units.Temperature        { return c.t0 }

// Surface makes a plain component usable wherever a Node is expected.
func (c *Component) Surface() *Component { return c }

func (c *Component) Shell() (Shell, bool) {
	if c.shell == nil {
		return Shell{}, false
	}
	return *c.shell, true
}

func (c *Component) FeedbackCoefficient() (units.FeedbackCoefficient, bool) {
	if c.alpha == nil {
		return 0, false
	}
	return *c.alpha, true
}

func (c *Component) Power() (units.Power, bool) {
	if c.power == nil {
		return 0, false
	}
	return *c.power, true
}

func (c *Component) Temperature(i int) (units.Temperature, error) {
	if i < 0 || i >= len(c.history) {
		return 0, fmt.Errorf("%w: %s index %d of %d", ErrIndexRange, c.name, i, len(c.history))
	}
	if !c.recorded[i] {
		return 0, fmt.Errorf("%w: %s at index %d", ErrNotRecorded, c.name, i)
	}
	return c.history[i], nil
}

func (c *Component) RecordTemperature(i int, t units.Temperature) error {
	if i < 0 || i >= len(c.history) {
		return fmt.Errorf("%w: %s index %d of %d", ErrIndexRange, c.name, i, len(c.history))
	}
	if c.recorded[i] {
		return fmt.Errorf("%w: %s at index %d", ErrAlreadyRecorded, c.name, i)
	}
	c.history[i] = t
	c.recorded[i] = true
	return nil
}

// DeltaTemperature is T(i) - T(feedback index). It is zero before the
// feedback index.
func (c *Component) DeltaTemperature(i int) (units.Temperature, error) {
	ref := c.timer.FeedbackIndex()
	if i < ref {
		return 0, nil
	}
	t, err := c.Temperature(i)
	if err != nil {
		return 0, err
	}
	t0, err := c.Temperature(ref)
	if err != nil {
		return 0, err
	}
	return t - t0, nil
}

// Feedback is the reactivity contributed at temperature t once index has
// reached the feedback index. Components without a coefficient give zero.
func (c *Component) Feedback(t units.Temperature, index int) (units.Reactivity, error) {
	if c.alpha == nil {
		return 0, nil
	}
	ref := c.timer.FeedbackIndex()
	if index < ref {
		return 0, nil
	}
	tRef, err := c.Temperature(ref)
	if err != nil {
		return 0, err
	}
	return units.Reactivity(float64(*c.alpha) * float64(t-tRef)), nil
}

// ThermalMass is rho(t) V cp in J/K.
func (c *Component) ThermalMass(t units.Temperature) (float64, error) {
	rhoCp, err := c.mat.VolumetricHeatCapacity(t)
	if err != nil {
		return 0, err
	}
	return rhoCp * float64(c.vol), nil
}

// NetEnergyRate is the net heat flow into the component from the recorded
// state at index i with heat generation scaled by relPower.
func (c *Component) NetEnergyRate(i int, relPower float64) (units.Power, error) {
	return c.Rate(Eval{View: HistoryView(i), RelPower: relPower, Bootstrap: i == 0})
}

// DTempDt is the temperature derivative in K/s at recorded index i.
func (c *Component) DTempDt(i int, relPower float64) (float64, error) {
	return c.Derivative(Eval{View: HistoryView(i), RelPower: relPower, Bootstrap: i == 0})
}

// Derivative is the temperature derivative in K/s for one evaluation.
func (c *Component) Derivative(e Eval) (float64, error) {
	if c.vol == 0 {
		return 0, fmt.Errorf("%w: %s", ErrZeroVolume, c.name)
	}
	self, err := e.View.TemperatureOf(c)
	if err != nil {
		return 0, err
	}
	q, err := c.Rate(e)
	if err != nil {
		return 0, err
	}
	m, err := c.ThermalMass(self)
	if err != nil {
		return 0, err
	}
	if m == 0 {
		return 0, fmt.Errorf("%w: %s", ErrZeroThermalMass, c.name)
	}
	return float64(q) / m, nil
}
