// Package reactivity provides external reactivity insertions as pure
// functions of elapsed time.
package reactivity

import (
	"errors"
	"fmt"

	"github.com/san-kum/reactorsim/internal/units"
)

var ErrInvalidInsertion = errors.New("reactivity: invalid insertion")

type Insertion interface {
	Name() string
	Rho(t float64) units.Reactivity
}

// None holds a constant external reactivity.
type None struct {
	RhoInit units.Reactivity
}

func (n None) Name() string                 { return "none" }
func (n None) Rho(float64) units.Reactivity { return n.RhoInit }

// Step changes instantly from RhoInit to RhoFinal at TStep.
type Step struct {
	TStep    float64
	RhoInit  units.Reactivity
	RhoFinal units.Reactivity
}

func (s Step) Name() string { return "step" }

func (s Step) Rho(t float64) units.Reactivity {
	if t < s.TStep {
		return s.RhoInit
	}
	return s.RhoFinal
}

// Ramp rises linearly by RhoRise between TStart and TEnd, then holds
// RhoFinal. RhoFinal may differ from RhoInit+RhoRise.
type Ramp struct {
	TStart   float64
	TEnd     float64
	RhoInit  units.Reactivity
	RhoRise  units.Reactivity
	RhoFinal units.Reactivity
}

func NewRamp(tStart, tEnd float64, rhoInit, rhoRise, rhoFinal units.Reactivity) (Ramp, error) {
	if tEnd <= tStart {
		return Ramp{}, fmt.Errorf("%w: ramp end %g must follow start %g", ErrInvalidInsertion, tEnd, tStart)
	}
	return Ramp{TStart: tStart, TEnd: tEnd, RhoInit: rhoInit, RhoRise: rhoRise, RhoFinal: rhoFinal}, nil
}

func (r Ramp) Name() string { return "ramp" }

func (r Ramp) Rho(t float64) units.Reactivity {
	switch {
	case t < r.TStart:
		return r.RhoInit
	case t <= r.TEnd:
		frac := (t - r.TStart) / (r.TEnd - r.TStart)
		return r.RhoInit + units.Reactivity(frac)*r.RhoRise
	default:
		return r.RhoFinal
	}
}

// Impulse holds RhoMax inside [TStart, TEnd] and RhoInit outside it.
type Impulse struct {
	TStart  float64
	TEnd    float64
	RhoInit units.Reactivity
	RhoMax  units.Reactivity
}

func NewImpulse(tStart, tEnd float64, rhoInit, rhoMax units.Reactivity) (Impulse, error) {
	if tEnd < tStart {
		return Impulse{}, fmt.Errorf("%w: impulse end %g precedes start %g", ErrInvalidInsertion, tEnd, tStart)
	}
	return Impulse{TStart: tStart, TEnd: tEnd, RhoInit: rhoInit, RhoMax: rhoMax}, nil
}

func (i Impulse) Name() string { return "impulse" }

func (i Impulse) Rho(t float64) units.Reactivity {
	if t >= i.TStart && t <= i.TEnd {
		return i.RhoMax
	}
	return i.RhoInit
}
