// Package convection computes convective heat transfer coefficients.
package convection

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/reactorsim/internal/material"
	"github.com/san-kum/reactorsim/internal/units"
)

type Kind int

const (
	Constant Kind = iota
	// Wakao is the packed-bed correlation Nu = 2 + 1.1 Pr^(1/3) Re^0.6. It
	// only holds for pebble to coolant transfer.
	Wakao
)

var kindNames = []string{"constant", "wakao"}

func (k Kind) String() string { return kindNames[k] }

var (
	ErrUnknownModel = errors.New("convection: unknown model")
	ErrNoBootstrap  = errors.New("convection: correlation needs a bootstrap coolant temperature")
	ErrNotLiquid    = errors.New("convection: correlation needs a fluid with a viscosity model")
	ErrFlowGeometry = errors.New("convection: flow parameters must be positive")
	ErrZeroDivision = errors.New("convection: division by zero")
)

// Flow describes the coolant stream a correlation is evaluated for.
type Flow struct {
	MassFlow    units.MassFlow
	Area        units.Area
	LengthScale units.Length
}

// Model is a heat transfer coefficient source h(T). The fluid material is
// shared with the components that reference it.
type Model struct {
	kind      Kind
	h0        units.HeatTransferCoefficient
	fluid     *material.Material
	flow      Flow
	bootstrap units.Temperature
}

// NewConstant returns a model that always yields h0.
func NewConstant(h0 units.HeatTransferCoefficient) *Model {
	return &Model{kind: Constant, h0: h0}
}

// NewCorrelation builds a temperature dependent model. bootstrap is the
// coolant temperature used before the coolant state of the current step is
// known and must be set for every non-constant model.
func NewCorrelation(model string, fluid *material.Material, flow Flow, bootstrap *units.Temperature) (*Model, error) {
	kind := -1
	for i, n := range kindNames {
		if n == model {
			kind = i
		}
	}
	if kind < 0 {
		return nil, fmt.Errorf("%w: %q, options are: %s", ErrUnknownModel, model, strings.Join(kindNames, ", "))
	}
	if Kind(kind) == Constant {
		return nil, fmt.Errorf("%w: use NewConstant for the constant model", ErrUnknownModel)
	}
	if bootstrap == nil {
		return nil, ErrNoBootstrap
	}
	if fluid == nil || !fluid.HasViscosity() {
		return nil, ErrNotLiquid
	}
	if flow.Area < 0 || flow.MassFlow < 0 || flow.LengthScale <= 0 {
		return nil, fmt.Errorf("%w: %+v", ErrFlowGeometry, flow)
	}

	return &Model{
		kind:      Kind(kind),
		fluid:     fluid,
		flow:      flow,
		bootstrap: *bootstrap,
	}, nil
}

func (m *Model) Kind() Kind                   { return m.kind }
func (m *Model) Fluid() *material.Material    { return m.fluid }
func (m *Model) Bootstrap() units.Temperature { return m.bootstrap }

// H returns the coefficient at coolant temperature t. With bootstrap set the
// configured bootstrap temperature is used in place of t for the fluid
// property evaluation.
func (m *Model) H(t units.Temperature, bootstrap bool) (units.HeatTransferCoefficient, error) {
	switch m.kind {
	case Constant:
		return m.h0, nil
	case Wakao:
		if bootstrap {
			t = m.bootstrap
		}
		return m.wakao(t)
	}
	return 0, ErrUnknownModel
}

func (m *Model) wakao(t units.Temperature) (units.HeatTransferCoefficient, error) {
	rho, err := m.fluid.Density(t)
	if err != nil {
		return 0, err
	}
	mu, err := m.fluid.Viscosity(t)
	if err != nil {
		return 0, err
	}
	k, err := m.fluid.Conductivity(t)
	if err != nil {
		return 0, err
	}
	if m.flow.Area == 0 || rho == 0 {
		return 0, fmt.Errorf("%w: flow area %g m^2, density %g kg/m^3", ErrZeroDivision, float64(m.flow.Area), float64(rho))
	}
	if mu == 0 || k == 0 {
		return 0, fmt.Errorf("%w: viscosity %g, conductivity %g", ErrZeroDivision, float64(mu), float64(k))
	}

	L := float64(m.flow.LengthScale)
	u := float64(m.flow.MassFlow) / float64(m.flow.Area) / float64(rho)
	re := float64(rho) * L * u / float64(mu)
	pr := float64(m.fluid.HeatCapacity()) * float64(mu) / float64(k)
	nu := 2 + 1.1*math.Cbrt(pr)*math.Pow(re, 0.6)

	return units.HeatTransferCoefficient(nu * float64(k) / L), nil
}

// Dimensionless returns the Reynolds, Prandtl and Nusselt numbers at t.
func (m *Model) Dimensionless(t units.Temperature) (re, pr, nu float64, err error) {
	if m.kind == Constant {
		return 0, 0, 0, fmt.Errorf("%w: constant model has no flow numbers", ErrUnknownModel)
	}
	h, err := m.wakao(t)
	if err != nil {
		return 0, 0, 0, err
	}
	rho, _ := m.fluid.Density(t)
	mu, _ := m.fluid.Viscosity(t)
	k, _ := m.fluid.Conductivity(t)
	L := float64(m.flow.LengthScale)
	u := float64(m.flow.MassFlow) / float64(m.flow.Area) / float64(rho)
	re = float64(rho) * L * u / float64(mu)
	pr = float64(m.fluid.HeatCapacity()) * float64(mu) / float64(k)
	nu = float64(h) * L / float64(k)
	return re, pr, nu, nil
}
