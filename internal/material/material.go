// Package material holds immutable material descriptions built from
// temperature dependent property models.
//
// A Material always carries conductivity, density and heat capacity. Liquid
// capable materials additionally carry a viscosity model, which is what the
// convective correlations need; query it with [Material.HasViscosity].
// Materials are shared by pointer between thermal components and are never
// copied per component.
package material

import (
	"errors"
	"fmt"

	"github.com/san-kum/reactorsim/internal/props"
	"github.com/san-kum/reactorsim/internal/units"
)

var (
	ErrInvalidHeatCapacity = errors.New("material: heat capacity must be positive")
	ErrNoViscosity         = errors.New("material: no viscosity model")
)

type Material struct {
	name         string
	conductivity props.Conductivity
	heatCapacity units.SpecificHeat
	density      props.Density
	viscosity    *props.Viscosity
}

// New builds a solid material.
func New(name string, k props.Conductivity, cp units.SpecificHeat, rho props.Density) (*Material, error) {
	if cp <= 0 {
		return nil, fmt.Errorf("%w: %s has cp=%g", ErrInvalidHeatCapacity, name, float64(cp))
	}
	return &Material{
		name:         name,
		conductivity: k,
		heatCapacity: cp,
		density:      rho,
	}, nil
}

// NewLiquid builds a material that also carries a viscosity model.
func NewLiquid(name string, k props.Conductivity, cp units.SpecificHeat, rho props.Density, mu props.Viscosity) (*Material, error) {
	m, err := New(name, k, cp, rho)
	if err != nil {
		return nil, err
	}
	m.viscosity = &mu
	return m, nil
}

func (m *Material) Name() string                     { return m.name }
func (m *Material) HeatCapacity() units.SpecificHeat { return m.heatCapacity }
func (m *Material) HasViscosity() bool               { return m.viscosity != nil }

func (m *Material) ConductivityModel() props.Conductivity { return m.conductivity }
func (m *Material) DensityModel() props.Density           { return m.density }

func (m *Material) Conductivity(t units.Temperature) (units.Conductivity, error) {
	k, err := m.conductivity.Evaluate(t)
	if err != nil {
		return 0, fmt.Errorf("%s conductivity: %w", m.name, err)
	}
	return k, nil
}

func (m *Material) Density(t units.Temperature) (units.Density, error) {
	rho, err := m.density.Evaluate(t)
	if err != nil {
		return 0, fmt.Errorf("%s density: %w", m.name, err)
	}
	return rho, nil
}

func (m *Material) Viscosity(t units.Temperature) (units.Viscosity, error) {
	if m.viscosity == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoViscosity, m.name)
	}
	mu, err := m.viscosity.Evaluate(t)
	if err != nil {
		return 0, fmt.Errorf("%s viscosity: %w", m.name, err)
	}
	return mu, nil
}

// VolumetricHeatCapacity is rho(T) cp in J/(m^3 K).
func (m *Material) VolumetricHeatCapacity(t units.Temperature) (float64, error) {
	rho, err := m.Density(t)
	if err != nil {
		return 0, err
	}
	return float64(rho) * float64(m.heatCapacity), nil
}
