package material

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/reactorsim/internal/props"
	"github.com/san-kum/reactorsim/internal/units"
)

// Reference data:
//   FLiBe: Williams et al., ORNL/TM-2006/12; Sohal et al., INL/EXT-10-18297.
//   Sodium: Fink and Leibowitz, ANL/RE-95/2.
//   Helium: KTA 3102.1, NBS TN 1334.
//   TRISO layers: pebble-bed fuel design literature.

// FLiBe returns molten 2LiF-BeF2 salt.
func FLiBe() *Material {
	return mustLiquid("flibe",
		props.LinearConductivity(0.7662, 0.0005),
		2415.78,
		props.LinearDensity(2413.2172, -0.488),
		props.ExponentialViscosity(0.000116, 3755))
}

// Sodium returns liquid sodium.
func Sodium() *Material {
	return mustLiquid("sodium",
		mustConductivity("sodium", props.Coefficients{}),
		1300.0,
		mustDensity("sodium", props.Coefficients{}),
		mustViscosity("sodium", props.Coefficients{}))
}

// Helium returns helium gas at the given pressure in bar.
func Helium(pressureBar float64) *Material {
	c := props.Coefficients{C: pressureBar}
	return mustLiquid("helium",
		mustConductivity("helium", c),
		5195.0,
		mustDensity("helium", c),
		mustViscosity("helium", c))
}

// Graphite returns nuclear grade pebble graphite.
func Graphite() *Material {
	return mustSolid("graphite", props.ConstantConductivity(17), 1650.0, props.ConstantDensity(1740))
}

// UO2Kernel returns the uranium dioxide fuel kernel of a TRISO particle.
func UO2Kernel() *Material {
	return mustSolid("uo2_kernel", mustConductivity("uo2_kernel", props.Coefficients{}), 330.0, props.ConstantDensity(10960))
}

func PyrolyticCarbon() *Material {
	return mustSolid("pyrolytic_carbon", props.ConstantConductivity(8.6), 755.0, props.ConstantDensity(1900))
}

func SiliconCarbide() *Material {
	return mustSolid("silicon_carbide", props.ConstantConductivity(166), 648.0, props.ConstantDensity(3200))
}

func CarbonBuffer() *Material {
	return mustSolid("carbon_buffer", props.ConstantConductivity(10.5), 755.0, props.ConstantDensity(1050))
}

var library = map[string]func() *Material{
	"flibe":            FLiBe,
	"sodium":           Sodium,
	"helium":           func() *Material { return Helium(60) },
	"graphite":         Graphite,
	"uo2_kernel":       UO2Kernel,
	"pyrolytic_carbon": PyrolyticCarbon,
	"silicon_carbide":  SiliconCarbide,
	"carbon_buffer":    CarbonBuffer,
}

// Lookup returns a new instance of a library material.
func Lookup(name string) (*Material, error) {
	fn, ok := library[name]
	if !ok {
		return nil, fmt.Errorf("unknown material: %s (available: %s)", name, strings.Join(LibraryNames(), ", "))
	}
	return fn(), nil
}

func LibraryNames() []string {
	names := make([]string, 0, len(library))
	for name := range library {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// the library coefficients are fixed, so construction cannot fail

func mustSolid(name string, k props.Conductivity, cp units.SpecificHeat, rho props.Density) *Material {
	m, err := New(name, k, cp, rho)
	if err != nil {
		panic(err)
	}
	return m
}

func mustLiquid(name string, k props.Conductivity, cp units.SpecificHeat, rho props.Density, mu props.Viscosity) *Material {
	m, err := NewLiquid(name, k, cp, rho, mu)
	if err != nil {
		panic(err)
	}
	return m
}

func mustConductivity(model string, c props.Coefficients) props.Conductivity {
	k, err := props.NewConductivity(model, c)
	if err != nil {
		panic(err)
	}
	return k
}

func mustDensity(model string, c props.Coefficients) props.Density {
	d, err := props.NewDensity(model, c)
	if err != nil {
		panic(err)
	}
	return d
}

func mustViscosity(model string, c props.Coefficients) props.Viscosity {
	v, err := props.NewViscosity(model, c)
	if err != nil {
		panic(err)
	}
	return v
}
