package units

import "math"

// Quantities are carried in SI base units. The named types keep a
// conductivity from being passed where a density is expected.

type Temperature float64 // K

type Length float64 // m

type Area float64 // m^2

type Volume float64 // m^3

type Conductivity float64 // W/(m K)

type Density float64 // kg/m^3

type Viscosity float64 // Pa s

type SpecificHeat float64 // J/(kg K)

type HeatTransferCoefficient float64 // W/(m^2 K)

type Power float64 // W

type MassFlow float64 // kg/s

// Reactivity is dimensionless delta-k/k.
type Reactivity float64

// FeedbackCoefficient is reactivity per kelvin.
type FeedbackCoefficient float64

const (
	// ZeroCelsius is the reference temperature of the piecewise linear
	// property models.
	ZeroCelsius Temperature = 273.15

	Meter      Length = 1
	Centimeter Length = 1e-2
	Millimeter Length = 1e-3
	Micrometer Length = 1e-6

	PCM    Reactivity = 1e-5
	DeltaK Reactivity = 1
)

func Celsius(c float64) Temperature {
	return Temperature(c) + ZeroCelsius
}

func (t Temperature) Celsius() float64 {
	return float64(t - ZeroCelsius)
}

func (t Temperature) Kelvin() float64 { return float64(t) }

func (r Reactivity) PCM() float64 { return float64(r / PCM) }

// SphereArea is the surface area of a sphere of radius r.
func SphereArea(r Length) Area {
	return Area(4 * math.Pi * float64(r) * float64(r))
}

// SphereVolume is the volume of a sphere of radius r.
func SphereVolume(r Length) Volume {
	return Volume(4.0 / 3.0 * math.Pi * math.Pow(float64(r), 3))
}

// ShellVolume is the volume between two concentric spheres.
func ShellVolume(ri, ro Length) Volume {
	return SphereVolume(ro) - SphereVolume(ri)
}
