package props

import (
	"fmt"
	"math"

	"github.com/san-kum/reactorsim/internal/units"
)

type DensityKind int

const (
	DensityConstant DensityKind = iota
	DensityLinear
	DensitySodium
	DensityHelium
)

var densityNames = []string{"constant", "linear", "sodium", "helium"}

func (k DensityKind) String() string { return densityNames[k] }

// sodium critical temperature used by the Fink-Leibowitz density fit
const sodiumCriticalTemp = 2503.7

// Density is a mass density model rho(T).
type Density struct {
	kind DensityKind
	coef Coefficients
}

func NewDensity(model string, c Coefficients) (Density, error) {
	k, err := lookupKind("density", model, densityNames)
	if err != nil {
		return Density{}, err
	}
	return Density{kind: DensityKind(k), coef: c}, nil
}

func ConstantDensity(a units.Density) Density {
	return Density{kind: DensityConstant, coef: Coefficients{A: float64(a)}}
}

// LinearDensity returns a + b (T - 273.15) above 0 degC; b is in
// kg/(m^3 K).
func LinearDensity(a units.Density, b float64) Density {
	return Density{kind: DensityLinear, coef: Coefficients{A: float64(a), B: b}}
}

func (m Density) Kind() DensityKind          { return m.kind }
func (m Density) Coefficients() Coefficients { return m.coef }

func (m Density) Evaluate(t units.Temperature) (units.Density, error) {
	if err := checkTemperature(t); err != nil {
		return 0, err
	}
	T := float64(t)
	c := m.coef

	switch m.kind {
	case DensityConstant:
		return units.Density(c.A), nil
	case DensityLinear:
		return units.Density(linear(c, t)), nil
	case DensitySodium:
		if T >= sodiumCriticalTemp {
			return 0, fmt.Errorf("%w: sodium density at %g K", ErrOutOfRange, T)
		}
		x := 1 - T/sodiumCriticalTemp
		return units.Density(219 + 275.32*x + 511.58*math.Sqrt(x)), nil
	case DensityHelium:
		if T == 0 {
			return 0, fmt.Errorf("%w: helium density at 0 K", ErrOutOfRange)
		}
		// KTA 3102.1, p in bar
		p := c.pressure()
		return units.Density(48.14 * p / T / (1 + 0.4446*p/math.Pow(T, 1.2))), nil
	}
	return 0, ErrUnknownModel
}
