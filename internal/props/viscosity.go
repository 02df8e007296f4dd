package props

import (
	"fmt"
	"math"

	"github.com/san-kum/reactorsim/internal/units"
)

type ViscosityKind int

const (
	ViscosityConstant ViscosityKind = iota
	ViscosityExponential
	ViscositySodium
	ViscosityHelium
)

var viscosityNames = []string{"constant", "exponential", "sodium", "helium"}

func (k ViscosityKind) String() string { return viscosityNames[k] }

// Viscosity is a dynamic viscosity model mu(T).
type Viscosity struct {
	kind ViscosityKind
	coef Coefficients
}

func NewViscosity(model string, c Coefficients) (Viscosity, error) {
	k, err := lookupKind("viscosity", model, viscosityNames)
	if err != nil {
		return Viscosity{}, err
	}
	return Viscosity{kind: ViscosityKind(k), coef: c}, nil
}

func ConstantViscosity(a units.Viscosity) Viscosity {
	return Viscosity{kind: ViscosityConstant, coef: Coefficients{A: float64(a)}}
}

// ExponentialViscosity returns a exp(b / T) with b in kelvin.
func ExponentialViscosity(a units.Viscosity, b float64) Viscosity {
	return Viscosity{kind: ViscosityExponential, coef: Coefficients{A: float64(a), B: b}}
}

func (m Viscosity) Kind() ViscosityKind        { return m.kind }
func (m Viscosity) Coefficients() Coefficients { return m.coef }

func (m Viscosity) Evaluate(t units.Temperature) (units.Viscosity, error) {
	if err := checkTemperature(t); err != nil {
		return 0, err
	}
	T := float64(t)
	c := m.coef

	switch m.kind {
	case ViscosityConstant:
		return units.Viscosity(c.A), nil
	case ViscosityExponential:
		if T == 0 {
			return 0, fmt.Errorf("%w: exponential viscosity at 0 K", ErrOutOfRange)
		}
		return units.Viscosity(c.A * math.Exp(c.B/T)), nil
	case ViscositySodium:
		if T == 0 {
			return 0, fmt.Errorf("%w: sodium viscosity at 0 K", ErrOutOfRange)
		}
		// Fink-Leibowitz
		return units.Viscosity(math.Exp(-6.4406 - 0.3958*math.Log(T) + 556.835/T)), nil
	case ViscosityHelium:
		// KTA 3102.1
		return units.Viscosity(3.674e-7 * math.Pow(T, 0.7)), nil
	}
	return 0, ErrUnknownModel
}
