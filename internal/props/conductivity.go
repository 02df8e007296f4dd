package props

import (
	"fmt"
	"math"

	"github.com/san-kum/reactorsim/internal/units"
)

type ConductivityKind int

const (
	ConductivityConstant ConductivityKind = iota
	ConductivityLinear
	ConductivitySodium
	ConductivityHelium
	ConductivityUO2Kernel
	ConductivityPolynomial
)

var conductivityNames = []string{"constant", "linear", "sodium", "helium", "uo2_kernel", "polynomial"}

func (k ConductivityKind) String() string { return conductivityNames[k] }

// Conductivity is a thermal conductivity model k(T).
type Conductivity struct {
	kind ConductivityKind
	coef Coefficients
}

// NewConductivity builds a conductivity model from its tag. An unknown tag
// fails here rather than on first evaluation.
func NewConductivity(model string, c Coefficients) (Conductivity, error) {
	k, err := lookupKind("conductivity", model, conductivityNames)
	if err != nil {
		return Conductivity{}, err
	}
	return Conductivity{kind: ConductivityKind(k), coef: c}, nil
}

func ConstantConductivity(a units.Conductivity) Conductivity {
	return Conductivity{kind: ConductivityConstant, coef: Coefficients{A: float64(a)}}
}

// LinearConductivity returns a + b (T - 273.15) above 0 degC; b is in
// W/(m K^2).
func LinearConductivity(a units.Conductivity, b float64) Conductivity {
	return Conductivity{kind: ConductivityLinear, coef: Coefficients{A: float64(a), B: b}}
}

func (m Conductivity) Kind() ConductivityKind     { return m.kind }
func (m Conductivity) Coefficients() Coefficients { return m.coef }

func (m Conductivity) Evaluate(t units.Temperature) (units.Conductivity, error) {
	if err := checkTemperature(t); err != nil {
		return 0, err
	}
	T := float64(t)
	c := m.coef

	switch m.kind {
	case ConductivityConstant:
		return units.Conductivity(c.A), nil
	case ConductivityLinear:
		return units.Conductivity(linear(c, t)), nil
	case ConductivitySodium:
		// liquid sodium cubic fit, T in K
		return units.Conductivity(124.67 - 0.11381*T + 5.5226e-5*T*T - 1.1842e-8*T*T*T), nil
	case ConductivityHelium:
		if T == 0 {
			return 0, fmt.Errorf("%w: helium conductivity at 0 K", ErrOutOfRange)
		}
		// KTA 3102.1, p in bar
		p := c.pressure()
		return units.Conductivity(2.682e-3 * (1 + 1.123e-3*p) * math.Pow(T, 0.71*(1-2e-4*p))), nil
	case ConductivityUO2Kernel:
		if T == 0 {
			return 0, ErrOutOfRange
		}
		// IAEA recommended fit for 95% dense UO2, tau = T/1000
		tau := T / 1000
		phonon := 100 / (7.5408 + 17.692*tau + 3.6142*tau*tau)
		polaron := 6400 / math.Pow(tau, 2.5) * math.Exp(-16.35/tau)
		return units.Conductivity(phonon + polaron), nil
	case ConductivityPolynomial:
		return units.Conductivity(c.A + c.B*T + c.C*T*T + c.D*T*T*T), nil
	}
	return 0, ErrUnknownModel
}
