package props

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/reactorsim/internal/units"
)

var (
	// ErrUnknownModel is returned when a model tag is not in the closed set
	// of a property kind.
	ErrUnknownModel = errors.New("props: unknown model")

	// ErrBelowAbsoluteZero is returned when a model is evaluated at T < 0 K.
	ErrBelowAbsoluteZero = errors.New("props: temperature below absolute zero")

	// ErrOutOfRange is returned when a correlation is evaluated outside the
	// temperature range where its closed form is defined.
	ErrOutOfRange = errors.New("props: temperature outside correlation range")
)

// Coefficients are the named coefficients of a property model. Their
// meaning depends on the model; unused coefficients are ignored.
type Coefficients struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
	D float64 `yaml:"d"`
}

// helium correlations take the system pressure in bar from C.
const defaultHeliumPressure = 60.0

func (c Coefficients) pressure() float64 {
	if c.C > 0 {
		return c.C
	}
	return defaultHeliumPressure
}

// linear is the piecewise linear form shared by every property kind: a at
// or below 0 degC, a + b (T - 273.15) above.
func linear(c Coefficients, t units.Temperature) float64 {
	if t <= units.ZeroCelsius {
		return c.A
	}
	return c.A + c.B*float64(t-units.ZeroCelsius)
}

func checkTemperature(t units.Temperature) error {
	if t < 0 {
		return fmt.Errorf("%w: %g K", ErrBelowAbsoluteZero, float64(t))
	}
	return nil
}

func lookupKind(kind, model string, names []string) (int, error) {
	for i, n := range names {
		if n == model {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s model %q, options are: %s", ErrUnknownModel, kind, model, strings.Join(names, ", "))
}
