package units

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Dimension identifies the physical dimension a configured value must carry.
type Dimension int

const (
	Dimensionless Dimension = iota
	DimTemperature
	DimLength
	DimArea
	DimVolume
	DimTime
	DimConductivity
	DimDensity
	DimViscosity
	DimSpecificHeat
	DimHeatTransfer
	DimPower
	DimMassFlow
	DimReactivity
	DimFeedback
)

var dimensionNames = map[Dimension]string{
	Dimensionless:   "dimensionless",
	DimTemperature:  "temperature",
	DimLength:       "length",
	DimArea:         "area",
	DimVolume:       "volume",
	DimTime:         "time",
	DimConductivity: "thermal conductivity",
	DimDensity:      "density",
	DimViscosity:    "dynamic viscosity",
	DimSpecificHeat: "specific heat",
	DimHeatTransfer: "heat transfer coefficient",
	DimPower:        "power",
	DimMassFlow:     "mass flow",
	DimReactivity:   "reactivity",
	DimFeedback:     "reactivity per kelvin",
}

func (d Dimension) String() string {
	if n, ok := dimensionNames[d]; ok {
		return n
	}
	return fmt.Sprintf("dimension(%d)", int(d))
}

var (
	ErrUnknownUnit       = errors.New("units: unknown unit")
	ErrDimensionMismatch = errors.New("units: dimension mismatch")
	ErrMalformed         = errors.New("units: malformed quantity")
)

type unitDef struct {
	dim    Dimension
	factor float64
	offset float64
}

// unitTable maps a unit symbol to its SI conversion: si = v*factor + offset.
var unitTable = map[string]unitDef{
	"K":       {DimTemperature, 1, 0},
	"degC":    {DimTemperature, 1, 273.15},
	"C":       {DimTemperature, 1, 273.15},
	"m":       {DimLength, 1, 0},
	"cm":      {DimLength, 1e-2, 0},
	"mm":      {DimLength, 1e-3, 0},
	"um":      {DimLength, 1e-6, 0},
	"m^2":     {DimArea, 1, 0},
	"cm^2":    {DimArea, 1e-4, 0},
	"m^3":     {DimVolume, 1, 0},
	"cm^3":    {DimVolume, 1e-6, 0},
	"L":       {DimVolume, 1e-3, 0},
	"s":       {DimTime, 1, 0},
	"ms":      {DimTime, 1e-3, 0},
	"min":     {DimTime, 60, 0},
	"h":       {DimTime, 3600, 0},
	"W/m/K":   {DimConductivity, 1, 0},
	"kg/m^3":  {DimDensity, 1, 0},
	"g/cm^3":  {DimDensity, 1e3, 0},
	"Pa*s":    {DimViscosity, 1, 0},
	"mPa*s":   {DimViscosity, 1e-3, 0},
	"J/kg/K":  {DimSpecificHeat, 1, 0},
	"W/m^2/K": {DimHeatTransfer, 1, 0},
	"W":       {DimPower, 1, 0},
	"kW":      {DimPower, 1e3, 0},
	"MW":      {DimPower, 1e6, 0},
	"kg/s":    {DimMassFlow, 1, 0},
	"dk":      {DimReactivity, 1, 0},
	"pcm":     {DimReactivity, 1e-5, 0},
	"dk/K":    {DimFeedback, 1, 0},
	"pcm/K":   {DimFeedback, 1e-5, 0},
}

// Parse converts a quantity string such as "650 degC" or "-3.19 pcm/K" to
// its SI magnitude. A bare number is taken as already in SI units. A unit
// of the wrong dimension is a configuration error.
func Parse(s string, dim Dimension) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 || len(fields) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if len(fields) == 1 {
		return v, nil
	}

	u, ok := unitTable[fields[1]]
	if !ok {
		return 0, fmt.Errorf("%w %q (known: %s)", ErrUnknownUnit, fields[1], strings.Join(Symbols(), ", "))
	}
	if u.dim != dim {
		return 0, fmt.Errorf("%w: %q is %s, want %s", ErrDimensionMismatch, s, u.dim, dim)
	}
	return v*u.factor + u.offset, nil
}

// Symbols lists every unit symbol Parse accepts.
func Symbols() []string {
	out := make([]string, 0, len(unitTable))
	for k := range unitTable {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
