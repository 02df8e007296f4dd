// Package kinetics implements point reactor kinetics with delayed neutron
// precursors and decay heat groups.
//
// The kinetics segment of a state vector is laid out as
//
//	[power, zeta_1 .. zeta_np, omega_1 .. omega_nd]
//
// where power is relative to nominal, zeta are precursor concentrations and
// omega are decay heat group contributions.
package kinetics

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/reactorsim/internal/units"
)

//go:embed data/kinetics.yaml
var dataFile []byte

var (
	ErrUnknownDataset = errors.New("kinetics: unknown data set")
	ErrGroupCount     = errors.New("kinetics: unsupported group count")
	ErrInvalidParams  = errors.New("kinetics: invalid parameters")
	ErrDimension      = errors.New("kinetics: state segment has wrong length")
)

type library struct {
	DecayHeat struct {
		Lambda []float64 `yaml:"lambda"`
		Kappa  []float64 `yaml:"kappa"`
	} `yaml:"decay_heat"`
	Datasets []dataset `yaml:"datasets"`
}

type dataset struct {
	Isotope        string    `yaml:"isotope"`
	Spectrum       string    `yaml:"spectrum"`
	GenerationTime float64   `yaml:"generation_time"`
	Beta           []float64 `yaml:"beta"`
	Lambda         []float64 `yaml:"lambda"`
}

func (d dataset) key() string { return d.Isotope + "/" + d.Spectrum }

func loadLibrary() (*library, error) {
	var lib library
	if err := yaml.Unmarshal(dataFile, &lib); err != nil {
		return nil, fmt.Errorf("kinetics: parse data library: %w", err)
	}
	return &lib, nil
}

// Params are the fixed kinetics constants of one run.
type Params struct {
	Isotope        string
	Spectrum       string
	GenerationTime float64 // s
	Beta           []float64
	Lambda         []float64 // 1/s
	DecayLambda    []float64 // 1/s
	DecayKappa     []float64
}

// Datasets lists the available isotope/spectrum keys.
func Datasets() ([]string, error) {
	lib, err := loadLibrary()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(lib.Datasets))
	for _, d := range lib.Datasets {
		keys = append(keys, d.key())
	}
	sort.Strings(keys)
	return keys, nil
}

// Load reads the data set for isotope and spectrum. nPrecursor must be 0, 1
// or 6; a single group collapses the six-group data. nDecay truncates the
// decay heat table.
func Load(isotope, spectrum string, nPrecursor, nDecay int) (*Params, error) {
	lib, err := loadLibrary()
	if err != nil {
		return nil, err
	}

	var ds *dataset
	for i := range lib.Datasets {
		if lib.Datasets[i].Isotope == isotope && lib.Datasets[i].Spectrum == spectrum {
			ds = &lib.Datasets[i]
			break
		}
	}
	if ds == nil {
		keys := make([]string, 0, len(lib.Datasets))
		for _, d := range lib.Datasets {
			keys = append(keys, d.key())
		}
		return nil, fmt.Errorf("%w: %s/%s, options are: %s", ErrUnknownDataset, isotope, spectrum, strings.Join(keys, ", "))
	}

	if nDecay < 0 || nDecay > len(lib.DecayHeat.Lambda) {
		return nil, fmt.Errorf("%w: %d decay heat groups, at most %d available", ErrGroupCount, nDecay, len(lib.DecayHeat.Lambda))
	}

	p := &Params{
		Isotope:        isotope,
		Spectrum:       spectrum,
		GenerationTime: ds.GenerationTime,
		DecayLambda:    append([]float64(nil), lib.DecayHeat.Lambda[:nDecay]...),
		DecayKappa:     append([]float64(nil), lib.DecayHeat.Kappa[:nDecay]...),
	}

	switch nPrecursor {
	case 0:
	case 1:
		beta, weighted := 0.0, 0.0
		for i := range ds.Beta {
			beta += ds.Beta[i]
			weighted += ds.Beta[i] / ds.Lambda[i]
		}
		p.Beta = []float64{beta}
		p.Lambda = []float64{beta / weighted}
	case len(ds.Beta):
		p.Beta = append([]float64(nil), ds.Beta...)
		p.Lambda = append([]float64(nil), ds.Lambda...)
	default:
		return nil, fmt.Errorf("%w: %d precursor groups, use 0, 1 or %d", ErrGroupCount, nPrecursor, len(ds.Beta))
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks group lengths and signs. It is called by Load and must be
// called on hand built parameters.
func (p *Params) Validate() error {
	if p.GenerationTime <= 0 {
		return fmt.Errorf("%w: generation time must be positive, got %g", ErrInvalidParams, p.GenerationTime)
	}
	if len(p.Beta) != len(p.Lambda) {
		return fmt.Errorf("%w: %d beta values for %d precursor constants", ErrInvalidParams, len(p.Beta), len(p.Lambda))
	}
	if len(p.DecayLambda) != len(p.DecayKappa) {
		return fmt.Errorf("%w: %d decay constants for %d decay fractions", ErrInvalidParams, len(p.DecayLambda), len(p.DecayKappa))
	}
	for i, l := range p.Lambda {
		if l <= 0 || p.Beta[i] < 0 {
			return fmt.Errorf("%w: precursor group %d has beta %g, lambda %g", ErrInvalidParams, i, p.Beta[i], l)
		}
	}
	for i, l := range p.DecayLambda {
		if l <= 0 || p.DecayKappa[i] < 0 {
			return fmt.Errorf("%w: decay group %d has kappa %g, lambda %g", ErrInvalidParams, i, p.DecayKappa[i], l)
		}
	}
	if p.DecayFraction() >= 1 {
		return fmt.Errorf("%w: decay heat fractions sum to %g", ErrInvalidParams, p.DecayFraction())
	}
	return nil
}

func (p *Params) Precursors() int  { return len(p.Beta) }
func (p *Params) DecayGroups() int { return len(p.DecayLambda) }

// Size is the length of the kinetics state segment.
func (p *Params) Size() int { return 1 + len(p.Beta) + len(p.DecayLambda) }

func (p *Params) BetaTotal() float64 {
	sum := 0.0
	for _, b := range p.Beta {
		sum += b
	}
	return sum
}

// DecayFraction is the share of nominal power that appears as decay heat.
func (p *Params) DecayFraction() float64 {
	sum := 0.0
	for _, k := range p.DecayKappa {
		sum += k
	}
	return sum
}

// Equilibrium returns the steady state segment at relative power p0.
func (p *Params) Equilibrium(p0 float64) []float64 {
	x := make([]float64, p.Size())
	x[0] = p0
	for i := range p.Beta {
		x[1+i] = p.Beta[i] * p0 / (p.Lambda[i] * p.GenerationTime)
	}
	off := 1 + len(p.Beta)
	for j := range p.DecayLambda {
		x[off+j] = p.DecayKappa[j] * p0 / p.DecayLambda[j]
	}
	return x
}

// Derive writes the time derivative of segment x under total reactivity rho
// into dx.
func (p *Params) Derive(rho units.Reactivity, x, dx []float64) error {
	n := p.Size()
	if len(x) != n || len(dx) != n {
		return fmt.Errorf("%w: got %d and %d, want %d", ErrDimension, len(x), len(dx), n)
	}

	power := x[0]
	dp := (float64(rho) - p.BetaTotal()) / p.GenerationTime * power
	for i := range p.Beta {
		zeta := x[1+i]
		dp += p.Lambda[i] * zeta
		dx[1+i] = p.Beta[i]/p.GenerationTime*power - p.Lambda[i]*zeta
	}
	dx[0] = dp

	off := 1 + len(p.Beta)
	for j := range p.DecayLambda {
		omega := x[off+j]
		dx[off+j] = p.DecayKappa[j]*power - p.DecayLambda[j]*omega
	}
	return nil
}

// ThermalPower is the relative thermal power of segment x: the prompt share
// of fission power plus the decay heat release.
func (p *Params) ThermalPower(x []float64) float64 {
	q := (1 - p.DecayFraction()) * x[0]
	off := 1 + len(p.Beta)
	for j := range p.DecayLambda {
		q += p.DecayLambda[j] * x[off+j]
	}
	return q
}

// Split returns views of the power, precursor and decay heat parts of x.
func (p *Params) Split(x []float64) (power float64, zeta, omega []float64) {
	off := 1 + len(p.Beta)
	return x[0], x[1:off], x[off:p.Size()]
}
