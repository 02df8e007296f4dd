// Package config reads reactor scenarios from YAML and builds the coupled
// system they describe.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/reactorsim/internal/props"
	"github.com/san-kum/reactorsim/internal/units"
)

const (
	DefaultIntegrator  = "rk45"
	DefaultTolerance   = 1e-6
	DefaultMaxSubsteps = 5000
	DefaultMinDt       = 1e-10
)

var (
	ErrInvalid       = errors.New("config: invalid scenario")
	ErrUnknownPreset = errors.New("config: unknown preset")
)

var validate = validator.New()

// Quantity is a configured physical value: a plain SI number or a string
// with a unit such as "650 degC" or "-3.19 pcm/K".
type Quantity string

func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: quantity must be a scalar", node.Line)
	}
	*q = Quantity(node.Value)
	return nil
}

// Value converts q to SI in dimension dim. An empty quantity is zero.
func (q Quantity) Value(dim units.Dimension) (float64, error) {
	if q == "" {
		return 0, nil
	}
	return units.Parse(string(q), dim)
}

func (q Quantity) IsSet() bool { return q != "" }

type Config struct {
	Name        string             `yaml:"name" validate:"required"`
	Description string             `yaml:"description,omitempty"`
	Seed        int64              `yaml:"seed,omitempty"`
	Time        TimeConfig         `yaml:"time"`
	Solver      SolverConfig       `yaml:"solver"`
	Kinetics    *KineticsConfig    `yaml:"kinetics,omitempty"`
	Reactivity  *ReactivityConfig  `yaml:"reactivity,omitempty"`
	Materials   []MaterialConfig   `yaml:"materials" validate:"dive"`
	Convection  []ConvectionConfig `yaml:"convection,omitempty" validate:"dive"`
	Components  []ComponentConfig  `yaml:"components" validate:"required,min=1,dive"`
	Supers      []SuperConfig      `yaml:"super_components,omitempty" validate:"dive"`
	Edges       []EdgeConfig       `yaml:"edges,omitempty" validate:"dive"`
}

type TimeConfig struct {
	T0        Quantity `yaml:"t0,omitempty"`
	Tf        Quantity `yaml:"tf" validate:"required"`
	Dt        Quantity `yaml:"dt" validate:"required"`
	TFeedback Quantity `yaml:"t_feedback,omitempty"`
}

type SolverConfig struct {
	Integrator  string   `yaml:"integrator" validate:"required,oneof=euler rk4 rk45"`
	Adaptive    bool     `yaml:"adaptive"`
	Tolerance   float64  `yaml:"tolerance,omitempty" validate:"gte=0"`
	MaxSubsteps int      `yaml:"max_substeps" validate:"gt=0"`
	MaxDt       Quantity `yaml:"max_dt,omitempty"`
	MinDt       Quantity `yaml:"min_dt,omitempty"`
	// Bootstrap evaluates correlations at their bootstrap coolant
	// temperature until the first step is committed.
	Bootstrap bool `yaml:"bootstrap,omitempty"`
}

type KineticsConfig struct {
	Isotope     string  `yaml:"isotope" validate:"required"`
	Spectrum    string  `yaml:"spectrum" validate:"required,oneof=thermal fast"`
	Precursors  int     `yaml:"precursor_groups" validate:"oneof=0 1 6"`
	DecayGroups int     `yaml:"decay_groups" validate:"gte=0,lte=11"`
	Feedback    bool    `yaml:"feedback"`
	Power0      float64 `yaml:"power0,omitempty" validate:"gte=0"`
}

type ReactivityConfig struct {
	Kind     string   `yaml:"kind" validate:"required,oneof=none step ramp impulse"`
	TStep    Quantity `yaml:"t_step,omitempty"`
	TStart   Quantity `yaml:"t_start,omitempty"`
	TEnd     Quantity `yaml:"t_end,omitempty"`
	RhoInit  Quantity `yaml:"rho_init,omitempty"`
	RhoFinal Quantity `yaml:"rho_final,omitempty"`
	RhoRise  Quantity `yaml:"rho_rise,omitempty"`
	RhoMax   Quantity `yaml:"rho_max,omitempty"`
}

// PropertyConfig selects a property model by tag. Coefficients are SI.
type PropertyConfig struct {
	Model              string `yaml:"model" validate:"required"`
	props.Coefficients `yaml:",inline"`
}

// MaterialConfig either names a library material or defines one.
type MaterialConfig struct {
	Name         string          `yaml:"name" validate:"required"`
	Library      string          `yaml:"library,omitempty"`
	Conductivity *PropertyConfig `yaml:"conductivity,omitempty" validate:"required_without=Library"`
	HeatCapacity Quantity        `yaml:"heat_capacity,omitempty" validate:"required_without=Library"`
	Density      *PropertyConfig `yaml:"density,omitempty" validate:"required_without=Library"`
	Viscosity    *PropertyConfig `yaml:"viscosity,omitempty"`
}

type ConvectionConfig struct {
	Name        string   `yaml:"name" validate:"required"`
	Model       string   `yaml:"model" validate:"required,oneof=constant wakao"`
	H0          Quantity `yaml:"h0,omitempty" validate:"required_if=Model constant"`
	Fluid       string   `yaml:"fluid,omitempty" validate:"required_if=Model wakao"`
	MassFlow    Quantity `yaml:"mass_flow,omitempty"`
	FlowArea    Quantity `yaml:"flow_area,omitempty"`
	LengthScale Quantity `yaml:"length_scale,omitempty"`
	Bootstrap   Quantity `yaml:"bootstrap,omitempty"`
}

type ShellConfig struct {
	Ri    Quantity `yaml:"ri"`
	Ro    Quantity `yaml:"ro" validate:"required"`
	Count float64  `yaml:"count,omitempty" validate:"gte=0"`
}

type ComponentConfig struct {
	Name     string       `yaml:"name" validate:"required"`
	Material string       `yaml:"material" validate:"required"`
	Volume   Quantity     `yaml:"volume,omitempty"`
	T0       Quantity     `yaml:"t0" validate:"required"`
	Alpha    Quantity     `yaml:"alpha,omitempty"`
	Power    Quantity     `yaml:"power,omitempty"`
	Shell    *ShellConfig `yaml:"shell,omitempty"`
	// Mesh splits a shell component into sub-shells no thicker than this.
	Mesh Quantity `yaml:"mesh,omitempty"`
}

type BoundaryConfig struct {
	Env          string   `yaml:"env" validate:"required"`
	Coefficient  string   `yaml:"coefficient" validate:"required"`
	Conductivity Quantity `yaml:"conductivity,omitempty"`
}

// SuperConfig groups meshed components, innermost first.
type SuperConfig struct {
	Name     string          `yaml:"name" validate:"required"`
	Parts    []string        `yaml:"parts" validate:"required,min=1"`
	Boundary *BoundaryConfig `yaml:"boundary,omitempty"`
}

// EdgeConfig is a directed heat flow into From. Mirror adds the reverse
// conduction or convection edge.
type EdgeConfig struct {
	Kind        string   `yaml:"kind" validate:"required,oneof=conduction convection advection inlet"`
	From        string   `yaml:"from" validate:"required"`
	To          string   `yaml:"to,omitempty" validate:"required_unless=Kind inlet"`
	Area        Quantity `yaml:"area,omitempty"`
	Length      Quantity `yaml:"length,omitempty"`
	Coefficient string   `yaml:"coefficient,omitempty" validate:"required_if=Kind convection"`
	Reference   string   `yaml:"reference,omitempty" validate:"omitempty,oneof=self neighbor"`
	Flow        Quantity `yaml:"flow,omitempty"`
	Cp          Quantity `yaml:"cp,omitempty"`
	Inlet       Quantity `yaml:"inlet,omitempty"`
	Mirror      bool     `yaml:"mirror,omitempty"`
}

// base carries solver defaults; files fill in everything else.
func base() *Config {
	return &Config{
		Solver: SolverConfig{
			Integrator:  DefaultIntegrator,
			Adaptive:    true,
			Tolerance:   DefaultTolerance,
			MaxSubsteps: DefaultMaxSubsteps,
		},
	}
}

// DefaultConfig is the two_node preset.
func DefaultConfig() *Config {
	cfg, _ := GetPreset("two_node")
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := base()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks struct tags and cross references between sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	materials := make(map[string]bool)
	for _, m := range c.Materials {
		if materials[m.Name] {
			return fmt.Errorf("%w: duplicate material %q", ErrInvalid, m.Name)
		}
		materials[m.Name] = true
	}

	coefficients := make(map[string]bool)
	for _, h := range c.Convection {
		if coefficients[h.Name] {
			return fmt.Errorf("%w: duplicate convection model %q", ErrInvalid, h.Name)
		}
		if h.Fluid != "" && !materials[h.Fluid] {
			return fmt.Errorf("%w: convection %q uses unknown fluid %q", ErrInvalid, h.Name, h.Fluid)
		}
		coefficients[h.Name] = true
	}

	nodes := make(map[string]bool)
	for _, comp := range c.Components {
		if nodes[comp.Name] {
			return fmt.Errorf("%w: duplicate component %q", ErrInvalid, comp.Name)
		}
		if !materials[comp.Material] {
			return fmt.Errorf("%w: component %q uses unknown material %q", ErrInvalid, comp.Name, comp.Material)
		}
		if comp.Mesh.IsSet() && comp.Shell == nil {
			return fmt.Errorf("%w: component %q has a mesh but no shell", ErrInvalid, comp.Name)
		}
		nodes[comp.Name] = true
	}

	grouped := make(map[string]string)
	for _, s := range c.Supers {
		if nodes[s.Name] {
			return fmt.Errorf("%w: super component %q clashes with a component name", ErrInvalid, s.Name)
		}
		for _, p := range s.Parts {
			if !nodes[p] {
				return fmt.Errorf("%w: super component %q has unknown part %q", ErrInvalid, s.Name, p)
			}
			if owner, ok := grouped[p]; ok {
				return fmt.Errorf("%w: %q is part of both %q and %q", ErrInvalid, p, owner, s.Name)
			}
			grouped[p] = s.Name
		}
		if s.Boundary != nil && !coefficients[s.Boundary.Coefficient] {
			return fmt.Errorf("%w: super component %q uses unknown coefficient %q", ErrInvalid, s.Name, s.Boundary.Coefficient)
		}
	}

	for i, e := range c.Edges {
		if e.Kind == "convection" && !coefficients[e.Coefficient] {
			return fmt.Errorf("%w: edges[%d] uses unknown coefficient %q", ErrInvalid, i, e.Coefficient)
		}
		if e.Mirror && e.Kind != "conduction" && e.Kind != "convection" {
			return fmt.Errorf("%w: edges[%d]: only conduction and convection edges can be mirrored", ErrInvalid, i)
		}
	}

	if c.Solver.Adaptive && c.Solver.Tolerance <= 0 {
		return fmt.Errorf("%w: adaptive stepping needs a positive tolerance", ErrInvalid)
	}
	return nil
}

func formatValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	e := errs[0]
	field := e.Namespace()
	switch e.Tag() {
	case "required", "required_without", "required_if", "required_unless":
		return fmt.Errorf("%w: %s is required", ErrInvalid, field)
	case "oneof":
		return fmt.Errorf("%w: %s must be one of: %s", ErrInvalid, field, e.Param())
	case "min":
		return fmt.Errorf("%w: %s must have at least %s entries", ErrInvalid, field, e.Param())
	default:
		return fmt.Errorf("%w: %s failed %s=%s", ErrInvalid, field, e.Tag(), e.Param())
	}
}
