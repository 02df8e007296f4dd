package config

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/reactorsim/internal/props"
)

var Presets = map[string]*Config{
	"two_node": {
		Name:        "two_node",
		Description: "two solid blocks relaxing towards each other by conduction",
		Time:        TimeConfig{Tf: "600 s", Dt: "1 s"},
		Solver:      SolverConfig{Integrator: "rk45", Adaptive: true, Tolerance: 1e-8, MaxSubsteps: DefaultMaxSubsteps},
		Materials: []MaterialConfig{{
			Name:         "steel",
			Conductivity: &PropertyConfig{Model: "constant", Coefficients: coef(20)},
			HeatCapacity: "500 J/kg/K",
			Density:      &PropertyConfig{Model: "constant", Coefficients: coef(7800)},
		}},
		Components: []ComponentConfig{
			{Name: "hot", Material: "steel", Volume: "1 L", T0: "700 K"},
			{Name: "cold", Material: "steel", Volume: "2 L", T0: "600 K"},
		},
		Edges: []EdgeConfig{
			{Kind: "conduction", From: "hot", To: "cold", Area: "100 cm^2", Length: "5 cm", Mirror: true},
		},
	},
	"pbfhr_step": pbfhr("pbfhr_step", "pebble bed salt cooled core, 100 pcm step at 20 s",
		TimeConfig{Tf: "60 s", Dt: "0.1 s", TFeedback: "10 s"},
		&KineticsConfig{Isotope: "fhr", Spectrum: "thermal", Precursors: 6, DecayGroups: 11, Feedback: true},
		&ReactivityConfig{Kind: "step", TStep: "20 s", RhoFinal: "100 pcm"}),
	"pbfhr_ramp": pbfhr("pbfhr_ramp", "pebble bed salt cooled core, 600 pcm ramp between 60 s and 70 s",
		TimeConfig{Tf: "100 s", Dt: "0.02 s", TFeedback: "30 s"},
		&KineticsConfig{Isotope: "u235", Spectrum: "thermal", Precursors: 6, Feedback: true},
		&ReactivityConfig{Kind: "ramp", TStart: "60 s", TEnd: "70 s", RhoRise: "600 pcm", RhoFinal: "600 pcm"}),
}

func coef(a float64) props.Coefficients { return props.Coefficients{A: a} }

// pbfhr is 470000 pebbles of moderator, fuel and shell layers cooled by a
// single salt volume. The 0.5 mm shells relax in a few hundredths of a
// second, so substeps are capped at 0.02 s; longer trial stages overshoot
// below absolute zero.
func pbfhr(name, desc string, tc TimeConfig, kc *KineticsConfig, rc *ReactivityConfig) *Config {
	layer := func(ri, ro Quantity) *ShellConfig {
		return &ShellConfig{Ri: ri, Ro: ro, Count: 470000}
	}
	return &Config{
		Name:        name,
		Description: desc,
		Time:        tc,
		Solver:      SolverConfig{Integrator: "rk45", Adaptive: true, Tolerance: 1e-6, MaxSubsteps: DefaultMaxSubsteps, MaxDt: "0.02 s"},
		Kinetics:    kc,
		Reactivity:  rc,
		Materials: []MaterialConfig{
			{
				Name:         "mod",
				Conductivity: &PropertyConfig{Model: "constant", Coefficients: coef(17)},
				HeatCapacity: "1650 J/kg/K",
				Density:      &PropertyConfig{Model: "constant", Coefficients: coef(1740)},
			},
			{
				Name:         "fuel",
				Conductivity: &PropertyConfig{Model: "constant", Coefficients: coef(17)},
				HeatCapacity: "1818 J/kg/K",
				Density:      &PropertyConfig{Model: "constant", Coefficients: coef(2220)},
			},
			{
				Name:         "salt",
				Conductivity: &PropertyConfig{Model: "constant", Coefficients: coef(1)},
				HeatCapacity: "2415.78 J/kg/K",
				Density:      &PropertyConfig{Model: "linear", Coefficients: props.Coefficients{A: 2415.6, B: -0.49072}},
			},
		},
		Convection: []ConvectionConfig{
			{Name: "h_cool", Model: "constant", H0: "4700 W/m^2/K"},
		},
		Components: []ComponentConfig{
			{Name: "mod", Material: "mod", T0: "800 degC", Alpha: "-0.7 pcm/K", Shell: layer("0", "1.25 cm"), Mesh: "0.5 mm"},
			{Name: "fuel", Material: "fuel", T0: "800 degC", Alpha: "-3.19 pcm/K", Power: "234 MW", Shell: layer("1.25 cm", "1.4 cm"), Mesh: "0.5 mm"},
			{Name: "shell", Material: "mod", T0: "770 degC", Shell: layer("1.4 cm", "1.5 cm"), Mesh: "0.5 mm"},
			{Name: "cool", Material: "salt", Volume: "4.4297 m^3", T0: "650 degC", Alpha: "0.23 pcm/K"},
		},
		Supers: []SuperConfig{{
			Name:     "pebble",
			Parts:    []string{"mod", "fuel", "shell"},
			Boundary: &BoundaryConfig{Env: "cool", Coefficient: "h_cool"},
		}},
		Edges: []EdgeConfig{
			{Kind: "convection", From: "cool", To: "pebble", Coefficient: "h_cool", Area: "1328.9 m^2"},
			{Kind: "inlet", From: "cool", Flow: "976 kg/s", Cp: "2415.78 J/kg/K", Inlet: "600 degC"},
		},
	}
}

// GetPreset returns a copy of a built-in scenario.
func GetPreset(name string) (*Config, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownPreset, name, strings.Join(ListPresets(), ", "))
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep copies c.
func (c *Config) Clone() (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	out := base()
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
