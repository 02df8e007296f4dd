package config

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/reactorsim/internal/convection"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/integrators"
	"github.com/san-kum/reactorsim/internal/kinetics"
	"github.com/san-kum/reactorsim/internal/material"
	"github.com/san-kum/reactorsim/internal/props"
	"github.com/san-kum/reactorsim/internal/reactivity"
	"github.com/san-kum/reactorsim/internal/reactor"
	"github.com/san-kum/reactorsim/internal/thermal"
	"github.com/san-kum/reactorsim/internal/timer"
	"github.com/san-kum/reactorsim/internal/units"
)

// Scenario is everything needed to run one configured simulation.
type Scenario struct {
	Name       string
	System     *reactor.System
	Timer      *timer.Timer
	Run        dynamo.Config
	Integrator dynamo.Integrator
	// IntegratorName is the registry name Integrator was made from.
	IntegratorName string
	Warnings       []thermal.Warning
}

// resolver converts quantities and keeps the first failure.
type resolver struct {
	err error
}

func (r *resolver) get(q Quantity, dim units.Dimension, field string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := q.Value(dim)
	if err != nil {
		r.err = fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
	}
	return v
}

// Build assembles an independent reactor system from cfg. Nothing is shared
// between two scenarios built from the same config.
func Build(cfg *Config, log *logrus.Entry) (*Scenario, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.WithField("scenario", cfg.Name)
	r := &resolver{}

	t0 := r.get(cfg.Time.T0, units.DimTime, "time.t0")
	tf := r.get(cfg.Time.Tf, units.DimTime, "time.tf")
	dt := r.get(cfg.Time.Dt, units.DimTime, "time.dt")
	tFeedback := r.get(cfg.Time.TFeedback, units.DimTime, "time.t_feedback")
	if r.err != nil {
		return nil, r.err
	}
	ti, err := timer.New(t0, tf, dt, tFeedback)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	mats, err := buildMaterials(cfg.Materials, r)
	if err != nil {
		return nil, err
	}
	models, err := buildConvection(cfg.Convection, mats, r)
	if err != nil {
		return nil, err
	}

	net, err := buildNetwork(cfg, ti, mats, models, r, log)
	if err != nil {
		return nil, err
	}
	warnings, err := net.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	rc := reactor.Config{
		Network:   net,
		Timer:     ti,
		Bootstrap: cfg.Solver.Bootstrap,
		Log:       log,
	}
	if k := cfg.Kinetics; k != nil {
		params, err := kinetics.Load(k.Isotope, k.Spectrum, k.Precursors, k.DecayGroups)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		rc.Kinetics = params
		rc.Feedback = k.Feedback
		rc.Power0 = k.Power0
	}
	if cfg.Reactivity != nil {
		if rc.Insertion, err = buildInsertion(cfg.Reactivity, r); err != nil {
			return nil, err
		}
	}
	sys, err := reactor.New(rc)
	if err != nil {
		return nil, err
	}

	integrator, err := integrators.New(cfg.Solver.Integrator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	run := dynamo.Config{
		T0:            t0,
		Dt:            dt,
		Duration:      tf - t0,
		MaxSubsteps:   cfg.Solver.MaxSubsteps,
		Tolerance:     cfg.Solver.Tolerance,
		MaxDt:         r.get(cfg.Solver.MaxDt, units.DimTime, "solver.max_dt"),
		MinDt:         r.get(cfg.Solver.MinDt, units.DimTime, "solver.min_dt"),
		Adaptive:      cfg.Solver.Adaptive,
		ValidateState: true,
	}
	if r.err != nil {
		return nil, r.err
	}
	if run.MaxDt == 0 {
		run.MaxDt = dt
	}
	if run.MinDt == 0 {
		run.MinDt = DefaultMinDt
	}

	log.WithFields(logrus.Fields{
		"components": net.Len(),
		"state":      sys.StateDim(),
		"steps":      ti.Timesteps() - 1,
	}).Debug("scenario built")

	return &Scenario{
		Name:           cfg.Name,
		System:         sys,
		Timer:          ti,
		Run:            run,
		Integrator:     integrator,
		IntegratorName: cfg.Solver.Integrator,
		Warnings:       warnings,
	}, nil
}

func property(p *PropertyConfig) (string, props.Coefficients) {
	if p == nil {
		return "", props.Coefficients{}
	}
	return p.Model, p.Coefficients
}

func buildMaterials(cfgs []MaterialConfig, r *resolver) (map[string]*material.Material, error) {
	mats := make(map[string]*material.Material, len(cfgs))
	for i, mc := range cfgs {
		if mc.Library != "" {
			m, err := material.Lookup(mc.Library)
			if err != nil {
				return nil, fmt.Errorf("%w: materials[%d]: %w", ErrInvalid, i, err)
			}
			mats[mc.Name] = m
			continue
		}

		k, err := props.NewConductivity(property(mc.Conductivity))
		if err != nil {
			return nil, fmt.Errorf("%w: materials[%d].conductivity: %w", ErrInvalid, i, err)
		}
		rho, err := props.NewDensity(property(mc.Density))
		if err != nil {
			return nil, fmt.Errorf("%w: materials[%d].density: %w", ErrInvalid, i, err)
		}
		cp := units.SpecificHeat(r.get(mc.HeatCapacity, units.DimSpecificHeat, fmt.Sprintf("materials[%d].heat_capacity", i)))
		if r.err != nil {
			return nil, r.err
		}

		var m *material.Material
		if mc.Viscosity != nil {
			mu, err := props.NewViscosity(property(mc.Viscosity))
			if err != nil {
				return nil, fmt.Errorf("%w: materials[%d].viscosity: %w", ErrInvalid, i, err)
			}
			m, err = material.NewLiquid(mc.Name, k, cp, rho, mu)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
			}
		} else {
			m, err = material.New(mc.Name, k, cp, rho)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
			}
		}
		mats[mc.Name] = m
	}
	return mats, nil
}

func buildConvection(cfgs []ConvectionConfig, mats map[string]*material.Material, r *resolver) (map[string]*convection.Model, error) {
	models := make(map[string]*convection.Model, len(cfgs))
	for i, hc := range cfgs {
		field := fmt.Sprintf("convection[%d]", i)
		if hc.Model == "constant" {
			h0 := r.get(hc.H0, units.DimHeatTransfer, field+".h0")
			if r.err != nil {
				return nil, r.err
			}
			models[hc.Name] = convection.NewConstant(units.HeatTransferCoefficient(h0))
			continue
		}

		flow := convection.Flow{
			MassFlow:    units.MassFlow(r.get(hc.MassFlow, units.DimMassFlow, field+".mass_flow")),
			Area:        units.Area(r.get(hc.FlowArea, units.DimArea, field+".flow_area")),
			LengthScale: units.Length(r.get(hc.LengthScale, units.DimLength, field+".length_scale")),
		}
		var bootstrap *units.Temperature
		if hc.Bootstrap.IsSet() {
			b := units.Temperature(r.get(hc.Bootstrap, units.DimTemperature, field+".bootstrap"))
			bootstrap = &b
		}
		if r.err != nil {
			return nil, r.err
		}
		m, err := convection.NewCorrelation(hc.Model, mats[hc.Fluid], flow, bootstrap)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
		}
		models[hc.Name] = m
	}
	return models, nil
}

func buildComponent(cc ComponentConfig, ti *timer.Timer, mat *material.Material, r *resolver, field string) (*thermal.Component, error) {
	p := thermal.Params{
		Name:     cc.Name,
		Material: mat,
		Volume:   units.Volume(r.get(cc.Volume, units.DimVolume, field+".volume")),
		T0:       units.Temperature(r.get(cc.T0, units.DimTemperature, field+".t0")),
	}
	if cc.Alpha.IsSet() {
		a := units.FeedbackCoefficient(r.get(cc.Alpha, units.DimFeedback, field+".alpha"))
		p.Feedback = &a
	}
	if cc.Power.IsSet() {
		w := units.Power(r.get(cc.Power, units.DimPower, field+".power"))
		p.Power = &w
	}
	if cc.Shell != nil {
		p.Shell = &thermal.Shell{
			Ri:    units.Length(r.get(cc.Shell.Ri, units.DimLength, field+".shell.ri")),
			Ro:    units.Length(r.get(cc.Shell.Ro, units.DimLength, field+".shell.ro")),
			Count: cc.Shell.Count,
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	c, err := thermal.New(p, ti)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
	}
	return c, nil
}

func buildNetwork(cfg *Config, ti *timer.Timer, mats map[string]*material.Material, models map[string]*convection.Model, r *resolver, log *logrus.Entry) (*thermal.Network, error) {
	// parts lists the shells every component contributes, innermost first
	parts := make(map[string][]*thermal.Component, len(cfg.Components))
	for i, cc := range cfg.Components {
		field := fmt.Sprintf("components[%d]", i)
		c, err := buildComponent(cc, ti, mats[cc.Material], r, field)
		if err != nil {
			return nil, err
		}
		if !cc.Mesh.IsSet() {
			parts[cc.Name] = []*thermal.Component{c}
			continue
		}
		l := units.Length(r.get(cc.Mesh, units.DimLength, field+".mesh"))
		if r.err != nil {
			return nil, r.err
		}
		subs, err := c.Mesh(l)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
		}
		parts[cc.Name] = subs
	}

	groups := make(map[string]*SuperConfig)
	for i := range cfg.Supers {
		for _, p := range cfg.Supers[i].Parts {
			groups[p] = &cfg.Supers[i]
		}
	}
	for _, cc := range cfg.Components {
		if _, ok := groups[cc.Name]; !ok && cc.Mesh.IsSet() {
			groups[cc.Name] = &SuperConfig{Name: cc.Name, Parts: []string{cc.Name}}
		}
	}

	net := thermal.NewNetwork(log)
	supers := make(map[string]*thermal.SuperComponent)
	for _, cc := range cfg.Components {
		sc, grouped := groups[cc.Name]
		if !grouped {
			if err := net.Add(parts[cc.Name]...); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
			}
			continue
		}
		if _, done := supers[sc.Name]; done {
			continue
		}

		var subs []*thermal.Component
		for _, p := range sc.Parts {
			subs = append(subs, parts[p]...)
		}
		s, err := thermal.NewSuperComponent(sc.Name, subs)
		if err != nil {
			return nil, fmt.Errorf("%w: super component %q: %w", ErrInvalid, sc.Name, err)
		}
		if err := net.AddSuper(s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		supers[sc.Name] = s
	}

	for i, sc := range cfg.Supers {
		if sc.Boundary == nil {
			continue
		}
		env, err := net.Lookup(sc.Boundary.Env)
		if err != nil {
			return nil, fmt.Errorf("%w: super_components[%d].boundary: %w", ErrInvalid, i, err)
		}
		var k *units.Conductivity
		if sc.Boundary.Conductivity.IsSet() {
			v := units.Conductivity(r.get(sc.Boundary.Conductivity, units.DimConductivity, fmt.Sprintf("super_components[%d].boundary.conductivity", i)))
			k = &v
		}
		if r.err != nil {
			return nil, r.err
		}
		if err := supers[sc.Name].AddBoundaryConvection(env, models[sc.Boundary.Coefficient], k); err != nil {
			return nil, fmt.Errorf("%w: super_components[%d]: %w", ErrInvalid, i, err)
		}
	}

	for i, ec := range cfg.Edges {
		if err := addEdge(net, ec, models, r, fmt.Sprintf("edges[%d]", i)); err != nil {
			return nil, err
		}
	}
	return net, nil
}

func addEdge(net *thermal.Network, ec EdgeConfig, models map[string]*convection.Model, r *resolver, field string) error {
	from, err := net.Lookup(ec.From)
	if err != nil {
		return fmt.Errorf("%w: %s.from: %w", ErrInvalid, field, err)
	}
	var to thermal.Node
	if ec.Kind != "inlet" {
		if to, err = net.Lookup(ec.To); err != nil {
			return fmt.Errorf("%w: %s.to: %w", ErrInvalid, field, err)
		}
	}

	switch ec.Kind {
	case "conduction":
		area := units.Area(r.get(ec.Area, units.DimArea, field+".area"))
		length := units.Length(r.get(ec.Length, units.DimLength, field+".length"))
		if r.err != nil {
			return r.err
		}
		err = from.Surface().AddConduction(to, area, length)
		if err == nil && ec.Mirror {
			err = to.Surface().AddConduction(from, area, length)
		}
	case "convection":
		area := units.Area(r.get(ec.Area, units.DimArea, field+".area"))
		if r.err != nil {
			return r.err
		}
		ref, mirrored := thermal.RefSelf, thermal.RefNeighbor
		if ec.Reference == "neighbor" {
			ref, mirrored = mirrored, ref
		}
		h := models[ec.Coefficient]
		err = from.Surface().AddConvection(to, h, area, ref)
		if err == nil && ec.Mirror {
			err = to.Surface().AddConvection(from, h, area, mirrored)
		}
	case "advection", "inlet":
		flow := units.MassFlow(r.get(ec.Flow, units.DimMassFlow, field+".flow"))
		cp := units.SpecificHeat(r.get(ec.Cp, units.DimSpecificHeat, field+".cp"))
		if ec.Kind == "inlet" {
			inlet := units.Temperature(r.get(ec.Inlet, units.DimTemperature, field+".inlet"))
			if r.err != nil {
				return r.err
			}
			err = from.Surface().AddInletAdvection(inlet, flow, cp)
			break
		}
		if r.err != nil {
			return r.err
		}
		err = from.Surface().AddAdvection(to, flow, cp)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
	}
	return nil
}

func buildInsertion(rc *ReactivityConfig, r *resolver) (reactivity.Insertion, error) {
	rho := func(q Quantity, f string) units.Reactivity {
		return units.Reactivity(r.get(q, units.DimReactivity, "reactivity."+f))
	}
	tm := func(q Quantity, f string) float64 {
		return r.get(q, units.DimTime, "reactivity."+f)
	}

	var ins reactivity.Insertion
	var err error
	switch rc.Kind {
	case "none":
		ins = reactivity.None{RhoInit: rho(rc.RhoInit, "rho_init")}
	case "step":
		ins = reactivity.Step{TStep: tm(rc.TStep, "t_step"), RhoInit: rho(rc.RhoInit, "rho_init"), RhoFinal: rho(rc.RhoFinal, "rho_final")}
	case "ramp":
		ins, err = reactivity.NewRamp(tm(rc.TStart, "t_start"), tm(rc.TEnd, "t_end"),
			rho(rc.RhoInit, "rho_init"), rho(rc.RhoRise, "rho_rise"), rho(rc.RhoFinal, "rho_final"))
	case "impulse":
		ins, err = reactivity.NewImpulse(tm(rc.TStart, "t_start"), tm(rc.TEnd, "t_end"),
			rho(rc.RhoInit, "rho_init"), rho(rc.RhoMax, "rho_max"))
	}
	if r.err != nil {
		return nil, r.err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return ins, nil
}
