package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Set overrides one scalar in c by a dotted path and an SI value:
//
//	component.<name>.{t0,volume,alpha,power}
//	material.<name>.{conductivity,heat_capacity}
//	convection.<name>.h0
//	reactivity.{t_step,t_start,t_end,rho_init,rho_final,rho_rise,rho_max}
//	kinetics.power0
func (c *Config) Set(path string, v float64) error {
	q := Quantity(strconv.FormatFloat(v, 'g', -1, 64))
	parts := strings.Split(path, ".")

	switch {
	case len(parts) == 3 && parts[0] == "component":
		for i := range c.Components {
			comp := &c.Components[i]
			if comp.Name != parts[1] {
				continue
			}
			switch parts[2] {
			case "t0":
				comp.T0 = q
			case "volume":
				comp.Volume = q
			case "alpha":
				comp.Alpha = q
			case "power":
				comp.Power = q
			default:
				return fmt.Errorf("%w: cannot set %s", ErrInvalid, path)
			}
			return nil
		}
		return fmt.Errorf("%w: no component %q", ErrInvalid, parts[1])

	case len(parts) == 3 && parts[0] == "material":
		for i := range c.Materials {
			m := &c.Materials[i]
			if m.Name != parts[1] {
				continue
			}
			if m.Library != "" {
				return fmt.Errorf("%w: material %q comes from the library", ErrInvalid, m.Name)
			}
			switch parts[2] {
			case "conductivity":
				if m.Conductivity == nil {
					return fmt.Errorf("%w: material %q has no conductivity model", ErrInvalid, m.Name)
				}
				// the leading coefficient: the value of a constant model
				m.Conductivity.A = v
			case "heat_capacity":
				m.HeatCapacity = q
			default:
				return fmt.Errorf("%w: cannot set %s", ErrInvalid, path)
			}
			return nil
		}
		return fmt.Errorf("%w: no material %q", ErrInvalid, parts[1])

	case len(parts) == 3 && parts[0] == "convection" && parts[2] == "h0":
		for i := range c.Convection {
			if c.Convection[i].Name == parts[1] {
				c.Convection[i].H0 = q
				return nil
			}
		}
		return fmt.Errorf("%w: no convection model %q", ErrInvalid, parts[1])

	case len(parts) == 2 && parts[0] == "reactivity":
		if c.Reactivity == nil {
			return fmt.Errorf("%w: scenario has no reactivity insertion", ErrInvalid)
		}
		fields := map[string]*Quantity{
			"t_step":    &c.Reactivity.TStep,
			"t_start":   &c.Reactivity.TStart,
			"t_end":     &c.Reactivity.TEnd,
			"rho_init":  &c.Reactivity.RhoInit,
			"rho_final": &c.Reactivity.RhoFinal,
			"rho_rise":  &c.Reactivity.RhoRise,
			"rho_max":   &c.Reactivity.RhoMax,
		}
		f, ok := fields[parts[1]]
		if !ok {
			return fmt.Errorf("%w: cannot set %s", ErrInvalid, path)
		}
		*f = q
		return nil

	case path == "kinetics.power0":
		if c.Kinetics == nil {
			return fmt.Errorf("%w: scenario has no kinetics", ErrInvalid)
		}
		c.Kinetics.Power0 = v
		return nil
	}
	return fmt.Errorf("%w: cannot set %s", ErrInvalid, path)
}
