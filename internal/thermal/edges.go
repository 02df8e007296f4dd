package thermal

import (
	"errors"
	"fmt"

	"github.com/san-kum/reactorsim/internal/convection"
	"github.com/san-kum/reactorsim/internal/units"
)

var ErrInvalidEdge = errors.New("thermal: invalid edge")

// Node is anything that can be the far end of an edge. A super component
// resolves to its outermost shell.
type Node interface {
	Name() string
	Surface() *Component
}

// Reference selects the temperature a convective coefficient is evaluated at.
type Reference int

const (
	// RefSelf uses the temperature of the component owning the edge, which
	// suits a coolant node facing a solid.
	RefSelf Reference = iota
	RefNeighbor
)

type conductionEdge struct {
	to     *Component
	area   units.Area
	length units.Length
}

type convectionEdge struct {
	to    *Component
	model *convection.Model
	area  units.Area
	ref   Reference
}

// advectionEdge carries fluid in from an upstream component, or at a fixed
// inlet temperature when from is nil.
type advectionEdge struct {
	from  *Component
	inlet units.Temperature
	flow  units.MassFlow
	cp    units.SpecificHeat
}

// boundaryEdge is convection from the outer surface of a meshed body. The
// half thickness of the outer shell sits in series with the film.
type boundaryEdge struct {
	to    *Component
	model *convection.Model
	area  units.Area
	depth units.Length
	k     *units.Conductivity
}

func (c *Component) neighbor(to Node) (*Component, error) {
	if to == nil || to.Surface() == nil {
		return nil, fmt.Errorf("%w: %s has a nil neighbor", ErrInvalidEdge, c.name)
	}
	n := to.Surface()
	if n == c {
		return nil, fmt.Errorf("%w: %s cannot exchange heat with itself", ErrInvalidEdge, c.name)
	}
	return n, nil
}

// AddConduction adds the flow k(T_self) A / L (T_to - T_self) into c.
func (c *Component) AddConduction(to Node, area units.Area, length units.Length) error {
	n, err := c.neighbor(to)
	if err != nil {
		return err
	}
	if area <= 0 || length <= 0 {
		return fmt.Errorf("%w: %s -> %s conduction needs positive area and length", ErrInvalidEdge, c.name, n.name)
	}
	c.conduction = append(c.conduction, conductionEdge{to: n, area: area, length: length})
	return nil
}

// AddConvection adds the flow h(T_ref) A (T_to - T_self) into c.
func (c *Component) AddConvection(to Node, h *convection.Model, area units.Area, ref Reference) error {
	n, err := c.neighbor(to)
	if err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: %s -> %s convection has no coefficient model", ErrInvalidEdge, c.name, n.name)
	}
	if area <= 0 {
		return fmt.Errorf("%w: %s -> %s convection needs positive area", ErrInvalidEdge, c.name, n.name)
	}
	c.convection = append(c.convection, convectionEdge{to: n, model: h, area: area, ref: ref})
	return nil
}

// AddAdvection adds the flow m cp (T_from - T_self) carried in from an
// upstream component.
func (c *Component) AddAdvection(from Node, flow units.MassFlow, cp units.SpecificHeat) error {
	n, err := c.neighbor(from)
	if err != nil {
		return err
	}
	if flow < 0 || cp <= 0 {
		return fmt.Errorf("%w: %s advection from %s has flow %g, cp %g", ErrInvalidEdge, c.name, n.name, float64(flow), float64(cp))
	}
	c.advection = append(c.advection, advectionEdge{from: n, flow: flow, cp: cp})
	return nil
}

// AddInletAdvection adds the flow m cp (T_in - T_self) for a fixed inlet
// temperature.
func (c *Component) AddInletAdvection(inlet units.Temperature, flow units.MassFlow, cp units.SpecificHeat) error {
	if flow < 0 || cp <= 0 || inlet < 0 {
		return fmt.Errorf("%w: %s inlet advection has flow %g, cp %g, inlet %g K", ErrInvalidEdge, c.name, float64(flow), float64(cp), float64(inlet))
	}
	c.advection = append(c.advection, advectionEdge{inlet: inlet, flow: flow, cp: cp})
	return nil
}

func (c *Component) addBoundary(to *Component, h *convection.Model, area units.Area, depth units.Length, k *units.Conductivity) error {
	n, err := c.neighbor(to)
	if err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: %s -> %s boundary has no coefficient model", ErrInvalidEdge, c.name, n.name)
	}
	if k != nil && *k <= 0 {
		return fmt.Errorf("%w: %s boundary conductivity %g", ErrInvalidEdge, c.name, float64(*k))
	}
	c.boundary = append(c.boundary, boundaryEdge{to: n, model: h, area: area, depth: depth, k: k})
	return nil
}

// Neighbors lists the components c draws heat from, in edge order.
func (c *Component) Neighbors() []*Component {
	var out []*Component
	for _, e := range c.conduction {
		out = append(out, e.to)
	}
	for _, e := range c.convection {
		out = append(out, e.to)
	}
	for _, e := range c.advection {
		if e.from != nil {
			out = append(out, e.from)
		}
	}
	for _, e := range c.boundary {
		out = append(out, e.to)
	}
	return out
}

func (c *Component) conductsTo(n *Component) bool {
	for _, e := range c.conduction {
		if e.to == n {
			return true
		}
	}
	return false
}

func (c *Component) convectsTo(n *Component) bool {
	for _, e := range c.convection {
		if e.to == n {
			return true
		}
	}
	for _, e := range c.boundary {
		if e.to == n {
			return true
		}
	}
	return false
}

// View supplies component temperatures for one evaluation.
type View interface {
	TemperatureOf(c *Component) (units.Temperature, error)
}

// HistoryView reads recorded temperatures at a fixed index.
type HistoryView int

func (v HistoryView) TemperatureOf(c *Component) (units.Temperature, error) {
	return c.Temperature(int(v))
}

// Eval bundles what a rate evaluation depends on besides topology.
type Eval struct {
	View View
	// RelPower scales heat generation; 1 is nominal.
	RelPower float64
	// Bootstrap makes correlation coefficients use their bootstrap
	// coolant temperature.
	Bootstrap bool
}

// Rate is the net heat flow into c in W.
func (c *Component) Rate(e Eval) (units.Power, error) {
	self, err := e.View.TemperatureOf(c)
	if err != nil {
		return 0, err
	}

	q := 0.0
	for _, ed := range c.conduction {
		other, err := e.View.TemperatureOf(ed.to)
		if err != nil {
			return 0, err
		}
		k, err := c.mat.Conductivity(self)
		if err != nil {
			return 0, fmt.Errorf("%s -> %s conduction: %w", c.name, ed.to.name, err)
		}
		q += float64(k) * float64(ed.area) / float64(ed.length) * float64(other-self)
	}

	for _, ed := range c.convection {
		other, err := e.View.TemperatureOf(ed.to)
		if err != nil {
			return 0, err
		}
		tRef := self
		if ed.ref == RefNeighbor {
			tRef = other
		}
		h, err := ed.model.H(tRef, e.Bootstrap)
		if err != nil {
			return 0, fmt.Errorf("%s -> %s convection: %w", c.name, ed.to.name, err)
		}
		q += float64(h) * float64(ed.area) * float64(other-self)
	}

	for _, ed := range c.advection {
		tIn := ed.inlet
		if ed.from != nil {
			if tIn, err = e.View.TemperatureOf(ed.from); err != nil {
				return 0, err
			}
		}
		q += float64(ed.flow) * float64(ed.cp) * float64(tIn-self)
	}

	for _, ed := range c.boundary {
		env, err := e.View.TemperatureOf(ed.to)
		if err != nil {
			return 0, err
		}
		h, err := ed.model.H(env, e.Bootstrap)
		if err != nil {
			return 0, fmt.Errorf("%s -> %s boundary: %w", c.name, ed.to.name, err)
		}
		var k units.Conductivity
		if ed.k != nil {
			k = *ed.k
		} else if k, err = c.mat.Conductivity(self); err != nil {
			return 0, fmt.Errorf("%s -> %s boundary: %w", c.name, ed.to.name, err)
		}
		if h <= 0 || k <= 0 {
			continue
		}
		// surface temperature from flux continuity across the half shell
		resistance := 1/float64(h) + float64(ed.depth)/float64(k)
		q += float64(ed.area) * float64(env-self) / resistance
	}

	if c.power != nil {
		q += float64(*c.power) * e.RelPower
	}
	return units.Power(q), nil
}
