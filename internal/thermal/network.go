package thermal

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/reactorsim/internal/units"
)

var (
	ErrDuplicateName    = errors.New("thermal: duplicate component name")
	ErrUnknownComponent = errors.New("thermal: unknown component")
	ErrDanglingNeighbor = errors.New("thermal: neighbor is not part of the network")
	ErrSegmentLength    = errors.New("thermal: temperature segment has wrong length")
	ErrOtherNetwork     = errors.New("thermal: component already belongs to a network")
)

// Warning reports an edge whose reverse direction is missing. It is not an
// error: reverse edges may be omitted on purpose.
type Warning struct {
	From string
	To   string
	Kind string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s edge %s -> %s has no reverse edge", w.Kind, w.From, w.To)
}

// Network is the ordered set of components one run integrates. The order of
// Add calls fixes the layout of temperature segments.
type Network struct {
	log        *logrus.Entry
	components []*Component
	nodes      map[string]Node
	slots      map[*Component]int
}

func NewNetwork(log *logrus.Entry) *Network {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Network{
		log:   log,
		nodes: make(map[string]Node),
		slots: make(map[*Component]int),
	}
}

func (n *Network) Add(cs ...*Component) error {
	for _, c := range cs {
		if c == nil {
			return fmt.Errorf("%w: nil component", ErrInvalidComponent)
		}
		if _, ok := n.nodes[c.name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateName, c.name)
		}
		if c.net != nil {
			return fmt.Errorf("%w: %s", ErrOtherNetwork, c.name)
		}
		c.net = n
		n.slots[c] = len(n.components)
		n.components = append(n.components, c)
		n.nodes[c.name] = c
	}
	return nil
}

// AddSuper adds the shells of s and registers its name as an alias for the
// outer shell.
func (n *Network) AddSuper(s *SuperComponent) error {
	if _, ok := n.nodes[s.name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, s.name)
	}
	if err := n.Add(s.subs...); err != nil {
		return err
	}
	n.nodes[s.name] = s
	return nil
}

func (n *Network) Lookup(name string) (Node, error) {
	node, ok := n.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, name)
	}
	return node, nil
}

func (n *Network) Len() int { return len(n.components) }

func (n *Network) Components() []*Component {
	return append([]*Component(nil), n.components...)
}

func (n *Network) Index(c *Component) (int, bool) {
	i, ok := n.slots[c]
	return i, ok
}

func (n *Network) Names() []string {
	names := make([]string, len(n.components))
	for i, c := range n.components {
		names[i] = c.name
	}
	return names
}

// Validate fails on edges to components outside the network and returns a
// warning for each conduction or convection edge without a reverse edge.
func (n *Network) Validate() ([]Warning, error) {
	var errs []error
	for _, c := range n.components {
		for _, nb := range c.Neighbors() {
			if _, ok := n.slots[nb]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s -> %s", ErrDanglingNeighbor, c.name, nb.name))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var warnings []Warning
	for _, c := range n.components {
		for _, e := range c.conduction {
			if !e.to.conductsTo(c) {
				warnings = append(warnings, Warning{From: c.name, To: e.to.name, Kind: "conduction"})
			}
		}
		for _, e := range c.convection {
			if !e.to.convectsTo(c) {
				warnings = append(warnings, Warning{From: c.name, To: e.to.name, Kind: "convection"})
			}
		}
		for _, e := range c.boundary {
			if !e.to.convectsTo(c) {
				warnings = append(warnings, Warning{From: c.name, To: e.to.name, Kind: "boundary"})
			}
		}
	}
	for _, w := range warnings {
		n.log.WithFields(logrus.Fields{
			"component": w.From,
			"neighbor":  w.To,
			"edge":      w.Kind,
		}).Warn("one-directional edge")
	}
	return warnings, nil
}

// segmentView maps a temperature segment onto network components.
type segmentView struct {
	n    *Network
	temp []float64
}

func (v segmentView) TemperatureOf(c *Component) (units.Temperature, error) {
	i, ok := v.n.slots[c]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrDanglingNeighbor, c.name)
	}
	return units.Temperature(v.temp[i]), nil
}

// View returns a View over temps, which must hold one value per component.
func (n *Network) View(temps []float64) (View, error) {
	if len(temps) != len(n.components) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSegmentLength, len(temps), len(n.components))
	}
	return segmentView{n: n, temp: temps}, nil
}

// Derive writes dT/dt for trial temperatures temps into dst. Nothing is
// recorded.
func (n *Network) Derive(temps []float64, relPower float64, bootstrap bool, dst []float64) error {
	view, err := n.View(temps)
	if err != nil {
		return err
	}
	if len(dst) != len(temps) {
		return fmt.Errorf("%w: derivative has %d slots, want %d", ErrSegmentLength, len(dst), len(temps))
	}
	e := Eval{View: view, RelPower: relPower, Bootstrap: bootstrap}
	for i, c := range n.components {
		d, err := c.Derivative(e)
		if err != nil {
			return err
		}
		dst[i] = d
	}
	return nil
}

// Feedback sums the temperature feedback of all components at trial
// temperatures temps with index the last recorded grid index.
func (n *Network) Feedback(temps []float64, index int) (units.Reactivity, error) {
	if len(temps) != len(n.components) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrSegmentLength, len(temps), len(n.components))
	}
	rho := units.Reactivity(0)
	for i, c := range n.components {
		r, err := c.Feedback(units.Temperature(temps[i]), index)
		if err != nil {
			return 0, err
		}
		rho += r
	}
	return rho, nil
}

// Record commits temps at grid index i. Every component is checked before
// any is written.
func (n *Network) Record(i int, temps []float64) error {
	if len(temps) != len(n.components) {
		return fmt.Errorf("%w: got %d, want %d", ErrSegmentLength, len(temps), len(n.components))
	}
	for _, c := range n.components {
		if i < 0 || i >= len(c.history) {
			return fmt.Errorf("%w: %s index %d", ErrIndexRange, c.name, i)
		}
		if c.recorded[i] {
			return fmt.Errorf("%w: %s at index %d", ErrAlreadyRecorded, c.name, i)
		}
	}
	for k, c := range n.components {
		if err := c.RecordTemperature(i, units.Temperature(temps[k])); err != nil {
			return err
		}
	}
	return nil
}

// Temperatures returns the recorded segment at index i.
func (n *Network) Temperatures(i int) ([]float64, error) {
	out := make([]float64, len(n.components))
	for k, c := range n.components {
		t, err := c.Temperature(i)
		if err != nil {
			return nil, err
		}
		out[k] = float64(t)
	}
	return out, nil
}

// InitialTemperatures is the segment of initial temperatures.
func (n *Network) InitialTemperatures() []float64 {
	out := make([]float64, len(n.components))
	for k, c := range n.components {
		out[k] = float64(c.t0)
	}
	return out
}

// ThermalEnergy is the sum of rho(T) V cp T over all components in J.
func (n *Network) ThermalEnergy(temps []float64) (float64, error) {
	if len(temps) != len(n.components) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrSegmentLength, len(temps), len(n.components))
	}
	total := 0.0
	for i, c := range n.components {
		t := units.Temperature(temps[i])
		m, err := c.ThermalMass(t)
		if err != nil {
			return 0, err
		}
		total += m * float64(t)
	}
	return total, nil
}
