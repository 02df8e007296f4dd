package thermal

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/reactorsim/internal/convection"
	"github.com/san-kum/reactorsim/internal/units"
)

var (
	ErrNoGeometry      = errors.New("thermal: component has no shell geometry")
	ErrMeshThickness   = errors.New("thermal: mesh thickness must be in (0, ro-ri]")
	ErrNotContiguous   = errors.New("thermal: shells are not contiguous")
	ErrBoundaryDefined = errors.New("thermal: boundary already attached")
)

// Mesh splits a shell component into N = ceil((ro-ri)/maxThickness) shells
// of equal thickness named <name>.<i>, innermost first. A thickness equal to
// ro-ri within rounding gives a single shell. Edges are not copied.
//
// Generated power and the feedback coefficient are shared out by volume, so
// a sub-shell does not carry the parent's alpha: the sum over sub-shells is
// the parent's alpha and uniform heating feeds back exactly as the unmeshed
// component would.
func (c *Component) Mesh(maxThickness units.Length) ([]*Component, error) {
	if c.shell == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, c.name)
	}
	span := c.shell.Ro - c.shell.Ri
	if maxThickness <= 0 || maxThickness > span*(1+1e-12) {
		return nil, fmt.Errorf("%w: got %g m for %s spanning %g m", ErrMeshThickness, float64(maxThickness), c.name, float64(span))
	}

	n := int(math.Ceil(float64(span/maxThickness) - 1e-9))
	dr := span / units.Length(n)

	shells := make([]Shell, n)
	total := units.Volume(0)
	ri := c.shell.Ri
	for i := range shells {
		ro := c.shell.Ri + units.Length(i+1)*dr
		if i == n-1 {
			ro = c.shell.Ro
		}
		shells[i] = Shell{Ri: ri, Ro: ro, Count: c.shell.Count}
		total += shells[i].Volume()
		ri = ro
	}

	subs := make([]*Component, n)
	for i := range shells {
		frac := float64(shells[i].Volume() / total)
		p := Params{
			Name:     fmt.Sprintf("%s.%d", c.name, i),
			Material: c.mat,
			Volume:   shells[i].Volume(),
			T0:       c.t0,
			Shell:    &shells[i],
		}
		if c.alpha != nil {
			a := *c.alpha * units.FeedbackCoefficient(frac)
			p.Feedback = &a
		}
		if c.power != nil {
			q := *c.power * units.Power(frac)
			p.Power = &q
		}
		sub, err := New(p, c.timer)
		if err != nil {
			return nil, err
		}
		subs[i] = sub
	}
	return subs, nil
}

// SuperComponent groups contiguous shells into one body. It conducts heat
// between neighbouring shells and exposes its outermost shell to the rest
// of the network.
type SuperComponent struct {
	name     string
	subs     []*Component
	boundary bool
}

// NewSuperComponent wires conduction in both directions between consecutive
// shells through the area of their shared surface over the distance between
// shell mid radii.
func NewSuperComponent(name string, subs []*Component) (*SuperComponent, error) {
	if name == "" || len(subs) == 0 {
		return nil, fmt.Errorf("%w: super component %q needs a name and shells", ErrInvalidComponent, name)
	}
	for _, s := range subs {
		if s.shell == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoGeometry, s.name)
		}
	}
	for i := 0; i+1 < len(subs); i++ {
		a, b := subs[i].shell, subs[i+1].shell
		if math.Abs(float64(a.Ro-b.Ri)) > 1e-12*math.Max(1, float64(a.Ro)) {
			return nil, fmt.Errorf("%w: %s ends at %g m, %s starts at %g m", ErrNotContiguous, subs[i].name, float64(a.Ro), subs[i+1].name, float64(b.Ri))
		}
		if a.count() != b.count() {
			return nil, fmt.Errorf("%w: %s and %s stand for different body counts", ErrNotContiguous, subs[i].name, subs[i+1].name)
		}
	}

	for i := 0; i+1 < len(subs); i++ {
		inner, outer := subs[i], subs[i+1]
		area := units.SphereArea(inner.shell.Ro) * units.Area(inner.shell.count())
		length := (outer.shell.Ri+outer.shell.Ro)/2 - (inner.shell.Ri+inner.shell.Ro)/2
		if err := inner.AddConduction(outer, area, length); err != nil {
			return nil, err
		}
		if err := outer.AddConduction(inner, area, length); err != nil {
			return nil, err
		}
	}

	return &SuperComponent{name: name, subs: append([]*Component(nil), subs...)}, nil
}

func (s *SuperComponent) Name() string        { return s.name }
func (s *SuperComponent) Surface() *Component { return s.subs[len(s.subs)-1] }
func (s *SuperComponent) Inner() *Component   { return s.subs[0] }

// Components returns the shells, innermost first.
func (s *SuperComponent) Components() []*Component {
	return append([]*Component(nil), s.subs...)
}

// AddBoundaryConvection attaches the single external boundary to the outer
// shell. k overrides the conductivity of the outer half shell; nil uses the
// shell material at its own temperature.
func (s *SuperComponent) AddBoundaryConvection(env Node, h *convection.Model, k *units.Conductivity) error {
	if s.boundary {
		return fmt.Errorf("%w: %s", ErrBoundaryDefined, s.name)
	}
	if env == nil {
		return fmt.Errorf("%w: %s boundary has no environment", ErrInvalidEdge, s.name)
	}
	outer := s.Surface()
	area := units.SphereArea(outer.shell.Ro) * units.Area(outer.shell.count())
	depth := (outer.shell.Ro - outer.shell.Ri) / 2
	if err := outer.addBoundary(env.Surface(), h, area, depth, k); err != nil {
		return err
	}
	s.boundary = true
	return nil
}
