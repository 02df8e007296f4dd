// Package reactor couples a thermal network to point kinetics and exposes
// the combined right hand side to the integrators.
package reactor

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/kinetics"
	"github.com/san-kum/reactorsim/internal/reactivity"
	"github.com/san-kum/reactorsim/internal/thermal"
	"github.com/san-kum/reactorsim/internal/timer"
	"github.com/san-kum/reactorsim/internal/units"
)

var (
	ErrConfig      = errors.New("reactor: invalid configuration")
	ErrCommitOrder = errors.New("reactor: commits must advance one index at a time")
	ErrNoSnapshot  = errors.New("reactor: index not committed")
)

type Config struct {
	Network *thermal.Network
	Timer   *timer.Timer
	// Kinetics may be nil, in which case power stays at Power0.
	Kinetics  *kinetics.Params
	Insertion reactivity.Insertion
	// Power0 is the initial relative power; zero means 1.
	Power0   float64
	Feedback bool
	// Bootstrap evaluates correlation coefficients at their bootstrap
	// temperature until the first step is committed.
	Bootstrap bool
	Log       *logrus.Entry
}

// Layout describes where each quantity lives in the state vector:
// temperatures in network order, then power, precursors and decay heat.
type Layout struct {
	Temperatures int
	Precursors   int
	DecayGroups  int
}

func (l Layout) PowerIndex() int      { return l.Temperatures }
func (l Layout) PrecursorOffset() int { return l.Temperatures + 1 }
func (l Layout) DecayOffset() int     { return l.Temperatures + 1 + l.Precursors }
func (l Layout) Size() int            { return l.Temperatures + 1 + l.Precursors + l.DecayGroups }

// Snapshot is the committed state at one grid index.
type Snapshot struct {
	Index        int
	Time         float64
	Names        []string
	Temperatures []float64
	Power        float64
	ThermalPower float64
	Precursors   []float64
	DecayHeat    []float64
	Reactivity   units.Reactivity
	External     units.Reactivity
}

type record struct {
	kinetics     []float64
	thermalPower float64
	total        units.Reactivity
	external     units.Reactivity
}

// System is the coupled model for one run. Derive is pure in (x, t); only
// Commit changes recorded state.
type System struct {
	net       *thermal.Network
	timer     *timer.Timer
	kin       *kinetics.Params
	insertion reactivity.Insertion
	feedback  bool
	bootstrap bool
	layout    Layout
	log       *logrus.Entry

	index   int
	records []*record
	x0      dynamo.State
}

func New(cfg Config) (*System, error) {
	if cfg.Network == nil || cfg.Network.Len() == 0 {
		return nil, fmt.Errorf("%w: empty thermal network", ErrConfig)
	}
	if cfg.Timer == nil {
		return nil, fmt.Errorf("%w: no timer", ErrConfig)
	}
	if cfg.Kinetics != nil {
		if err := cfg.Kinetics.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
	}
	if cfg.Power0 < 0 {
		return nil, fmt.Errorf("%w: negative initial power %g", ErrConfig, cfg.Power0)
	}
	if cfg.Power0 == 0 {
		cfg.Power0 = 1
	}
	if cfg.Insertion == nil {
		cfg.Insertion = reactivity.None{}
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &System{
		net:       cfg.Network,
		timer:     cfg.Timer,
		kin:       cfg.Kinetics,
		insertion: cfg.Insertion,
		feedback:  cfg.Feedback,
		bootstrap: cfg.Bootstrap,
		log:       cfg.Log,
		records:   make([]*record, cfg.Timer.Timesteps()),
		layout:    Layout{Temperatures: cfg.Network.Len()},
	}
	if s.kin != nil {
		s.layout.Precursors = s.kin.Precursors()
		s.layout.DecayGroups = s.kin.DecayGroups()
	}

	x := make(dynamo.State, s.layout.Size())
	copy(x, cfg.Network.InitialTemperatures())
	if s.kin != nil {
		copy(x[s.layout.PowerIndex():], s.kin.Equilibrium(cfg.Power0))
	} else {
		x[s.layout.PowerIndex()] = cfg.Power0
	}
	s.x0 = x

	rec, err := s.evaluate(x, cfg.Timer.T0(), 0)
	if err != nil {
		return nil, err
	}
	s.records[0] = rec
	return s, nil
}

func (s *System) StateDim() int              { return s.layout.Size() }
func (s *System) Layout() Layout             { return s.layout }
func (s *System) Network() *thermal.Network  { return s.net }
func (s *System) Timer() *timer.Timer        { return s.timer }
func (s *System) Kinetics() *kinetics.Params { return s.kin }

// Index is the last committed grid index.
func (s *System) Index() int { return s.index }

// InitialState is the state at index 0: initial temperatures, the initial
// power and equilibrium precursor and decay heat levels.
func (s *System) InitialState() dynamo.State { return s.x0.Clone() }

func (s *System) kineticsSegment(x dynamo.State) []float64 {
	return x[s.layout.PowerIndex():s.layout.Size()]
}

// Labels names every state slot: component temperatures by name, then
// "power", "precursor.<i>" and "decay_heat.<j>".
func (s *System) Labels() []string {
	labels := make([]string, 0, s.layout.Size())
	labels = append(labels, s.net.Names()...)
	labels = append(labels, "power")
	for i := 0; i < s.layout.Precursors; i++ {
		labels = append(labels, fmt.Sprintf("precursor.%d", i))
	}
	for j := 0; j < s.layout.DecayGroups; j++ {
		labels = append(labels, fmt.Sprintf("decay_heat.%d", j))
	}
	return labels
}

// ThermalPower is the relative power deposited in the network at state x.
func (s *System) ThermalPower(x dynamo.State) float64 {
	if s.kin == nil {
		return x[s.layout.PowerIndex()]
	}
	return s.kin.ThermalPower(s.kineticsSegment(x))
}

// reactivity evaluates feedback as seen from committed grid index.
func (s *System) reactivity(x dynamo.State, t float64, index int) (total, external units.Reactivity, err error) {
	external = s.insertion.Rho(t)
	if !s.feedback {
		return external, external, nil
	}
	fb, err := s.net.Feedback(x[:s.layout.Temperatures], index)
	if err != nil {
		return 0, 0, err
	}
	return external + fb, external, nil
}

// Reactivity returns the total and external reactivity at trial state x and
// time t.
func (s *System) Reactivity(x dynamo.State, t float64) (total, external units.Reactivity, err error) {
	if len(x) != s.layout.Size() {
		return 0, 0, fmt.Errorf("%w: state has %d values, want %d", dynamo.ErrDimensionMismatch, len(x), s.layout.Size())
	}
	return s.reactivity(x, t, s.index)
}

// Derive returns dx/dt at (x, t). It reads recorded history only for the
// feedback reference temperatures and writes nothing.
func (s *System) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if len(x) != s.layout.Size() {
		return nil, fmt.Errorf("%w: state has %d values, want %d", dynamo.ErrDimensionMismatch, len(x), s.layout.Size())
	}

	dx := make(dynamo.State, len(x))
	n := s.layout.Temperatures
	bootstrap := s.bootstrap && s.index == 0
	if err := s.net.Derive(x[:n], s.ThermalPower(x), bootstrap, dx[:n]); err != nil {
		return nil, err
	}

	if s.kin == nil {
		return dx, nil
	}
	rho, _, err := s.reactivity(x, t, s.index)
	if err != nil {
		return nil, err
	}
	if err := s.kin.Derive(rho, s.kineticsSegment(x), dx[n:]); err != nil {
		return nil, err
	}
	return dx, nil
}

// Energy is the thermal energy held by the network at state x.
func (s *System) Energy(x dynamo.State) (float64, error) {
	return s.net.ThermalEnergy(x[:s.layout.Temperatures])
}

func (s *System) evaluate(x dynamo.State, t float64, index int) (*record, error) {
	total, external, err := s.reactivity(x, t, index)
	if err != nil {
		return nil, err
	}
	return &record{
		kinetics:     append([]float64(nil), s.kineticsSegment(x)...),
		thermalPower: s.ThermalPower(x),
		total:        total,
		external:     external,
	}, nil
}

// Commit records the accepted state x at grid index, which must be the next
// index after the last commit.
func (s *System) Commit(index int, x dynamo.State) error {
	if index != s.index+1 {
		return fmt.Errorf("%w: last %d, got %d", ErrCommitOrder, s.index, index)
	}
	if index >= len(s.records) {
		return fmt.Errorf("%w: index %d beyond grid of %d", ErrCommitOrder, index, len(s.records))
	}
	if len(x) != s.layout.Size() {
		return fmt.Errorf("%w: state has %d values, want %d", dynamo.ErrDimensionMismatch, len(x), s.layout.Size())
	}

	if err := s.net.Record(index, x[:s.layout.Temperatures]); err != nil {
		return err
	}
	rec, err := s.evaluate(x, s.timer.Time(index), index)
	if err != nil {
		return err
	}
	s.records[index] = rec
	s.index = index

	if index == s.timer.FeedbackIndex() && s.feedback {
		s.log.WithFields(logrus.Fields{"step": index, "t": s.timer.Time(index)}).Debug("reactivity feedback active")
	}
	return nil
}

// Snapshot returns the committed state at index.
func (s *System) Snapshot(index int) (Snapshot, error) {
	if index < 0 || index > s.index {
		return Snapshot{}, fmt.Errorf("%w: %d, last committed %d", ErrNoSnapshot, index, s.index)
	}
	rec := s.records[index]
	temps, err := s.net.Temperatures(index)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Index:        index,
		Time:         s.timer.Time(index),
		Names:        s.net.Names(),
		Temperatures: temps,
		Power:        rec.kinetics[0],
		ThermalPower: rec.thermalPower,
		Reactivity:   rec.total,
		External:     rec.external,
	}
	if s.kin != nil {
		_, zeta, omega := s.kin.Split(rec.kinetics)
		snap.Precursors = append([]float64(nil), zeta...)
		snap.DecayHeat = append([]float64(nil), omega...)
	}
	return snap, nil
}

// State rebuilds the full state vector committed at index.
func (s *System) State(index int) (dynamo.State, error) {
	if index < 0 || index > s.index {
		return nil, fmt.Errorf("%w: %d, last committed %d", ErrNoSnapshot, index, s.index)
	}
	temps, err := s.net.Temperatures(index)
	if err != nil {
		return nil, err
	}
	x := make(dynamo.State, 0, s.layout.Size())
	x = append(x, temps...)
	x = append(x, s.records[index].kinetics...)
	return x, nil
}
