package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is a right hand side. Derive must not change any recorded state:
// integrators call it with trial states many times per accepted step.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

// Committer is implemented by systems that record accepted grid points.
type Committer interface {
	Commit(index int, x State) error
}

// Energetic is implemented by systems with a conserved or tracked energy.
type Energetic interface {
	Energy(x State) (float64, error)
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

// AdaptiveIntegrator returns the new state and the suggested next step.
// When the step fails error control it returns ErrStepRejected together
// with a smaller suggested step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Observer is told about every committed grid point.
type Observer interface {
	OnStep(index int, x State, t float64)
}

// SubstepObserver is told about every internal integrator attempt.
type SubstepObserver interface {
	OnSubstep(t, dt float64, accepted bool)
}

type Config struct {
	T0       float64
	Dt       float64 // reporting interval
	Duration float64
	// MaxSubsteps bounds the integrator attempts per reporting interval.
	MaxSubsteps   int
	Tolerance     float64
	MaxDt         float64
	MinDt         float64
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.1,
		Duration:      10.0,
		MaxSubsteps:   10000,
		Tolerance:     1e-6,
		MaxDt:         0.1,
		MinDt:         1e-10,
		Adaptive:      true,
		ValidateState: true,
	}
}

type Result struct {
	States      []State
	Times       []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Substeps    int
	Rejected    int
}
