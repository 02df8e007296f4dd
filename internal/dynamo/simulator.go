package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

type Simulator struct {
	sys        System
	integrator Integrator
	log        *logrus.Entry
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator, log *logrus.Entry) *Simulator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		log:        log,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run advances x0 from cfg.T0 over the reporting grid. Each grid point is
// committed to the system before metrics and observers see it. An error
// aborts the run and comes back as a *SimulationError together with the
// partial result.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: x0 has %d values, system wants %d", ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		States:  make([]State, 0, steps+1),
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := cfg.T0
	h := cfg.Dt
	if cfg.MaxDt > 0 && cfg.MaxDt < h {
		h = cfg.MaxDt
	}

	s.record(result, 0, x, t)
	initialEnergy, hasEnergy := s.computeEnergy(x)

	s.log.WithFields(logrus.Fields{"steps": steps, "dt": cfg.Dt, "adaptive": cfg.Adaptive}).Info("run started")

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return result, &SimulationError{Step: i, Time: t, State: x, Wrapped: fmt.Errorf("%w: %v", ErrContextCanceled, ctx.Err())}
		default:
		}

		target := cfg.T0 + float64(i)*cfg.Dt
		newX, nextH, err := s.advance(result, x, t, target, h, cfg)
		if err != nil {
			s.log.WithFields(logrus.Fields{"step": i, "t": t}).WithError(err).Error("run aborted")
			return result, &SimulationError{Step: i, Time: t, State: x, Wrapped: err}
		}

		if cfg.ValidateState && !newX.IsValid() {
			return result, &SimulationError{Step: i, Time: target, State: newX, Wrapped: ErrInvalidState}
		}

		if c, ok := s.sys.(Committer); ok {
			if err := c.Commit(i, newX); err != nil {
				return result, &SimulationError{Step: i, Time: target, State: newX, Wrapped: err}
			}
		}

		x, t, h = newX, target, nextH
		result.StepsTaken++
		s.record(result, i, x, t)
		s.log.WithFields(logrus.Fields{"step": i, "t": t}).Debug("step committed")
	}

	if hasEnergy {
		finalEnergy, _ := s.computeEnergy(x)
		if initialEnergy != 0 {
			result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.WithFields(logrus.Fields{
		"steps":    result.StepsTaken,
		"substeps": result.Substeps,
		"rejected": result.Rejected,
	}).Info("run finished")
	return result, nil
}

func (s *Simulator) record(result *Result, index int, x State, t float64) {
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(index, x, t)
	}
}

func (s *Simulator) notifySubstep(t, dt float64, accepted bool) {
	for _, obs := range s.observers {
		if so, ok := obs.(SubstepObserver); ok {
			so.OnSubstep(t, dt, accepted)
		}
	}
}

// advance integrates from t to target, landing on target exactly. It returns
// the state at target and the step size to try next.
func (s *Simulator) advance(result *Result, x State, t, target, h float64, cfg Config) (State, float64, error) {
	attempts := 0
	for t < target {
		if attempts >= cfg.MaxSubsteps {
			return nil, h, fmt.Errorf("%w: %d attempts between t=%g and t=%g", ErrStepBudget, attempts, t, target)
		}
		attempts++

		dt := math.Min(h, target-t)
		last := target-t-dt <= 1e-12*math.Max(1, math.Abs(target))

		var newX State
		var next float64
		var err error
		if cfg.Adaptive {
			newX, next, err = s.adaptiveStep(x, t, dt, cfg)
		} else {
			newX, err = s.integrator.Step(s.sys, x, t, dt)
			next = h
		}

		if errors.Is(err, ErrStepRejected) {
			result.Rejected++
			s.notifySubstep(t, dt, false)
			if next < cfg.MinDt {
				return nil, next, fmt.Errorf("%w: %g at t=%g", ErrStepTooSmall, next, t)
			}
			h = next
			continue
		}
		if err != nil {
			return nil, h, err
		}

		result.Substeps++
		s.notifySubstep(t, dt, true)
		x = newX
		if last {
			t = target
		} else {
			t += dt
		}

		// a step shortened to land on the grid does not shrink the next one
		if dt < h {
			h = math.Max(h, next)
		} else {
			h = next
		}
		if cfg.MaxDt > 0 {
			h = math.Min(h, cfg.MaxDt)
		}
	}
	return x, h, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.MaxSubsteps <= 0 {
		return fmt.Errorf("%w: substep budget must be positive, got %d", ErrInvalidConfig, cfg.MaxSubsteps)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	}
	return nil
}

func (s *Simulator) computeEnergy(x State) (float64, bool) {
	ec, ok := s.sys.(Energetic)
	if !ok {
		return 0, false
	}
	e, err := ec.Energy(x)
	if err != nil {
		return 0, false
	}
	return e, true
}

// adaptiveStep falls back to step doubling for integrators without their
// own error estimate.
func (s *Simulator) adaptiveStep(x State, t, dt float64, cfg Config) (State, float64, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
	}

	x1, err := s.integrator.Step(s.sys, x, t, dt)
	if err != nil {
		return nil, dt, err
	}
	xHalf, err := s.integrator.Step(s.sys, x, t, dt/2)
	if err != nil {
		return nil, dt, err
	}
	x2, err := s.integrator.Step(s.sys, xHalf, t+dt/2, dt/2)
	if err != nil {
		return nil, dt, err
	}

	errNorm := x1.Sub(x2).Norm() / (x2.Norm() + 1e-10)

	if errNorm > cfg.Tolerance {
		return nil, dt / 2, ErrStepRejected
	}

	next := dt
	if errNorm < cfg.Tolerance/10 {
		next = dt * 2
	}
	return x2, next, nil
}
