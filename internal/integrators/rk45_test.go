package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// stiffDecay relaxes quickly toward zero.
type stiffDecay struct{}

func (s *stiffDecay) StateDim() int { return 1 }

func (s *stiffDecay) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{-1000 * x[0]}, nil
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		var err error
		x, err = integrator.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatal(err)
		}
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x, _ = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	finalEnergy := dyn.Energy(x)
	drift := math.Abs(finalEnergy-initialEnergy) / initialEnergy

	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, newDt, err := integrator.StepAdaptive(dyn, x0, 0, 0.01, 1e-6)

	if err != nil {
		t.Errorf("StepAdaptive returned error: %v", err)
	}

	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}

	if newDt <= 0.01 {
		t.Errorf("a smooth accepted step should grow dt, got %f", newDt)
	}
}

func TestRK45_Rejects(t *testing.T) {
	integrator := NewRK45()

	x, newDt, err := integrator.StepAdaptive(&stiffDecay{}, dynamo.State{1.0}, 0, 0.1, 1e-6)
	if !errors.Is(err, dynamo.ErrStepRejected) {
		t.Fatalf("expected ErrStepRejected, got %v", err)
	}
	if x != nil {
		t.Error("rejected step should not return a state")
	}
	if newDt >= 0.1 || newDt <= 0 {
		t.Errorf("expected a smaller positive step, got %f", newDt)
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x4 := x0.Clone()
	x45 := x0.Clone()
	dt := 0.1

	for i := 0; i < 100; i++ {
		x4, _ = rk4.Step(dyn, x4, float64(i)*dt, dt)
		x45, _ = rk45.Step(dyn, x45, float64(i)*dt, dt)
	}

	t.Logf("RK4 final: [%.6f, %.6f]", x4[0], x4[1])
	t.Logf("RK45 final: [%.6f, %.6f]", x45[0], x45[1])

	e4 := dyn.Energy(x4)
	e45 := dyn.Energy(x45)

	if math.Abs(e45-1.0) > math.Abs(e4-1.0) {
		t.Log("Warning: RK45 not more accurate than RK4 for this case")
	}
}
