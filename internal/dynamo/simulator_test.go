package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

type decaySystem struct {
	rate    float64
	commits []int
	derives int
}

func (d *decaySystem) Derive(x State, t float64) (State, error) {
	d.derives++
	return State{-d.rate * x[0]}, nil
}

func (d *decaySystem) StateDim() int { return 1 }

func (d *decaySystem) Commit(index int, x State) error {
	d.commits = append(d.commits, index)
	return nil
}

type testIntegrator struct{}

func (t *testIntegrator) Step(sys System, x State, time float64, dt float64) (State, error) {
	dx, err := sys.Derive(x, time)
	if err != nil {
		return nil, err
	}
	return State{x[0] + dt*dx[0]}, nil
}

func fixedConfig() Config {
	return Config{Dt: 0.1, Duration: 1.0, MaxSubsteps: 100, MaxDt: 0.01}
}

func TestSimulatorRun(t *testing.T) {
	sys := &decaySystem{rate: 1}
	sim := New(sys, &testIntegrator{}, nil)

	x0 := State{1.0}
	result, err := sim.Run(context.Background(), x0, fixedConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if got := result.Times[10]; math.Abs(got-1.0) > 1e-12 {
		t.Errorf("last time = %v, want 1.0", got)
	}
	if result.Substeps != 100 {
		t.Errorf("expected 100 substeps, got %d", result.Substeps)
	}

	finalState := result.States[len(result.States)-1][0]
	expected := math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.01 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}

	for i, idx := range sys.commits {
		if idx != i+1 {
			t.Fatalf("commit %d had index %d", i, idx)
		}
	}
	if len(sys.commits) != 10 {
		t.Errorf("expected 10 commits, got %d", len(sys.commits))
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&decaySystem{rate: 1}, &testIntegrator{}, nil)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0, MaxSubsteps: 10}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0, MaxSubsteps: 10}},
		{"zero duration", Config{Dt: 0.1, Duration: 0, MaxSubsteps: 10}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0, MaxSubsteps: 10}},
		{"no budget", Config{Dt: 0.1, Duration: 1.0}},
		{"adaptive without tolerance", Config{Dt: 0.1, Duration: 1.0, MaxSubsteps: 10, Adaptive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), State{1.0}, tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	_, err := sim.Run(context.Background(), State{1, 2}, fixedConfig())
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSimulatorStepBudget(t *testing.T) {
	sys := &decaySystem{rate: 1}
	sim := New(sys, &testIntegrator{}, nil)

	cfg := fixedConfig()
	cfg.MaxSubsteps = 5 // ten substeps per reporting interval are needed

	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if !errors.Is(err, ErrStepBudget) {
		t.Fatalf("expected ErrStepBudget, got %v", err)
	}

	var simErr *SimulationError
	if !errors.As(err, &simErr) || simErr.Step != 1 {
		t.Errorf("expected failure at step 1, got %v", err)
	}
	if len(sys.commits) != 0 {
		t.Errorf("nothing should be committed, got %v", sys.commits)
	}
	if len(result.States) != 1 {
		t.Errorf("partial result should hold the initial state only, got %d", len(result.States))
	}
}

func TestSimulatorAdaptiveFallback(t *testing.T) {
	sim := New(&decaySystem{rate: 1}, &testIntegrator{}, nil)

	cfg := Config{Dt: 0.1, Duration: 1.0, MaxSubsteps: 10000, Tolerance: 1e-4, MaxDt: 0.1, MinDt: 1e-12, Adaptive: true}
	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Rejected == 0 {
		t.Error("expected step doubling to reject the initial step")
	}
	final := result.States[len(result.States)-1][0]
	if math.Abs(final-math.Exp(-1)) > 0.01 {
		t.Errorf("final state %v, want ~%v", final, math.Exp(-1))
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(&decaySystem{rate: 1}, &testIntegrator{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, State{1.0}, fixedConfig())
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&decaySystem{rate: 1}, &testIntegrator{}, nil)

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), State{1.0}, fixedConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}

func TestEnsemble(t *testing.T) {
	systems := make([]*decaySystem, 4)
	build := func(idx int) (*Simulator, State, error) {
		systems[idx] = &decaySystem{rate: float64(idx + 1)}
		return New(systems[idx], &testIntegrator{}, nil), State{1.0}, nil
	}

	results, err := NewEnsemble(build, 4, 2).Run(context.Background(), fixedConfig())
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}

	for i, r := range results {
		final := r.States[len(r.States)-1][0]
		want := math.Exp(-float64(i + 1))
		if math.Abs(final-want) > 0.02 {
			t.Errorf("run %d: final %v, want ~%v", i, final, want)
		}
		if len(systems[i].commits) != 10 {
			t.Errorf("run %d committed %d steps", i, len(systems[i].commits))
		}
	}
}

func TestEnsemble_BuildError(t *testing.T) {
	boom := errors.New("boom")
	build := func(idx int) (*Simulator, State, error) {
		if idx == 1 {
			return nil, nil, boom
		}
		return New(&decaySystem{rate: 1}, &testIntegrator{}, nil), State{1.0}, nil
	}

	_, err := NewEnsemble(build, 3, 0).Run(context.Background(), fixedConfig())
	if !errors.Is(err, boom) {
		t.Errorf("expected build error, got %v", err)
	}
}
