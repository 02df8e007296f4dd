package reactivity

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/reactorsim/internal/units"
)

func TestStep(t *testing.T) {
	s := Step{TStep: 5, RhoInit: 0, RhoFinal: 0.005}

	tests := []struct {
		t    float64
		want units.Reactivity
	}{
		{0, 0},
		{4.9, 0},
		{5.0, 0.005},
		{5.1, 0.005},
		{100, 0.005},
	}

	for _, tt := range tests {
		if got := s.Rho(tt.t); got != tt.want {
			t.Errorf("Rho(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestRamp(t *testing.T) {
	r, err := NewRamp(60, 70, 0, 600*units.PCM, 600*units.PCM)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0},
		{59.9, 0},
		{60, 0},
		{65, 300},
		{70, 600},
		{75, 600},
	}

	for _, tt := range tests {
		got := r.Rho(tt.t).PCM()
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Rho(%v) = %v pcm, want %v pcm", tt.t, got, tt.want)
		}
	}
}

func TestRamp_FinalDiffersFromRise(t *testing.T) {
	r, err := NewRamp(160, 170, 0, 400*units.PCM, 200*units.PCM)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Rho(170).PCM(); math.Abs(got-400) > 1e-9 {
		t.Errorf("Rho(170) = %v pcm, want 400", got)
	}
	if got := r.Rho(171).PCM(); math.Abs(got-200) > 1e-9 {
		t.Errorf("Rho(171) = %v pcm, want 200", got)
	}
}

func TestNewRamp_Invalid(t *testing.T) {
	_, err := NewRamp(70, 60, 0, 1, 1)
	if !errors.Is(err, ErrInvalidInsertion) {
		t.Errorf("expected ErrInvalidInsertion, got %v", err)
	}
}

func TestImpulse(t *testing.T) {
	i, err := NewImpulse(1, 2, 0, 0.003)
	if err != nil {
		t.Fatal(err)
	}
	if i.Rho(0.5) != 0 || i.Rho(1.5) != 0.003 || i.Rho(2.5) != 0 {
		t.Errorf("unexpected impulse shape: %v %v %v", i.Rho(0.5), i.Rho(1.5), i.Rho(2.5))
	}
}

func TestNone(t *testing.T) {
	n := None{RhoInit: 0.001}
	if n.Rho(0) != 0.001 || n.Rho(1e6) != 0.001 {
		t.Error("None should be constant")
	}
}
