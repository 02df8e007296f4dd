// Package timer maps reporting indices to elapsed simulation time.
package timer

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidGrid = errors.New("timer: invalid time grid")

// Timer is a fixed reporting grid t0, t0+dt, ..., tf with the index at which
// reactivity feedback becomes active.
type Timer struct {
	t0, tf, dt  float64
	tFeedback   float64
	feedbackIdx int
}

// New builds a grid. tFeedback is clamped into [t0, tf].
func New(t0, tf, dt, tFeedback float64) (*Timer, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidGrid, dt)
	}
	if tf <= t0 {
		return nil, fmt.Errorf("%w: tf (%g) must be after t0 (%g)", ErrInvalidGrid, tf, t0)
	}
	tFeedback = math.Min(math.Max(tFeedback, t0), tf)

	t := &Timer{t0: t0, tf: tf, dt: dt, tFeedback: tFeedback}
	t.feedbackIdx = t.Index(tFeedback)
	return t, nil
}

func (t *Timer) T0() float64        { return t.t0 }
func (t *Timer) Tf() float64        { return t.tf }
func (t *Timer) Dt() float64        { return t.dt }
func (t *Timer) TFeedback() float64 { return t.tFeedback }
func (t *Timer) FeedbackIndex() int { return t.feedbackIdx }

// Index returns the grid index nearest to time tm.
func (t *Timer) Index(tm float64) int {
	return int(math.Round((tm - t.t0) / t.dt))
}

// Time returns the elapsed time at grid index idx.
func (t *Timer) Time(idx int) float64 {
	return t.t0 + float64(idx)*t.dt
}

// Timesteps is the number of grid points including both ends.
func (t *Timer) Timesteps() int {
	return t.Index(t.tf) + 1
}
