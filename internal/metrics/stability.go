package metrics

import (
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/reactor"
	"github.com/san-kum/reactorsim/internal/units"
)

// TemperatureLimit is the fraction of grid points at which every component
// temperature stays at or below a limit.
type TemperatureLimit struct {
	name       string
	limit      units.Temperature
	n          int
	violations int
	samples    int
}

func NewTemperatureLimit(layout reactor.Layout, limit units.Temperature) *TemperatureLimit {
	return &TemperatureLimit{
		name:  "temperature_limit",
		limit: limit,
		n:     layout.Temperatures,
	}
}

func (s *TemperatureLimit) Name() string {
	return s.name
}

func (s *TemperatureLimit) Observe(x dynamo.State, t float64) {
	s.samples++
	for _, val := range x[:s.n] {
		if units.Temperature(val) > s.limit {
			s.violations++
			break
		}
	}
}

func (s *TemperatureLimit) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *TemperatureLimit) Reset() {
	s.violations = 0
	s.samples = 0
}
