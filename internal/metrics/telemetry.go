package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/reactor"
)

// Telemetry holds the prometheus collectors of one run. Every run gets its
// own registry so concurrent runs never share a collector.
type Telemetry struct {
	Evaluations prometheus.Counter
	Accepted    prometheus.Counter
	Rejected    prometheus.Counter
	Committed   prometheus.Counter
	StepSize    prometheus.Histogram
	Power       prometheus.Gauge
	SimTime     prometheus.Gauge

	registry   *prometheus.Registry
	powerIndex int
}

func NewTelemetry(run string, layout reactor.Layout) *Telemetry {
	t := &Telemetry{
		registry:   prometheus.NewRegistry(),
		powerIndex: layout.PowerIndex(),
	}
	labels := prometheus.Labels{"run": run}
	factory := promauto.With(t.registry)

	t.Evaluations = factory.NewCounter(prometheus.CounterOpts{
		Name:        "reactorsim_rhs_evaluations_total",
		Help:        "Right hand side evaluations",
		ConstLabels: labels,
	})
	t.Accepted = factory.NewCounter(prometheus.CounterOpts{
		Name:        "reactorsim_substeps_accepted_total",
		Help:        "Accepted integrator substeps",
		ConstLabels: labels,
	})
	t.Rejected = factory.NewCounter(prometheus.CounterOpts{
		Name:        "reactorsim_substeps_rejected_total",
		Help:        "Substeps rejected by error control",
		ConstLabels: labels,
	})
	t.Committed = factory.NewCounter(prometheus.CounterOpts{
		Name:        "reactorsim_grid_points_total",
		Help:        "Reporting grid points committed",
		ConstLabels: labels,
	})
	t.StepSize = factory.NewHistogram(prometheus.HistogramOpts{
		Name:        "reactorsim_substep_seconds",
		Help:        "Simulated time covered by accepted substeps",
		Buckets:     prometheus.ExponentialBuckets(1e-6, 10, 8),
		ConstLabels: labels,
	})
	t.Power = factory.NewGauge(prometheus.GaugeOpts{
		Name:        "reactorsim_relative_power",
		Help:        "Relative neutron power at the last grid point",
		ConstLabels: labels,
	})
	t.SimTime = factory.NewGauge(prometheus.GaugeOpts{
		Name:        "reactorsim_simulated_seconds",
		Help:        "Simulated time at the last grid point",
		ConstLabels: labels,
	})
	return t
}

func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

// OnStep counts committed grid points; index 0 is the initial state.
func (t *Telemetry) OnStep(index int, x dynamo.State, tm float64) {
	if index > 0 {
		t.Committed.Inc()
	}
	t.Power.Set(x[t.powerIndex])
	t.SimTime.Set(tm)
}

func (t *Telemetry) OnSubstep(tm, dt float64, accepted bool) {
	if !accepted {
		t.Rejected.Inc()
		return
	}
	t.Accepted.Inc()
	t.StepSize.Observe(dt)
}

// Instrument wraps sys so that every Derive call is counted.
func (t *Telemetry) Instrument(sys *reactor.System) *Instrumented {
	return &Instrumented{System: sys, calls: t.Evaluations}
}

// Snapshot flattens the registry to name -> value. Histograms report their
// sample count under name_count.
func (t *Telemetry) Snapshot() (map[string]float64, error) {
	families, err := t.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(families))
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[f.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[f.GetName()] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[f.GetName()+"_count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

// Instrumented is a reactor system whose RHS evaluations feed a counter.
// Commit and Energy pass through to the wrapped system.
type Instrumented struct {
	*reactor.System
	calls prometheus.Counter
}

func (s *Instrumented) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	s.calls.Inc()
	return s.System.Derive(x, t)
}
