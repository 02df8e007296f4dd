// Package sweep runs a scenario over a grid of parameter values, one fully
// independent system per grid point.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/metrics"
	"github.com/san-kum/reactorsim/internal/units"
)

var ErrGrid = errors.New("sweep: invalid grid")

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d parameters, %d ranges", ErrGrid, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", ErrGrid, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points is the cartesian product of the ranges, first parameter slowest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.collect(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.collect(depth+1, newParams, out)
	}
}

// Point is one finished grid point.
type Point struct {
	Params  map[string]float64
	Metrics map[string]float64
	Result  *dynamo.Result
}

// Run builds and runs every grid point of base with at most workers in
// flight. A point that failed to build has a nil Result and a failed run
// keeps its partial one; the first failure is returned with all points.
func (g *GridSearch) Run(ctx context.Context, base *config.Config, workers int, log *logrus.Entry) ([]Point, error) {
	return run(ctx, base, g.Points(), workers, log)
}

// run builds one independent system per parameter set and runs them as an
// ensemble.
func run(ctx context.Context, base *config.Config, sets []map[string]float64, workers int, log *logrus.Entry) ([]Point, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	ref, err := config.Build(base, log)
	if err != nil {
		return nil, err
	}

	build := func(idx int) (*dynamo.Simulator, dynamo.State, error) {
		cfg, err := base.Clone()
		if err != nil {
			return nil, nil, err
		}
		for name, v := range sets[idx] {
			if err := cfg.Set(name, v); err != nil {
				return nil, nil, err
			}
		}
		runLog := log.WithField("run", idx)
		sc, err := config.Build(cfg, runLog)
		if err != nil {
			return nil, nil, err
		}

		sim := dynamo.New(sc.System, sc.Integrator, runLog)
		for _, m := range metrics.Standard(sc.System, units.Temperature(0)) {
			sim.AddMetric(m)
		}
		return sim, sc.System.InitialState(), nil
	}

	log.WithFields(logrus.Fields{"points": len(sets), "workers": workers}).Info("sweep started")
	results, runErr := dynamo.NewEnsemble(build, len(sets), workers).Run(ctx, ref.Run)

	points := make([]Point, len(sets))
	for i, params := range sets {
		points[i] = Point{Params: params}
		if r := results[i]; r != nil {
			points[i].Result = r
			points[i].Metrics = r.Metrics
		}
	}
	return points, runErr
}

// Best returns the point minimizing metric among finished points.
func Best(points []Point, metric string) (Point, bool) {
	best := math.Inf(1)
	var bestPoint Point
	found := false
	for _, p := range points {
		if p.Result == nil {
			continue
		}
		val, ok := p.Metrics[metric]
		if !ok {
			continue
		}
		if val < best {
			best = val
			bestPoint = p
			found = true
		}
	}
	return bestPoint, found
}
