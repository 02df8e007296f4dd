package sweep

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/reactorsim/internal/config"
)

type DistKind int

const (
	Normal DistKind = iota
	Uniform
)

func (k DistKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Uniform:
		return "uniform"
	}
	return fmt.Sprintf("DistKind(%d)", int(k))
}

// Distribution is a parameter's sampling law. A and B are the mean and
// standard deviation of a Normal, the bounds of a Uniform.
type Distribution struct {
	Kind DistKind
	A, B float64
}

func NewNormal(mean, sigma float64) (Distribution, error) {
	if sigma < 0 || math.IsNaN(sigma) {
		return Distribution{}, fmt.Errorf("%w: negative standard deviation %g", ErrGrid, sigma)
	}
	return Distribution{Kind: Normal, A: mean, B: sigma}, nil
}

func NewUniform(lo, hi float64) (Distribution, error) {
	if !(lo <= hi) {
		return Distribution{}, fmt.Errorf("%w: uniform bounds %g > %g", ErrGrid, lo, hi)
	}
	return Distribution{Kind: Uniform, A: lo, B: hi}, nil
}

// ParseDistribution reads "normal:mean,sigma" or "uniform:lo,hi".
func ParseDistribution(s string) (Distribution, error) {
	kind, args, ok := strings.Cut(s, ":")
	if !ok {
		return Distribution{}, fmt.Errorf("%w: %q is not kind:a,b", ErrGrid, s)
	}
	fields := strings.Split(args, ",")
	if len(fields) != 2 {
		return Distribution{}, fmt.Errorf("%w: %q needs two numbers", ErrGrid, s)
	}
	var v [2]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Distribution{}, fmt.Errorf("%w: %q: %v", ErrGrid, s, err)
		}
		v[i] = x
	}

	switch strings.TrimSpace(kind) {
	case "normal", "gauss":
		return NewNormal(v[0], v[1])
	case "uniform":
		return NewUniform(v[0], v[1])
	}
	return Distribution{}, fmt.Errorf("%w: unknown distribution %q", ErrGrid, kind)
}

func (d Distribution) Sample(rng *rand.Rand) float64 {
	if d.Kind == Uniform {
		return d.A + (d.B-d.A)*rng.Float64()
	}
	return d.A + d.B*rng.NormFloat64()
}

func (d Distribution) String() string {
	return fmt.Sprintf("%s:%g,%g", d.Kind, d.A, d.B)
}

// Sampler is a Monte Carlo sweep: n runs, each drawing every parameter from
// its distribution. Run idx draws from its own source seeded seed+idx, so
// a sample does not depend on the number of workers.
type Sampler struct {
	paramNames []string
	dists      []Distribution
	n          int
	seed       int64
}

// NewSampler returns a sampler of n runs. A zero seed is replaced by one
// taken from the clock; Seed reports it.
func NewSampler(params []string, dists []Distribution, n int, seed int64) (*Sampler, error) {
	if len(params) == 0 || len(params) != len(dists) {
		return nil, fmt.Errorf("%w: %d parameters, %d distributions", ErrGrid, len(params), len(dists))
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d samples", ErrGrid, n)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{paramNames: params, dists: dists, n: n, seed: seed}, nil
}

func (s *Sampler) Seed() int64 { return s.seed }

// Points draws the parameter sets of every run.
func (s *Sampler) Points() []map[string]float64 {
	out := make([]map[string]float64, s.n)
	for idx := range out {
		rng := rand.New(rand.NewSource(s.seed + int64(idx)))
		params := make(map[string]float64, len(s.paramNames))
		for i, name := range s.paramNames {
			params[name] = s.dists[i].Sample(rng)
		}
		out[idx] = params
	}
	return out
}

// Run builds and runs every sample of base with at most workers in flight,
// with the same failure handling as GridSearch.Run.
func (s *Sampler) Run(ctx context.Context, base *config.Config, workers int, log *logrus.Entry) ([]Point, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return run(ctx, base, s.Points(), workers, log.WithField("seed", s.seed))
}

// Summary describes one metric over the finished points of a sweep.
type Summary struct {
	N         int
	Mean, Std float64
	Min, Max  float64
}

// Summarize reports metric over points with a result. Std is the sample
// standard deviation, zero for fewer than two points.
func Summarize(points []Point, metric string) Summary {
	var vals []float64
	for _, p := range points {
		if p.Result == nil {
			continue
		}
		if v, ok := p.Metrics[metric]; ok {
			vals = append(vals, v)
		}
	}

	sum := Summary{N: len(vals)}
	if sum.N == 0 {
		return sum
	}
	sum.Min, sum.Max = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		sum.Mean += v
		sum.Min = math.Min(sum.Min, v)
		sum.Max = math.Max(sum.Max, v)
	}
	sum.Mean /= float64(sum.N)
	if sum.N > 1 {
		var ss float64
		for _, v := range vals {
			ss += (v - sum.Mean) * (v - sum.Mean)
		}
		sum.Std = math.Sqrt(ss / float64(sum.N-1))
	}
	return sum
}
