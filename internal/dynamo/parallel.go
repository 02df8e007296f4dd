package dynamo

import (
	"context"
	"fmt"
	"sync"
)

// Build constructs run idx from scratch: its own system, integrator and
// initial state. Nothing may be shared with other runs.
type Build func(idx int) (*Simulator, State, error)

type Ensemble struct {
	build   Build
	numRuns int
	workers int
}

// NewEnsemble runs numRuns builds with at most workers in flight; workers <= 0
// runs them all at once.
func NewEnsemble(build Build, numRuns, workers int) *Ensemble {
	if workers <= 0 || workers > numRuns {
		workers = numRuns
	}
	return &Ensemble{build: build, numRuns: numRuns, workers: workers}
}

// Run returns the results in build order. The first failed run, by index,
// is reported; the other runs still complete.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s, x0, err := e.build(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, x0, cfg)
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i, err)
		}
	}

	return results, nil
}
