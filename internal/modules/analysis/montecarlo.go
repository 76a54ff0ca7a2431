package analysis

import (
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Sample draws trials random fully-invested long-only weight vectors,
// evaluates each through Evaluate and collects the results — an empirical
// approximation of the attainable risk/return frontier.
//
// The sampling law is: draw assetCount uniform magnitudes in [0,1) and
// normalize by their sum. This is intentionally NOT a uniform distribution
// over the simplex; the frontier's empirical shape depends on this exact law
// and substituting a Dirichlet sampler would change it.
//
// Weight vectors are drawn sequentially from rng, so results are reproducible
// given a seeded source. Evaluation fans out across CPUs and fans in by trial
// index, preserving the weight↔performance pairing.
func Sample(returns *ReturnTable, trials, periodsPerYear int, rng *rand.Rand) (*SimulationResult, error) {
	if trials < 0 {
		return nil, fmt.Errorf("trials must not be negative, got %d", trials)
	}
	n := returns.AssetCount()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty return table", ErrShapeMismatch)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}

	result := &SimulationResult{
		Weights:      make([][]float64, trials),
		Performances: make([]Performance, trials),
	}
	if trials == 0 {
		return result, nil
	}

	// Draw all weight vectors first; the rng is not safe for concurrent use
	// and the draw order defines reproducibility.
	for t := 0; t < trials; t++ {
		result.Weights[t] = randomWeights(n, rng)
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for t := 0; t < trials; t++ {
		t := t
		g.Go(func() error {
			perf, err := Evaluate(result.Weights[t], returns, periodsPerYear)
			if err != nil {
				return fmt.Errorf("trial %d: %w", t, err)
			}
			result.Performances[t] = perf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// randomWeights draws one feasible weight vector: uniform magnitudes
// normalized by their sum.
func randomWeights(n int, rng *rand.Rand) []float64 {
	weights := make([]float64, n)
	sum := 0.0
	for i := range weights {
		weights[i] = rng.Float64()
		sum += weights[i]
	}
	if sum == 0 {
		// All-zero draw; fall back to the uniform allocation
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return weights
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
