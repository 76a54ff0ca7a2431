package analysis

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Optimizer stopping defaults
const (
	DefaultMaxIterations = 1000
	DefaultTolerance     = 1e-8

	// sumPenaltyWeight scales the quadratic penalty on the Σw = 1 constraint
	sumPenaltyWeight = 1000.0

	// feasibilityTol is the acceptable deviation of an initial guess from the
	// simplex constraint
	feasibilityTol = 1e-6
)

// Optimizer finds the fully-invested long-only weight vector maximizing the
// Sharpe ratio. It minimizes the negated Sharpe ratio with the sum constraint
// enforced by a quadratic penalty and the [0,1] bounds by projection, solved
// with BFGS and a Nelder-Mead fallback. The solver is local: the result is a
// local optimum, not a guaranteed global one.
type Optimizer struct {
	maxIterations int
	tolerance     float64
	log           zerolog.Logger
}

// NewOptimizer creates a max-Sharpe optimizer. Non-positive settings fall
// back to the defaults.
func NewOptimizer(maxIterations int, tolerance float64, log zerolog.Logger) *Optimizer {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Optimizer{
		maxIterations: maxIterations,
		tolerance:     tolerance,
		log:           log.With().Str("component", "optimizer").Logger(),
	}
}

// Optimize maximizes the Sharpe ratio over the simplex for the given return
// table. A nil initial guess starts from the uniform allocation. Behavior is
// deterministic given fixed inputs and guess.
//
// Failure semantics: a singular or non-positive-definite covariance matrix
// and an infeasible initial guess return errors (ErrSingularCovariance,
// ErrInfeasibleStart); exhausting the iteration budget returns a result with
// Status=iteration_limit, not an error.
func (o *Optimizer) Optimize(returns *ReturnTable, periodsPerYear int, initial []float64) (*OptimizationResult, error) {
	n := returns.AssetCount()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty return table", ErrShapeMismatch)
	}
	if periodsPerYear <= 0 {
		return nil, fmt.Errorf("%w: periods per year must be positive, got %d", ErrShapeMismatch, periodsPerYear)
	}
	if returns.PeriodCount() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 return observations, got %d", ErrSingularCovariance, returns.PeriodCount())
	}

	mu := MeanReturns(returns, periodsPerYear)
	sigma := CovarianceMatrix(returns, periodsPerYear)

	// The local quadratic model needs a well-conditioned covariance; refuse
	// to produce weights from a singular one.
	var chol mat.Cholesky
	if ok := chol.Factorize(sigma); !ok {
		return nil, fmt.Errorf("%w: covariance matrix is not positive definite", ErrSingularCovariance)
	}

	if initial == nil {
		initial = uniformWeights(n)
	} else {
		if err := checkFeasible(initial, n); err != nil {
			return nil, err
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToBounds(x)

			ret, variance := portfolioMoments(xProj, mu, sigma)
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			sum := 0.0
			for i := range xProj {
				sum += xProj[i]
			}

			obj := -ret / stdDev
			obj += sumPenaltyWeight * (sum - 1.0) * (sum - 1.0)
			return obj
		},
		Grad: func(grad, x []float64) {
			xProj := projectToBounds(x)

			ret, variance := portfolioMoments(xProj, mu, sigma)
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			for i := 0; i < n; i++ {
				var dVariance float64
				for j := 0; j < n; j++ {
					dVariance += 2 * sigma.At(i, j) * xProj[j]
				}
				grad[i] = -mu[i]/stdDev + ret*dVariance/(2*stdDev*stdDev*stdDev)
			}

			sum := 0.0
			for i := range xProj {
				sum += xProj[i]
			}
			for i := 0; i < n; i++ {
				grad[i] += 2 * sumPenaltyWeight * (sum - 1.0)
			}
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: o.tolerance,
		MajorIterations:   o.maxIterations,
	}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
	if err != nil || result == nil || !isUsableStatus(result.Status) {
		// Retry with a gradient-free method, as BFGS can fail on the
		// projected objective's kinks at the bound boundaries.
		o.log.Debug().Err(err).Msg("BFGS did not produce a usable iterate, retrying with Nelder-Mead")
		result, err = optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("optimization failed: %w", err)
		}
		if result == nil || !isUsableStatus(result.Status) {
			iterations := 0
			if result != nil {
				iterations = result.Stats.MajorIterations
			}
			return &OptimizationResult{
				Weights:    initial,
				Status:     StatusFailed,
				Iterations: iterations,
			}, nil
		}
	}

	weights := finalizeWeights(result.X)

	perf, err := Evaluate(weights, returns, periodsPerYear)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate optimal weights: %w", err)
	}

	// Never return an iterate worse than the starting point.
	startPerf, err := Evaluate(initial, returns, periodsPerYear)
	if err == nil && !startPerf.Degenerate && (perf.Degenerate || perf.Sharpe < startPerf.Sharpe) {
		weights = initial
		perf = startPerf
	}

	status := StatusConverged
	if result.Status == optimize.IterationLimit {
		status = StatusIterationLimit
	}

	o.log.Debug().
		Int("iterations", result.Stats.MajorIterations).
		Str("status", string(status)).
		Float64("sharpe", perf.Sharpe).
		Float64("annual_return", perf.AnnualReturn).
		Float64("annual_volatility", perf.AnnualVolatility).
		Msg("Optimization finished")

	return &OptimizationResult{
		Weights:     weights,
		Performance: perf,
		Status:      status,
		Iterations:  result.Stats.MajorIterations,
	}, nil
}

// isUsableStatus reports whether the solver terminated with an iterate worth
// keeping. The iteration limit is usable (surfaced as a distinct status);
// everything else counts as failure.
func isUsableStatus(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.IterationLimit:
		return true
	default:
		return false
	}
}

// checkFeasible validates an initial guess against the simplex constraint.
func checkFeasible(weights []float64, n int) error {
	if len(weights) != n {
		return fmt.Errorf("%w: %d weights for %d assets", ErrShapeMismatch, len(weights), n)
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: weight %g outside [0,1]", ErrInfeasibleStart, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > feasibilityTol {
		return fmt.Errorf("%w: weights sum to %g, expected 1", ErrInfeasibleStart, sum)
	}
	return nil
}

// portfolioMoments computes μᵗw and wᵗΣw for one iterate.
func portfolioMoments(w, mu []float64, sigma *mat.SymDense) (ret, variance float64) {
	n := len(w)
	for i := 0; i < n; i++ {
		ret += mu[i] * w[i]
		for j := 0; j < n; j++ {
			variance += w[i] * w[j] * sigma.At(i, j)
		}
	}
	return ret, variance
}

// projectToBounds clamps each weight into [0,1].
func projectToBounds(x []float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(0.0, math.Min(1.0, x[i]))
	}
	return proj
}

// finalizeWeights projects the solver's terminal iterate to the bounds and
// renormalizes so the simplex constraint holds exactly.
func finalizeWeights(x []float64) []float64 {
	weights := projectToBounds(x)
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return uniformWeights(len(x))
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// uniformWeights returns the 1/n allocation.
func uniformWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0 / float64(n)
	}
	return weights
}
