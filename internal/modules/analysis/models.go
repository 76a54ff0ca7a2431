// Package analysis implements the statistical engine: log-return
// transformation, portfolio performance evaluation, Monte Carlo frontier
// sampling and max-Sharpe optimization.
package analysis

import "errors"

// Sentinel errors for the engine's failure conditions. Wrapped with context
// at the call sites; callers match with errors.Is.
var (
	// ErrShapeMismatch indicates disagreeing dimensions: weight vector length
	// vs asset count, or a price table too short to difference.
	ErrShapeMismatch = errors.New("input shape mismatch")

	// ErrInfeasibleStart indicates an initial guess violating the simplex or
	// bound constraints.
	ErrInfeasibleStart = errors.New("infeasible initial weights")

	// ErrSingularCovariance indicates a covariance matrix too ill-conditioned
	// for the optimizer's local quadratic model.
	ErrSingularCovariance = errors.New("singular covariance matrix")
)

// ReturnTable holds per-period log returns, one column per asset.
// Immutable once produced; recomputed whenever the price table changes.
type ReturnTable struct {
	Assets  []string
	Columns [][]float64 // Columns[i] holds Assets[i]'s returns, all equal length
}

// AssetCount returns the number of asset columns.
func (rt *ReturnTable) AssetCount() int {
	return len(rt.Assets)
}

// PeriodCount returns the number of return observations per asset.
func (rt *ReturnTable) PeriodCount() int {
	if len(rt.Columns) == 0 {
		return 0
	}
	return len(rt.Columns[0])
}

// Performance holds annualized portfolio statistics for one weight vector.
// When Degenerate is set the volatility is zero and Sharpe is undefined;
// Sharpe is reported as 0 in that case, never ±Inf or NaN. Consumers must
// check Degenerate before ranking by Sharpe.
type Performance struct {
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	Sharpe           float64 `json:"sharpe"`
	Degenerate       bool    `json:"degenerate,omitempty"`
}

// SimulationResult pairs each sampled weight vector with its performance.
// Read-only once the sampling pass completes. Degenerate entries are kept
// so downstream consumers can decide whether to filter them.
type SimulationResult struct {
	Weights      [][]float64   `json:"weights"`
	Performances []Performance `json:"performances"`
}

// Trials returns the number of sampled portfolios.
func (sr *SimulationResult) Trials() int {
	return len(sr.Weights)
}

// OptimizationStatus reports how the optimizer terminated.
type OptimizationStatus string

const (
	// StatusConverged - stopping tolerance met
	StatusConverged OptimizationStatus = "converged"
	// StatusIterationLimit - iteration cap reached before tolerance
	StatusIterationLimit OptimizationStatus = "iteration_limit"
	// StatusFailed - the solver could not produce a usable iterate
	StatusFailed OptimizationStatus = "failed"
)

// OptimizationResult is the optimizer's terminal weight vector with its
// performance and convergence information. Callers must check Converged
// before trusting the weights.
type OptimizationResult struct {
	Weights     []float64          `json:"weights"`
	Performance Performance        `json:"performance"`
	Status      OptimizationStatus `json:"status"`
	Iterations  int                `json:"iterations"`
}

// Converged reports whether the solver met its stopping tolerance.
func (r *OptimizationResult) Converged() bool {
	return r.Status == StatusConverged
}
