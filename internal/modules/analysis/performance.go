package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MeanReturns returns the annualized mean period return per asset:
// mean(column) × periodsPerYear.
func MeanReturns(returns *ReturnTable, periodsPerYear int) []float64 {
	mu := make([]float64, returns.AssetCount())
	for i, col := range returns.Columns {
		if len(col) == 0 {
			continue
		}
		mu[i] = stat.Mean(col, nil) * float64(periodsPerYear)
	}
	return mu
}

// CovarianceMatrix returns the annualized sample covariance of the per-period
// returns: cov(column_i, column_j) × periodsPerYear. With fewer than two
// observations the sample covariance is undefined; a zero matrix is returned
// so the degenerate case surfaces as zero volatility rather than NaN.
func CovarianceMatrix(returns *ReturnTable, periodsPerYear int) *mat.SymDense {
	n := returns.AssetCount()
	sigma := mat.NewSymDense(n, nil)
	if returns.PeriodCount() < 2 {
		return sigma
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov := stat.Covariance(returns.Columns[i], returns.Columns[j], nil)
			sigma.SetSym(i, j, cov*float64(periodsPerYear))
		}
	}
	return sigma
}

// Evaluate computes annualized return, annualized volatility and Sharpe ratio
// for one weight vector against a return table. Deterministic and
// side-effect free; the shared kernel for the sampler and the optimizer.
//
// When the portfolio volatility is exactly zero the Sharpe ratio is
// undefined: the returned Performance carries Degenerate=true and Sharpe=0
// instead of a numeric extreme.
func Evaluate(weights []float64, returns *ReturnTable, periodsPerYear int) (Performance, error) {
	n := returns.AssetCount()
	if len(weights) != n {
		return Performance{}, fmt.Errorf("%w: %d weights for %d assets", ErrShapeMismatch, len(weights), n)
	}
	if n == 0 {
		return Performance{}, fmt.Errorf("%w: empty return table", ErrShapeMismatch)
	}
	if periodsPerYear <= 0 {
		return Performance{}, fmt.Errorf("%w: periods per year must be positive, got %d", ErrShapeMismatch, periodsPerYear)
	}

	mu := MeanReturns(returns, periodsPerYear)
	annualReturn := 0.0
	for i, w := range weights {
		annualReturn += w * mu[i]
	}

	sigma := CovarianceMatrix(returns, periodsPerYear)
	variance := quadraticForm(weights, sigma)
	// Floating-point can push a PSD quadratic form slightly negative
	if variance < 0 {
		variance = 0
	}
	volatility := math.Sqrt(variance)

	if volatility == 0 {
		return Performance{
			AnnualReturn:     annualReturn,
			AnnualVolatility: 0,
			Sharpe:           0,
			Degenerate:       true,
		}, nil
	}

	return Performance{
		AnnualReturn:     annualReturn,
		AnnualVolatility: volatility,
		Sharpe:           annualReturn / volatility,
	}, nil
}

// quadraticForm computes wᵗ·Σ·w.
func quadraticForm(weights []float64, sigma *mat.SymDense) float64 {
	w := mat.NewVecDense(len(weights), weights)
	var sw mat.VecDense
	sw.MulVec(sigma, w)
	return mat.Dot(w, &sw)
}
