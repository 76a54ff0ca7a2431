package analysis

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizer_TwoAssetZeroCovariance(t *testing.T) {
	// Asset A: higher return, higher variance. Asset B: lower both.
	// Zero covariance, so the max-Sharpe portfolio mixes and beats either
	// single-asset allocation.
	returns := twoAssetTable(0.001, 0.0173, 0.0005, 0.0087)

	optimizer := NewOptimizer(1000, 1e-8, zerolog.Nop())
	result, err := optimizer.Optimize(returns, 252, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Converged(), "expected convergence, got %s", result.Status)

	// Simplex invariants
	sum := 0.0
	for _, w := range result.Weights {
		assert.GreaterOrEqual(t, w, 0.0, "weights should be non-negative")
		assert.LessOrEqual(t, w, 1.0, "weights should be <= 1")
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6, "weights should sum to 1")

	allA, err := Evaluate([]float64{1, 0}, returns, 252)
	require.NoError(t, err)
	allB, err := Evaluate([]float64{0, 1}, returns, 252)
	require.NoError(t, err)
	uniform, err := Evaluate([]float64{0.5, 0.5}, returns, 252)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Performance.Sharpe, allA.Sharpe, "optimum should beat all-A")
	assert.GreaterOrEqual(t, result.Performance.Sharpe, allB.Sharpe, "optimum should beat all-B")
	assert.GreaterOrEqual(t, result.Performance.Sharpe, uniform.Sharpe, "optimum should beat the uniform baseline")
}

func TestOptimizer_NeverWorseThanUniformBaseline(t *testing.T) {
	// Correlated three-asset universe
	returns := &ReturnTable{
		Assets: []string{"A", "B", "C"},
		Columns: [][]float64{
			{0.012, -0.008, 0.015, -0.002, 0.006, -0.004},
			{0.010, -0.006, 0.012, -0.001, 0.005, -0.003},
			{-0.002, 0.004, -0.001, 0.003, -0.002, 0.005},
		},
	}

	optimizer := NewOptimizer(1000, 1e-8, zerolog.Nop())
	result, err := optimizer.Optimize(returns, 252, nil)
	require.NoError(t, err)

	uniform, err := Evaluate(uniformWeights(3), returns, 252)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Performance.Sharpe, uniform.Sharpe)
}

func TestOptimizer_Deterministic(t *testing.T) {
	returns := twoAssetTable(0.001, 0.0173, 0.0005, 0.0087)
	optimizer := NewOptimizer(1000, 1e-8, zerolog.Nop())

	first, err := optimizer.Optimize(returns, 252, nil)
	require.NoError(t, err)
	second, err := optimizer.Optimize(returns, 252, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Weights, second.Weights)
	assert.Equal(t, first.Performance, second.Performance)
	assert.Equal(t, first.Status, second.Status)
}

func TestOptimizer_SingleAsset(t *testing.T) {
	returns := &ReturnTable{
		Assets:  []string{"AAPL"},
		Columns: [][]float64{{0.01, -0.005, 0.02, 0.003}},
	}

	optimizer := NewOptimizer(1000, 1e-8, zerolog.Nop())
	result, err := optimizer.Optimize(returns, 252, nil)
	require.NoError(t, err)

	require.Len(t, result.Weights, 1)
	assert.InDelta(t, 1.0, result.Weights[0], 1e-6)
	assert.True(t, result.Converged())
}

func TestOptimizer_SingularCovariance(t *testing.T) {
	// A single return observation leaves the sample covariance undefined;
	// the optimizer must refuse with a distinct failure, not NaN weights
	returns := &ReturnTable{
		Assets:  []string{"A", "B"},
		Columns: [][]float64{{0.01}, {0.02}},
	}

	optimizer := NewOptimizer(1000, 1e-8, zerolog.Nop())
	_, err := optimizer.Optimize(returns, 252, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSingularCovariance)
}

func TestOptimizer_ZeroVarianceAsset(t *testing.T) {
	// Constant-price asset: zero covariance matrix is not positive definite
	returns := &ReturnTable{
		Assets:  []string{"FLAT"},
		Columns: [][]float64{{0.0, 0.0, 0.0, 0.0}},
	}

	optimizer := NewOptimizer(1000, 1e-8, zerolog.Nop())
	_, err := optimizer.Optimize(returns, 252, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSingularCovariance)
}

func TestOptimizer_InfeasibleInitialGuess(t *testing.T) {
	returns := twoAssetTable(0.001, 0.0173, 0.0005, 0.0087)
	optimizer := NewOptimizer(1000, 1e-8, zerolog.Nop())

	testCases := []struct {
		name    string
		initial []float64
	}{
		{"wrong length", []float64{1.0}},
		{"sum above one", []float64{0.9, 0.9}},
		{"negative weight", []float64{1.2, -0.2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := optimizer.Optimize(returns, 252, tc.initial)
			require.Error(t, err)
		})
	}
}

func TestOptimizer_SuppliedInitialGuess(t *testing.T) {
	returns := twoAssetTable(0.001, 0.0173, 0.0005, 0.0087)
	optimizer := NewOptimizer(1000, 1e-8, zerolog.Nop())

	result, err := optimizer.Optimize(returns, 252, []float64{0.8, 0.2})
	require.NoError(t, err)

	start, err := Evaluate([]float64{0.8, 0.2}, returns, 252)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Performance.Sharpe, start.Sharpe,
		"result should never be worse than the starting point")
}

func TestOptimizer_IterationLimit(t *testing.T) {
	// Six correlated assets with a one-iteration budget: the solver cannot
	// meet tolerance and must say so via the status, not an error
	returns := &ReturnTable{
		Assets: []string{"A", "B", "C", "D", "E", "F"},
		Columns: [][]float64{
			{0.012, -0.008, 0.015, -0.002, 0.006, -0.004, 0.009, -0.001},
			{0.010, -0.006, 0.012, -0.001, 0.005, -0.003, 0.008, -0.002},
			{-0.002, 0.004, -0.001, 0.003, -0.002, 0.005, -0.003, 0.002},
			{0.007, -0.003, 0.009, 0.001, 0.004, -0.002, 0.006, 0.000},
			{0.001, 0.002, -0.004, 0.006, -0.001, 0.003, 0.002, -0.005},
			{0.005, -0.001, 0.003, -0.006, 0.008, 0.001, -0.002, 0.004},
		},
	}

	optimizer := NewOptimizer(1, 1e-15, zerolog.Nop())
	result, err := optimizer.Optimize(returns, 252, nil)
	require.NoError(t, err)

	if result.Status == StatusIterationLimit {
		assert.False(t, result.Converged())
	}
	// Whatever the status, the weights must stay feasible
	sum := 0.0
	for _, w := range result.Weights {
		assert.GreaterOrEqual(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}
