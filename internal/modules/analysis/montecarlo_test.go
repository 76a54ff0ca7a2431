package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_SimplexInvariants(t *testing.T) {
	returns := twoAssetTable(0.001, 0.01, 0.0005, 0.005)
	rng := rand.New(rand.NewSource(42))

	result, err := Sample(returns, 1000, 252, rng)
	require.NoError(t, err)
	require.Equal(t, 1000, result.Trials())
	require.Len(t, result.Performances, 1000)

	for _, weights := range result.Weights {
		require.Len(t, weights, 2)
		sum := 0.0
		for _, w := range weights {
			assert.GreaterOrEqual(t, w, 0.0)
			assert.LessOrEqual(t, w, 1.0)
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestSample_Reproducible(t *testing.T) {
	returns := twoAssetTable(0.001, 0.01, 0.0005, 0.005)

	first, err := Sample(returns, 100, 252, rand.New(rand.NewSource(1234)))
	require.NoError(t, err)
	second, err := Sample(returns, 100, 252, rand.New(rand.NewSource(1234)))
	require.NoError(t, err)

	assert.Equal(t, first.Weights, second.Weights)
	assert.Equal(t, first.Performances, second.Performances)
}

func TestSample_ZeroTrials(t *testing.T) {
	returns := twoAssetTable(0.001, 0.01, 0.0005, 0.005)

	result, err := Sample(returns, 0, 252, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Trials())
	assert.Empty(t, result.Performances)
}

func TestSample_NegativeTrials(t *testing.T) {
	returns := twoAssetTable(0.001, 0.01, 0.0005, 0.005)

	_, err := Sample(returns, -1, 252, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestSample_NilRandomSource(t *testing.T) {
	returns := twoAssetTable(0.001, 0.01, 0.0005, 0.005)

	_, err := Sample(returns, 10, 252, nil)
	assert.Error(t, err)
}

func TestSample_KeepsDegenerateTriples(t *testing.T) {
	// Constant-return asset: every sampled portfolio is degenerate and all
	// of them must survive into the result
	returns := &ReturnTable{
		Assets:  []string{"FLAT"},
		Columns: [][]float64{{0.001, 0.001, 0.001, 0.001}},
	}

	result, err := Sample(returns, 50, 252, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	require.Equal(t, 50, result.Trials())

	for _, perf := range result.Performances {
		assert.True(t, perf.Degenerate)
		assert.False(t, math.IsNaN(perf.Sharpe))
		assert.False(t, math.IsInf(perf.Sharpe, 0))
	}
}

func TestSample_PairsWeightsWithPerformances(t *testing.T) {
	returns := twoAssetTable(0.002, 0.01, 0.0005, 0.005)
	rng := rand.New(rand.NewSource(77))

	result, err := Sample(returns, 200, 252, rng)
	require.NoError(t, err)

	// Re-evaluating each stored weight vector must reproduce its stored
	// performance, regardless of parallel completion order
	for i, weights := range result.Weights {
		perf, err := Evaluate(weights, returns, 252)
		require.NoError(t, err)
		assert.Equal(t, perf, result.Performances[i])
	}
}
