package statistics

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	result := Calculate([]int{4, 1, 3, 2, 5})
	require.NotNil(t, result)

	assert.Equal(t, 5, result.Samples)
	assert.Equal(t, 1, result.Min)
	assert.Equal(t, 5, result.Max)
	assert.Equal(t, 3.0, result.Mean)
	assert.Equal(t, 2.0, result.Variance)
	assert.Equal(t, 1.41, result.StandardDeviation)
	assert.Equal(t, 0.0, result.Skewness)
	assert.Equal(t, -1.3, result.Kurtosis)
	assert.Equal(t, 3.0, result.Percentiles[50])
	assert.Equal(t, 2.0, result.Percentiles[25])
	assert.Equal(t, 1.0, result.Percentiles[0])
	assert.Equal(t, 5.0, result.Percentiles[100])
}

func TestCalculateEmpty(t *testing.T) {
	assert.Nil(t, Calculate(nil))
}

func TestCalculateConstantSample(t *testing.T) {
	result := Calculate([]int{7, 7, 7})
	require.NotNil(t, result)

	assert.Equal(t, 0.0, result.Variance)
	assert.Equal(t, 0.0, result.Skewness)
	assert.Equal(t, 0.0, result.Kurtosis)
}

func TestPercentileInterpolates(t *testing.T) {
	assert.Equal(t, 2.5, percentile([]int{1, 2, 3, 4}, 50))
	assert.Equal(t, 4.0, percentile([]int{1, 2, 3, 4}, 100))
}

func TestMonteCarloSimulation(t *testing.T) {
	var calls atomic.Int64
	result := MonteCarloSimulation(context.Background(), func() int {
		return int(calls.Add(1)%6) + 1
	}, 600)
	require.NotNil(t, result)

	assert.Equal(t, 600, result.Samples)
	assert.Equal(t, 1, result.Min)
	assert.Equal(t, 6, result.Max)
}

func TestMonteCarloSimulationNoIterations(t *testing.T) {
	assert.Nil(t, MonteCarloSimulation(context.Background(), func() int { return 1 }, 0))
}

func TestMonteCarloSimulationCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := MonteCarloSimulation(ctx, func() int { return 3 }, 100000)
	if result != nil {
		assert.Less(t, result.Samples, 100000)
		assert.Equal(t, 3, result.Min)
	}
}
