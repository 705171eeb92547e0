package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArithmeticMean(t *testing.T) {
	t.Parallel()
	assert.True(t, math.IsNaN(ArithmeticMean(nil)))
	assert.Equal(t, 2.0, ArithmeticMean([]float64{1, 2, 3}))
}

func TestSampleStandardDeviation(t *testing.T) {
	t.Parallel()
	assert.True(t, math.IsNaN(SampleStandardDeviation([]float64{1})))
	v := SampleStandardDeviation([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 2.138, v, 0.001)
}

func TestDownsideDeviation(t *testing.T) {
	t.Parallel()
	v := DownsideDeviation([]float64{0.1, -0.1, 0.2, -0.2}, 0)
	assert.InDelta(t, math.Sqrt((0.01+0.04)/4), v, 1e-12)
}

func TestCompoundAnnualGrowthRate(t *testing.T) {
	t.Parallel()
	// doubling over one year
	assert.InDelta(t, 1.0, CompoundAnnualGrowthRate(100, 200, 365, 365), 1e-12)
	// doubling over two years
	assert.InDelta(t, math.Sqrt2-1, CompoundAnnualGrowthRate(100, 200, 365, 730), 1e-12)
	assert.True(t, math.IsNaN(CompoundAnnualGrowthRate(0, 200, 365, 365)))
}

func TestSharpeRatio(t *testing.T) {
	t.Parallel()
	assert.True(t, math.IsNaN(SharpeRatio([]float64{0.01}, 0, 252)))
	// zero variance must not divide by zero
	assert.True(t, math.IsNaN(SharpeRatio([]float64{0.01, 0.01, 0.01}, 0, 252)))
	v := SharpeRatio([]float64{0.01, -0.005, 0.02, 0.003}, 0, 252)
	assert.False(t, math.IsNaN(v))
	assert.Positive(t, v)
}

func TestSortinoRatio(t *testing.T) {
	t.Parallel()
	// all gains, no downside deviation
	assert.True(t, math.IsNaN(SortinoRatio([]float64{0.01, 0.02, 0.03}, 0, 252)))
	v := SortinoRatio([]float64{0.05, -0.02, 0.04, -0.01}, 0, 252)
	assert.False(t, math.IsNaN(v))
}
