package size

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()
	// risking 1% of 100,000 with 2 of risk per unit
	assert.Equal(t, 500.0, Calculate(0.01, 100000, 100, 98, ModeRound))
	// short entry below stop
	assert.Equal(t, 500.0, Calculate(0.01, 100000, 98, 100, ModeRound))
}

func TestCalculateZeroRiskPerUnit(t *testing.T) {
	t.Parallel()
	// entry == stop is a normal skip branch, never an error
	assert.Equal(t, 0.0, Calculate(0.01, 100000, 100, 100, ModeRound))
	assert.Equal(t, 0.0, Calculate(0.01, 100000, 100, 100, ModeFloor))
}

func TestCalculateDegenerateInputs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, Calculate(0, 100000, 100, 98, ModeRound))
	assert.Equal(t, 0.0, Calculate(-0.01, 100000, 100, 98, ModeRound))
	assert.Equal(t, 0.0, Calculate(0.01, 0, 100, 98, ModeRound))
	assert.Equal(t, 0.0, Calculate(0.01, math.NaN(), 100, 98, ModeRound))
	assert.Equal(t, 0.0, Calculate(0.01, 100000, math.Inf(1), 98, ModeRound))
}

func TestRoundingModes(t *testing.T) {
	t.Parallel()
	// raw size 2.5: banker's rounding goes to the even neighbour
	assert.Equal(t, 2.0, Calculate(0.01, 500, 100, 98, ModeRound))
	// raw size 3.5 rounds to 4
	assert.Equal(t, 4.0, Calculate(0.01, 700, 100, 98, ModeRound))
	// floor mode is always conservative
	assert.Equal(t, 3.0, Calculate(0.01, 700, 100, 98, ModeFloor))

	// sub-unit raw sizes floor to zero rather than round up to one
	assert.Equal(t, 0.0, Calculate(0.01, 80, 100, 98, ModeFloor))
	assert.Equal(t, 0.0, Calculate(0.001, 100, 100, 98, ModeRound))
}

func TestCapByFunds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 10.0, CapByFunds(10, 100, 100000, 1, ModeRound))
	// only 50 units affordable
	assert.Equal(t, 50.0, CapByFunds(100, 100, 5000, 1, ModeRound))
	// leverage expands the cap
	assert.Equal(t, 100.0, CapByFunds(100, 100, 5000, 2, ModeRound))
	assert.Equal(t, 0.0, CapByFunds(10, 0, 100000, 1, ModeRound))
	assert.Equal(t, 0.0, CapByFunds(0, 100, 100000, 1, ModeRound))
	assert.Equal(t, 0.0, CapByFunds(10, 100, 0, 1, ModeRound))
}

func TestCalculateNeverNegativeOrFractional(t *testing.T) {
	t.Parallel()
	for _, equity := range []float64{1, 10, 99.7, 1234.5, 100000} {
		for _, stop := range []float64{97.3, 99.99, 100, 102.5} {
			v := Calculate(0.02, equity, 100, stop, ModeRound)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Equal(t, math.Trunc(v), v, "size must be whole units")
		}
	}
}
