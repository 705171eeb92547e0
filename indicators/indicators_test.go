package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestAlign(t *testing.T) {
	t.Parallel()
	// trimmed kernel output is padded back to input length
	out := align(5, 2, []float64{3, 4, 5})
	require.Len(t, out, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, []float64{3, 4, 5}, out[2:])

	// full-length kernel output keeps alignment, warm-up masked
	out = align(4, 1, []float64{0, 2, 3, 4})
	require.Len(t, out, 4)
	assert.True(t, math.IsNaN(out[0]))
	assert.Equal(t, []float64{2, 3, 4}, out[1:])
}

func TestSMAAlignment(t *testing.T) {
	t.Parallel()
	in := rising(10)
	out := SMA(in, 3)
	require.Len(t, out, len(in))
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	// value at i is the mean of the window ending at i
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 9.0, out[9], 1e-9)
}

func TestEMAAlignment(t *testing.T) {
	t.Parallel()
	in := rising(20)
	out := EMA(in, 5)
	require.Len(t, out, len(in))
	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(out[i]), "warm-up index %d", i)
	}
	assert.False(t, math.IsNaN(out[len(out)-1]))
}

func TestRSIAlignment(t *testing.T) {
	t.Parallel()
	in := rising(30)
	out := RSI(in, 14)
	require.Len(t, out, len(in))
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(out[i]), "warm-up index %d", i)
	}
	// strictly rising input saturates RSI at 100
	assert.InDelta(t, 100.0, out[len(out)-1], 1e-6)
}

func TestATRAlignment(t *testing.T) {
	t.Parallel()
	n := 25
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100
		high[i] = 101
		low[i] = 99
	}
	out := ATR(high, low, closes, 14)
	require.Len(t, out, n)
	assert.True(t, math.IsNaN(out[0]))
	// constant 2-point range settles ATR at 2
	assert.InDelta(t, 2.0, out[n-1], 1e-6)
}

func TestMACDAlignment(t *testing.T) {
	t.Parallel()
	in := rising(60)
	macd, signal, hist := MACD(in, 12, 26, 9)
	require.Len(t, macd, len(in))
	require.Len(t, signal, len(in))
	require.Len(t, hist, len(in))
	warmup := 26 + 9 - 2
	for i := 0; i < warmup; i++ {
		assert.True(t, math.IsNaN(macd[i]), "warm-up index %d", i)
	}
	assert.False(t, math.IsNaN(macd[len(in)-1]))
	assert.InDelta(t, macd[len(in)-1]-signal[len(in)-1], hist[len(in)-1], 1e-9)
}

func TestBBandsAlignment(t *testing.T) {
	t.Parallel()
	in := make([]float64, 30)
	for i := range in {
		in[i] = 100 + float64(i%5)
	}
	upper, middle, lower := BBands(in, 20, 2)
	require.Len(t, upper, len(in))
	require.Len(t, middle, len(in))
	require.Len(t, lower, len(in))
	assert.True(t, math.IsNaN(upper[0]))
	last := len(in) - 1
	assert.Greater(t, upper[last], middle[last])
	assert.Less(t, lower[last], middle[last])
}
