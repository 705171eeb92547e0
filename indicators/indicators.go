package indicators

import (
	"math"

	ta "github.com/thrasher-corp/gct-ta/indicators"
)

var nan = math.NaN()

// The gct-ta kernels trim their warm-up period TA-Lib style, returning
// fewer values than they were given. align left-pads with NaN back to the
// input length and masks the declared warm-up so indicator series stay
// 1:1 with the bars regardless of kernel behaviour.
func align(n, warmup int, out []float64) []float64 {
	aligned := make([]float64, n)
	gap := n - len(out)
	if gap < 0 {
		gap = 0
		out = out[len(out)-n:]
	}
	for i := 0; i < gap; i++ {
		aligned[i] = nan
	}
	copy(aligned[gap:], out)
	for i := 0; i < warmup && i < n; i++ {
		aligned[i] = nan
	}
	return aligned
}

// SMA returns the simple moving average of in, aligned to len(in)
func SMA(in []float64, period int) []float64 {
	return align(len(in), period-1, ta.SMA(in, period))
}

// EMA returns the exponential moving average of in, aligned to len(in)
func EMA(in []float64, period int) []float64 {
	return align(len(in), period-1, ta.EMA(in, period))
}

// RSI returns the relative strength index of in, aligned to len(in)
func RSI(in []float64, period int) []float64 {
	return align(len(in), period, ta.RSI(in, period))
}

// ATR returns the average true range, aligned to len(close)
func ATR(high, low, close []float64, period int) []float64 {
	return align(len(close), period, ta.ATR(high, low, close, period))
}

// MACD returns the macd, signal and histogram series, aligned to len(in)
func MACD(in []float64, fast, slow, signal int) (macd, signalLine, histogram []float64) {
	m, s, h := ta.MACD(in, fast, slow, signal)
	warmup := slow + signal - 2
	return align(len(in), warmup, m), align(len(in), warmup, s), align(len(in), warmup, h)
}

// BBands returns the upper, middle and lower bollinger bands over a
// simple moving average basis, aligned to len(in)
func BBands(in []float64, period int, deviations float64) (upper, middle, lower []float64) {
	u, m, l := ta.BBANDS(in, period, deviations, deviations, ta.Sma)
	warmup := period - 1
	return align(len(in), warmup, u), align(len(in), warmup, m), align(len(in), warmup, l)
}
