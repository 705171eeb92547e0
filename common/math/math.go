// Package math provides the float64 financial calculations shared by the
// statistics reporter. Ratios return NaN, not zero, when they are undefined
// so that a flat or empty result set remains distinguishable from a genuine
// zero reading.
package math

import "math"

// ArithmeticMean returns the average of values, NaN when empty
func ArithmeticMean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for x := range values {
		sum += values[x]
	}
	return sum / float64(len(values))
}

// SampleStandardDeviation measures dispersion relative to the mean using
// the sample based calculation
func SampleStandardDeviation(values []float64) float64 {
	if len(values) <= 1 {
		return math.NaN()
	}
	mean := ArithmeticMean(values)
	var combined float64
	for i := range values {
		combined += math.Pow(values[i]-mean, 2)
	}
	return math.Sqrt(combined / float64(len(values)-1))
}

// PopulationStandardDeviation measures dispersion using the population
// based calculation
func PopulationStandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	mean := ArithmeticMean(values)
	var combined float64
	for i := range values {
		combined += math.Pow(values[i]-mean, 2)
	}
	return math.Sqrt(combined / float64(len(values)))
}

// DownsideDeviation measures dispersion of returns falling below the
// minimum acceptable return, used as the Sortino denominator
func DownsideDeviation(values []float64, minimumAcceptable float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var combined float64
	for i := range values {
		if diff := values[i] - minimumAcceptable; diff < 0 {
			combined += math.Pow(diff, 2)
		}
	}
	return math.Sqrt(combined / float64(len(values)))
}

// CompoundAnnualGrowthRate returns the CAGR as a fraction, eg 0.1 for 10%
// per year. intervalsPerYear scales the number of observed intervals to a
// yearly basis
func CompoundAnnualGrowthRate(openValue, closeValue, intervalsPerYear, numberOfIntervals float64) float64 {
	if openValue <= 0 || numberOfIntervals <= 0 || intervalsPerYear <= 0 {
		return math.NaN()
	}
	if closeValue < 0 {
		return math.NaN()
	}
	return math.Pow(closeValue/openValue, intervalsPerYear/numberOfIntervals) - 1
}

// SharpeRatio returns the annualised sharpe ratio of per-interval returns
// against a per-interval risk free rate. NaN when the returns have no
// variance
func SharpeRatio(returnsPerInterval []float64, riskFreeRatePerInterval, intervalsPerYear float64) float64 {
	if len(returnsPerInterval) <= 1 {
		return math.NaN()
	}
	excess := make([]float64, len(returnsPerInterval))
	for i := range returnsPerInterval {
		excess[i] = returnsPerInterval[i] - riskFreeRatePerInterval
	}
	stdDev := SampleStandardDeviation(excess)
	if stdDev == 0 || math.IsNaN(stdDev) {
		return math.NaN()
	}
	return ArithmeticMean(excess) / stdDev * math.Sqrt(intervalsPerYear)
}

// SortinoRatio returns the annualised sortino ratio, penalising only
// downside volatility. NaN when there is no downside deviation
func SortinoRatio(returnsPerInterval []float64, riskFreeRatePerInterval, intervalsPerYear float64) float64 {
	if len(returnsPerInterval) <= 1 {
		return math.NaN()
	}
	downside := DownsideDeviation(returnsPerInterval, riskFreeRatePerInterval)
	if downside == 0 || math.IsNaN(downside) {
		return math.NaN()
	}
	return (ArithmeticMean(returnsPerInterval) - riskFreeRatePerInterval) / downside * math.Sqrt(intervalsPerYear)
}
