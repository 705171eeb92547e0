// Package size holds the position sizing helpers shared across
// strategies. The dominant rule: risk a fixed fraction of equity between
// the entry and the stop, in whole units.
//
// A zero result signals "skip the trade" and is a normal branch in
// strategy code, so no helper here ever returns an error; degenerate
// inputs (entry == stop, non-positive equity, NaN anywhere) all produce
// zero.
package size

import "math"

// Calculate returns the number of units to order so that a loss at
// stopPrice costs riskFraction of equity. riskFraction is a fraction,
// 0.01 risks one percent
func Calculate(riskFraction, equity, entryPrice, stopPrice float64, mode Mode) float64 {
	if !isFinite(riskFraction) || !isFinite(equity) || !isFinite(entryPrice) || !isFinite(stopPrice) {
		return 0
	}
	if riskFraction <= 0 || equity <= 0 {
		return 0
	}
	riskPerUnit := math.Abs(entryPrice - stopPrice)
	if riskPerUnit <= 0 {
		return 0
	}
	return round(equity*riskFraction/riskPerUnit, mode)
}

// CapByFunds reduces units so that the order's notional fits within
// cash scaled by leverage. Leverage below 1 is treated as 1
func CapByFunds(units, price, cash, leverage float64, mode Mode) float64 {
	if units <= 0 || !isFinite(units) {
		return 0
	}
	if price <= 0 || !isFinite(price) || !isFinite(cash) {
		return 0
	}
	if leverage < 1 || !isFinite(leverage) {
		leverage = 1
	}
	maxUnits := cash * leverage / price
	if units > maxUnits {
		// capping always floors: rounding up here could breach the cap
		units = math.Floor(maxUnits)
	}
	if units <= 0 {
		return 0
	}
	return units
}

func round(raw float64, mode Mode) float64 {
	var units float64
	switch mode {
	case ModeFloor:
		units = math.Floor(raw)
	default:
		units = math.RoundToEven(raw)
	}
	if units <= 0 || !isFinite(units) {
		return 0
	}
	return units
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
