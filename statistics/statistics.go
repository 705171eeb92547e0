package statistics

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quantave/gobacktester/broker"
	mathlib "github.com/quantave/gobacktester/common/math"
)

const secondsPerYear = 365.25 * 24 * 60 * 60

// Calculate summarises a completed run from its equity curve and ledger.
// Ratios that are undefined for the inputs, such as the win rate of a run
// with no trades, are reported as NaN rather than zero
func Calculate(strategyName string, initialCash decimal.Decimal, curve []EquityPoint, trades []broker.Trade, riskFreeRate float64) (*Statistic, error) {
	if strategyName == "" {
		return nil, errEmptyStrategyName
	}
	if initialCash.LessThanOrEqual(decimal.Zero) {
		return nil, errNonPositiveCash
	}
	if len(curve) == 0 {
		return nil, ErrNoEquityCurve
	}

	stat := &Statistic{
		StrategyName: strategyName,
		StartDate:    curve[0].Time,
		EndDate:      curve[len(curve)-1].Time,
		BarCount:     len(curve),
		InitialCash:  initialCash,
		FinalEquity:  curve[len(curve)-1].Equity,
		RiskFreeRate: riskFreeRate,
		Trades:       append([]broker.Trade(nil), trades...),
		EquityCurve:  append([]EquityPoint(nil), curve...),
	}

	initial, _ := initialCash.Float64()
	stat.TotalReturn = stat.FinalEquity/initial - 1

	barsPerYear := intervalsPerYear(curve)
	stat.CompoundAnnualGrowthRate = mathlib.CompoundAnnualGrowthRate(
		initial, stat.FinalEquity, barsPerYear, float64(len(curve)))

	stat.MaxDrawdown, stat.LongestDrawdownBars = drawdown(curve)

	returns := intervalReturns(curve)
	rfPerInterval := riskFreeRate / barsPerYear
	stat.SharpeRatio = mathlib.SharpeRatio(returns, rfPerInterval, barsPerYear)
	stat.SortinoRatio = mathlib.SortinoRatio(returns, rfPerInterval, barsPerYear)

	calculateTradeStats(stat, trades)
	return stat, nil
}

func calculateTradeStats(stat *Statistic, trades []broker.Trade) {
	stat.TradeCount = len(trades)
	if len(trades) == 0 {
		stat.WinRate = math.NaN()
		stat.AverageWin = math.NaN()
		stat.AverageLoss = math.NaN()
		stat.ProfitFactor = math.NaN()
		stat.Expectancy = math.NaN()
		stat.AverageTradeDuration = math.NaN()
		stat.BestTrade = math.NaN()
		stat.WorstTrade = math.NaN()
		return
	}

	var grossWin, grossLoss, commission float64
	var heldBars int
	stat.BestTrade = math.Inf(-1)
	stat.WorstTrade = math.Inf(1)
	for i := range trades {
		pnl, _ := trades[i].ProfitLoss.Float64()
		comm, _ := trades[i].Commission.Float64()
		commission += comm
		heldBars += trades[i].Duration()
		if trades[i].Side == broker.Long {
			stat.LongTrades++
		} else {
			stat.ShortTrades++
		}
		if pnl > 0 {
			stat.WinningTrades++
			grossWin += pnl
		} else {
			stat.LosingTrades++
			grossLoss += -pnl
		}
		if pnl > stat.BestTrade {
			stat.BestTrade = pnl
		}
		if pnl < stat.WorstTrade {
			stat.WorstTrade = pnl
		}
	}

	stat.TotalCommission = commission
	stat.WinRate = float64(stat.WinningTrades) / float64(len(trades))
	stat.AverageTradeDuration = float64(heldBars) / float64(len(trades))
	if stat.BarCount > 0 {
		exposed := heldBars
		if exposed > stat.BarCount {
			exposed = stat.BarCount
		}
		stat.ExposureFraction = float64(exposed) / float64(stat.BarCount)
	}

	if stat.WinningTrades > 0 {
		stat.AverageWin = grossWin / float64(stat.WinningTrades)
	} else {
		stat.AverageWin = math.NaN()
	}
	if stat.LosingTrades > 0 {
		stat.AverageLoss = grossLoss / float64(stat.LosingTrades)
	} else {
		stat.AverageLoss = math.NaN()
	}
	if grossLoss > 0 {
		stat.ProfitFactor = grossWin / grossLoss
	} else {
		stat.ProfitFactor = math.NaN()
	}
	stat.Expectancy = (grossWin - grossLoss) / float64(len(trades))
}

// drawdown returns the deepest peak-to-trough equity decline as a fraction of
// the peak, along with the longest run of bars spent below a prior peak
func drawdown(curve []EquityPoint) (maxDD float64, longestBars int) {
	peak := curve[0].Equity
	peakOffset := curve[0].Offset
	for i := range curve {
		if curve[i].Equity >= peak {
			peak = curve[i].Equity
			peakOffset = curve[i].Offset
			continue
		}
		if peak > 0 {
			if dd := (peak - curve[i].Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
		if bars := curve[i].Offset - peakOffset; bars > longestBars {
			longestBars = bars
		}
	}
	return maxDD, longestBars
}

func intervalReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}
	return returns
}

// intervalsPerYear derives the annualisation factor from the median spacing
// of the curve's timestamps, so daily and intraday data are both handled
// without any explicit interval setting
func intervalsPerYear(curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 1
	}
	gaps := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if gap := curve[i].Time.Sub(curve[i-1].Time).Seconds(); gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return 1
	}
	sort.Float64s(gaps)
	median := gaps[len(gaps)/2]
	if len(gaps)%2 == 0 {
		median = (gaps[len(gaps)/2-1] + gaps[len(gaps)/2]) / 2
	}
	return secondsPerYear / median
}

// MarshalJSON renders undefined ratios as null, since JSON has no NaN
func (s *Statistic) MarshalJSON() ([]byte, error) {
	type alias Statistic
	return json.Marshal(&struct {
		*alias
		CompoundAnnualGrowthRate *float64 `json:"compound-annual-growth-rate"`
		SharpeRatio              *float64 `json:"sharpe-ratio"`
		SortinoRatio             *float64 `json:"sortino-ratio"`
		WinRate                  *float64 `json:"win-rate"`
		AverageWin               *float64 `json:"average-win"`
		AverageLoss              *float64 `json:"average-loss"`
		ProfitFactor             *float64 `json:"profit-factor"`
		Expectancy               *float64 `json:"expectancy"`
		AverageTradeDuration     *float64 `json:"average-trade-duration"`
		BestTrade                *float64 `json:"best-trade"`
		WorstTrade               *float64 `json:"worst-trade"`
	}{
		alias:                    (*alias)(s),
		CompoundAnnualGrowthRate: finite(s.CompoundAnnualGrowthRate),
		SharpeRatio:              finite(s.SharpeRatio),
		SortinoRatio:             finite(s.SortinoRatio),
		WinRate:                  finite(s.WinRate),
		AverageWin:               finite(s.AverageWin),
		AverageLoss:              finite(s.AverageLoss),
		ProfitFactor:             finite(s.ProfitFactor),
		Expectancy:               finite(s.Expectancy),
		AverageTradeDuration:     finite(s.AverageTradeDuration),
		BestTrade:                finite(s.BestTrade),
		WorstTrade:               finite(s.WorstTrade),
	})
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Serialise renders the statistic as indented JSON
func (s *Statistic) Serialise() (string, error) {
	out, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
