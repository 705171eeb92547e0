// Package report renders run statistics for human and machine consumers
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/quantave/gobacktester/statistics"
)

// PrintSummary writes a plain-text performance summary to w
func PrintSummary(stat *statistics.Statistic, w io.Writer) error {
	rows := []struct {
		label string
		value string
	}{
		{"Strategy", stat.StrategyName},
		{"Period", fmt.Sprintf("%s to %s (%d bars)",
			stat.StartDate.Format("2006-01-02"), stat.EndDate.Format("2006-01-02"), stat.BarCount)},
		{"Initial cash", stat.InitialCash.String()},
		{"Final equity", fmt.Sprintf("%.2f", stat.FinalEquity)},
		{"Total return", percent(stat.TotalReturn)},
		{"CAGR", percent(stat.CompoundAnnualGrowthRate)},
		{"Max drawdown", percent(stat.MaxDrawdown)},
		{"Longest drawdown", fmt.Sprintf("%d bars", stat.LongestDrawdownBars)},
		{"Sharpe ratio", ratio(stat.SharpeRatio)},
		{"Sortino ratio", ratio(stat.SortinoRatio)},
		{"Trades", strconv.Itoa(stat.TradeCount)},
		{"Win rate", percent(stat.WinRate)},
		{"Profit factor", ratio(stat.ProfitFactor)},
		{"Expectancy", ratio(stat.Expectancy)},
		{"Average win", ratio(stat.AverageWin)},
		{"Average loss", ratio(stat.AverageLoss)},
		{"Best trade", ratio(stat.BestTrade)},
		{"Worst trade", ratio(stat.WorstTrade)},
		{"Exposure", percent(stat.ExposureFraction)},
		{"Avg hold", ratio(stat.AverageTradeDuration) + " bars"},
		{"Commission paid", fmt.Sprintf("%.2f", stat.TotalCommission)},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-18s %s\n", r.label, r.value); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSONFile stores the full statistic, equity curve and ledger
// included, as a JSON file
func WriteJSONFile(stat *statistics.Statistic, path string) error {
	out, err := stat.Serialise()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0o644)
}

// WriteTradesCSV stores the closed-trade ledger as a CSV file
func WriteTradesCSV(stat *statistics.Statistic, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeTrades(stat, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeTrades(stat *statistics.Statistic, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"id", "side", "size", "entry-time", "entry-price",
		"exit-time", "exit-price", "commission", "profit-loss", "reason", "tag",
	}); err != nil {
		return err
	}
	for i := range stat.Trades {
		tr := &stat.Trades[i]
		if err := cw.Write([]string{
			tr.ID.String(),
			string(tr.Side),
			tr.Size.String(),
			tr.EntryTime.Format("2006-01-02T15:04:05Z07:00"),
			tr.EntryPrice.String(),
			tr.ExitTime.Format("2006-01-02T15:04:05Z07:00"),
			tr.ExitPrice.String(),
			tr.Commission.String(),
			tr.ProfitLoss.String(),
			string(tr.Reason),
			tr.Tag,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func ratio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
