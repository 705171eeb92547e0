package statistics

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantave/gobacktester/broker"
)

var (
	// ErrNoEquityCurve is returned when statistics are requested for a run
	// that produced no equity points
	ErrNoEquityCurve = errors.New("equity curve is empty")

	errEmptyStrategyName = errors.New("strategy name is empty")
	errNonPositiveCash   = errors.New("initial cash must be positive")
)

// EquityPoint is a single marked-to-market account snapshot, recorded once
// per processed bar
type EquityPoint struct {
	Offset int       `json:"offset"`
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// Statistic holds the full performance summary of one completed run
type Statistic struct {
	StrategyName string    `json:"strategy-name"`
	StartDate    time.Time `json:"start-date"`
	EndDate      time.Time `json:"end-date"`
	BarCount     int       `json:"bar-count"`

	InitialCash decimal.Decimal `json:"initial-cash"`
	FinalEquity float64         `json:"final-equity"`

	TotalReturn              float64 `json:"total-return"`
	CompoundAnnualGrowthRate float64 `json:"compound-annual-growth-rate"`
	MaxDrawdown              float64 `json:"max-drawdown"`
	LongestDrawdownBars      int     `json:"longest-drawdown-bars"`
	SharpeRatio              float64 `json:"sharpe-ratio"`
	SortinoRatio             float64 `json:"sortino-ratio"`
	RiskFreeRate             float64 `json:"risk-free-rate"`

	TradeCount           int     `json:"trade-count"`
	LongTrades           int     `json:"long-trades"`
	ShortTrades          int     `json:"short-trades"`
	WinningTrades        int     `json:"winning-trades"`
	LosingTrades         int     `json:"losing-trades"`
	WinRate              float64 `json:"win-rate"`
	AverageWin           float64 `json:"average-win"`
	AverageLoss          float64 `json:"average-loss"`
	ProfitFactor         float64 `json:"profit-factor"`
	Expectancy           float64 `json:"expectancy"`
	ExposureFraction     float64 `json:"exposure-fraction"`
	AverageTradeDuration float64 `json:"average-trade-duration"`
	BestTrade            float64 `json:"best-trade"`
	WorstTrade           float64 `json:"worst-trade"`
	TotalCommission      float64 `json:"total-commission"`

	Trades      []broker.Trade `json:"trades"`
	EquityCurve []EquityPoint  `json:"equity-curve"`
}
