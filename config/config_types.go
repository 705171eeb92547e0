package config

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	errNoStrategy   = errors.New("no strategy name provided")
	errNoDataSource = errors.New("no data source provided")
	errBadCash      = errors.New("initial cash must be positive")
	errBadRiskFree  = errors.New("risk free rate cannot be negative")
)

// Config is the JSON definition of a single run
type Config struct {
	Nickname          string            `json:"nickname,omitempty"`
	Goal              string            `json:"goal,omitempty"`
	StrategySettings  StrategySettings  `json:"strategy-settings"`
	DataSettings      DataSettings      `json:"data-settings"`
	BrokerSettings    BrokerSettings    `json:"broker-settings"`
	StatisticSettings StatisticSettings `json:"statistic-settings"`
}

// StrategySettings names the strategy and carries its overrides
type StrategySettings struct {
	Name           string                 `json:"name"`
	CustomSettings map[string]interface{} `json:"custom-settings,omitempty"`
}

// DataSettings points the run at its bar source
type DataSettings struct {
	CSVData *CSVData `json:"csv-data,omitempty"`
}

// CSVData locates a candle file on disk
type CSVData struct {
	FullPath string `json:"full-path"`
}

// BrokerSettings configures the simulated account
type BrokerSettings struct {
	InitialCash          decimal.Decimal `json:"initial-cash"`
	CommissionRate       decimal.Decimal `json:"commission-rate"`
	Leverage             decimal.Decimal `json:"leverage,omitempty"`
	AllowFractionalSizes bool            `json:"allow-fractional-sizes,omitempty"`
}

// StatisticSettings tunes the summary calculations
type StatisticSettings struct {
	RiskFreeRate float64 `json:"risk-free-rate"`
}
