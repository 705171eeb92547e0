package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantave/gobacktester/broker"
	"github.com/quantave/gobacktester/data"
	"github.com/quantave/gobacktester/events"
	"github.com/quantave/gobacktester/indicators"
	"github.com/quantave/gobacktester/statistics"
	"github.com/quantave/gobacktester/strategies"
	"github.com/quantave/gobacktester/strategies/base"
)

// Settings configures a single run
type Settings struct {
	Strategy             strategies.Handler
	Bars                 []data.Bar
	InitialCash          decimal.Decimal
	CommissionRate       decimal.Decimal
	Leverage             decimal.Decimal
	AllowFractionalSizes bool
	RiskFreeRate         float64
	CustomSettings       map[string]interface{}
	// Stream receives a copy of every broker event in addition to the
	// run's own collector. Optional
	Stream events.Stream
}

// BackTest drives one strategy over one bar series. It is not safe for
// concurrent use; a run owns its store, binder and broker outright
type BackTest struct {
	settings  Settings
	strategy  strategies.Handler
	store     *data.Store
	binder    *indicators.Binder
	broker    *broker.Broker
	ctx       *base.Context
	collector *events.Collector
	curve     []statistics.EquityPoint
	hasRun    bool
}

// Diagnostic wraps an error raised during a run with the bar offset and
// component it came from, so a failed run can be placed exactly
type Diagnostic struct {
	Offset    int
	Component string
	Err       error
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", d.Component, d.Offset, d.Err)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}
