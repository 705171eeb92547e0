package engine

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/quantave/gobacktester/broker"
	"github.com/quantave/gobacktester/common"
	"github.com/quantave/gobacktester/data"
	"github.com/quantave/gobacktester/events"
	"github.com/quantave/gobacktester/indicators"
	"github.com/quantave/gobacktester/statistics"
	"github.com/quantave/gobacktester/strategies/base"
)

var errAlreadyRun = errors.New("backtest has already run, Reset before running again")

// New builds a ready-to-run backtest from settings. The strategy's
// defaults are applied before any custom settings, and its Init hook runs
// here so indicator binding failures surface before the first bar
func New(s Settings) (*BackTest, error) {
	if s.Strategy == nil {
		return nil, common.ErrNilStrategy
	}
	if len(s.Bars) == 0 {
		return nil, common.ErrNoBars
	}

	bt := &BackTest{settings: s, strategy: s.Strategy}
	if err := bt.setup(); err != nil {
		return nil, err
	}
	return bt, nil
}

func (bt *BackTest) setup() error {
	bt.strategy.SetDefaults()
	if len(bt.settings.CustomSettings) > 0 {
		if err := bt.strategy.SetCustomSettings(bt.settings.CustomSettings); err != nil {
			return &Diagnostic{Offset: -1, Component: "strategy settings", Err: err}
		}
	}

	store, err := data.NewStore(bt.settings.Bars)
	if err != nil {
		return &Diagnostic{Offset: -1, Component: "data", Err: err}
	}
	binder, err := indicators.NewBinder(store, bt.settings.Bars)
	if err != nil {
		return &Diagnostic{Offset: -1, Component: "indicators", Err: err}
	}

	collector := &events.Collector{}
	stream := events.Stream(collector)
	if bt.settings.Stream != nil {
		stream = events.Tee(collector, bt.settings.Stream)
	}
	bk, err := broker.New(broker.Settings{
		InitialCash:          bt.settings.InitialCash,
		CommissionRate:       bt.settings.CommissionRate,
		Leverage:             bt.settings.Leverage,
		AllowFractionalSizes: bt.settings.AllowFractionalSizes,
		Stream:               stream,
	})
	if err != nil {
		return &Diagnostic{Offset: -1, Component: "broker", Err: err}
	}

	ctx, err := base.NewContext(store, binder, bk)
	if err != nil {
		return &Diagnostic{Offset: -1, Component: "context", Err: err}
	}
	if err := bt.strategy.Init(ctx); err != nil {
		return &Diagnostic{Offset: -1, Component: "strategy init", Err: err}
	}

	bt.store = store
	bt.binder = binder
	bt.broker = bk
	bt.ctx = ctx
	bt.collector = collector
	bt.curve = nil
	bt.hasRun = false
	return nil
}

// Run processes every bar in order and returns the run's statistics.
// Each bar is handled in a fixed sequence: the window advances, resting
// brackets are checked against the new bar, pending orders fill at its
// open, the strategy observes the completed bar, and equity is marked at
// its close. Any open position is force closed after the last bar
func (bt *BackTest) Run() (*statistics.Statistic, error) {
	if bt.hasRun {
		return nil, errAlreadyRun
	}
	bt.hasRun = true

	bars := bt.settings.Bars
	bt.curve = make([]statistics.EquityPoint, 0, len(bars))
	for i := range bars {
		if err := bt.store.AdvanceTo(i); err != nil {
			return nil, &Diagnostic{Offset: i, Component: "data", Err: err}
		}
		bt.broker.ProcessBrackets(bars[i], i)
		bt.broker.ExecutePending(bars[i], i)
		if err := bt.strategy.Next(bt.ctx); err != nil {
			return nil, &Diagnostic{Offset: i, Component: "strategy", Err: err}
		}
		bt.broker.MarkToMarket(decimal.NewFromFloat(bars[i].Close))
		equity, _ := bt.broker.Equity().Float64()
		bt.curve = append(bt.curve, statistics.EquityPoint{
			Offset: i,
			Time:   bars[i].Time,
			Equity: equity,
		})
	}

	bt.broker.ForceClose()
	if n := len(bt.curve); n > 0 {
		equity, _ := bt.broker.Equity().Float64()
		bt.curve[n-1].Equity = equity
	}

	return statistics.Calculate(
		bt.strategy.Name(),
		bt.settings.InitialCash,
		bt.curve,
		bt.broker.Trades(),
		bt.settings.RiskFreeRate,
	)
}

// Reset rebuilds the run's store, binder and broker and re-applies the
// strategy's defaults and custom settings so the same settings can be
// replayed from scratch. Strategy state held outside SetDefaults and
// Init, such as ad hoc fields mutated in Next, is the strategy's own
// responsibility to clear in those hooks
func (bt *BackTest) Reset() error {
	return bt.setup()
}

// Events returns every broker event the run has published so far
func (bt *BackTest) Events() []events.Event {
	return bt.collector.Events()
}

// EquityCurve returns the per-bar equity snapshots of the last run
func (bt *BackTest) EquityCurve() []statistics.EquityPoint {
	out := make([]statistics.EquityPoint, len(bt.curve))
	copy(out, bt.curve)
	return out
}

// Broker exposes the run's account, mainly for inspection in tests
func (bt *BackTest) Broker() *broker.Broker {
	return bt.broker
}
