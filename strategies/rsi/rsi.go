// Package rsi implements a relative strength index threshold strategy.
// It buys when RSI falls to the oversold level, sells short when it rises
// to the overbought level, and flattens when RSI crosses back through the
// opposite threshold. Entries carry a fixed-fraction stop and a
// two-to-one target, sized by the shared risk sizer.
package rsi

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/quantave/gobacktester/broker"
	"github.com/quantave/gobacktester/data"
	"github.com/quantave/gobacktester/indicators"
	"github.com/quantave/gobacktester/size"
	"github.com/quantave/gobacktester/strategies/base"
)

const (
	// Name is the strategy's registry name
	Name = "rsi"

	rsiPeriodKey    = "rsi-period"
	rsiLowKey       = "rsi-low"
	rsiHighKey      = "rsi-high"
	riskFractionKey = "risk-fraction"
	stopFractionKey = "stop-fraction"

	description = "buys oversold and sells overbought readings of the relative strength index, with bracket exits risk-sized against a fixed-fraction stop"
)

// Strategy trades RSI threshold reversals
type Strategy struct {
	base.Strategy
	rsiPeriod    int
	rsiLow       float64
	rsiHigh      float64
	riskFraction float64
	stopFraction float64

	rsi *data.Series
}

// Name returns the strategy name
func (s *Strategy) Name() string {
	return Name
}

// Description provides an overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// SetDefaults sets the default strategy parameters
func (s *Strategy) SetDefaults() {
	s.rsiPeriod = 14
	s.rsiLow = 30
	s.rsiHigh = 70
	s.riskFraction = 0.01
	s.stopFraction = 0.02
}

// SetCustomSettings overrides defaults from a settings map
func (s *Strategy) SetCustomSettings(settings map[string]interface{}) error {
	for key := range settings {
		switch key {
		case rsiPeriodKey, rsiLowKey, rsiHighKey, riskFractionKey, stopFractionKey:
		default:
			return fmt.Errorf("%q: %w", key, base.ErrInvalidCustomSettings)
		}
	}
	if v, ok, err := base.GetFloat(settings, rsiPeriodKey); err != nil {
		return err
	} else if ok {
		if v < 2 {
			return fmt.Errorf("%s %v below minimum: %w", rsiPeriodKey, v, base.ErrInvalidCustomSettings)
		}
		s.rsiPeriod = int(v)
	}
	if v, ok, err := base.GetFloat(settings, rsiLowKey); err != nil {
		return err
	} else if ok {
		s.rsiLow = v
	}
	if v, ok, err := base.GetFloat(settings, rsiHighKey); err != nil {
		return err
	} else if ok {
		s.rsiHigh = v
	}
	if s.rsiLow >= s.rsiHigh {
		return fmt.Errorf("%s must stay below %s: %w", rsiLowKey, rsiHighKey, base.ErrInvalidCustomSettings)
	}
	if v, ok, err := base.GetFloat(settings, riskFractionKey); err != nil {
		return err
	} else if ok {
		s.riskFraction = v
	}
	if v, ok, err := base.GetFloat(settings, stopFractionKey); err != nil {
		return err
	} else if ok {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%s %v out of range: %w", stopFractionKey, v, base.ErrInvalidCustomSettings)
		}
		s.stopFraction = v
	}
	return nil
}

// Init registers the RSI series
func (s *Strategy) Init(ctx *base.Context) error {
	period := s.rsiPeriod
	rsiSeries, err := ctx.Indicators().Bind(
		fmt.Sprintf("rsi-%d", period),
		func(in ...[]float64) []float64 {
			return indicators.RSI(in[0], period)
		},
		data.Close,
	)
	if err != nil {
		return err
	}
	s.rsi = rsiSeries
	return nil
}

// Next evaluates the thresholds on the current bar
func (s *Strategy) Next(ctx *base.Context) error {
	value, err := s.rsi.Current()
	if err != nil {
		return err
	}
	if math.IsNaN(value) {
		// indicator warm-up
		return nil
	}

	pos := ctx.Position()
	if pos.Open() {
		if pos.Side == broker.Long && value >= s.rsiHigh ||
			pos.Side == broker.Short && value <= s.rsiLow {
			// a rejected close leaves the brackets working; nothing to do
			_ = ctx.ClosePosition(broker.ExitStrategyClose)
		}
		return nil
	}

	switch {
	case value <= s.rsiLow:
		return s.enter(ctx, broker.Long)
	case value >= s.rsiHigh:
		return s.enter(ctx, broker.Short)
	}
	return nil
}

func (s *Strategy) enter(ctx *base.Context, side broker.Side) error {
	closePrice, err := ctx.Data().Read(data.Close, 0)
	if err != nil {
		return err
	}

	stopDistance := closePrice * s.stopFraction
	var stop, target float64
	if side == broker.Long {
		stop = closePrice - stopDistance
		target = closePrice + 2*stopDistance
	} else {
		stop = closePrice + stopDistance
		target = closePrice - 2*stopDistance
	}

	equity := ctx.Equity().InexactFloat64()
	units := size.Calculate(s.riskFraction, equity, closePrice, stop, size.ModeRound)
	units = size.CapByFunds(units, closePrice, ctx.Cash().InexactFloat64(), 1, size.ModeRound)
	if units <= 0 {
		return nil
	}

	req := broker.OrderRequest{
		Size:   decimal.NewFromFloat(units),
		Stop:   decimal.NewFromFloat(stop),
		Target: decimal.NewFromFloat(target),
		Tag:    Name,
	}
	if side == broker.Long {
		_ = ctx.Buy(req)
	} else {
		_ = ctx.Sell(req)
	}
	return nil
}
