// Package bbands implements a bollinger band mean reversion strategy.
// Closes beyond a band open a position back toward the middle band, with
// the stop one band-width beyond the entry band and a time stop on
// positions that fail to revert.
package bbands

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
	Name = "bbands"

	periodKey       = "period"
	deviationsKey   = "deviations"
	maxHoldKey      = "max-hold-bars"
	riskFractionKey = "risk-fraction"

	description = "fades closes beyond the bollinger bands back toward the middle band, abandoning positions that fail to revert within a holding limit"
)

// Strategy fades band breaches
type Strategy struct {
	base.Strategy
	period       int
	deviations   float64
	maxHoldBars  int
	riskFraction float64

	upper  *data.Series
	middle *data.Series
	lower  *data.Series
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
	s.period = 20
	s.deviations = 2
	s.maxHoldBars = 20
	s.riskFraction = 0.01
}

// SetCustomSettings overrides defaults from a settings map
func (s *Strategy) SetCustomSettings(settings map[string]interface{}) error {
	for key := range settings {
		switch key {
		case periodKey, deviationsKey, maxHoldKey, riskFractionKey:
		default:
			return fmt.Errorf("%q: %w", key, base.ErrInvalidCustomSettings)
		}
	}
	if v, ok, err := base.GetFloat(settings, periodKey); err != nil {
		return err
	} else if ok {
		if v < 2 {
			return fmt.Errorf("%s %v below minimum: %w", periodKey, v, base.ErrInvalidCustomSettings)
		}
		s.period = int(v)
	}
	if v, ok, err := base.GetFloat(settings, deviationsKey); err != nil {
		return err
	} else if ok {
		if v <= 0 {
			return fmt.Errorf("%s %v out of range: %w", deviationsKey, v, base.ErrInvalidCustomSettings)
		}
		s.deviations = v
	}
	if v, ok, err := base.GetFloat(settings, maxHoldKey); err != nil {
		return err
	} else if ok {
		if v < 1 {
			return fmt.Errorf("%s %v below minimum: %w", maxHoldKey, v, base.ErrInvalidCustomSettings)
		}
		s.maxHoldBars = int(v)
	}
	if v, ok, err := base.GetFloat(settings, riskFractionKey); err != nil {
		return err
	} else if ok {
		s.riskFraction = v
	}
	return nil
}

// Init registers the three band series from a single binding
func (s *Strategy) Init(ctx *base.Context) error {
	period, deviations := s.period, s.deviations
	series, err := ctx.Indicators().BindMulti(
		[]string{
			fmt.Sprintf("bb-upper-%d", period),
			fmt.Sprintf("bb-middle-%d", period),
			fmt.Sprintf("bb-lower-%d", period),
		},
		func(in ...[]float64) [][]float64 {
			upper, middle, lower := indicators.BBands(in[0], period, deviations)
			return [][]float64{upper, middle, lower}
		},
		data.Close,
	)
	if err != nil {
		return err
	}
	s.upper, s.middle, s.lower = series[0], series[1], series[2]
	return nil
}

// Next fades breaches and enforces the holding limit
func (s *Strategy) Next(ctx *base.Context) error {
	upperNow, err := s.upper.Current()
	if err != nil {
		return err
	}
	middleNow, err := s.middle.Current()
	if err != nil {
		return err
	}
	lowerNow, err := s.lower.Current()
	if err != nil {
		return err
	}
	closePrice, err := ctx.Data().Read(data.Close, 0)
	if err != nil {
		return err
	}
	if anyNaN(upperNow, middleNow, lowerNow, closePrice) {
		return nil
	}

	pos := ctx.Position()
	if pos.Open() {
		if ctx.Offset()-pos.OpenedAt >= s.maxHoldBars {
			_ = ctx.ClosePosition(broker.ExitTimeStop)
		}
		return nil
	}

	width := middleNow - lowerNow
	if width <= 0 {
		return nil
	}
	switch {
	case closePrice < lowerNow:
		return s.enter(ctx, broker.Long, closePrice, closePrice-width, middleNow)
	case closePrice > upperNow:
		return s.enter(ctx, broker.Short, closePrice, closePrice+width, middleNow)
	}
	return nil
}

func (s *Strategy) enter(ctx *base.Context, side broker.Side, entry, stop, target float64) error {
	units := size.Calculate(s.riskFraction, ctx.Equity().InexactFloat64(), entry, stop, size.ModeRound)
	units = size.CapByFunds(units, entry, ctx.Cash().InexactFloat64(), 1, size.ModeRound)
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

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
