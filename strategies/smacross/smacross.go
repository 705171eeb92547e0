// Package smacross implements a fast/slow moving average crossover
// following strategy. A cross of the fast average above the slow opens a
// long with a stop one ATR multiple below the entry; the opposite cross
// flips the position short. The trailing stop is ratcheted one ATR
// multiple behind each close.
package smacross

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
	Name = "sma-cross"

	fastPeriodKey   = "fast-period"
	slowPeriodKey   = "slow-period"
	atrPeriodKey    = "atr-period"
	atrMultipleKey  = "atr-multiple"
	riskFractionKey = "risk-fraction"

	description = "trades fast/slow simple moving average crossovers in both directions with an ATR-anchored trailing stop"
)

// Strategy trades moving average crossovers
type Strategy struct {
	base.Strategy
	fastPeriod   int
	slowPeriod   int
	atrPeriod    int
	atrMultiple  float64
	riskFraction float64

	fast *data.Series
	slow *data.Series
	atr  *data.Series
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
	s.fastPeriod = 10
	s.slowPeriod = 30
	s.atrPeriod = 14
	s.atrMultiple = 2
	s.riskFraction = 0.01
}

// SetCustomSettings overrides defaults from a settings map
func (s *Strategy) SetCustomSettings(settings map[string]interface{}) error {
	for key := range settings {
		switch key {
		case fastPeriodKey, slowPeriodKey, atrPeriodKey, atrMultipleKey, riskFractionKey:
		default:
			return fmt.Errorf("%q: %w", key, base.ErrInvalidCustomSettings)
		}
	}
	if v, ok, err := base.GetFloat(settings, fastPeriodKey); err != nil {
		return err
	} else if ok {
		s.fastPeriod = int(v)
	}
	if v, ok, err := base.GetFloat(settings, slowPeriodKey); err != nil {
		return err
	} else if ok {
		s.slowPeriod = int(v)
	}
	if s.fastPeriod < 1 || s.slowPeriod <= s.fastPeriod {
		return fmt.Errorf("fast %d must stay below slow %d: %w",
			s.fastPeriod, s.slowPeriod, base.ErrInvalidCustomSettings)
	}
	if v, ok, err := base.GetFloat(settings, atrPeriodKey); err != nil {
		return err
	} else if ok {
		s.atrPeriod = int(v)
	}
	if v, ok, err := base.GetFloat(settings, atrMultipleKey); err != nil {
		return err
	} else if ok {
		if v <= 0 {
			return fmt.Errorf("%s %v out of range: %w", atrMultipleKey, v, base.ErrInvalidCustomSettings)
		}
		s.atrMultiple = v
	}
	if v, ok, err := base.GetFloat(settings, riskFractionKey); err != nil {
		return err
	} else if ok {
		s.riskFraction = v
	}
	return nil
}

// Init registers both averages and the ATR
func (s *Strategy) Init(ctx *base.Context) error {
	fastPeriod, slowPeriod, atrPeriod := s.fastPeriod, s.slowPeriod, s.atrPeriod

	fast, err := ctx.Indicators().Bind(
		fmt.Sprintf("sma-%d", fastPeriod),
		func(in ...[]float64) []float64 { return indicators.SMA(in[0], fastPeriod) },
		data.Close,
	)
	if err != nil {
		return err
	}
	slow, err := ctx.Indicators().Bind(
		fmt.Sprintf("sma-%d", slowPeriod),
		func(in ...[]float64) []float64 { return indicators.SMA(in[0], slowPeriod) },
		data.Close,
	)
	if err != nil {
		return err
	}
	atr, err := ctx.Indicators().Bind(
		fmt.Sprintf("atr-%d", atrPeriod),
		func(in ...[]float64) []float64 {
			return indicators.ATR(in[0], in[1], in[2], atrPeriod)
		},
		data.High, data.Low, data.Close,
	)
	if err != nil {
		return err
	}
	s.fast, s.slow, s.atr = fast, slow, atr
	return nil
}

// Next evaluates crossovers and manages the trailing stop
func (s *Strategy) Next(ctx *base.Context) error {
	fastNow, err := s.fast.Current()
	if err != nil {
		return err
	}
	slowNow, err := s.slow.Current()
	if err != nil {
		return err
	}
	fastPrev, err := s.fast.At(-1)
	if err != nil {
		return err
	}
	slowPrev, err := s.slow.At(-1)
	if err != nil {
		return err
	}
	atrNow, err := s.atr.Current()
	if err != nil {
		return err
	}
	if anyNaN(fastNow, slowNow, fastPrev, slowPrev, atrNow) {
		return nil
	}

	crossedUp := fastPrev <= slowPrev && fastNow > slowNow
	crossedDown := fastPrev >= slowPrev && fastNow < slowNow

	pos := ctx.Position()
	if pos.Open() {
		if pos.Side == broker.Long && crossedDown || pos.Side == broker.Short && crossedUp {
			_ = ctx.ClosePosition(broker.ExitStrategyClose)
			return nil
		}
		s.trail(ctx, pos)
		return nil
	}

	switch {
	case crossedUp:
		return s.enter(ctx, broker.Long, atrNow)
	case crossedDown:
		return s.enter(ctx, broker.Short, atrNow)
	}
	return nil
}

func (s *Strategy) enter(ctx *base.Context, side broker.Side, atrNow float64) error {
	closePrice, err := ctx.Data().Read(data.Close, 0)
	if err != nil {
		return err
	}
	distance := atrNow * s.atrMultiple
	if distance <= 0 {
		return nil
	}
	var stop float64
	if side == broker.Long {
		stop = closePrice - distance
	} else {
		stop = closePrice + distance
	}

	units := size.Calculate(s.riskFraction, ctx.Equity().InexactFloat64(), closePrice, stop, size.ModeRound)
	units = size.CapByFunds(units, closePrice, ctx.Cash().InexactFloat64(), 1, size.ModeRound)
	if units <= 0 {
		return nil
	}

	req := broker.OrderRequest{
		Size: decimal.NewFromFloat(units),
		Stop: decimal.NewFromFloat(stop),
		Tag:  Name,
	}
	if side == broker.Long {
		_ = ctx.Buy(req)
	} else {
		_ = ctx.Sell(req)
	}
	return nil
}

// trail ratchets the stop behind the close, only ever tightening
func (s *Strategy) trail(ctx *base.Context, pos broker.Position) {
	closePrice, err := ctx.Data().Read(data.Close, 0)
	if err != nil {
		return
	}
	atrNow, err := s.atr.Current()
	if err != nil || math.IsNaN(atrNow) {
		return
	}
	distance := atrNow * s.atrMultiple
	current := pos.Stop.InexactFloat64()
	if pos.Side == broker.Long {
		if next := closePrice - distance; next > current {
			_ = ctx.UpdateStop(decimal.NewFromFloat(next))
		}
		return
	}
	if next := closePrice + distance; pos.Stop.IsZero() || next < current {
		_ = ctx.UpdateStop(decimal.NewFromFloat(next))
	}
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
