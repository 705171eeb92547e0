package engine

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantave/gobacktester/broker"
	"github.com/quantave/gobacktester/common"
	"github.com/quantave/gobacktester/data"
	"github.com/quantave/gobacktester/strategies"
	"github.com/quantave/gobacktester/strategies/base"
)

// flatStrategy never trades
type flatStrategy struct {
	base.Strategy
	nextCalls int
}

func (s *flatStrategy) Name() string             { return "flat" }
func (s *flatStrategy) Description() string      { return "does nothing" }
func (s *flatStrategy) Init(*base.Context) error { return nil }
func (s *flatStrategy) Next(*base.Context) error { s.nextCalls++; return nil }

// oneShotStrategy buys once on the first bar with a fixed target
type oneShotStrategy struct {
	base.Strategy
	fired bool
}

func (s *oneShotStrategy) Name() string             { return "one-shot" }
func (s *oneShotStrategy) Description() string      { return "single bracketed entry" }
func (s *oneShotStrategy) SetDefaults()             { s.fired = false }
func (s *oneShotStrategy) Init(*base.Context) error { return nil }

func (s *oneShotStrategy) Next(ctx *base.Context) error {
	if s.fired {
		return nil
	}
	s.fired = true
	return ctx.Buy(broker.OrderRequest{
		Size:   decimal.NewFromInt(10),
		Target: decimal.NewFromInt(110),
	})
}

func bars(ohlc ...[4]float64) []data.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]data.Bar, len(ohlc))
	for i, b := range ohlc {
		out[i] = data.Bar{
			Time:   start.Add(time.Duration(i) * 24 * time.Hour),
			Open:   b[0],
			High:   b[1],
			Low:    b[2],
			Close:  b[3],
			Volume: 1000,
		}
	}
	return out
}

// trendBars generates a deterministic oscillating series long enough to
// warm up and trigger every bundled strategy
func trendBars(n int) []data.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]data.Bar, n)
	for i := 0; i < n; i++ {
		mid := 100 + 15*math.Sin(float64(i)/9) + float64(i)/20
		out[i] = data.Bar{
			Time:   start.Add(time.Duration(i) * 24 * time.Hour),
			Open:   mid - 0.4,
			High:   mid + 1.1,
			Low:    mid - 1.1,
			Close:  mid + 0.3,
			Volume: 1000 + float64(i%7)*50,
		}
	}
	return out
}

func TestNewValidation(t *testing.T) {
	t.Parallel()
	_, err := New(Settings{})
	assert.ErrorIs(t, err, common.ErrNilStrategy)

	_, err = New(Settings{Strategy: &flatStrategy{}})
	assert.ErrorIs(t, err, common.ErrNoBars)

	_, err = New(Settings{
		Strategy:    &flatStrategy{},
		Bars:        trendBars(5),
		InitialCash: decimal.NewFromInt(-1),
	})
	require.Error(t, err)
	var diag *Diagnostic
	require.ErrorAs(t, err, &diag)
	assert.Equal(t, "broker", diag.Component)
}

func TestNewRejectsBadCustomSettings(t *testing.T) {
	t.Parallel()
	strat, err := strategies.LoadStrategyByName("rsi")
	require.NoError(t, err)
	_, err = New(Settings{
		Strategy:       strat,
		Bars:           trendBars(5),
		InitialCash:    decimal.NewFromInt(1000),
		CustomSettings: map[string]interface{}{"bogus": 1},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, base.ErrInvalidCustomSettings)
}

func TestRunFlatStrategy(t *testing.T) {
	t.Parallel()
	strat := &flatStrategy{}
	bt, err := New(Settings{
		Strategy:    strat,
		Bars:        trendBars(50),
		InitialCash: decimal.NewFromInt(1000000),
	})
	require.NoError(t, err)

	stat, err := bt.Run()
	require.NoError(t, err)

	assert.Equal(t, 50, strat.nextCalls)
	assert.Zero(t, stat.TradeCount)
	assert.Zero(t, stat.TotalReturn)
	assert.Len(t, stat.EquityCurve, 50)
	for i := range stat.EquityCurve {
		assert.Equal(t, float64(1000000), stat.EquityCurve[i].Equity)
	}
	assert.Empty(t, bt.Events())
}

func TestRunOneShotTarget(t *testing.T) {
	t.Parallel()
	series := bars(
		[4]float64{100, 102, 99, 100.5},
		[4]float64{101, 103, 100, 102},
		[4]float64{104, 111, 103, 109},
		[4]float64{109, 110, 108, 109.5},
	)
	bt, err := New(Settings{
		Strategy:    &oneShotStrategy{},
		Bars:        series,
		InitialCash: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)

	stat, err := bt.Run()
	require.NoError(t, err)

	require.Equal(t, 1, stat.TradeCount)
	trade := stat.Trades[0]
	// placed on bar 0, fills at bar 1's open of 101, target 110 hit on
	// bar 2 whose open gapped below it
	assert.Equal(t, broker.Long, trade.Side)
	assert.Equal(t, 1, trade.EntryIndex)
	assert.True(t, trade.EntryPrice.Equal(decimal.NewFromInt(101)), trade.EntryPrice.String())
	assert.Equal(t, 2, trade.ExitIndex)
	assert.True(t, trade.ExitPrice.Equal(decimal.NewFromInt(110)), trade.ExitPrice.String())
	assert.Equal(t, broker.ExitTarget, trade.Reason)
	assert.True(t, trade.ProfitLoss.Equal(decimal.NewFromInt(90)), trade.ProfitLoss.String())

	assert.InDelta(t, 100090, stat.FinalEquity, 1e-9)
	assert.False(t, bt.Broker().GetPosition().Open())
	// one entry and one exit event
	assert.Len(t, bt.Events(), 2)
}

func TestRunForceClosesAtEnd(t *testing.T) {
	t.Parallel()
	series := bars(
		[4]float64{100, 102, 99, 100.5},
		[4]float64{101, 103, 100, 102},
		[4]float64{102, 104, 101, 103},
	)
	bt, err := New(Settings{
		Strategy:    &oneShotStrategy{},
		Bars:        series,
		InitialCash: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)

	stat, err := bt.Run()
	require.NoError(t, err)

	require.Equal(t, 1, stat.TradeCount)
	trade := stat.Trades[0]
	assert.Equal(t, broker.ExitEndOfData, trade.Reason)
	assert.True(t, trade.ExitPrice.Equal(decimal.NewFromInt(103)), trade.ExitPrice.String())
	// (103 - 101) * 10 realised by the forced close
	assert.InDelta(t, 100020, stat.FinalEquity, 1e-9)
	assert.InDelta(t, 100020, stat.EquityCurve[len(stat.EquityCurve)-1].Equity, 1e-9)
}

func TestRunTwiceRequiresReset(t *testing.T) {
	t.Parallel()
	bt, err := New(Settings{
		Strategy:    &flatStrategy{},
		Bars:        trendBars(10),
		InitialCash: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	_, err = bt.Run()
	require.NoError(t, err)
	_, err = bt.Run()
	assert.ErrorIs(t, err, errAlreadyRun)

	require.NoError(t, bt.Reset())
	_, err = bt.Run()
	assert.NoError(t, err)
}

// Reset must restore strategy parameter state as well as the account, so
// a replay on the same instance reproduces the first run
func TestResetReplaysIdentically(t *testing.T) {
	t.Parallel()
	series := bars(
		[4]float64{100, 102, 99, 100.5},
		[4]float64{101, 103, 100, 102},
		[4]float64{104, 111, 103, 109},
		[4]float64{109, 110, 108, 109.5},
	)
	bt, err := New(Settings{
		Strategy:    &oneShotStrategy{},
		Bars:        series,
		InitialCash: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)

	first, err := bt.Run()
	require.NoError(t, err)
	require.Equal(t, 1, first.TradeCount)

	require.NoError(t, bt.Reset())
	second, err := bt.Run()
	require.NoError(t, err)

	firstOut, err := first.Serialise()
	require.NoError(t, err)
	secondOut, err := second.Serialise()
	require.NoError(t, err)
	assert.Equal(t, firstOut, secondOut)
}

func runOnce(t *testing.T, name string, series []data.Bar) string {
	t.Helper()
	strat, err := strategies.LoadStrategyByName(name)
	require.NoError(t, err)
	bt, err := New(Settings{
		Strategy:             strat,
		Bars:                 series,
		InitialCash:          decimal.NewFromInt(100000),
		CommissionRate:       decimal.NewFromFloat(0.001),
		AllowFractionalSizes: false,
	})
	require.NoError(t, err)
	stat, err := bt.Run()
	require.NoError(t, err)
	out, err := stat.Serialise()
	require.NoError(t, err)
	return out
}

func TestDeterministicReplay(t *testing.T) {
	t.Parallel()
	series := trendBars(250)
	for _, name := range []string{"rsi", "sma-cross", "bbands"} {
		first := runOnce(t, name, series)
		second := runOnce(t, name, series)
		assert.Equal(t, first, second, "strategy %q replay differed", name)
	}
}

// every strategy's realised ledger must reconcile with its equity curve
func TestLedgerReconciliation(t *testing.T) {
	t.Parallel()
	series := trendBars(250)
	strat, err := strategies.LoadStrategyByName("sma-cross")
	require.NoError(t, err)
	bt, err := New(Settings{
		Strategy:    strat,
		Bars:        series,
		InitialCash: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)
	stat, err := bt.Run()
	require.NoError(t, err)

	var realised float64
	for i := range stat.Trades {
		pnl, _ := stat.Trades[i].ProfitLoss.Float64()
		realised += pnl
	}
	assert.InDelta(t, realised, stat.FinalEquity-100000, 1e-6)
}
