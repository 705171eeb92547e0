package data

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBars(n int) []Bar {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, n)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price + 0.5,
			Volume: 1000,
		}
	}
	return bars
}

func TestNewStore(t *testing.T) {
	t.Parallel()
	_, err := NewStore(nil)
	assert.ErrorIs(t, err, errNoBars)

	s, err := NewStore(testBars(10))
	require.NoError(t, err)
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, -1, s.VisibleIndex())

	for _, name := range []string{Open, High, Low, Close, Volume} {
		_, err = s.Column(name)
		assert.NoError(t, err)
	}
	_, err = s.Column("funding")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestNewStoreIntegrity(t *testing.T) {
	t.Parallel()
	bad := testBars(2)
	bad[1].High = bad[1].Low - 1
	_, err := NewStore(bad)
	assert.ErrorIs(t, err, ErrDataIntegrity)

	nan := testBars(2)
	nan[0].Close = math.NaN()
	_, err = NewStore(nan)
	assert.ErrorIs(t, err, ErrDataIntegrity)

	dup := testBars(2)
	dup[1].Time = dup[0].Time
	_, err = NewStore(dup)
	assert.ErrorIs(t, err, ErrDataIntegrity)

	negVol := testBars(2)
	negVol[1].Volume = -1
	_, err = NewStore(negVol)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestAuxColumns(t *testing.T) {
	t.Parallel()
	bars := testBars(3)
	bars[0].Aux = map[string]float64{"funding": 0.01}
	bars[2].Aux = map[string]float64{"funding": 0.02}
	s, err := NewStore(bars)
	require.NoError(t, err)

	funding, err := s.Column("funding")
	require.NoError(t, err)
	require.NoError(t, s.AdvanceTo(2))

	v, err := funding.At(-2)
	require.NoError(t, err)
	assert.Equal(t, 0.01, v)
	v, err = funding.At(-1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
	v, err = funding.At(0)
	require.NoError(t, err)
	assert.Equal(t, 0.02, v)
}

func TestAdvanceTo(t *testing.T) {
	t.Parallel()
	s, err := NewStore(testBars(5))
	require.NoError(t, err)

	require.NoError(t, s.AdvanceTo(0))
	require.NoError(t, s.AdvanceTo(3))
	assert.ErrorIs(t, s.AdvanceTo(3), ErrNonMonotonic)
	assert.ErrorIs(t, s.AdvanceTo(1), ErrNonMonotonic)
	assert.Error(t, s.AdvanceTo(5))
}

func TestSeriesAt(t *testing.T) {
	t.Parallel()
	s, err := NewStore(testBars(5))
	require.NoError(t, err)
	closeCol, err := s.Column(Close)
	require.NoError(t, err)

	// before the first advance nothing is defined
	v, err := closeCol.At(0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	require.NoError(t, s.AdvanceTo(2))

	v, err = closeCol.At(0)
	require.NoError(t, err)
	assert.Equal(t, 102.5, v)
	v, err = closeCol.At(-1)
	require.NoError(t, err)
	assert.Equal(t, 101.5, v)

	_, err = closeCol.At(1)
	assert.ErrorIs(t, err, ErrLookAhead)

	// reads preceding the first bar return NaN, not an error
	v, err = closeCol.At(-4)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
}

func TestSeriesWindows(t *testing.T) {
	t.Parallel()
	s, err := NewStore(testBars(5))
	require.NoError(t, err)
	closeCol, err := s.Column(Close)
	require.NoError(t, err)

	assert.Nil(t, closeCol.LastN(3))

	require.NoError(t, s.AdvanceTo(2))
	assert.Equal(t, []float64{101.5, 102.5}, closeCol.LastN(2))
	// clamped at the series start
	assert.Equal(t, []float64{100.5, 101.5, 102.5}, closeCol.LastN(10))
	assert.Equal(t, []float64{100.5, 101.5, 102.5}, closeCol.Visible())
	assert.Len(t, closeCol.LastN(10), 3, "window must never expose future bars")
}

func TestAddColumn(t *testing.T) {
	t.Parallel()
	s, err := NewStore(testBars(3))
	require.NoError(t, err)

	require.NoError(t, s.AddColumn("sma", []float64{1, 2, 3}))
	err = s.AddColumn("sma", []float64{1, 2, 3})
	assert.ErrorIs(t, err, errColumnExists)
	err = s.AddColumn("short", []float64{1})
	assert.ErrorIs(t, err, errLengthMismatch)
}

func TestRead(t *testing.T) {
	t.Parallel()
	s, err := NewStore(testBars(3))
	require.NoError(t, err)
	require.NoError(t, s.AdvanceTo(1))

	v, err := s.Read(Open, 0)
	require.NoError(t, err)
	assert.Equal(t, 101.0, v)
	_, err = s.Read("nope", 0)
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = s.Read(Open, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookAhead))
}
