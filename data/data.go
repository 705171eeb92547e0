// Package data implements the columnar series store backing a backtest
// run. Values for a bar are published once and never mutated; the only
// thing that changes per bar is the visible index, which the engine alone
// advances. No read path returns a value beyond that index.
package data

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// NewStore validates the supplied bars and builds the OHLCV columns plus
// one column per auxiliary field found across the input. Auxiliary values
// missing on individual bars are stored as NaN
func NewStore(bars []Bar) (*Store, error) {
	if len(bars) == 0 {
		return nil, errNoBars
	}

	s := &Store{
		bars:    bars,
		times:   make([]time.Time, len(bars)),
		columns: make(map[string]*Series),
		visible: -1,
	}

	o := make([]float64, len(bars))
	h := make([]float64, len(bars))
	l := make([]float64, len(bars))
	c := make([]float64, len(bars))
	v := make([]float64, len(bars))
	auxNames := make(map[string]struct{})
	for i := range bars {
		if err := validateBar(&bars[i]); err != nil {
			return nil, fmt.Errorf("bar %d at %v: %w", i, bars[i].Time, err)
		}
		if i > 0 && !bars[i].Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("bar %d at %v: timestamps must strictly increase: %w",
				i, bars[i].Time, ErrDataIntegrity)
		}
		s.times[i] = bars[i].Time
		o[i] = bars[i].Open
		h[i] = bars[i].High
		l[i] = bars[i].Low
		c[i] = bars[i].Close
		v[i] = bars[i].Volume
		for name := range bars[i].Aux {
			auxNames[name] = struct{}{}
		}
	}

	s.addColumn(Open, o)
	s.addColumn(High, h)
	s.addColumn(Low, l)
	s.addColumn(Close, c)
	s.addColumn(Volume, v)

	// sorted for deterministic registration order
	sorted := make([]string, 0, len(auxNames))
	for name := range auxNames {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	for _, name := range sorted {
		col := make([]float64, len(bars))
		for i := range bars {
			val, ok := bars[i].Aux[name]
			if !ok {
				val = math.NaN()
			}
			col[i] = val
		}
		if err := s.AddColumn(name, col); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func validateBar(b *Bar) error {
	if math.IsNaN(b.Open) || math.IsNaN(b.High) || math.IsNaN(b.Low) || math.IsNaN(b.Close) {
		return fmt.Errorf("NaN in OHLC: %w", ErrDataIntegrity)
	}
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return fmt.Errorf("high %v below open/close/low: %w", b.High, ErrDataIntegrity)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("low %v above open/close: %w", b.Low, ErrDataIntegrity)
	}
	if b.Volume < 0 || math.IsNaN(b.Volume) {
		return fmt.Errorf("volume %v negative: %w", b.Volume, ErrDataIntegrity)
	}
	return nil
}

func (s *Store) addColumn(name string, values []float64) {
	s.columns[name] = &Series{store: s, name: name, values: values}
	s.names = append(s.names, name)
}

// AddColumn registers a fully computed series under name. It is how the
// indicator binder publishes results; the series becomes readable through
// the same visible-window contract as the raw columns
func (s *Store) AddColumn(name string, values []float64) error {
	if _, ok := s.columns[name]; ok {
		return fmt.Errorf("%q: %w", name, errColumnExists)
	}
	if len(values) != len(s.bars) {
		return fmt.Errorf("%q has length %d, want %d: %w",
			name, len(values), len(s.bars), errLengthMismatch)
	}
	s.addColumn(name, values)
	return nil
}

// Len returns the number of loaded bars
func (s *Store) Len() int {
	return len(s.bars)
}

// Column returns the named series
func (s *Store) Column(name string) (*Series, error) {
	col, ok := s.columns[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownColumn)
	}
	return col, nil
}

// ColumnNames returns every registered column name in registration order
func (s *Store) ColumnNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// AdvanceTo moves the visible index to i. The index starts at -1 and may
// only strictly increase
func (s *Store) AdvanceTo(i int) error {
	if i <= s.visible {
		return fmt.Errorf("advance to %d with visible index %d: %w", i, s.visible, ErrNonMonotonic)
	}
	if i >= len(s.bars) {
		return fmt.Errorf("advance to %d with %d bars: %w", i, len(s.bars), errBadVisible)
	}
	s.visible = i
	return nil
}

// VisibleIndex returns the current visible bar index, -1 before the first
// advance
func (s *Store) VisibleIndex() int {
	return s.visible
}

// Current returns the bar at the visible index
func (s *Store) Current() (Bar, error) {
	if s.visible < 0 {
		return Bar{}, errBadVisible
	}
	return s.bars[s.visible], nil
}

// Time returns the timestamp at visible index + offset, offset <= 0
func (s *Store) Time(offset int) (time.Time, error) {
	if offset > 0 {
		return time.Time{}, fmt.Errorf("offset %d: %w", offset, ErrLookAhead)
	}
	idx := s.visible + offset
	if idx < 0 {
		return time.Time{}, errBadVisible
	}
	return s.times[idx], nil
}

// Read returns the value of the named column at visible index + offset
func (s *Store) Read(name string, offset int) (float64, error) {
	col, err := s.Column(name)
	if err != nil {
		return math.NaN(), err
	}
	return col.At(offset)
}

// Name returns the series' registered name
func (q *Series) Name() string {
	return q.name
}

// Len returns the full aligned length of the series
func (q *Series) Len() int {
	return len(q.values)
}

// At returns the value at visible index + offset. Offset 0 is the current
// bar, -1 the previous. Positive offsets are a look-ahead and refused;
// offsets reaching before the first bar return NaN
func (q *Series) At(offset int) (float64, error) {
	if offset > 0 {
		return math.NaN(), fmt.Errorf("%q offset %d: %w", q.name, offset, ErrLookAhead)
	}
	idx := q.store.visible + offset
	if idx < 0 {
		return math.NaN(), nil
	}
	return q.values[idx], nil
}

// Current returns the value at the visible bar
func (q *Series) Current() (float64, error) {
	return q.At(0)
}

// LastN returns a view of up to n values ending at the visible bar. The
// returned slice shares storage and must not be mutated
func (q *Series) LastN(n int) []float64 {
	hi := q.store.visible + 1
	if hi <= 0 || n <= 0 {
		return nil
	}
	lo := hi - n
	if lo < 0 {
		lo = 0
	}
	return q.values[lo:hi]
}

// Visible returns a view of every value up to and including the visible
// bar
func (q *Series) Visible() []float64 {
	hi := q.store.visible + 1
	if hi <= 0 {
		return nil
	}
	return q.values[:hi]
}
