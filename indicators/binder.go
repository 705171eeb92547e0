// Package indicators binds user-declared indicator computations to the
// series store and wraps the gct-ta kernels with warm-up aware alignment.
//
// Indicator series are computed once over the entire input at
// registration time. This is deliberate: vectorised kernels stay
// efficient, and the no-look-ahead guarantee is enforced at read time by
// the store's visible-window contract rather than by streaming.
package indicators

import (
	"fmt"

	"github.com/quantave/gobacktester/data"
)

// NewBinder builds a binder over the store's bars. Raw OHLCV and
// auxiliary columns are snapshotted as transform inputs
func NewBinder(store *data.Store, bars []data.Bar) (*Binder, error) {
	if store == nil {
		return nil, errNilStore
	}
	b := &Binder{
		store:   store,
		length:  store.Len(),
		columns: make(map[string][]float64),
	}
	for _, name := range store.ColumnNames() {
		col := make([]float64, 0, len(bars))
		for i := range bars {
			switch name {
			case data.Open:
				col = append(col, bars[i].Open)
			case data.High:
				col = append(col, bars[i].High)
			case data.Low:
				col = append(col, bars[i].Low)
			case data.Close:
				col = append(col, bars[i].Close)
			case data.Volume:
				col = append(col, bars[i].Volume)
			default:
				col = append(col, auxValue(&bars[i], name))
			}
		}
		b.columns[name] = col
	}
	return b, nil
}

func auxValue(bar *data.Bar, name string) float64 {
	if v, ok := bar.Aux[name]; ok {
		return v
	}
	return nan
}

// Bind runs fn once over the named inputs and registers its output under
// name. The returned handle reads through the store's visible window
func (b *Binder) Bind(name string, fn Transform, inputs ...string) (*data.Series, error) {
	if fn == nil {
		return nil, ErrNilTransform
	}
	series, err := b.BindMulti([]string{name}, func(in ...[]float64) [][]float64 {
		return [][]float64{fn(in...)}
	}, inputs...)
	if err != nil {
		return nil, err
	}
	return series[0], nil
}

// BindMulti runs fn once and registers each produced series under the
// corresponding name, eg three bollinger bands from one call
func (b *Binder) BindMulti(names []string, fn MultiTransform, inputs ...string) ([]*data.Series, error) {
	if fn == nil {
		return nil, ErrNilTransform
	}
	if len(names) == 0 {
		return nil, errNoOutputs
	}
	for i := range names {
		if names[i] == "" {
			return nil, errEmptyName
		}
	}
	in, err := b.gather(inputs)
	if err != nil {
		return nil, err
	}

	outputs := fn(in...)
	if len(outputs) != len(names) {
		return nil, fmt.Errorf("produced %d series for %d names: %w",
			len(outputs), len(names), errOutputCount)
	}
	handles := make([]*data.Series, len(names))
	for i := range outputs {
		if len(outputs[i]) != b.length {
			return nil, fmt.Errorf("%q has length %d, want %d: %w",
				names[i], len(outputs[i]), b.length, ErrIndicatorShape)
		}
		if err = b.register(names[i], outputs[i]); err != nil {
			return nil, err
		}
		handles[i], err = b.store.Column(names[i])
		if err != nil {
			return nil, err
		}
	}
	return handles, nil
}

// BindScalar applies fn causally: the value at index i is computed from
// input prefixes ending at i, so even a closure written bar-at-a-time can
// never observe a future value
func (b *Binder) BindScalar(name string, fn ScalarTransform, inputs ...string) (*data.Series, error) {
	if fn == nil {
		return nil, ErrNilTransform
	}
	in, err := b.gather(inputs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, b.length)
	windows := make([][]float64, len(in))
	for i := 0; i < b.length; i++ {
		for j := range in {
			windows[j] = in[j][:i+1]
		}
		out[i] = fn(windows...)
	}
	if err = b.register(name, out); err != nil {
		return nil, err
	}
	return b.store.Column(name)
}

// gather resolves input names against everything the binder knows,
// including previously bound indicator outputs, and hands the transform
// defensive copies
func (b *Binder) gather(inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, errNoInputs
	}
	out := make([][]float64, len(inputs))
	for i := range inputs {
		col, ok := b.columns[inputs[i]]
		if !ok {
			return nil, fmt.Errorf("%q: %w", inputs[i], errUnknownInput)
		}
		cp := make([]float64, len(col))
		copy(cp, col)
		out[i] = cp
	}
	return out, nil
}

func (b *Binder) register(name string, values []float64) error {
	if err := b.store.AddColumn(name, values); err != nil {
		return err
	}
	b.columns[name] = values
	return nil
}
