package indicators

import (
	"errors"

	"github.com/quantave/gobacktester/data"
)

var (
	// ErrIndicatorShape is returned when a transform produces output whose
	// length does not match the input bar count
	ErrIndicatorShape = errors.New("indicator output length does not match input")
	// ErrNilTransform is returned when a bind is attempted without a
	// transform function
	ErrNilTransform = errors.New("received nil transform")

	errNoInputs     = errors.New("no input columns specified")
	errNoOutputs    = errors.New("no output names specified")
	errEmptyName    = errors.New("output name must not be empty")
	errOutputCount  = errors.New("transform output count does not match supplied names")
	errUnknownInput = errors.New("input column not registered with binder")
	errNilStore     = errors.New("received nil store")
)

// Transform maps one or more full-length input series to one aligned
// output series. It runs once over the entire input; causality of the
// produced values is the author's contract to uphold, the binder cannot
// detect a transform that reaches forward
type Transform func(inputs ...[]float64) []float64

// MultiTransform maps inputs to several aligned output series in one
// pass, eg the three bollinger bands
type MultiTransform func(inputs ...[]float64) [][]float64

// ScalarTransform produces the value for one bar from the input prefixes
// ending at that bar. The binder applies it causally over every index
type ScalarTransform func(windows ...[]float64) float64

// Binder turns user-declared transforms into aligned series registered on
// the store. It keeps its own full-length copy of every column so that
// batch computation never has to bypass the store's visible window
type Binder struct {
	store   *data.Store
	length  int
	columns map[string][]float64
}
