package data

import (
	"errors"
	"time"
)

// Canonical OHLCV column names. Auxiliary input columns are stored under
// their lowercased names alongside these
const (
	Open   = "open"
	High   = "high"
	Low    = "low"
	Close  = "close"
	Volume = "volume"
)

var (
	// ErrUnknownColumn is returned when a requested column has not been
	// registered
	ErrUnknownColumn = errors.New("unknown column")
	// ErrLookAhead is returned when a read is attempted beyond the visible
	// bar index
	ErrLookAhead = errors.New("look-ahead read refused")
	// ErrNonMonotonic is returned when the visible index does not strictly
	// increase
	ErrNonMonotonic = errors.New("visible index may only advance")
	// ErrDataIntegrity is returned when input bars violate OHLC invariants
	ErrDataIntegrity = errors.New("ohlc integrity violation")

	errNoBars         = errors.New("no bars supplied")
	errColumnExists   = errors.New("column already registered")
	errLengthMismatch = errors.New("column length does not match bar count")
	errBadVisible     = errors.New("visible index out of range")
)

// Bar is one OHLCV record for one time interval. Aux holds additional
// numeric columns such as funding rate or open interest, keyed by
// lowercased name
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Aux    map[string]float64
}

// Store is the append-only columnar buffer holding the input OHLCV columns
// and every registered indicator series. All strategy reads go through
// Series handles, which are bounded by the store's visible index
type Store struct {
	bars    []Bar
	times   []time.Time
	columns map[string]*Series
	names   []string
	visible int
}

// Series is a named real-valued sequence aligned 1:1 with the input bars.
// Reads are only defined for offsets at or behind the visible bar
type Series struct {
	store  *Store
	name   string
	values []float64
}
