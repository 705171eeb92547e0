package base

import (
	"errors"

	"github.com/quantave/gobacktester/broker"
	"github.com/quantave/gobacktester/data"
	"github.com/quantave/gobacktester/indicators"
)

var (
	// ErrCustomSettingsUnsupported is returned when a strategy is given
	// settings it does not accept
	ErrCustomSettingsUnsupported = errors.New("custom settings not supported")
	// ErrInvalidCustomSettings is returned when a setting value has the
	// wrong type or an out-of-range value
	ErrInvalidCustomSettings = errors.New("invalid custom settings")
)

// Strategy is the embeddable base for strategy implementations. It
// rejects custom settings by default; strategies with parameters override
// SetCustomSettings
type Strategy struct{}

// Context is everything a strategy may touch during Init and Next: typed
// access to the visible data window, the indicator binder, and the broker
// action surface. The engine owns the underlying components; the strategy
// holds only this reference
type Context struct {
	store  *data.Store
	binder *indicators.Binder
	broker *broker.Broker
}
