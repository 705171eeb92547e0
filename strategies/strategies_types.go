package strategies

import (
	"errors"

	"github.com/quantave/gobacktester/strategies/base"
)

// ErrStrategyNotFound is returned when a named strategy is not registered
var ErrStrategyNotFound = errors.New("strategy not found")

// Handler is the strategy contract. Any object satisfying it can be
// driven by the engine; the bundled strategies use class-style structs
// with base.Strategy embedded, but that is convention, not requirement.
//
// Init runs once before the first bar and declares indicators and
// parameters. Next runs exactly once per bar after the broker has
// settled that bar's resting orders, and may submit orders which fill at
// the next bar's open
type Handler interface {
	Name() string
	Description() string
	SetDefaults()
	SetCustomSettings(map[string]interface{}) error
	Init(*base.Context) error
	Next(*base.Context) error
}
