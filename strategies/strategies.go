// Package strategies defines the pluggable strategy contract and the
// registry of bundled implementations.
package strategies

import (
	"fmt"
	"strings"

	"github.com/quantave/gobacktester/strategies/bbands"
	"github.com/quantave/gobacktester/strategies/rsi"
	"github.com/quantave/gobacktester/strategies/smacross"
)

// GetStrategies returns a fresh instance of every bundled strategy with
// defaults applied
func GetStrategies() []Handler {
	handlers := []Handler{
		new(rsi.Strategy),
		new(smacross.Strategy),
		new(bbands.Strategy),
	}
	for i := range handlers {
		handlers[i].SetDefaults()
	}
	return handlers
}

// LoadStrategyByName returns a defaults-applied instance of the named
// strategy
func LoadStrategyByName(name string) (Handler, error) {
	for _, h := range GetStrategies() {
		if strings.EqualFold(h.Name(), name) {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrStrategyNotFound)
}
