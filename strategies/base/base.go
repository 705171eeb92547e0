// Package base provides the strategy context and an embeddable default
// implementation of the optional strategy capabilities.
package base

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantave/gobacktester/broker"
	"github.com/quantave/gobacktester/common"
	"github.com/quantave/gobacktester/data"
	"github.com/quantave/gobacktester/indicators"
)

// SetCustomSettings errors by default, a strategy without parameters
// cannot be customised
func (s *Strategy) SetCustomSettings(settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}
	return ErrCustomSettingsUnsupported
}

// SetDefaults is a no-op on the base
func (s *Strategy) SetDefaults() {}

// Description returns an empty description by default
func (s *Strategy) Description() string { return "" }

// GetFloat coerces a custom setting into a float64, accepting the
// numeric types a JSON config or a sweep harness may supply
func GetFloat(settings map[string]interface{}, key string) (float64, bool, error) {
	raw, ok := settings[key]
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case float32:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case decimal.Decimal:
		return v.InexactFloat64(), true, nil
	default:
		return 0, false, fmt.Errorf("%q expects a number, received %T: %w",
			key, raw, ErrInvalidCustomSettings)
	}
}

// NewContext wires the strategy-facing surface. Used by the engine
func NewContext(store *data.Store, binder *indicators.Binder, b *broker.Broker) (*Context, error) {
	if store == nil || binder == nil || b == nil {
		return nil, common.ErrNilArguments
	}
	return &Context{store: store, binder: binder, broker: b}, nil
}

// Data returns the visible-window series store
func (c *Context) Data() *data.Store { return c.store }

// Indicators returns the indicator binder for use during Init
func (c *Context) Indicators() *indicators.Binder { return c.binder }

// Offset returns the current bar index
func (c *Context) Offset() int { return c.store.VisibleIndex() }

// Buy submits a long market order for the next bar's open
func (c *Context) Buy(req broker.OrderRequest) error { return c.broker.Buy(req) }

// Sell submits a short market order for the next bar's open
func (c *Context) Sell(req broker.OrderRequest) error { return c.broker.Sell(req) }

// ClosePosition requests a flatten at the next bar's open
func (c *Context) ClosePosition(reason broker.ExitReason) error {
	return c.broker.ClosePosition(reason)
}

// UpdateStop adjusts the open position's stop level
func (c *Context) UpdateStop(price decimal.Decimal) error { return c.broker.UpdateStop(price) }

// UpdateTarget adjusts the open position's take-profit level
func (c *Context) UpdateTarget(price decimal.Decimal) error { return c.broker.UpdateTarget(price) }

// Position returns a read-only copy of the open position
func (c *Context) Position() broker.Position { return c.broker.GetPosition() }

// Equity returns the current account equity
func (c *Context) Equity() decimal.Decimal { return c.broker.Equity() }

// Cash returns the free cash balance
func (c *Context) Cash() decimal.Decimal { return c.broker.Cash() }

// Trades returns a read-only copy of the closed-trade ledger
func (c *Context) Trades() []broker.Trade { return c.broker.Trades() }
