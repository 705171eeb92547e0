// Package broker simulates a single-symbol brokerage account: order
// intake, bracket matching against each bar's range, position and cash
// accounting, and the closed-trade ledger.
//
// Order submission errors are returned to the caller and surfaced on the
// event stream; they never abort a simulation. Fills follow the
// documented pessimistic rules: within one bar the stop is always
// checked before the target, and a gap beyond a bracket fills at the
// open, not at the bracket price.
package broker

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantave/gobacktester/data"
	"github.com/quantave/gobacktester/events"
)

// identifiers are derived, not random, so that two runs over the same
// input produce byte-identical ledgers
var idNamespace = uuid.NewV5(uuid.NamespaceOID, "gobacktester")

// New returns a broker for the given account settings
func New(s Settings) (*Broker, error) {
	if !s.InitialCash.IsPositive() {
		return nil, errInvalidInitialCash
	}
	if s.CommissionRate.IsNegative() || s.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errInvalidCommission
	}
	leverage := s.Leverage
	if leverage.IsZero() {
		leverage = decimal.NewFromInt(1)
	}
	if leverage.LessThan(decimal.NewFromInt(1)) {
		return nil, errInvalidLeverage
	}
	stream := s.Stream
	if stream == nil {
		stream = &events.Collector{}
	}
	return &Broker{
		cash:            s.InitialCash,
		initialCash:     s.InitialCash,
		commissionRate:  s.CommissionRate,
		leverage:        leverage,
		allowFractional: s.AllowFractionalSizes,
		stream:          stream,
		offset:          -1,
	}, nil
}

// Reset restores the account to its initial state for reuse
func (b *Broker) Reset() {
	b.cash = b.initialCash
	b.position = Position{}
	b.pending = nil
	b.trades = nil
	b.offset = -1
	b.barTime = time.Time{}
	b.lastClose = decimal.Zero
	b.orderSeq = 0
	b.tradeSeq = 0
}

// Buy enqueues a long market order for the next bar's open
func (b *Broker) Buy(req OrderRequest) error {
	return b.submit(Long, req)
}

// Sell enqueues a short market order for the next bar's open
func (b *Broker) Sell(req OrderRequest) error {
	return b.submit(Short, req)
}

func (b *Broker) submit(side Side, req OrderRequest) error {
	if err := b.validate(side, req); err != nil {
		b.reject(side, req, err)
		return err
	}
	b.orderSeq++
	b.pending = append(b.pending, &Order{
		ID:        uuid.NewV5(idNamespace, fmt.Sprintf("order-%d-%d", b.offset, b.orderSeq)),
		Side:      side,
		Size:      req.Size,
		Stop:      req.Stop,
		Target:    req.Target,
		Tag:       req.Tag,
		CreatedAt: b.offset,
	})
	return nil
}

func (b *Broker) validate(side Side, req OrderRequest) error {
	if !req.Size.IsPositive() {
		return fmt.Errorf("size %v: %w", req.Size, ErrInvalidSize)
	}
	if !b.allowFractional && !req.Size.IsInteger() {
		return fmt.Errorf("size %v is fractional: %w", req.Size, ErrInvalidSize)
	}
	if req.Stop.IsNegative() || req.Target.IsNegative() {
		return fmt.Errorf("negative bracket price: %w", ErrBracketInvalid)
	}
	// the expected fill is approximated by the current close; the actual
	// fill is the next bar's open
	expected := b.lastClose
	if expected.IsZero() {
		return nil
	}
	switch side {
	case Long:
		if !req.Stop.IsZero() && req.Stop.GreaterThanOrEqual(expected) {
			return fmt.Errorf("long stop %v at or above expected fill %v: %w", req.Stop, expected, ErrBracketInvalid)
		}
		if !req.Target.IsZero() && req.Target.LessThanOrEqual(expected) {
			return fmt.Errorf("long target %v at or below expected fill %v: %w", req.Target, expected, ErrBracketInvalid)
		}
	case Short:
		if !req.Stop.IsZero() && req.Stop.LessThanOrEqual(expected) {
			return fmt.Errorf("short stop %v at or below expected fill %v: %w", req.Stop, expected, ErrBracketInvalid)
		}
		if !req.Target.IsZero() && req.Target.GreaterThanOrEqual(expected) {
			return fmt.Errorf("short target %v at or above expected fill %v: %w", req.Target, expected, ErrBracketInvalid)
		}
	}
	return nil
}

// ClosePosition enqueues a flattening market order, sized at execution
// time to whatever position then exists. Reason should be
// ExitStrategyClose, or ExitTimeStop for holding-time exits
func (b *Broker) ClosePosition(reason ExitReason) error {
	if !b.position.Open() && len(b.pending) == 0 {
		return ErrNoPosition
	}
	if reason != ExitTimeStop {
		reason = ExitStrategyClose
	}
	b.orderSeq++
	b.pending = append(b.pending, &Order{
		ID:        uuid.NewV5(idNamespace, fmt.Sprintf("order-%d-%d", b.offset, b.orderSeq)),
		CreatedAt: b.offset,
		close:     true,
		reason:    reason,
	})
	return nil
}

// UpdateStop moves the open position's stop level. Updates are idempotent
// in place; an update to the same level is a no-op
func (b *Broker) UpdateStop(price decimal.Decimal) error {
	if !b.position.Open() {
		return ErrNoPosition
	}
	if err := b.validateBracketLevel(b.position.Side, price, true); err != nil {
		b.publish(events.Rejection, b.position.Side, price, b.position.Size, "", err.Error())
		return err
	}
	b.position.Stop = price
	return nil
}

// UpdateTarget moves the open position's take-profit level
func (b *Broker) UpdateTarget(price decimal.Decimal) error {
	if !b.position.Open() {
		return ErrNoPosition
	}
	if err := b.validateBracketLevel(b.position.Side, price, false); err != nil {
		b.publish(events.Rejection, b.position.Side, price, b.position.Size, "", err.Error())
		return err
	}
	b.position.Target = price
	return nil
}

func (b *Broker) validateBracketLevel(side Side, price decimal.Decimal, isStop bool) error {
	if !price.IsPositive() {
		return fmt.Errorf("bracket price %v: %w", price, ErrBracketInvalid)
	}
	if b.lastClose.IsZero() {
		return nil
	}
	below := price.LessThan(b.lastClose)
	wantBelow := (side == Long) == isStop
	if below != wantBelow {
		return fmt.Errorf("%v %v on wrong side of price %v: %w",
			side, price, b.lastClose, ErrBracketInvalid)
	}
	return nil
}

// ProcessBrackets checks the open position's stop and target against the
// bar's range, filling at the documented pessimistic precedence: the stop
// is evaluated first, and a gap beyond a level fills at the open
func (b *Broker) ProcessBrackets(bar data.Bar, offset int) {
	b.setBar(bar, offset)
	if !b.position.Open() {
		return
	}
	open := decimal.NewFromFloat(bar.Open)
	high := decimal.NewFromFloat(bar.High)
	low := decimal.NewFromFloat(bar.Low)

	stop := b.position.Stop
	target := b.position.Target

	if b.position.Side == Long {
		if !stop.IsZero() {
			switch {
			case open.LessThanOrEqual(stop):
				b.exit(open, ExitStop)
				return
			case low.LessThanOrEqual(stop):
				b.exit(stop, ExitStop)
				return
			}
		}
		if !target.IsZero() {
			switch {
			case open.GreaterThanOrEqual(target):
				b.exit(open, ExitTarget)
			case high.GreaterThanOrEqual(target):
				b.exit(target, ExitTarget)
			}
		}
		return
	}

	if !stop.IsZero() {
		switch {
		case open.GreaterThanOrEqual(stop):
			b.exit(open, ExitStop)
			return
		case high.GreaterThanOrEqual(stop):
			b.exit(stop, ExitStop)
			return
		}
	}
	if !target.IsZero() {
		switch {
		case open.LessThanOrEqual(target):
			b.exit(open, ExitTarget)
		case low.LessThanOrEqual(target):
			b.exit(target, ExitTarget)
		}
	}
}

// ExecutePending fills every queued order at the bar's open in FIFO
// order. An opposite-direction entry first flattens the existing
// position, closing a trade, then opens the full requested size.
// Unexecutable orders are cancelled, never carried
func (b *Broker) ExecutePending(bar data.Bar, offset int) {
	b.setBar(bar, offset)
	open := decimal.NewFromFloat(bar.Open)

	queue := b.pending
	b.pending = nil
	for _, o := range queue {
		if o.close {
			if !b.position.Open() {
				b.publish(events.Warning, "", open, decimal.Zero, o.Tag,
					"close requested with no open position, order cancelled")
				continue
			}
			b.exit(open, o.reason)
			continue
		}
		if b.position.Open() && b.position.Side != o.Side {
			b.exit(open, ExitStrategyClose)
		}
		b.fill(o, open)
	}
}

func (b *Broker) fill(o *Order, price decimal.Decimal) {
	notional := o.Size.Mul(price)
	commission := notional.Mul(b.commissionRate)

	totalSize := o.Size
	if b.position.Open() {
		totalSize = totalSize.Add(b.position.Size)
	}
	equity := b.cash.Add(b.position.SignedSize().Mul(price))
	if totalSize.Mul(price).GreaterThan(equity.Mul(b.leverage)) {
		b.publish(events.Rejection, o.Side, price, o.Size, o.Tag,
			fmt.Sprintf("order notional %v exceeds leverage cap: %v", notional, ErrInsufficientFunds))
		return
	}
	if o.Side == Long && notional.Add(commission).GreaterThan(b.cash) && b.leverage.Equal(decimal.NewFromInt(1)) {
		b.publish(events.Rejection, o.Side, price, o.Size, o.Tag,
			fmt.Sprintf("order cost %v exceeds cash %v: %v", notional.Add(commission), b.cash, ErrInsufficientFunds))
		return
	}

	if o.Side == Long {
		b.cash = b.cash.Sub(notional).Sub(commission)
	} else {
		b.cash = b.cash.Add(notional).Sub(commission)
	}

	if b.position.Open() {
		// pyramiding into the same direction: weighted average entry
		combined := b.position.Size.Add(o.Size)
		b.position.AvgEntry = b.position.AvgEntry.Mul(b.position.Size).
			Add(price.Mul(o.Size)).Div(combined)
		b.position.Size = combined
		b.position.entryCommission = b.position.entryCommission.Add(commission)
	} else {
		b.position = Position{
			Side:            o.Side,
			Size:            o.Size,
			AvgEntry:        price,
			OpenedAt:        b.offset,
			Tag:             o.Tag,
			entryTime:       b.barTime,
			entryCommission: commission,
		}
	}
	if !o.Stop.IsZero() {
		b.position.Stop = o.Stop
	}
	if !o.Target.IsZero() {
		b.position.Target = o.Target
	}

	b.publish(events.Entry, o.Side, price, o.Size, o.Tag,
		fmt.Sprintf("filled at %v, position %v", price, b.position.SignedSize()))
}

func (b *Broker) exit(price decimal.Decimal, reason ExitReason) {
	pos := b.position
	notional := pos.Size.Mul(price)
	commission := notional.Mul(b.commissionRate)

	if pos.Side == Long {
		b.cash = b.cash.Add(notional).Sub(commission)
	} else {
		b.cash = b.cash.Sub(notional).Sub(commission)
	}

	gross := price.Sub(pos.AvgEntry).Mul(pos.Size).Mul(pos.Side.Sign())
	totalCommission := pos.entryCommission.Add(commission)

	b.tradeSeq++
	b.trades = append(b.trades, Trade{
		ID: uuid.NewV5(idNamespace,
			fmt.Sprintf("trade-%d-%d-%d", pos.OpenedAt, b.offset, b.tradeSeq)),
		Side:       pos.Side,
		Size:       pos.Size,
		EntryIndex: pos.OpenedAt,
		EntryTime:  pos.entryTime,
		EntryPrice: pos.AvgEntry,
		ExitIndex:  b.offset,
		ExitTime:   b.barTime,
		ExitPrice:  price,
		Commission: totalCommission,
		ProfitLoss: gross.Sub(totalCommission),
		Reason:     reason,
		Tag:        pos.Tag,
	})
	b.position = Position{}

	b.publish(events.Exit, pos.Side, price, pos.Size, pos.Tag,
		fmt.Sprintf("%s exit at %v, net %v", reason, price, gross.Sub(totalCommission)))
}

// MarkToMarket revalues the account at the bar's closing price
func (b *Broker) MarkToMarket(closePrice decimal.Decimal) {
	b.lastClose = closePrice
}

// ForceClose flattens any open position at the last marked close. The
// engine calls it once at end of data
func (b *Broker) ForceClose() {
	if !b.position.Open() {
		return
	}
	b.exit(b.lastClose, ExitEndOfData)
}

// Equity returns cash plus the open position marked at the last close
func (b *Broker) Equity() decimal.Decimal {
	return b.cash.Add(b.position.SignedSize().Mul(b.lastClose))
}

// Cash returns the free cash balance
func (b *Broker) Cash() decimal.Decimal {
	return b.cash
}

// GetPosition returns a copy of the open position; Size zero means flat
func (b *Broker) GetPosition() Position {
	return b.position
}

// Trades returns a copy of the closed-trade ledger
func (b *Broker) Trades() []Trade {
	out := make([]Trade, len(b.trades))
	copy(out, b.trades)
	return out
}

// PendingOrders returns the number of orders queued for the next open
func (b *Broker) PendingOrders() int {
	return len(b.pending)
}

func (b *Broker) setBar(bar data.Bar, offset int) {
	b.offset = offset
	b.barTime = bar.Time
	// reference price for validations performed during the strategy
	// callback on this bar
	b.lastClose = decimal.NewFromFloat(bar.Close)
}

func (b *Broker) publish(t events.Type, side Side, price, amount decimal.Decimal, tag, msg string) {
	b.stream.Publish(events.Event{
		Offset:  b.offset,
		Time:    b.barTime,
		Type:    t,
		Side:    string(side),
		Price:   price,
		Amount:  amount,
		Tag:     tag,
		Message: msg,
	})
}

func (b *Broker) reject(side Side, req OrderRequest, err error) {
	b.publish(events.Rejection, side, b.lastClose, req.Size, req.Tag, err.Error())
}
