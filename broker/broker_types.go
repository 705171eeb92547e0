package broker

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantave/gobacktester/events"
)

var (
	// ErrInvalidSize is returned when an order size is zero, negative or
	// not a whole number of units on a whole-unit account
	ErrInvalidSize = errors.New("order size must be a positive amount of units")
	// ErrBracketInvalid is returned when a stop or target does not sit on
	// the correct side of the expected fill price
	ErrBracketInvalid = errors.New("stop and target must bracket the expected fill price")
	// ErrInsufficientFunds is returned when filling an order would exceed
	// available cash or the leverage cap
	ErrInsufficientFunds = errors.New("insufficient funds for order")
	// ErrNoPosition is returned when a close or bracket update is
	// requested while flat
	ErrNoPosition = errors.New("no open position")

	errInvalidInitialCash = errors.New("initial cash must be positive")
	errInvalidCommission  = errors.New("commission rate must be in [0, 1)")
	errInvalidLeverage    = errors.New("leverage must be at least 1")
)

// Side is the direction of an order or position
type Side string

const (
	// Long buys first and profits from rising prices
	Long Side = "LONG"
	// Short sells first and profits from falling prices
	Short Side = "SHORT"
)

// Opposite returns the reverse direction
func (s Side) Opposite() Side {
	if s == Long {
		return Short
	}
	return Long
}

// Sign returns +1 for long, -1 for short
func (s Side) Sign() decimal.Decimal {
	if s == Long {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// ExitReason records why a trade was closed
type ExitReason string

const (
	// ExitStop is a stop-loss fill
	ExitStop ExitReason = "stop"
	// ExitTarget is a take-profit fill
	ExitTarget ExitReason = "target"
	// ExitStrategyClose is an explicit close requested by strategy code
	ExitStrategyClose ExitReason = "strategy-close"
	// ExitTimeStop is a strategy close after a holding-time threshold
	ExitTimeStop ExitReason = "time-stop"
	// ExitEndOfData is the forced flatten at the final bar
	ExitEndOfData ExitReason = "end-of-data"
)

// OrderRequest describes an entry order. A zero Stop or Target means no
// bracket on that side
type OrderRequest struct {
	Size   decimal.Decimal
	Stop   decimal.Decimal
	Target decimal.Decimal
	Tag    string
}

// Order is a pending market-on-open order. Close orders carry no size;
// they flatten whatever position exists at execution time
type Order struct {
	ID        uuid.UUID
	Side      Side
	Size      decimal.Decimal
	Stop      decimal.Decimal
	Target    decimal.Decimal
	Tag       string
	CreatedAt int
	close     bool
	reason    ExitReason
}

// Position is the single net position. A zero Size means flat
type Position struct {
	Side     Side
	Size     decimal.Decimal
	AvgEntry decimal.Decimal
	Stop     decimal.Decimal
	Target   decimal.Decimal
	OpenedAt int
	Tag      string

	entryTime       time.Time
	entryCommission decimal.Decimal
}

// Open reports whether any position is held
func (p Position) Open() bool {
	return !p.Size.IsZero()
}

// SignedSize returns the algebraic position size, negative for shorts
func (p Position) SignedSize() decimal.Decimal {
	if !p.Open() {
		return decimal.Zero
	}
	return p.Size.Mul(p.Side.Sign())
}

// Trade is a completed round trip
type Trade struct {
	ID         uuid.UUID       `json:"id"`
	Side       Side            `json:"side"`
	Size       decimal.Decimal `json:"size"`
	EntryIndex int             `json:"entry-index"`
	EntryTime  time.Time       `json:"entry-time"`
	EntryPrice decimal.Decimal `json:"entry-price"`
	ExitIndex  int             `json:"exit-index"`
	ExitTime   time.Time       `json:"exit-time"`
	ExitPrice  decimal.Decimal `json:"exit-price"`
	Commission decimal.Decimal `json:"commission"`
	ProfitLoss decimal.Decimal `json:"profit-loss"`
	Reason     ExitReason      `json:"reason"`
	Tag        string          `json:"tag,omitempty"`
}

// Duration returns the holding time in bars
func (t *Trade) Duration() int {
	return t.ExitIndex - t.EntryIndex
}

// Settings configures a broker account
type Settings struct {
	InitialCash          decimal.Decimal
	CommissionRate       decimal.Decimal
	Leverage             decimal.Decimal
	AllowFractionalSizes bool
	Stream               events.Stream
}

// Broker owns cash, the open position, pending orders and the trade
// ledger. All mutation happens through its methods on the single
// simulation goroutine
type Broker struct {
	cash            decimal.Decimal
	initialCash     decimal.Decimal
	commissionRate  decimal.Decimal
	leverage        decimal.Decimal
	allowFractional bool

	position Position
	pending  []*Order
	trades   []Trade

	stream    events.Stream
	offset    int
	barTime   time.Time
	lastClose decimal.Decimal
	orderSeq  int
	tradeSeq  int
}
