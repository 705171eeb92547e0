package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies an engine event
type Type string

const (
	// Entry is emitted when a fill opens or extends a position
	Entry Type = "entry"
	// Exit is emitted when a fill flattens a position
	Exit Type = "exit"
	// Rejection is emitted when an order is refused
	Rejection Type = "rejection"
	// Warning is emitted for recoverable oddities such as an unexecutable
	// close request
	Warning Type = "warning"
)

// Event is one structured record in the simulation's audit stream. It
// replaces ad hoc print debugging; textual rendering is the consumer's
// concern
type Event struct {
	Offset  int             `json:"offset"`
	Time    time.Time       `json:"time"`
	Type    Type            `json:"type"`
	Side    string          `json:"side,omitempty"`
	Price   decimal.Decimal `json:"price,omitempty"`
	Amount  decimal.Decimal `json:"amount,omitempty"`
	Tag     string          `json:"tag,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Stream receives events as the simulation produces them
type Stream interface {
	Publish(Event)
}
