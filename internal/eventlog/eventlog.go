// Package eventlog implements the per-account transaction history.
//
// A Log is append-only: events are never removed or reordered once written.
// Iteration yields the most recent event first, which is the order used for
// display and for the persisted history lines.
package eventlog

import (
	"fmt"
	"iter"

	"github.com/shopspring/decimal"
)

// Kind classifies an event.
type Kind uint8

const (
	Deposit Kind = iota + 1
	Withdraw
	TransferIn
	TransferOut
	Interest
)

var kindNames = map[Kind]string{
	Deposit:     "Deposit",
	Withdraw:    "Withdraw",
	TransferIn:  "Transfer In",
	TransferOut: "Transfer Out",
	Interest:    "Interest",
}

// String returns the display name, which is also the persisted name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a persisted name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Event is a single immutable history entry.
type Event struct {
	Kind      Kind
	Amount    decimal.Decimal
	Timestamp string
}

// Log is an append-only event sequence. The zero value is an empty log.
//
// Events are stored oldest first; All walks the slice backwards so the
// newest event comes out first without ever moving existing entries.
type Log struct {
	events []Event
}

// Append records a new event. It always succeeds.
func (l *Log) Append(kind Kind, amount decimal.Decimal, timestamp string) {
	l.events = append(l.events, Event{Kind: kind, Amount: amount, Timestamp: timestamp})
}

// All returns the events newest first. The sequence is restartable and
// read-only; appending while ranging over it is not supported.
func (l *Log) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for i := len(l.events) - 1; i >= 0; i-- {
			if !yield(l.events[i]) {
				return
			}
		}
	}
}

// Len returns the number of events.
func (l *Log) Len() int {
	return len(l.events)
}

// Latest returns the most recent event, if any.
func (l *Log) Latest() (Event, bool) {
	if len(l.events) == 0 {
		return Event{}, false
	}
	return l.events[len(l.events)-1], true
}

// Clone returns a deep copy that shares no storage with l.
func (l *Log) Clone() Log {
	if len(l.events) == 0 {
		return Log{}
	}
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return Log{events: out}
}
