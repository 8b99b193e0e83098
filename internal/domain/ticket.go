package domain

import (
	"time"

	"github.com/transit-ticketing-service/internal/pkg/errors"
)

// TicketStatus is a closed enumeration. The only allowed transition
// sequence is Unused -> InUse -> Completed; there is no way back.
type TicketStatus int

const (
	TicketUnused TicketStatus = iota
	TicketInUse
	TicketCompleted
)

func (s TicketStatus) String() string {
	switch s {
	case TicketUnused:
		return "UNUSED"
	case TicketInUse:
		return "IN_USE"
	case TicketCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

type Ticket struct {
	ID          string       `json:"id"`
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`
	IssueTime   time.Time    `json:"issue_time"`
	Status      TicketStatus `json:"status"`
	Price       int          `json:"price"`

	EntryGateID string    `json:"entry_gate_id,omitempty"`
	ExitGateID  string    `json:"exit_gate_id,omitempty"`
	ExitTime    time.Time `json:"exit_time,omitempty"`

	// MaxTravel is stamped from the entry gate's configuration when the
	// journey begins, so exit gates evaluate expiry against the entry
	// gate's limit rather than their own.
	MaxTravel time.Duration `json:"max_travel,omitempty"`
}

// BeginJourney moves the ticket to InUse and records the entry gate.
func (t *Ticket) BeginJourney(gateID string, maxTravel time.Duration) error {
	if t.Status != TicketUnused {
		return errors.ErrTicketState
	}
	t.Status = TicketInUse
	t.EntryGateID = gateID
	t.MaxTravel = maxTravel
	return nil
}

// CompleteJourney moves the ticket to Completed and records the exit.
func (t *Ticket) CompleteJourney(gateID string, at time.Time) error {
	if t.Status != TicketInUse {
		return errors.ErrTicketState
	}
	t.Status = TicketCompleted
	t.ExitGateID = gateID
	t.ExitTime = at
	return nil
}

// Spend consumes an unused ticket outside a journey, e.g. when it is
// refunded. A spent ticket reads as Completed and opens no gate.
func (t *Ticket) Spend() error {
	if t.Status != TicketUnused {
		return errors.ErrTicketState
	}
	t.Status = TicketCompleted
	return nil
}

// ExpiredAt reports whether the travel time allowance has run out.
// fallback is used for tickets that never recorded an entry limit.
func (t *Ticket) ExpiredAt(now time.Time, fallback time.Duration) bool {
	limit := t.MaxTravel
	if limit <= 0 {
		limit = fallback
	}
	if limit <= 0 {
		return false
	}
	return now.Sub(t.IssueTime) > limit
}
