package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transit-ticketing-service/internal/pkg/errors"
)

func TestTicketLifecycle(t *testing.T) {
	ticket := &Ticket{
		ID:          "t-1",
		Origin:      "A-01",
		Destination: "B-02",
		IssueTime:   time.Now(),
		Status:      TicketUnused,
		Price:       10,
	}

	require.NoError(t, ticket.BeginJourney("G1", time.Hour))
	assert.Equal(t, TicketInUse, ticket.Status)
	assert.Equal(t, "G1", ticket.EntryGateID)
	assert.Equal(t, time.Hour, ticket.MaxTravel)

	exitAt := time.Now()
	require.NoError(t, ticket.CompleteJourney("G2", exitAt))
	assert.Equal(t, TicketCompleted, ticket.Status)
	assert.Equal(t, "G2", ticket.ExitGateID)
	assert.Equal(t, exitAt, ticket.ExitTime)
}

func TestTicketTransitionsAreForwardOnly(t *testing.T) {
	ticket := &Ticket{Status: TicketUnused}

	// completing before beginning
	assert.ErrorIs(t, ticket.CompleteJourney("G2", time.Now()), errors.ErrTicketState)

	require.NoError(t, ticket.BeginJourney("G1", time.Hour))
	// beginning twice
	assert.ErrorIs(t, ticket.BeginJourney("G1", time.Hour), errors.ErrTicketState)

	require.NoError(t, ticket.CompleteJourney("G2", time.Now()))
	// nothing moves a completed ticket
	assert.ErrorIs(t, ticket.BeginJourney("G1", time.Hour), errors.ErrTicketState)
	assert.ErrorIs(t, ticket.CompleteJourney("G2", time.Now()), errors.ErrTicketState)
}

func TestTicketSpend(t *testing.T) {
	ticket := &Ticket{Status: TicketUnused}
	require.NoError(t, ticket.Spend())
	assert.Equal(t, TicketCompleted, ticket.Status)
	assert.ErrorIs(t, ticket.Spend(), errors.ErrTicketState)

	// a journey in progress cannot be spent away
	inUse := &Ticket{Status: TicketInUse}
	assert.ErrorIs(t, inUse.Spend(), errors.ErrTicketState)
	assert.Equal(t, TicketInUse, inUse.Status)
}

func TestTicketExpiry(t *testing.T) {
	issued := time.Now()
	ticket := &Ticket{IssueTime: issued, MaxTravel: time.Hour}

	assert.False(t, ticket.ExpiredAt(issued.Add(30*time.Minute), 0))
	assert.True(t, ticket.ExpiredAt(issued.Add(2*time.Hour), 0))

	// a ticket without its own limit uses the fallback
	ticket.MaxTravel = 0
	assert.False(t, ticket.ExpiredAt(issued.Add(2*time.Hour), 3*time.Hour))
	assert.True(t, ticket.ExpiredAt(issued.Add(4*time.Hour), 3*time.Hour))

	// no limit at all never expires
	assert.False(t, ticket.ExpiredAt(issued.Add(1000*time.Hour), 0))
}

func TestTicketStatusString(t *testing.T) {
	assert.Equal(t, "UNUSED", TicketUnused.String())
	assert.Equal(t, "IN_USE", TicketInUse.String())
	assert.Equal(t, "COMPLETED", TicketCompleted.String())
	assert.Equal(t, "UNKNOWN", TicketStatus(99).String())
}
