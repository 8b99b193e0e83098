package gate

import (
	"github.com/google/uuid"
	"github.com/transit-ticketing-service/internal/domain"
)

// Traveler is a person moving through the simulated world. Gates track
// admitted travelers with tags on the traveler itself, so the authority
// to be inside the paid area travels with the person.
type Traveler interface {
	ID() uuid.UUID
	Name() string

	// Bounds is the traveler's collision box in world coordinates.
	Bounds() AABB
	Connected() bool

	HasTag(tag string) bool
	AddTag(tag string)
	RemoveTag(tag string)

	// Ticket returns the ticket the traveler is presenting, nil when
	// none. The gate mutates it in place on entry and exit.
	Ticket() *domain.Ticket
	// TakeTicket removes the presented ticket, used when a gate is
	// configured to destroy tickets on exit.
	TakeTicket()

	Notify(message string)
	// NotifyRejection surfaces a machine-readable rejection code; the
	// presentation layer renders it for the traveler.
	NotifyRejection(reason domain.RejectReason)
}

// World resolves travelers by location for the per-tick volume scans.
type World interface {
	TravelersIntersecting(box AABB) []Traveler
}
