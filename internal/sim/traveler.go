package sim

import (
	"sync"

	"github.com/google/uuid"
	"github.com/transit-ticketing-service/internal/domain"
	"github.com/transit-ticketing-service/internal/gate"
	"go.uber.org/zap"
)

// Traveler collision box dimensions.
const (
	travelerWidth  = 0.6
	travelerHeight = 1.8
)

// Traveler is a simulated person. It satisfies the gate package's
// traveler contract; notifications go to the log.
type Traveler struct {
	id     uuid.UUID
	name   string
	logger *zap.Logger

	mu        sync.Mutex
	pos       gate.Vec3
	connected bool
	tags      map[string]struct{}
	ticket    *domain.Ticket
}

func NewTraveler(name string, logger *zap.Logger) *Traveler {
	return &Traveler{
		id:        uuid.New(),
		name:      name,
		logger:    logger,
		connected: true,
		tags:      make(map[string]struct{}),
	}
}

func (t *Traveler) ID() uuid.UUID { return t.id }
func (t *Traveler) Name() string  { return t.name }

// MoveTo places the traveler's feet at the given point.
func (t *Traveler) MoveTo(x, y, z float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pos = gate.Vec3{X: x, Y: y, Z: z}
}

func (t *Traveler) Bounds() gate.AABB {
	t.mu.Lock()
	defer t.mu.Unlock()
	half := travelerWidth / 2
	return gate.AABB{
		Min: gate.Vec3{X: t.pos.X - half, Y: t.pos.Y, Z: t.pos.Z - half},
		Max: gate.Vec3{X: t.pos.X + half, Y: t.pos.Y + travelerHeight, Z: t.pos.Z + half},
	}
}

func (t *Traveler) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *Traveler) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
}

func (t *Traveler) HasTag(tag string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.tags[tag]
	return ok
}

func (t *Traveler) AddTag(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tags[tag] = struct{}{}
}

func (t *Traveler) RemoveTag(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tags, tag)
}

func (t *Traveler) Ticket() *domain.Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticket
}

func (t *Traveler) SetTicket(ticket *domain.Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticket = ticket
}

func (t *Traveler) TakeTicket() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticket = nil
}

func (t *Traveler) Notify(message string) {
	t.logger.Info("Traveler notified",
		zap.String("traveler", t.name),
		zap.String("message", message))
}

// NotifyRejection logs the rejection code a gate surfaced for this
// traveler. A real presentation layer would render it on screen.
func (t *Traveler) NotifyRejection(reason domain.RejectReason) {
	t.logger.Info("Traveler rejected at gate",
		zap.String("traveler", t.name),
		zap.String("reason", string(reason)))
}
