package gate

import (
	"fmt"
	"time"

	"github.com/transit-ticketing-service/internal/domain"
	"go.uber.org/zap"
)

// State of the passage state machine.
type State int

const (
	// StateIdle accepts new passage attempts.
	StateIdle State = iota
	// StatePending has admitted one traveler and waits for them to clear
	// the far side. No other attempt is accepted meanwhile.
	StatePending
)

const tagPrefix = "transit_gate:"

// Settings are the system-wide timing knobs shared by all gates.
type Settings struct {
	PendingTimeoutTicks int
	CloseDelayTicks     int
	// FallbackMaxTravelMinutes bounds journeys through gates whose
	// config carries no limit of its own.
	FallbackMaxTravelMinutes int
}

// Result is the outcome of a passage attempt. Rejections are ordinary
// values; the caller decides how to present them.
type Result struct {
	OK     bool
	Reason domain.RejectReason
}

func rejected(reason domain.RejectReason) Result {
	return Result{Reason: reason}
}

// Gate is one physical fare gate. All methods must be called from the
// simulation scheduler goroutine; the gate itself holds no lock.
type Gate struct {
	cfg      domain.GateConfig
	pos      domain.Position
	facing   Direction
	entryVol AABB
	exitVol  AABB

	world    World
	settings Settings
	logger   *zap.Logger
	now      func() time.Time

	state       State
	open        bool
	closeIn     int
	pending     Traveler
	pendingFor  int
	tick        int64
	lastAttempt int64
}

func New(cfg domain.GateConfig, pos domain.Position, facing Direction, world World, settings Settings, logger *zap.Logger) *Gate {
	g := &Gate{
		cfg:         cfg,
		pos:         pos,
		facing:      facing,
		world:       world,
		settings:    settings,
		logger:      logger.With(zap.String("gate_id", cfg.GateID)),
		now:         time.Now,
		lastAttempt: -1 << 30,
	}
	g.entryVol, g.exitVol = detectionVolumes(pos, facing)
	return g
}

func (g *Gate) ID() string                { return g.cfg.GateID }
func (g *Gate) Position() domain.Position { return g.pos }
func (g *Gate) Station() string           { return g.cfg.AssignedStation }
func (g *Gate) Config() domain.GateConfig { return g.cfg }
func (g *Gate) State() State              { return g.state }
func (g *Gate) Open() bool                { return g.open }

// SetClock overrides the time source, used by expiry checks.
func (g *Gate) SetClock(now func() time.Time) { g.now = now }

// UpdateConfig swaps the gate configuration in place. A pending passage
// finishes under the rules it was admitted with.
func (g *Gate) UpdateConfig(cfg domain.GateConfig) {
	cfg.GateID = g.cfg.GateID
	g.cfg = cfg
}

// SetFacing turns the gate, recomputing both detection volumes.
func (g *Gate) SetFacing(facing Direction) {
	g.facing = facing
	g.entryVol, g.exitVol = detectionVolumes(g.pos, facing)
}

func (g *Gate) tag() string { return tagPrefix + g.cfg.GateID }

// AttemptPassage runs the full admission check for one traveler and, on
// success, opens the gate and moves to the pending state. Exactly one
// traveler can be pending; everyone else sees a busy rejection.
func (g *Gate) AttemptPassage(tr Traveler) Result {
	if !g.cfg.Enabled {
		return rejected(domain.ReasonDisabled)
	}
	if g.tick-g.lastAttempt < int64(g.cfg.CooldownTicks) {
		return rejected(domain.ReasonCooldown)
	}
	g.lastAttempt = g.tick

	if g.state == StatePending {
		return rejected(domain.ReasonBusy)
	}

	ticket := tr.Ticket()
	if ticket == nil {
		return rejected(domain.ReasonNoTicket)
	}
	if ticket.Origin == "" || ticket.Destination == "" {
		return rejected(domain.ReasonInvalidTicket)
	}

	var res Result
	switch g.passageMode(ticket) {
	case domain.GateIn:
		res = g.checkEntry(tr, ticket)
	case domain.GateOut:
		res = g.checkExit(tr, ticket)
	default:
		res = rejected(domain.ReasonInvalidStatus)
	}

	if !res.OK {
		g.logger.Debug("Passage rejected",
			zap.String("traveler", tr.Name()),
			zap.String("reason", string(res.Reason)))
		return res
	}

	g.admit(tr)
	return res
}

// passageMode resolves which side of the ticket lifecycle this attempt
// exercises. Bidirectional gates pick by ticket status.
func (g *Gate) passageMode(ticket *domain.Ticket) domain.GateType {
	if g.cfg.Type != domain.GateBidirectional {
		return g.cfg.Type
	}
	switch ticket.Status {
	case domain.TicketUnused:
		return domain.GateIn
	case domain.TicketInUse:
		return domain.GateOut
	}
	return domain.GateBidirectional
}

func (g *Gate) checkEntry(tr Traveler, ticket *domain.Ticket) Result {
	switch ticket.Status {
	case domain.TicketUnused:
	case domain.TicketInUse:
		// Re-entry: a traveler who entered and stepped back out may be
		// let through again at the origin when the gate permits it. The
		// travel allowance still applies.
		if g.cfg.AllowReentry && ticket.Origin == g.cfg.AssignedStation {
			if ticket.ExpiredAt(g.now(), g.fallbackMaxTravel()) {
				return rejected(domain.ReasonExpired)
			}
			return Result{OK: true}
		}
		return rejected(domain.ReasonInUse)
	case domain.TicketCompleted:
		return rejected(domain.ReasonAlreadyUsed)
	default:
		return rejected(domain.ReasonInvalidStatus)
	}

	if ticket.Origin != g.cfg.AssignedStation {
		return rejected(domain.ReasonWrongStart)
	}
	if ticket.ExpiredAt(g.now(), g.fallbackMaxTravel()) {
		return rejected(domain.ReasonExpired)
	}

	if err := ticket.BeginJourney(g.cfg.GateID, g.maxTravel()); err != nil {
		return rejected(domain.ReasonInvalidStatus)
	}
	return Result{OK: true}
}

func (g *Gate) checkExit(tr Traveler, ticket *domain.Ticket) Result {
	switch ticket.Status {
	case domain.TicketInUse:
	case domain.TicketUnused:
		return rejected(domain.ReasonNotUsed)
	case domain.TicketCompleted:
		return rejected(domain.ReasonAlreadyUsed)
	default:
		return rejected(domain.ReasonInvalidStatus)
	}

	if ticket.EntryGateID == g.cfg.GateID || ticket.ExitGateID == g.cfg.GateID {
		return rejected(domain.ReasonSameGate)
	}
	if ticket.Destination != g.cfg.AssignedStation {
		return rejected(domain.ReasonWrongEnd)
	}
	if ticket.ExpiredAt(g.now(), g.fallbackMaxTravel()) {
		return rejected(domain.ReasonExpired)
	}

	if err := ticket.CompleteJourney(g.cfg.GateID, g.now()); err != nil {
		return rejected(domain.ReasonInvalidStatus)
	}
	if g.cfg.DestroyTicketOnExit {
		tr.TakeTicket()
	}
	return Result{OK: true}
}

// admit opens the gate for the traveler and arms the pending state.
func (g *Gate) admit(tr Traveler) {
	g.open = true
	g.closeIn = 0
	g.state = StatePending
	g.pending = tr
	g.pendingFor = 0
	tr.AddTag(g.tag())

	g.logger.Info("Passage admitted",
		zap.String("traveler", tr.Name()),
		zap.String("station", g.cfg.AssignedStation))
}

// maxTravel is the limit stamped onto tickets at entry.
func (g *Gate) maxTravel() time.Duration {
	if g.cfg.MaxTravelMinutes > 0 {
		return time.Duration(g.cfg.MaxTravelMinutes) * time.Minute
	}
	return g.fallbackMaxTravel()
}

func (g *Gate) fallbackMaxTravel() time.Duration {
	return time.Duration(g.settings.FallbackMaxTravelMinutes) * time.Minute
}

// OnTick advances the gate by one simulation step: door close countdown,
// pending supervision, illegal entry scan and passage completion, in
// that order.
func (g *Gate) OnTick() {
	g.tick++

	if g.open && g.state == StateIdle && g.closeIn > 0 {
		g.closeIn--
		if g.closeIn == 0 {
			g.open = false
		}
	}

	if g.state != StatePending {
		return
	}

	g.pendingFor++

	if !g.pending.Connected() {
		g.logger.Info("Pending traveler disconnected", zap.String("traveler", g.pending.Name()))
		g.failPending("")
		return
	}
	if g.pendingFor > g.settings.PendingTimeoutTicks {
		g.logger.Info("Pending passage timed out", zap.String("traveler", g.pending.Name()))
		g.failPending("Passage timed out, the gate has closed")
		return
	}

	if intruder := g.scanIllegalEntry(); intruder != nil {
		g.logger.Warn("Illegal entry detected",
			zap.String("intruder", intruder.Name()),
			zap.String("station", g.cfg.AssignedStation),
			zap.String("reason", string(domain.ReasonIllegalEntry)))
		intruder.NotifyRejection(domain.ReasonIllegalEntry)
		g.failPending("")
		return
	}

	if g.pending.Bounds().Intersects(g.exitVol) {
		g.completePending()
	}
}

// scanIllegalEntry looks for anyone in the entry volume who was not
// admitted by this gate.
func (g *Gate) scanIllegalEntry() Traveler {
	for _, tr := range g.world.TravelersIntersecting(g.entryVol) {
		if g.pending != nil && tr.ID() == g.pending.ID() {
			continue
		}
		if tr.HasTag(g.tag()) {
			continue
		}
		return tr
	}
	return nil
}

// completePending finishes a passage: the traveler cleared the far side.
// The door stays open for the close delay so it does not slam shut on
// their heels.
func (g *Gate) completePending() {
	g.pending.RemoveTag(g.tag())
	g.pending = nil
	g.state = StateIdle
	g.closeIn = g.settings.CloseDelayTicks
	if g.closeIn <= 0 {
		g.open = false
	}
}

// failPending aborts a passage without touching the ticket: whatever
// state transition happened at admission stands.
func (g *Gate) failPending(message string) {
	if g.pending != nil {
		g.pending.RemoveTag(g.tag())
		if message != "" {
			g.pending.Notify(message)
		}
	}
	g.pending = nil
	g.state = StateIdle
	g.open = false
	g.closeIn = 0
}

// Remove tears the gate down, force-failing any pending passage.
func (g *Gate) Remove() {
	if g.state == StatePending {
		g.failPending(fmt.Sprintf("Gate at %s was removed", g.cfg.AssignedStation))
	}
	g.cfg.Enabled = false
}
