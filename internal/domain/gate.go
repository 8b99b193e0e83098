package domain

// GateType restricts the direction a gate admits travelers in.
type GateType int

const (
	GateIn GateType = iota
	GateOut
	GateBidirectional
)

func (t GateType) String() string {
	switch t {
	case GateIn:
		return "IN"
	case GateOut:
		return "OUT"
	case GateBidirectional:
		return "BIDIRECTIONAL"
	}
	return "UNKNOWN"
}

// GateConfig is the persisted, administrator-editable part of a gate.
type GateConfig struct {
	GateID          string   `json:"gate_id" validate:"required"`
	AssignedStation string   `json:"assigned_station" validate:"required"`
	Type            GateType `json:"type"`
	AllowReentry    bool     `json:"allow_reentry"`
	// MaxTravelMinutes bounds the time between issue and exit.
	MaxTravelMinutes    int  `json:"max_travel_minutes" validate:"gt=0"`
	DestroyTicketOnExit bool `json:"destroy_ticket_on_exit"`
	Enabled             bool `json:"enabled"`
	CooldownTicks       int  `json:"cooldown_ticks" validate:"min=0"`
}

// RejectReason is a machine-readable code surfaced to the presentation
// layer when a gate refuses a passage. Rejections are values, not errors.
type RejectReason string

const (
	ReasonNone          RejectReason = ""
	ReasonDisabled      RejectReason = "gate_disabled"
	ReasonCooldown      RejectReason = "cooldown"
	ReasonBusy          RejectReason = "busy"
	ReasonNoTicket      RejectReason = "no_ticket"
	ReasonInvalidTicket RejectReason = "invalid_ticket"
	ReasonExpired       RejectReason = "expired"
	ReasonAlreadyUsed   RejectReason = "already_used"
	ReasonInUse         RejectReason = "in_use"
	ReasonNotUsed       RejectReason = "not_used"
	ReasonWrongStart    RejectReason = "wrong_start"
	ReasonWrongEnd      RejectReason = "wrong_end"
	ReasonSameGate      RejectReason = "same_gate"
	ReasonInvalidStatus RejectReason = "invalid_status"
	ReasonIllegalEntry  RejectReason = "illegal_entry"
)
