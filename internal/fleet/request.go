package fleet

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"fleetops-service/internal/model"
)

type Action string

const (
	// Vehicle actions.
	ActionRegister           Action = "REGISTER"
	ActionAssignToBooking    Action = "ASSIGN_TO_BOOKING"
	ActionReleaseFromBooking Action = "RELEASE_FROM_BOOKING"
	ActionFlagForMaintenance Action = "FLAG_FOR_MAINTENANCE"
	ActionClearMaintenance   Action = "CLEAR_MAINTENANCE"
	ActionRetire             Action = "RETIRE"

	// Booking actions.
	ActionRequest  Action = "REQUEST"
	ActionConfirm  Action = "CONFIRM"
	ActionStart    Action = "START"
	ActionComplete Action = "COMPLETE"
	ActionCancel   Action = "CANCEL"

	// Maintenance actions.
	ActionOpen      Action = "OPEN"
	ActionStartWork Action = "START_WORK"
	ActionResolve   Action = "RESOLVE"
)

// Command identifies an action on an entity type.
type Command struct {
	Entity model.EntityType `json:"entity_type"`
	Action Action           `json:"action"`
}

func (c Command) String() string {
	return string(c.Entity) + "." + string(c.Action)
}

// Creates reports whether the command produces a new entity instead of
// acting on an existing one.
func (c Command) Creates() bool {
	switch c {
	case Command{model.EntityVehicle, ActionRegister},
		Command{model.EntityBooking, ActionRequest},
		Command{model.EntityMaintenance, ActionOpen}:
		return true
	}
	return false
}

type VehicleDraft struct {
	VehicleNumber string         `json:"vehicle_number"`
	Model         string         `json:"model"`
	Manufacturer  string         `json:"manufacturer"`
	BodyType      model.BodyType `json:"body_type"`
	Capacity      int            `json:"capacity"`
	IsElectric    bool           `json:"is_electric"`
	EnergyLevel   *int           `json:"energy_level,omitempty"`
	HealthScore   *int           `json:"health_score,omitempty"`
	Location      model.Location `json:"location"`
}

type BookingDraft struct {
	VehicleID uuid.UUID `json:"vehicle_id"`
	// CustomerID is only honoured for staff booking on a customer's behalf;
	// customers always book for themselves.
	CustomerID uuid.UUID `json:"customer_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

type TicketDraft struct {
	VehicleID   uuid.UUID            `json:"vehicle_id"`
	IssueType   string               `json:"issue_type"`
	Description string               `json:"description"`
	Priority    model.TicketPriority `json:"priority"`
}

type Payload struct {
	Vehicle *VehicleDraft `json:"vehicle,omitempty"`
	Booking *BookingDraft `json:"booking,omitempty"`
	Ticket  *TicketDraft  `json:"ticket,omitempty"`
}

// TransitionRequest is a role-scoped command against one entity. EntityID is
// ignored for creating commands. When ExpectedVersion is set the request is
// rejected with ErrConflict if the entity has moved on since it was read.
type TransitionRequest struct {
	EntityType      model.EntityType `json:"entity_type"`
	EntityID        uuid.UUID        `json:"entity_id"`
	Action          Action           `json:"action"`
	ExpectedVersion *int64           `json:"expected_version,omitempty"`
	Payload         Payload          `json:"payload"`
}

func (r TransitionRequest) Command() Command {
	return Command{Entity: r.EntityType, Action: r.Action}
}

// Normalized returns r with the entity type and action upper-cased.
func (r TransitionRequest) Normalized() TransitionRequest {
	r.EntityType = model.EntityType(strings.ToUpper(strings.TrimSpace(string(r.EntityType))))
	r.Action = Action(strings.ToUpper(strings.TrimSpace(string(r.Action))))
	return r
}

// EntityRef pins an existing entity at the version a decision was made on.
type EntityRef struct {
	Entity  model.EntityType
	ID      uuid.UUID
	Version int64
}

// TransitionResult lists every entity touched by one transition. Entities
// with Version 0 are new; the rest carry the version they were read at.
// Reads holds the existing entities the decision depended on; a store must
// refuse the commit if any of them has moved on.
type TransitionResult struct {
	Vehicles []model.Vehicle           `json:"vehicles"`
	Bookings []model.Booking           `json:"bookings"`
	Tickets  []model.MaintenanceTicket `json:"tickets"`
	Logs     []model.StatusLog         `json:"-"`
	Reads    []EntityRef               `json:"-"`
	Error    ErrorKind                 `json:"error,omitempty"`
}

func (r TransitionResult) Empty() bool {
	return len(r.Vehicles) == 0 && len(r.Bookings) == 0 && len(r.Tickets) == 0
}
