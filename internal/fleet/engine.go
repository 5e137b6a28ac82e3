package fleet

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleetops-service/internal/model"
)

// Engine validates and applies status transitions. It never mutates its
// inputs: every call works on copies and reports the touched entities in a
// TransitionResult, so a vehicle and its booking or ticket change together
// or not at all.
type Engine struct {
	pricing Pricing
	now     func() time.Time
	newID   func() uuid.UUID
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

func NewEngine(pricing Pricing, opts ...Option) *Engine {
	e := &Engine{
		pricing: pricing,
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Pricing() Pricing {
	return e.pricing
}

type recorder struct {
	result TransitionResult
	actor  model.Principal
	at     time.Time
}

func (e *Engine) newRecorder(actor model.Principal) *recorder {
	return &recorder{actor: actor, at: e.now().UTC()}
}

func (r *recorder) log(entity model.EntityType, id uuid.UUID, action Action, oldStatus, newStatus string) {
	entry := model.StatusLog{
		EntityType: entity,
		EntityID:   id,
		Action:     string(action),
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		ActorRole:  r.actor.Role,
		CreatedAt:  r.at,
	}
	if r.actor.UserID != uuid.Nil {
		changedBy := r.actor.UserID
		entry.ChangedBy = &changedBy
	}
	r.result.Logs = append(r.result.Logs, entry)
}

func (r *recorder) vehicle(v model.Vehicle, action Action, old model.VehicleStatus) {
	v.UpdatedAt = r.at
	r.result.Vehicles = append(r.result.Vehicles, v)
	if old != v.Status {
		r.log(model.EntityVehicle, v.ID, action, string(old), string(v.Status))
	}
}

func (r *recorder) booking(b model.Booking, action Action, old model.BookingStatus) {
	b.UpdatedAt = r.at
	r.result.Bookings = append(r.result.Bookings, b)
	r.log(model.EntityBooking, b.ID, action, string(old), string(b.Status))
}

func (r *recorder) ticket(t model.MaintenanceTicket, action Action, old model.TicketStatus) {
	t.UpdatedAt = r.at
	r.result.Tickets = append(r.result.Tickets, t)
	r.log(model.EntityMaintenance, t.ID, action, string(old), string(t.Status))
}

func (r *recorder) read(entity model.EntityType, id uuid.UUID, version int64) {
	r.result.Reads = append(r.result.Reads, EntityRef{Entity: entity, ID: id, Version: version})
}

func (r *recorder) readVehicle(v model.Vehicle) {
	r.read(model.EntityVehicle, v.ID, v.Version)
}

// readBookings pins the vehicle's non-terminal bookings. Terminal ones
// cannot change any more.
func (r *recorder) readBookings(bookings []model.Booking, skip uuid.UUID) {
	for _, b := range bookings {
		if b.ID != skip && !b.Status.Terminal() {
			r.read(model.EntityBooking, b.ID, b.Version)
		}
	}
}

func (r *recorder) readTickets(tickets []model.MaintenanceTicket, skip uuid.UUID) {
	for _, t := range tickets {
		if t.ID != skip {
			r.read(model.EntityMaintenance, t.ID, t.Version)
		}
	}
}

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPreconditionFailed, fmt.Sprintf(format, args...))
}

func invalidTransitionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}
