package fleet

import (
	"time"

	"github.com/google/uuid"

	"fleetops-service/internal/model"
)

const DefaultAlertLimit = 10

// AggregationFilters holds the optional, caller-chosen narrowing for a view.
// Each kind reads only the fields it needs.
type AggregationFilters struct {
	Status       model.VehicleStatus `json:"status,omitempty"`
	BodyType     model.BodyType      `json:"body_type,omitempty"`
	ElectricOnly bool                `json:"electric_only,omitempty"`
	MinCapacity  int                 `json:"min_capacity,omitempty"`
	Near         *model.Location     `json:"near,omitempty"`
	Limit        int                 `json:"limit,omitempty"`
	CustomerID   uuid.UUID           `json:"customer_id,omitempty"`
	VehicleID    uuid.UUID           `json:"vehicle_id,omitempty"`
	From         time.Time           `json:"from,omitempty"`
	To           time.Time           `json:"to,omitempty"`
}

type AggregationRequest struct {
	Kind    AggregationKind    `json:"kind"`
	Filters AggregationFilters `json:"filters"`
}

// Gateway is the authorization boundary in front of the Engine and the
// aggregations. Every role check lives in the policy table it consults.
type Gateway struct {
	engine *Engine
}

func NewGateway(engine *Engine) *Gateway {
	return &Gateway{engine: engine}
}

func (g *Gateway) Engine() *Engine {
	return g.engine
}

func (g *Gateway) Capabilities(principal model.Principal) Capabilities {
	return CapabilitiesFor(principal.Role)
}

// Authorize checks that principal may use the view kind and returns the
// scope its results must be narrowed to. Entity listings reuse it so that
// they follow the same rules as the aggregations.
func (g *Gateway) Authorize(principal model.Principal, kind AggregationKind) (Scope, error) {
	policy := PolicyFor(principal.Role)
	if !policy.AllowsView(kind) {
		return Scope{}, ErrForbidden
	}
	return policy.Scope, nil
}

func (g *Gateway) AuthorizeAudit(principal model.Principal) error {
	if !PolicyFor(principal.Role).Audit {
		return ErrForbidden
	}
	return nil
}

// Transition authorizes req for principal and applies it to snap. On failure
// the returned result carries only the error kind.
func (g *Gateway) Transition(snap model.Snapshot, principal model.Principal, req TransitionRequest) (TransitionResult, error) {
	res, err := g.transition(snap, principal, req)
	if err != nil {
		return TransitionResult{Error: KindOf(err)}, err
	}
	return res, nil
}

func (g *Gateway) transition(snap model.Snapshot, principal model.Principal, req TransitionRequest) (TransitionResult, error) {
	policy := PolicyFor(principal.Role)
	cmd := req.Command()
	if !policy.AllowsAction(cmd) {
		return TransitionResult{}, ErrForbidden
	}

	switch cmd {
	case cmdRegisterVehicle:
		if req.Payload.Vehicle == nil {
			return TransitionResult{}, missingPayload("payload.vehicle")
		}
		return g.engine.RegisterVehicle(snap, *req.Payload.Vehicle, principal)

	case cmdRequestBooking:
		if req.Payload.Booking == nil {
			return TransitionResult{}, missingPayload("payload.booking")
		}
		draft := *req.Payload.Booking
		if policy.Scope.OwnBookingsOnly {
			draft.CustomerID = principal.UserID
		}
		return g.engine.RequestBooking(snap, draft, principal)

	case cmdOpenTicket:
		if req.Payload.Ticket == nil {
			return TransitionResult{}, missingPayload("payload.ticket")
		}
		vehicle, ok := snap.Vehicle(req.Payload.Ticket.VehicleID)
		if !ok {
			return TransitionResult{}, preconditionf("vehicle %s does not exist", req.Payload.Ticket.VehicleID)
		}
		return g.engine.OpenTicket(vehicle, *req.Payload.Ticket, principal)
	}

	switch req.EntityType {
	case model.EntityVehicle:
		vehicle, ok := snap.Vehicle(req.EntityID)
		if !ok {
			return TransitionResult{}, ErrNotFound
		}
		if err := checkVersion(req.ExpectedVersion, vehicle.Version); err != nil {
			return TransitionResult{}, err
		}
		return g.engine.TransitionVehicle(snap, vehicle, req.Action, principal, req.Payload)

	case model.EntityBooking:
		booking, ok := snap.Booking(req.EntityID)
		if !ok {
			return TransitionResult{}, ErrNotFound
		}
		if policy.Scope.OwnBookingsOnly && booking.CustomerID != principal.UserID {
			return TransitionResult{}, ErrForbidden
		}
		if err := checkVersion(req.ExpectedVersion, booking.Version); err != nil {
			return TransitionResult{}, err
		}
		vehicle, ok := snap.Vehicle(booking.VehicleID)
		if !ok {
			return TransitionResult{}, preconditionf("vehicle %s does not exist", booking.VehicleID)
		}
		return g.engine.TransitionBooking(snap, booking, req.Action, principal, vehicle)

	case model.EntityMaintenance:
		ticket, ok := snap.Ticket(req.EntityID)
		if !ok {
			return TransitionResult{}, ErrNotFound
		}
		if err := checkVersion(req.ExpectedVersion, ticket.Version); err != nil {
			return TransitionResult{}, err
		}
		vehicle, ok := snap.Vehicle(ticket.VehicleID)
		if !ok {
			return TransitionResult{}, preconditionf("vehicle %s does not exist", ticket.VehicleID)
		}
		return g.engine.TransitionMaintenance(snap, ticket, req.Action, principal, vehicle)
	}

	return TransitionResult{}, ErrForbidden
}

// Aggregate computes the requested view after applying the role's scope.
func (g *Gateway) Aggregate(snap model.Snapshot, principal model.Principal, req AggregationRequest) (any, error) {
	policy := PolicyFor(principal.Role)
	if !policy.AllowsView(req.Kind) {
		return nil, ErrForbidden
	}
	f := req.Filters

	switch req.Kind {
	case AggregationFleetSummary:
		return ComputeFleetSummary(snap), nil

	case AggregationAvailableVehicles:
		status := f.Status
		if status == "" || policy.Scope.AvailableVehiclesOnly {
			status = model.VehicleStatusAvailable
		}
		if !status.Valid() {
			return nil, validationError([]model.FieldViolation{{Field: "status", Message: "is not a vehicle status"}})
		}
		return FilterVehicles(snap.Vehicles, status, VehicleCriteria{
			BodyType:     f.BodyType,
			ElectricOnly: f.ElectricOnly,
			MinCapacity:  f.MinCapacity,
			Near:         f.Near,
		}), nil

	case AggregationMaintenanceAlerts:
		limit := f.Limit
		if limit <= 0 {
			limit = DefaultAlertLimit
		}
		return PrioritizedMaintenanceAlerts(snap.Tickets, limit), nil

	case AggregationBookingHistory:
		customerID := f.CustomerID
		if policy.Scope.OwnBookingsOnly {
			customerID = principal.UserID
		}
		if customerID == uuid.Nil {
			return nil, missingPayload("filters.customer_id")
		}
		return CustomerBookingHistory(snap.Bookings, customerID), nil

	case AggregationFleetDistribution:
		return ComputeFleetDistribution(snap.Vehicles), nil

	case AggregationPendingBookings:
		return PendingBookings(snap.Bookings), nil

	case AggregationVehicleAvailability:
		if f.VehicleID == uuid.Nil {
			return nil, missingPayload("filters.vehicle_id")
		}
		if f.From.IsZero() {
			return nil, missingPayload("filters.from")
		}
		if f.To.IsZero() {
			return nil, missingPayload("filters.to")
		}
		return CheckVehicleAvailability(snap, f.VehicleID, f.From, f.To)
	}

	return nil, ErrForbidden
}

func checkVersion(expected *int64, actual int64) error {
	if expected != nil && *expected != actual {
		return ErrConflict
	}
	return nil
}

func missingPayload(field string) error {
	return validationError([]model.FieldViolation{{Field: field, Message: "is required"}})
}
