package fleet

import (
	"strings"

	"github.com/google/uuid"

	"fleetops-service/internal/model"
)

const defaultFlagIssue = "MANUAL_INSPECTION"

// RegisterVehicle creates an AVAILABLE vehicle from draft. The vehicle number
// must be unique within the snapshot.
func (e *Engine) RegisterVehicle(snap model.Snapshot, draft VehicleDraft, actor model.Principal) (TransitionResult, error) {
	rec := e.newRecorder(actor)

	v := model.Vehicle{
		ID:            e.newID(),
		VehicleNumber: strings.TrimSpace(draft.VehicleNumber),
		Model:         strings.TrimSpace(draft.Model),
		Manufacturer:  strings.TrimSpace(draft.Manufacturer),
		BodyType:      model.BodyType(strings.ToUpper(strings.TrimSpace(string(draft.BodyType)))),
		Capacity:      draft.Capacity,
		IsElectric:    draft.IsElectric,
		EnergyLevel:   100,
		Location:      draft.Location,
		HealthScore:   100,
		Status:        model.VehicleStatusAvailable,
		CreatedAt:     rec.at,
	}
	if draft.EnergyLevel != nil {
		v.EnergyLevel = *draft.EnergyLevel
	}
	if draft.HealthScore != nil {
		v.HealthScore = *draft.HealthScore
	}

	violations := model.ValidateVehicle(v)
	for _, existing := range snap.Vehicles {
		if v.VehicleNumber != "" && strings.EqualFold(existing.VehicleNumber, v.VehicleNumber) {
			violations = append(violations, model.FieldViolation{Field: "vehicle_number", Message: "is already registered"})
			break
		}
	}
	if err := validationError(violations); err != nil {
		return TransitionResult{}, err
	}

	rec.vehicle(v, ActionRegister, "")
	return rec.result, nil
}

// TransitionVehicle applies a vehicle action. ASSIGN_TO_BOOKING,
// RELEASE_FROM_BOOKING and CLEAR_MAINTENANCE are normally driven by booking
// and ticket transitions; calling them here changes the vehicle alone.
// FLAG_FOR_MAINTENANCE opens a ticket (payload.Ticket is optional).
func (e *Engine) TransitionVehicle(snap model.Snapshot, vehicle model.Vehicle, action Action, actor model.Principal, payload Payload) (TransitionResult, error) {
	rec := e.newRecorder(actor)
	old := vehicle.Status

	switch action {
	case ActionAssignToBooking:
		updated, err := assignToBooking(vehicle)
		if err != nil {
			return TransitionResult{}, err
		}
		rec.vehicle(updated, action, old)
	case ActionReleaseFromBooking:
		updated, err := releaseFromBooking(vehicle)
		if err != nil {
			return TransitionResult{}, err
		}
		rec.vehicle(updated, action, old)
	case ActionClearMaintenance:
		open := snap.OpenTickets(vehicle.ID)
		updated, err := clearMaintenance(vehicle, len(open))
		if err != nil {
			return TransitionResult{}, err
		}
		rec.readTickets(open, uuid.Nil)
		rec.vehicle(updated, action, old)
	case ActionRetire:
		updated, err := retire(snap, vehicle)
		if err != nil {
			return TransitionResult{}, err
		}
		rec.readBookings(snap.BookingsForVehicle(vehicle.ID), uuid.Nil)
		rec.vehicle(updated, action, old)
	case ActionFlagForMaintenance:
		draft := TicketDraft{IssueType: defaultFlagIssue, Priority: model.TicketPriorityMedium}
		if payload.Ticket != nil {
			draft = *payload.Ticket
		}
		draft.VehicleID = vehicle.ID
		if err := e.openTicket(rec, vehicle, draft, false, action); err != nil {
			return TransitionResult{}, err
		}
	default:
		return TransitionResult{}, invalidTransitionf("unknown vehicle action %q", action)
	}

	return rec.result, nil
}

func assignToBooking(v model.Vehicle) (model.Vehicle, error) {
	switch v.Status {
	case model.VehicleStatusAvailable:
		v.Status = model.VehicleStatusInUse
		return v, nil
	case model.VehicleStatusOutOfService:
		return v, invalidTransitionf("vehicle %s is retired", v.VehicleNumber)
	default:
		return v, preconditionf("vehicle %s is %s, want %s", v.VehicleNumber, v.Status, model.VehicleStatusAvailable)
	}
}

func releaseFromBooking(v model.Vehicle) (model.Vehicle, error) {
	switch v.Status {
	case model.VehicleStatusInUse:
		v.Status = model.VehicleStatusAvailable
		return v, nil
	case model.VehicleStatusOutOfService:
		return v, invalidTransitionf("vehicle %s is retired", v.VehicleNumber)
	default:
		return v, preconditionf("vehicle %s is %s, want %s", v.VehicleNumber, v.Status, model.VehicleStatusInUse)
	}
}

func flagForMaintenance(v model.Vehicle) (model.Vehicle, error) {
	switch v.Status {
	case model.VehicleStatusAvailable, model.VehicleStatusMaintenance:
		v.Status = model.VehicleStatusMaintenance
		return v, nil
	case model.VehicleStatusOutOfService:
		return v, invalidTransitionf("vehicle %s is retired", v.VehicleNumber)
	default:
		return v, preconditionf("vehicle %s is %s and cannot enter maintenance", v.VehicleNumber, v.Status)
	}
}

// clearMaintenance returns a MAINTENANCE vehicle to service once openTickets
// reaches zero. It never moves a vehicle to IN_USE.
func clearMaintenance(v model.Vehicle, openTickets int) (model.Vehicle, error) {
	switch {
	case v.Status == model.VehicleStatusOutOfService:
		return v, invalidTransitionf("vehicle %s is retired", v.VehicleNumber)
	case v.Status != model.VehicleStatusMaintenance:
		return v, preconditionf("vehicle %s is %s, want %s", v.VehicleNumber, v.Status, model.VehicleStatusMaintenance)
	case openTickets > 0:
		return v, preconditionf("vehicle %s has %d open tickets", v.VehicleNumber, openTickets)
	}
	v.Status = model.VehicleStatusAvailable
	return v, nil
}

func retire(snap model.Snapshot, v model.Vehicle) (model.Vehicle, error) {
	switch v.Status {
	case model.VehicleStatusOutOfService:
		return v, invalidTransitionf("vehicle %s is already retired", v.VehicleNumber)
	case model.VehicleStatusAvailable:
	default:
		return v, preconditionf("vehicle %s is %s, want %s", v.VehicleNumber, v.Status, model.VehicleStatusAvailable)
	}
	for _, b := range snap.BookingsForVehicle(v.ID) {
		if b.Status.HoldsVehicle() {
			return v, preconditionf("vehicle %s is held by booking %s", v.VehicleNumber, b.ID)
		}
	}
	v.Status = model.VehicleStatusOutOfService
	return v, nil
}
