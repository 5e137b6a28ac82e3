package fleet

import (
	"fleetops-service/internal/model"
)

// RequestBooking creates a PENDING booking for draft.CustomerID with a price
// estimated from the scheduled window.
func (e *Engine) RequestBooking(snap model.Snapshot, draft BookingDraft, actor model.Principal) (TransitionResult, error) {
	rec := e.newRecorder(actor)

	b := model.Booking{
		ID:         e.newID(),
		VehicleID:  draft.VehicleID,
		CustomerID: draft.CustomerID,
		StartTime:  draft.StartTime.UTC(),
		EndTime:    draft.EndTime.UTC(),
		Status:     model.BookingStatusPending,
		CreatedAt:  rec.at,
	}
	if err := validationError(model.ValidateBooking(b)); err != nil {
		return TransitionResult{}, err
	}

	vehicle, ok := snap.Vehicle(b.VehicleID)
	if !ok {
		return TransitionResult{}, preconditionf("vehicle %s does not exist", b.VehicleID)
	}
	if vehicle.Retired() {
		return TransitionResult{}, preconditionf("vehicle %s is retired", vehicle.VehicleNumber)
	}
	siblings := snap.BookingsForVehicle(vehicle.ID)
	for _, other := range siblings {
		if !other.Status.Terminal() && other.Overlaps(b.StartTime, b.EndTime) {
			return TransitionResult{}, preconditionf("vehicle %s is already booked by %s in that window", vehicle.VehicleNumber, other.ID)
		}
	}
	rec.readVehicle(vehicle)
	rec.readBookings(siblings, b.ID)

	b.TotalPrice = e.pricing.Price(b.StartTime, b.EndTime)
	b.Currency = e.pricing.CurrencyCode()
	rec.booking(b, ActionRequest, "")
	return rec.result, nil
}

// TransitionBooking moves a booking along PENDING -> CONFIRMED ->
// IN_PROGRESS -> COMPLETED, or to CANCELLED from PENDING or CONFIRMED.
// START and COMPLETE update vehicle in the same result.
func (e *Engine) TransitionBooking(snap model.Snapshot, booking model.Booking, action Action, actor model.Principal, vehicle model.Vehicle) (TransitionResult, error) {
	if booking.Status.Terminal() {
		return TransitionResult{}, invalidTransitionf("booking %s is %s", booking.ID, booking.Status)
	}
	if booking.VehicleID != vehicle.ID {
		return TransitionResult{}, preconditionf("booking %s does not reference vehicle %s", booking.ID, vehicle.ID)
	}

	rec := e.newRecorder(actor)
	old := booking.Status

	switch action {
	case ActionConfirm:
		if booking.Status != model.BookingStatusPending {
			return TransitionResult{}, invalidTransitionf("cannot confirm a %s booking", booking.Status)
		}
		if vehicle.Status != model.VehicleStatusAvailable {
			return TransitionResult{}, preconditionf("vehicle %s is %s, want %s", vehicle.VehicleNumber, vehicle.Status, model.VehicleStatusAvailable)
		}
		siblings := snap.BookingsForVehicle(vehicle.ID)
		for _, other := range siblings {
			if other.ID != booking.ID && other.Status.HoldsVehicle() {
				return TransitionResult{}, preconditionf("vehicle %s is already held by booking %s", vehicle.VehicleNumber, other.ID)
			}
		}
		rec.readVehicle(vehicle)
		rec.readBookings(siblings, booking.ID)
		booking.Status = model.BookingStatusConfirmed
		rec.booking(booking, action, old)

	case ActionStart:
		if booking.Status != model.BookingStatusConfirmed {
			return TransitionResult{}, invalidTransitionf("cannot start a %s booking", booking.Status)
		}
		updated, err := assignToBooking(vehicle)
		if err != nil {
			return TransitionResult{}, err
		}
		startedAt := rec.at
		booking.Status = model.BookingStatusInProgress
		booking.StartedAt = &startedAt
		rec.booking(booking, action, old)
		rec.vehicle(updated, ActionAssignToBooking, vehicle.Status)

	case ActionComplete:
		if booking.Status != model.BookingStatusInProgress {
			return TransitionResult{}, invalidTransitionf("cannot complete a %s booking", booking.Status)
		}
		updated, err := releaseFromBooking(vehicle)
		if err != nil {
			return TransitionResult{}, err
		}
		completedAt := rec.at
		from := booking.StartTime
		if booking.StartedAt != nil {
			from = *booking.StartedAt
		}
		booking.Status = model.BookingStatusCompleted
		booking.CompletedAt = &completedAt
		booking.TotalPrice = e.pricing.Price(from, completedAt)
		rec.booking(booking, action, old)
		rec.vehicle(updated, ActionReleaseFromBooking, vehicle.Status)

	case ActionCancel:
		if booking.Status != model.BookingStatusPending && booking.Status != model.BookingStatusConfirmed {
			return TransitionResult{}, invalidTransitionf("cannot cancel a %s booking", booking.Status)
		}
		booking.Status = model.BookingStatusCancelled
		rec.booking(booking, action, old)

	default:
		return TransitionResult{}, invalidTransitionf("unknown booking action %q", action)
	}

	return rec.result, nil
}
