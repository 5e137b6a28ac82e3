package fleet

import (
	"strings"

	"fleetops-service/internal/model"
)

// OpenTicket creates a PENDING ticket for vehicle and moves the vehicle to
// MAINTENANCE if it is not there already.
func (e *Engine) OpenTicket(vehicle model.Vehicle, draft TicketDraft, actor model.Principal) (TransitionResult, error) {
	rec := e.newRecorder(actor)
	if err := e.openTicket(rec, vehicle, draft, false, ActionOpen); err != nil {
		return TransitionResult{}, err
	}
	return rec.result, nil
}

func (e *Engine) openTicket(rec *recorder, vehicle model.Vehicle, draft TicketDraft, predictive bool, action Action) error {
	priority := model.TicketPriority(strings.ToUpper(strings.TrimSpace(string(draft.Priority))))
	if priority == "" {
		priority = model.TicketPriorityMedium
	}

	t := model.MaintenanceTicket{
		ID:          e.newID(),
		VehicleID:   vehicle.ID,
		IssueType:   strings.TrimSpace(draft.IssueType),
		Description: strings.TrimSpace(draft.Description),
		Priority:    priority,
		Predictive:  predictive,
		Status:      model.TicketStatusPending,
		CreatedAt:   rec.at,
	}
	if err := validationError(model.ValidateTicket(t)); err != nil {
		return err
	}

	updated, err := flagForMaintenance(vehicle)
	if err != nil {
		return err
	}

	rec.ticket(t, action, "")
	rec.vehicle(updated, ActionFlagForMaintenance, vehicle.Status)
	return nil
}

// TransitionMaintenance applies START_WORK or RESOLVE to an existing ticket.
// Resolving the vehicle's last open ticket returns a MAINTENANCE vehicle to
// AVAILABLE; resolving a predictive ticket restores its health score.
func (e *Engine) TransitionMaintenance(snap model.Snapshot, ticket model.MaintenanceTicket, action Action, actor model.Principal, vehicle model.Vehicle) (TransitionResult, error) {
	if ticket.Status == model.TicketStatusResolved {
		return TransitionResult{}, invalidTransitionf("ticket %s is already resolved", ticket.ID)
	}
	if ticket.VehicleID != vehicle.ID {
		return TransitionResult{}, preconditionf("ticket %s does not reference vehicle %s", ticket.ID, vehicle.ID)
	}

	rec := e.newRecorder(actor)
	old := ticket.Status

	switch action {
	case ActionStartWork:
		if ticket.Status != model.TicketStatusPending {
			return TransitionResult{}, invalidTransitionf("cannot start work on a %s ticket", ticket.Status)
		}
		ticket.Status = model.TicketStatusInProgress
		rec.ticket(ticket, action, old)

	case ActionResolve:
		resolvedAt := rec.at
		ticket.Status = model.TicketStatusResolved
		ticket.ResolvedAt = &resolvedAt
		rec.ticket(ticket, action, old)

		others := snap.OpenTickets(vehicle.ID)
		remaining := 0
		for _, t := range others {
			if t.ID != ticket.ID {
				remaining++
			}
		}
		rec.readVehicle(vehicle)
		rec.readTickets(others, ticket.ID)

		updated := vehicle
		touched := false
		if ticket.Predictive && updated.HealthScore < MaxHealthScore {
			updated.HealthScore = MaxHealthScore
			touched = true
		}
		if remaining == 0 && vehicle.Status == model.VehicleStatusMaintenance {
			cleared, err := clearMaintenance(updated, 0)
			if err != nil {
				return TransitionResult{}, err
			}
			updated = cleared
			touched = true
		}
		if touched {
			rec.vehicle(updated, ActionClearMaintenance, vehicle.Status)
		}

	case ActionOpen:
		return TransitionResult{}, invalidTransitionf("ticket %s is already open", ticket.ID)

	default:
		return TransitionResult{}, invalidTransitionf("unknown maintenance action %q", action)
	}

	return rec.result, nil
}
