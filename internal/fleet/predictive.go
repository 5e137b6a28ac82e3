package fleet

import (
	"fmt"

	"fleetops-service/internal/model"
)

const (
	MaxHealthScore = 100

	DefaultHealthThreshold   = 70
	DefaultCriticalThreshold = 40

	PredictiveIssueType = "PREDICTIVE_HEALTH"
)

// Thresholds controls when the predictive process raises a ticket. A vehicle
// whose health score drops below Health gets a HIGH ticket; below Critical
// the ticket is CRITICAL.
type Thresholds struct {
	Health   int
	Critical int
}

func DefaultThresholds() Thresholds {
	return Thresholds{Health: DefaultHealthThreshold, Critical: DefaultCriticalThreshold}
}

func (t Thresholds) priorityFor(score int) (model.TicketPriority, bool) {
	switch {
	case score < t.Critical:
		return model.TicketPriorityCritical, true
	case score < t.Health:
		return model.TicketPriorityHigh, true
	}
	return "", false
}

// RaisePredictive opens a predictive ticket for every vehicle whose health is
// below the threshold and which has no open predictive ticket yet. Vehicles
// that are on a trip or retired are skipped. The returned result may be
// empty.
func (e *Engine) RaisePredictive(snap model.Snapshot, th Thresholds) (TransitionResult, error) {
	rec := e.newRecorder(model.SystemPrincipal())

	for _, v := range snap.Vehicles {
		priority, due := th.priorityFor(v.HealthScore)
		if !due {
			continue
		}
		if v.Status == model.VehicleStatusInUse || v.Retired() {
			continue
		}
		if hasOpenPredictive(snap, v) {
			continue
		}
		draft := TicketDraft{
			VehicleID:   v.ID,
			IssueType:   PredictiveIssueType,
			Description: fmt.Sprintf("health score %d below threshold %d", v.HealthScore, th.Health),
			Priority:    priority,
		}
		if err := e.openTicket(rec, v, draft, true, ActionOpen); err != nil {
			return TransitionResult{}, fmt.Errorf("vehicle %s: %w", v.VehicleNumber, err)
		}
	}

	return rec.result, nil
}

func hasOpenPredictive(snap model.Snapshot, v model.Vehicle) bool {
	for _, t := range snap.OpenTickets(v.ID) {
		if t.Predictive {
			return true
		}
	}
	return false
}
