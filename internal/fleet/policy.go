package fleet

import (
	"sort"

	"fleetops-service/internal/model"
)

type AggregationKind string

const (
	AggregationFleetSummary        AggregationKind = "FLEET_SUMMARY"
	AggregationAvailableVehicles   AggregationKind = "AVAILABLE_VEHICLES"
	AggregationMaintenanceAlerts   AggregationKind = "MAINTENANCE_ALERTS"
	AggregationBookingHistory      AggregationKind = "BOOKING_HISTORY"
	AggregationFleetDistribution   AggregationKind = "FLEET_DISTRIBUTION"
	AggregationPendingBookings     AggregationKind = "PENDING_BOOKINGS"
	AggregationVehicleAvailability AggregationKind = "VEHICLE_AVAILABILITY"
)

// Scope is the mandatory filter applied to a role's requests regardless of
// what the caller asked for.
type Scope struct {
	// OwnBookingsOnly pins booking history and booking mutations to the
	// caller's own identity.
	OwnBookingsOnly bool `json:"own_bookings_only"`
	// AvailableVehiclesOnly pins vehicle lists to AVAILABLE vehicles.
	AvailableVehiclesOnly bool `json:"available_vehicles_only"`
}

type Policy struct {
	Views   []AggregationKind
	Actions []Command
	Scope   Scope
	// Audit grants access to the status change log.
	Audit bool
}

// AllowsView reports whether the role may compute the aggregation kind.
func (p Policy) AllowsView(kind AggregationKind) bool {
	for _, k := range p.Views {
		if k == kind {
			return true
		}
	}
	return false
}

func (p Policy) AllowsAction(cmd Command) bool {
	for _, c := range p.Actions {
		if c == cmd {
			return true
		}
	}
	return false
}

var (
	cmdRegisterVehicle = Command{Entity: model.EntityVehicle, Action: ActionRegister}
	cmdFlagVehicle     = Command{Entity: model.EntityVehicle, Action: ActionFlagForMaintenance}
	cmdRetireVehicle   = Command{Entity: model.EntityVehicle, Action: ActionRetire}
	cmdRequestBooking  = Command{Entity: model.EntityBooking, Action: ActionRequest}
	cmdConfirmBooking  = Command{Entity: model.EntityBooking, Action: ActionConfirm}
	cmdStartBooking    = Command{Entity: model.EntityBooking, Action: ActionStart}
	cmdCompleteBooking = Command{Entity: model.EntityBooking, Action: ActionComplete}
	cmdCancelBooking   = Command{Entity: model.EntityBooking, Action: ActionCancel}
	cmdOpenTicket      = Command{Entity: model.EntityMaintenance, Action: ActionOpen}
	cmdStartWork       = Command{Entity: model.EntityMaintenance, Action: ActionStartWork}
	cmdResolveTicket   = Command{Entity: model.EntityMaintenance, Action: ActionResolve}
)

var staffViews = []AggregationKind{
	AggregationFleetSummary,
	AggregationAvailableVehicles,
	AggregationMaintenanceAlerts,
	AggregationBookingHistory,
	AggregationFleetDistribution,
	AggregationPendingBookings,
	AggregationVehicleAvailability,
}

// policies is the only place role permissions are defined. ASSIGN_TO_BOOKING,
// RELEASE_FROM_BOOKING and CLEAR_MAINTENANCE are absent on purpose: they only
// happen as part of booking and ticket transitions.
var policies = map[model.UserRole]Policy{
	model.UserRoleAdmin: {
		Views: staffViews,
		Actions: []Command{
			cmdRegisterVehicle, cmdFlagVehicle, cmdRetireVehicle,
			cmdRequestBooking, cmdConfirmBooking, cmdStartBooking, cmdCompleteBooking, cmdCancelBooking,
			cmdOpenTicket, cmdStartWork, cmdResolveTicket,
		},
		Audit: true,
	},
	model.UserRoleManager: {
		Views: staffViews,
		Actions: []Command{
			cmdRegisterVehicle, cmdFlagVehicle, cmdRetireVehicle,
			cmdConfirmBooking, cmdStartBooking, cmdCompleteBooking, cmdCancelBooking,
			cmdOpenTicket, cmdStartWork, cmdResolveTicket,
		},
		Audit: true,
	},
	model.UserRoleDriver: {
		Views:   []AggregationKind{AggregationAvailableVehicles},
		Actions: []Command{cmdStartBooking, cmdCompleteBooking},
		Scope:   Scope{AvailableVehiclesOnly: true},
	},
	model.UserRoleCustomer: {
		Views: []AggregationKind{
			AggregationAvailableVehicles,
			AggregationBookingHistory,
			AggregationVehicleAvailability,
		},
		Actions: []Command{cmdRequestBooking, cmdCancelBooking},
		Scope:   Scope{OwnBookingsOnly: true, AvailableVehiclesOnly: true},
	},
}

// PolicyFor returns the role's policy. Unknown roles get an empty policy and
// are refused everything.
func PolicyFor(role model.UserRole) Policy {
	return policies[role]
}

// Capabilities describes what a role may see and do.
type Capabilities struct {
	Role    model.UserRole    `json:"role"`
	Views   []AggregationKind `json:"views"`
	Actions []Command         `json:"actions"`
	Scope   Scope             `json:"scope"`
	Audit   bool              `json:"audit"`
}

func CapabilitiesFor(role model.UserRole) Capabilities {
	p := PolicyFor(role)
	views := append([]AggregationKind{}, p.Views...)
	sort.Slice(views, func(i, j int) bool { return views[i] < views[j] })
	actions := append([]Command{}, p.Actions...)
	sort.Slice(actions, func(i, j int) bool { return actions[i].String() < actions[j].String() })
	return Capabilities{Role: role, Views: views, Actions: actions, Scope: p.Scope, Audit: p.Audit}
}
