package model

import "github.com/google/uuid"

// Snapshot is a point-in-time copy of every record the core reasons about.
// Callers treat it as immutable; lookups return copies.
type Snapshot struct {
	Vehicles []Vehicle           `json:"vehicles"`
	Bookings []Booking           `json:"bookings"`
	Tickets  []MaintenanceTicket `json:"tickets"`
}

func (s Snapshot) Vehicle(id uuid.UUID) (Vehicle, bool) {
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

func (s Snapshot) Booking(id uuid.UUID) (Booking, bool) {
	for _, b := range s.Bookings {
		if b.ID == id {
			return b, true
		}
	}
	return Booking{}, false
}

func (s Snapshot) Ticket(id uuid.UUID) (MaintenanceTicket, bool) {
	for _, t := range s.Tickets {
		if t.ID == id {
			return t, true
		}
	}
	return MaintenanceTicket{}, false
}

func (s Snapshot) BookingsForVehicle(vehicleID uuid.UUID) []Booking {
	out := make([]Booking, 0)
	for _, b := range s.Bookings {
		if b.VehicleID == vehicleID {
			out = append(out, b)
		}
	}
	return out
}

// OpenTickets returns the vehicle's tickets that are not RESOLVED.
func (s Snapshot) OpenTickets(vehicleID uuid.UUID) []MaintenanceTicket {
	out := make([]MaintenanceTicket, 0)
	for _, t := range s.Tickets {
		if t.VehicleID == vehicleID && t.Status.Open() {
			out = append(out, t)
		}
	}
	return out
}

// Clone returns a snapshot whose slices do not alias the receiver's.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Vehicles: append([]Vehicle(nil), s.Vehicles...),
		Bookings: append([]Booking(nil), s.Bookings...),
		Tickets:  append([]MaintenanceTicket(nil), s.Tickets...),
	}
}
