package fleet

import (
	"bytes"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"fleetops-service/internal/model"
)

// FleetSummary is the KPI tile set shown on staff dashboards.
type FleetSummary struct {
	TotalFleet      int     `json:"total_fleet"`
	ActiveTrips     int     `json:"active_trips"`
	Revenue         float64 `json:"revenue"`
	MaintenanceDue  int     `json:"maintenance_due"`
	Available       int     `json:"available"`
	InUse           int     `json:"in_use"`
	InMaintenance   int     `json:"in_maintenance"`
	OutOfService    int     `json:"out_of_service"`
	ActiveCustomers int     `json:"active_customers"`
	Utilization     float64 `json:"utilization"`
}

// ComputeFleetSummary counts the fleet by status and sums revenue over
// COMPLETED bookings.
func ComputeFleetSummary(snap model.Snapshot) FleetSummary {
	var s FleetSummary
	s.TotalFleet = len(snap.Vehicles)
	for _, v := range snap.Vehicles {
		switch v.Status {
		case model.VehicleStatusAvailable:
			s.Available++
		case model.VehicleStatusInUse:
			s.InUse++
		case model.VehicleStatusMaintenance:
			s.InMaintenance++
		case model.VehicleStatusOutOfService:
			s.OutOfService++
		}
	}

	customers := make(map[uuid.UUID]struct{})
	var revenue float64
	for _, b := range snap.Bookings {
		switch b.Status {
		case model.BookingStatusInProgress:
			s.ActiveTrips++
			customers[b.CustomerID] = struct{}{}
		case model.BookingStatusCompleted:
			revenue += b.TotalPrice
		}
	}
	s.Revenue = roundCents(revenue)
	s.ActiveCustomers = len(customers)

	for _, t := range snap.Tickets {
		if t.Status == model.TicketStatusPending {
			s.MaintenanceDue++
		}
	}

	s.Utilization = utilization(s.InUse, s.TotalFleet)
	return s
}

// VehicleCriteria narrows the available vehicle list. MinCapacity counts
// seats; zero means any. Near switches the ordering from vehicle ID to
// distance from that point.
type VehicleCriteria struct {
	BodyType     model.BodyType  `json:"body_type,omitempty"`
	ElectricOnly bool            `json:"electric_only,omitempty"`
	MinCapacity  int             `json:"min_capacity,omitempty"`
	Near         *model.Location `json:"near,omitempty"`
}

// FilterAvailableVehicles returns the AVAILABLE vehicles matching criteria.
func FilterAvailableVehicles(vehicles []model.Vehicle, criteria VehicleCriteria) []model.Vehicle {
	return FilterVehicles(vehicles, model.VehicleStatusAvailable, criteria)
}

// FilterVehicles is FilterAvailableVehicles for an arbitrary status.
func FilterVehicles(vehicles []model.Vehicle, status model.VehicleStatus, criteria VehicleCriteria) []model.Vehicle {
	out := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Status != status {
			continue
		}
		if criteria.BodyType != "" && v.BodyType != criteria.BodyType {
			continue
		}
		if criteria.ElectricOnly && !v.IsElectric {
			continue
		}
		if v.Capacity < criteria.MinCapacity {
			continue
		}
		out = append(out, v)
	}

	if criteria.Near == nil {
		sort.SliceStable(out, func(i, j int) bool {
			return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
		})
		return out
	}

	origin := *criteria.Near
	dist := make(map[uuid.UUID]float64, len(out))
	for _, v := range out {
		dist[v.ID] = HaversineKm(origin, v.Location)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := dist[out[i].ID], dist[out[j].ID]
		if di != dj {
			return di < dj
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b model.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// PrioritizedMaintenanceAlerts returns predictive tickets, most urgent first.
// Equal priorities keep creation order. limit <= 0 means no limit.
func PrioritizedMaintenanceAlerts(tickets []model.MaintenanceTicket, limit int) []model.MaintenanceTicket {
	out := make([]model.MaintenanceTicket, 0)
	for _, t := range tickets {
		if t.Predictive {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CustomerBookingHistory returns the customer's bookings, latest start first.
func CustomerBookingHistory(bookings []model.Booking, customerID uuid.UUID) []model.Booking {
	out := make([]model.Booking, 0)
	for _, b := range bookings {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

type FleetDistribution struct {
	ByBodyType  map[model.BodyType]int      `json:"by_body_type"`
	ByStatus    map[model.VehicleStatus]int `json:"by_status"`
	Electric    int                         `json:"electric"`
	Utilization float64                     `json:"utilization"`
}

func ComputeFleetDistribution(vehicles []model.Vehicle) FleetDistribution {
	d := FleetDistribution{
		ByBodyType: make(map[model.BodyType]int),
		ByStatus:   make(map[model.VehicleStatus]int),
	}
	for _, v := range vehicles {
		d.ByBodyType[v.BodyType]++
		d.ByStatus[v.Status]++
		if v.IsElectric {
			d.Electric++
		}
	}
	d.Utilization = utilization(d.ByStatus[model.VehicleStatusInUse], len(vehicles))
	return d
}

// PendingBookings returns bookings awaiting confirmation, oldest request first.
func PendingBookings(bookings []model.Booking) []model.Booking {
	out := make([]model.Booking, 0)
	for _, b := range bookings {
		if b.Status == model.BookingStatusPending {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

type VehicleAvailability struct {
	VehicleID   uuid.UUID   `json:"vehicle_id"`
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
	Available   bool        `json:"available"`
	ConflictIDs []uuid.UUID `json:"conflicting_booking_ids"`
}

// CheckVehicleAvailability reports whether the vehicle can be booked for
// [from, to]. Retired vehicles are never available.
func CheckVehicleAvailability(snap model.Snapshot, vehicleID uuid.UUID, from, to time.Time) (VehicleAvailability, error) {
	if to.Before(from) {
		return VehicleAvailability{}, validationError([]model.FieldViolation{{Field: "to", Message: "must not be before from"}})
	}
	v, ok := snap.Vehicle(vehicleID)
	if !ok {
		return VehicleAvailability{}, ErrNotFound
	}

	out := VehicleAvailability{VehicleID: vehicleID, From: from, To: to, ConflictIDs: []uuid.UUID{}}
	for _, b := range snap.BookingsForVehicle(v.ID) {
		if !b.Status.Terminal() && b.Overlaps(from, to) {
			out.ConflictIDs = append(out.ConflictIDs, b.ID)
		}
	}
	out.Available = !v.Retired() && len(out.ConflictIDs) == 0
	return out, nil
}

func utilization(inUse, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(inUse)/float64(total)*1000) / 10
}
