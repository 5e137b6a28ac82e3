package fleet

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops-service/internal/model"
)

func ids[T any](items []T, id func(T) uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func vehicleID(v model.Vehicle) uuid.UUID           { return v.ID }
func bookingID(b model.Booking) uuid.UUID           { return b.ID }
func ticketID(t model.MaintenanceTicket) uuid.UUID { return t.ID }

func mustUUID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

func summarySnapshot() model.Snapshot {
	v1 := model.Vehicle{ID: uuid.New(), Status: model.VehicleStatusAvailable, BodyType: model.BodyTypeSedan}
	v2 := model.Vehicle{ID: uuid.New(), Status: model.VehicleStatusInUse, BodyType: model.BodyTypeSUV, IsElectric: true}
	v3 := model.Vehicle{ID: uuid.New(), Status: model.VehicleStatusMaintenance, BodyType: model.BodyTypeSUV}
	v4 := model.Vehicle{ID: uuid.New(), Status: model.VehicleStatusOutOfService, BodyType: model.BodyTypeVan}
	customer := uuid.New()
	return model.Snapshot{
		Vehicles: []model.Vehicle{v1, v2, v3, v4},
		Bookings: []model.Booking{
			{ID: uuid.New(), VehicleID: v2.ID, CustomerID: customer, Status: model.BookingStatusInProgress, TotalPrice: 40},
			{ID: uuid.New(), VehicleID: v1.ID, CustomerID: customer, Status: model.BookingStatusCompleted, TotalPrice: 10.1},
			{ID: uuid.New(), VehicleID: v1.ID, CustomerID: customer, Status: model.BookingStatusCompleted, TotalPrice: 20.2},
			{ID: uuid.New(), VehicleID: v1.ID, CustomerID: customer, Status: model.BookingStatusCancelled, TotalPrice: 99},
		},
		Tickets: []model.MaintenanceTicket{
			{ID: uuid.New(), VehicleID: v3.ID, Status: model.TicketStatusPending},
			{ID: uuid.New(), VehicleID: v3.ID, Status: model.TicketStatusInProgress},
			{ID: uuid.New(), VehicleID: v1.ID, Status: model.TicketStatusResolved},
		},
	}
}

func TestComputeFleetSummary(t *testing.T) {
	snap := summarySnapshot()

	s := ComputeFleetSummary(snap)
	assert.Equal(t, 4, s.TotalFleet)
	assert.Equal(t, 1, s.ActiveTrips)
	assert.InDelta(t, 30.3, s.Revenue, 0.001)
	assert.Equal(t, 1, s.MaintenanceDue)
	assert.Equal(t, 1, s.Available)
	assert.Equal(t, 1, s.InUse)
	assert.Equal(t, 1, s.InMaintenance)
	assert.Equal(t, 1, s.OutOfService)
	assert.Equal(t, 1, s.ActiveCustomers)
	assert.Equal(t, 25.0, s.Utilization)

	assert.Equal(t, s, ComputeFleetSummary(snap), "summary is deterministic")
	assert.Equal(t, FleetSummary{}, ComputeFleetSummary(model.Snapshot{}))
}

func TestFilterAvailableVehicles(t *testing.T) {
	a := model.Vehicle{ID: mustUUID("00000000-0000-0000-0000-00000000000a"), Status: model.VehicleStatusAvailable, BodyType: model.BodyTypeSUV, IsElectric: true, Capacity: 5,
		Location: model.Location{Latitude: 51.60, Longitude: -0.10}}
	b := model.Vehicle{ID: mustUUID("00000000-0000-0000-0000-00000000000b"), Status: model.VehicleStatusAvailable, BodyType: model.BodyTypeSedan, Capacity: 4,
		Location: model.Location{Latitude: 51.50, Longitude: -0.12}}
	c := model.Vehicle{ID: mustUUID("00000000-0000-0000-0000-00000000000c"), Status: model.VehicleStatusAvailable, BodyType: model.BodyTypeSUV, Capacity: 7,
		Location: model.Location{Latitude: 51.51, Longitude: -0.12}}
	busy := model.Vehicle{ID: mustUUID("00000000-0000-0000-0000-000000000001"), Status: model.VehicleStatusInUse, BodyType: model.BodyTypeSUV}
	vehicles := []model.Vehicle{c, busy, a, b}

	tests := []struct {
		name     string
		criteria VehicleCriteria
		want     []uuid.UUID
	}{
		{"all available by id", VehicleCriteria{}, []uuid.UUID{a.ID, b.ID, c.ID}},
		{"body type", VehicleCriteria{BodyType: model.BodyTypeSUV}, []uuid.UUID{a.ID, c.ID}},
		{"electric only", VehicleCriteria{ElectricOnly: true}, []uuid.UUID{a.ID}},
		{"min capacity", VehicleCriteria{MinCapacity: 5}, []uuid.UUID{a.ID, c.ID}},
		{"min capacity above fleet", VehicleCriteria{MinCapacity: 8}, []uuid.UUID{}},
		{"min capacity with body type", VehicleCriteria{BodyType: model.BodyTypeSUV, MinCapacity: 6}, []uuid.UUID{c.ID}},
		{"nearest first", VehicleCriteria{Near: &model.Location{Latitude: 51.50, Longitude: -0.12}}, []uuid.UUID{b.ID, c.ID, a.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAvailableVehicles(vehicles, tt.criteria)
			assert.Equal(t, tt.want, ids(got, vehicleID))
		})
	}

	assert.Equal(t, []uuid.UUID{busy.ID}, ids(FilterVehicles(vehicles, model.VehicleStatusInUse, VehicleCriteria{}), vehicleID))
}

func TestHaversineKm(t *testing.T) {
	london := model.Location{Latitude: 51.5074, Longitude: -0.1278}
	paris := model.Location{Latitude: 48.8566, Longitude: 2.3522}
	assert.InDelta(t, 343.5, HaversineKm(london, paris), 1.0)
	assert.Zero(t, HaversineKm(london, london))
}

func TestPrioritizedMaintenanceAlerts(t *testing.T) {
	mk := func(p model.TicketPriority, predictive bool, created time.Duration) model.MaintenanceTicket {
		return model.MaintenanceTicket{ID: uuid.New(), Priority: p, Predictive: predictive, CreatedAt: t0.Add(created)}
	}
	lowOld := mk(model.TicketPriorityLow, true, 0)
	highNew := mk(model.TicketPriorityHigh, true, 2*time.Hour)
	highOld := mk(model.TicketPriorityHigh, true, time.Hour)
	critical := mk(model.TicketPriorityCritical, true, 3*time.Hour)
	manual := mk(model.TicketPriorityCritical, false, 0)
	tickets := []model.MaintenanceTicket{lowOld, highNew, manual, highOld, critical}

	got := PrioritizedMaintenanceAlerts(tickets, 0)
	assert.Equal(t, []uuid.UUID{critical.ID, highOld.ID, highNew.ID, lowOld.ID}, ids(got, ticketID))

	got = PrioritizedMaintenanceAlerts(tickets, 2)
	assert.Equal(t, []uuid.UUID{critical.ID, highOld.ID}, ids(got, ticketID))

	assert.Empty(t, PrioritizedMaintenanceAlerts(nil, 5))
}

func TestCustomerBookingHistory(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	early := model.Booking{ID: uuid.New(), CustomerID: me, StartTime: t0}
	late := model.Booking{ID: uuid.New(), CustomerID: me, StartTime: t0.Add(48 * time.Hour)}
	theirs := model.Booking{ID: uuid.New(), CustomerID: other, StartTime: t0.Add(time.Hour)}

	got := CustomerBookingHistory([]model.Booking{early, theirs, late}, me)
	assert.Equal(t, []uuid.UUID{late.ID, early.ID}, ids(got, bookingID))
	assert.Empty(t, CustomerBookingHistory([]model.Booking{theirs}, me))
}

func TestComputeFleetDistribution(t *testing.T) {
	d := ComputeFleetDistribution(summarySnapshot().Vehicles)
	assert.Equal(t, 2, d.ByBodyType[model.BodyTypeSUV])
	assert.Equal(t, 1, d.ByBodyType[model.BodyTypeSedan])
	assert.Equal(t, 1, d.ByStatus[model.VehicleStatusInUse])
	assert.Equal(t, 1, d.Electric)
	assert.Equal(t, 25.0, d.Utilization)
}

func TestPendingBookings(t *testing.T) {
	first := model.Booking{ID: uuid.New(), Status: model.BookingStatusPending, CreatedAt: t0}
	second := model.Booking{ID: uuid.New(), Status: model.BookingStatusPending, CreatedAt: t0.Add(time.Minute)}
	confirmed := model.Booking{ID: uuid.New(), Status: model.BookingStatusConfirmed, CreatedAt: t0}

	got := PendingBookings([]model.Booking{second, confirmed, first})
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, ids(got, bookingID))
}

func TestCheckVehicleAvailability(t *testing.T) {
	v := model.Vehicle{ID: uuid.New(), Status: model.VehicleStatusAvailable}
	retired := model.Vehicle{ID: uuid.New(), Status: model.VehicleStatusOutOfService}
	booked := model.Booking{ID: uuid.New(), VehicleID: v.ID, Status: model.BookingStatusConfirmed, StartTime: t0.Add(time.Hour), EndTime: t0.Add(3 * time.Hour)}
	cancelled := model.Booking{ID: uuid.New(), VehicleID: v.ID, Status: model.BookingStatusCancelled, StartTime: t0, EndTime: t0.Add(10 * time.Hour)}
	snap := model.Snapshot{Vehicles: []model.Vehicle{v, retired}, Bookings: []model.Booking{booked, cancelled}}

	got, err := CheckVehicleAvailability(snap, v.ID, t0.Add(2*time.Hour), t0.Add(4*time.Hour))
	require.NoError(t, err)
	assert.False(t, got.Available)
	assert.Equal(t, []uuid.UUID{booked.ID}, got.ConflictIDs)

	got, err = CheckVehicleAvailability(snap, v.ID, t0.Add(4*time.Hour), t0.Add(5*time.Hour))
	require.NoError(t, err)
	assert.True(t, got.Available)

	got, err = CheckVehicleAvailability(snap, retired.ID, t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, got.Available)

	_, err = CheckVehicleAvailability(snap, uuid.New(), t0, t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = CheckVehicleAvailability(snap, v.ID, t0.Add(time.Hour), t0)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
