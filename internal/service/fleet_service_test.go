package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops-service/internal/cache"
	"fleetops-service/internal/fleet"
	"fleetops-service/internal/metrics"
	"fleetops-service/internal/model"
	"fleetops-service/internal/repository"
)

type testEnv struct {
	store   *repository.MemoryStore
	engine  *fleet.Engine
	service *FleetService
	now     time.Time

	admin    model.Principal
	manager  model.Principal
	driver   model.Principal
	customer model.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    repository.NewMemoryStore(),
		now:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		admin:    model.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin},
		manager:  model.Principal{UserID: uuid.New(), Role: model.UserRoleManager},
		driver:   model.Principal{UserID: uuid.New(), Role: model.UserRoleDriver},
		customer: model.Principal{UserID: uuid.New(), Role: model.UserRoleCustomer},
	}
	env.engine = fleet.NewEngine(fleet.Pricing{HourlyRate: fleet.DefaultHourlyRate}, fleet.WithClock(func() time.Time { return env.now }))
	views := cache.NewViewCache(cache.NewMemoryStore(), time.Minute)
	env.service = NewFleetService(env.store, fleet.NewGateway(env.engine), views, metrics.New(), zerolog.Nop())
	return env
}

func (env *testEnv) register(t *testing.T, number string) model.Vehicle {
	t.Helper()
	res, err := env.service.Transition(context.Background(), env.manager, fleet.TransitionRequest{
		EntityType: model.EntityVehicle,
		Action:     fleet.ActionRegister,
		Payload: fleet.Payload{Vehicle: &fleet.VehicleDraft{
			VehicleNumber: number,
			Model:         "Kona",
			Manufacturer:  "Hyundai",
			BodyType:      model.BodyTypeSUV,
			Capacity:      5,
			IsElectric:    true,
		}},
	})
	require.NoError(t, err)
	require.Len(t, res.Vehicles, 1)
	return res.Vehicles[0]
}

func (env *testEnv) book(t *testing.T, vehicleID uuid.UUID) model.Booking {
	t.Helper()
	return env.bookAt(t, vehicleID, env.now.Add(time.Hour), env.now.Add(2*time.Hour))
}

func (env *testEnv) bookAt(t *testing.T, vehicleID uuid.UUID, start, end time.Time) model.Booking {
	t.Helper()
	res, err := env.service.Transition(context.Background(), env.customer, fleet.TransitionRequest{
		EntityType: model.EntityBooking,
		Action:     fleet.ActionRequest,
		Payload: fleet.Payload{Booking: &fleet.BookingDraft{
			VehicleID: vehicleID,
			StartTime: start,
			EndTime:   end,
		}},
	})
	require.NoError(t, err)
	require.Len(t, res.Bookings, 1)
	return res.Bookings[0]
}

func (env *testEnv) openTicket(t *testing.T, vehicleID uuid.UUID, issue string) model.MaintenanceTicket {
	t.Helper()
	res, err := env.service.Transition(context.Background(), env.manager, fleet.TransitionRequest{
		EntityType: model.EntityMaintenance,
		Action:     fleet.ActionOpen,
		Payload: fleet.Payload{Ticket: &fleet.TicketDraft{
			VehicleID: vehicleID,
			IssueType: issue,
		}},
	})
	require.NoError(t, err)
	require.Len(t, res.Tickets, 1)
	return res.Tickets[0]
}

// requireConsistent checks the committed state: at most one booking holds a
// vehicle, IN_USE matches a running trip, and MAINTENANCE has an open ticket.
func requireConsistent(t *testing.T, store *repository.MemoryStore) {
	t.Helper()
	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	for _, v := range snap.Vehicles {
		inProgress, holding := 0, 0
		for _, b := range snap.BookingsForVehicle(v.ID) {
			if b.Status == model.BookingStatusInProgress {
				inProgress++
			}
			if b.Status.HoldsVehicle() {
				holding++
			}
		}
		assert.LessOrEqual(t, holding, 1, "vehicle %s held by %d bookings", v.VehicleNumber, holding)
		assert.Equal(t, v.Status == model.VehicleStatusInUse, inProgress == 1, "vehicle %s is %s with %d trips", v.VehicleNumber, v.Status, inProgress)
		if v.Status == model.VehicleStatusMaintenance {
			assert.NotEmpty(t, snap.OpenTickets(v.ID), "vehicle %s in maintenance without open tickets", v.VehicleNumber)
		}
	}
}

func TestTransitionCommitsAndVersions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := env.register(t, "NFX-001")
	assert.Equal(t, int64(1), v.Version)

	b := env.book(t, v.ID)
	assert.Equal(t, int64(1), b.Version)

	res, err := env.service.Transition(ctx, env.manager, fleet.TransitionRequest{
		EntityType: "booking",
		EntityID:   b.ID,
		Action:     "confirm",
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, res.Bookings[0].Status)
	assert.Equal(t, int64(2), res.Bookings[0].Version)

	logs, err := env.service.History(ctx, env.admin, model.EntityBooking, b.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "REQUEST", logs[0].Action)
	assert.Equal(t, "CONFIRM", logs[1].Action)

	_, err = env.service.History(ctx, env.customer, model.EntityBooking, b.ID)
	assert.ErrorIs(t, err, fleet.ErrForbidden)
}

func TestConcurrentConfirmConflicts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := env.register(t, "NFX-002")
	b := env.book(t, v.ID)

	version := b.Version
	req := fleet.TransitionRequest{
		EntityType:      model.EntityBooking,
		EntityID:        b.ID,
		Action:          fleet.ActionConfirm,
		ExpectedVersion: &version,
	}

	_, first := env.service.Transition(ctx, env.manager, req)
	res, second := env.service.Transition(ctx, env.admin, req)
	require.NoError(t, first)
	require.ErrorIs(t, second, fleet.ErrConflict)
	assert.Equal(t, fleet.KindConflict, res.Error)
}

// staleStore hands out the snapshot taken before the first commit, so both
// callers decide against the same state and only the store can tell them
// apart.
type staleStore struct {
	*repository.MemoryStore
	snap *model.Snapshot
}

func (s *staleStore) Snapshot(ctx context.Context) (model.Snapshot, error) {
	if s.snap == nil {
		snap, err := s.MemoryStore.Snapshot(ctx)
		if err != nil {
			return model.Snapshot{}, err
		}
		s.snap = &snap
	}
	return s.snap.Clone(), nil
}

func TestConcurrentConfirmWithoutExpectedVersion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := env.register(t, "NFX-003")
	b := env.book(t, v.ID)

	stale := &staleStore{MemoryStore: env.store}
	svc := NewFleetService(stale, fleet.NewGateway(env.engine), nil, nil, zerolog.Nop())
	req := fleet.TransitionRequest{EntityType: model.EntityBooking, EntityID: b.ID, Action: fleet.ActionConfirm}

	_, first := svc.Transition(ctx, env.manager, req)
	_, second := svc.Transition(ctx, env.admin, req)
	require.NoError(t, first)
	assert.ErrorIs(t, second, fleet.ErrConflict)
}

func TestConfirmLosesToConcurrentFlag(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := env.register(t, "NFX-020")
	b := env.book(t, v.ID)

	stale := &staleStore{MemoryStore: env.store}
	svc := NewFleetService(stale, fleet.NewGateway(env.engine), nil, nil, zerolog.Nop())

	_, err := svc.Transition(ctx, env.manager, fleet.TransitionRequest{
		EntityType: model.EntityVehicle,
		EntityID:   v.ID,
		Action:     fleet.ActionFlagForMaintenance,
	})
	require.NoError(t, err)

	res, err := svc.Transition(ctx, env.manager, fleet.TransitionRequest{
		EntityType: model.EntityBooking,
		EntityID:   b.ID,
		Action:     fleet.ActionConfirm,
	})
	require.ErrorIs(t, err, fleet.ErrConflict)
	assert.True(t, res.Error.Retryable())

	snap, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	booking, ok := snap.Booking(b.ID)
	require.True(t, ok)
	assert.Equal(t, model.BookingStatusPending, booking.Status)
	requireConsistent(t, env.store)
}

func TestConcurrentConfirmsOnOneVehicle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := env.register(t, "NFX-021")
	first := env.bookAt(t, v.ID, env.now.Add(time.Hour), env.now.Add(2*time.Hour))
	second := env.bookAt(t, v.ID, env.now.Add(3*time.Hour), env.now.Add(4*time.Hour))

	stale := &staleStore{MemoryStore: env.store}
	svc := NewFleetService(stale, fleet.NewGateway(env.engine), nil, nil, zerolog.Nop())

	_, err := svc.Transition(ctx, env.manager, fleet.TransitionRequest{
		EntityType: model.EntityBooking,
		EntityID:   first.ID,
		Action:     fleet.ActionConfirm,
	})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, env.admin, fleet.TransitionRequest{
		EntityType: model.EntityBooking,
		EntityID:   second.ID,
		Action:     fleet.ActionConfirm,
	})
	require.ErrorIs(t, err, fleet.ErrConflict)
	requireConsistent(t, env.store)

	// A fresh decision sees the first confirmation and refuses outright.
	_, err = env.service.Transition(ctx, env.admin, fleet.TransitionRequest{
		EntityType: model.EntityBooking,
		EntityID:   second.ID,
		Action:     fleet.ActionConfirm,
	})
	assert.ErrorIs(t, err, fleet.ErrPreconditionFailed)
}

func TestConcurrentResolvesOnOneVehicle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := env.register(t, "NFX-022")
	brakes := env.openTicket(t, v.ID, "brakes")
	tyres := env.openTicket(t, v.ID, "tyres")

	stale := &staleStore{MemoryStore: env.store}
	svc := NewFleetService(stale, fleet.NewGateway(env.engine), nil, nil, zerolog.Nop())

	_, err := svc.Transition(ctx, env.manager, fleet.TransitionRequest{
		EntityType: model.EntityMaintenance,
		EntityID:   brakes.ID,
		Action:     fleet.ActionResolve,
	})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, env.manager, fleet.TransitionRequest{
		EntityType: model.EntityMaintenance,
		EntityID:   tyres.ID,
		Action:     fleet.ActionResolve,
	})
	require.ErrorIs(t, err, fleet.ErrConflict)

	snap, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	vehicle, ok := snap.Vehicle(v.ID)
	require.True(t, ok)
	assert.Equal(t, model.VehicleStatusMaintenance, vehicle.Status)
	assert.Len(t, snap.OpenTickets(v.ID), 1)
	requireConsistent(t, env.store)
}

func TestTransitionRejections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := env.register(t, "NFX-004")

	res, err := env.service.Transition(ctx, env.customer, fleet.TransitionRequest{
		EntityType: model.EntityVehicle,
		EntityID:   v.ID,
		Action:     fleet.ActionRetire,
	})
	assert.ErrorIs(t, err, fleet.ErrForbidden)
	assert.Equal(t, fleet.KindForbidden, res.Error)

	_, err = env.service.Transition(ctx, env.manager, fleet.TransitionRequest{
		EntityType: model.EntityBooking,
		EntityID:   uuid.New(),
		Action:     fleet.ActionConfirm,
	})
	assert.ErrorIs(t, err, fleet.ErrNotFound)

	snap, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusAvailable, snap.Vehicles[0].Status)
}

func TestViewIsCachedPerGeneration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "NFX-005")

	req := fleet.AggregationRequest{Kind: fleet.AggregationFleetSummary}
	first, err := env.service.View(ctx, env.manager, req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.(fleet.FleetSummary).TotalFleet)

	cached, err := env.service.View(ctx, env.manager, req)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	env.register(t, "NFX-006")
	fresh, err := env.service.View(ctx, env.manager, req)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.(fleet.FleetSummary).TotalFleet)

	_, err = env.service.View(ctx, env.customer, req)
	assert.ErrorIs(t, err, fleet.ErrForbidden)
}

func TestViewCacheSeparatesCustomers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := env.register(t, "NFX-007")
	env.book(t, v.ID)

	req := fleet.AggregationRequest{Kind: "booking_history"}
	mine, err := env.service.View(ctx, env.customer, req)
	require.NoError(t, err)
	assert.Len(t, mine.([]model.Booking), 1)

	other := model.Principal{UserID: uuid.New(), Role: model.UserRoleCustomer}
	theirs, err := env.service.View(ctx, other, req)
	require.NoError(t, err)
	assert.Empty(t, theirs.([]model.Booking))

	again, err := env.service.View(ctx, env.customer, req)
	require.NoError(t, err)
	assert.Len(t, again.([]model.Booking), 1)
}

func TestListsApplyRoleScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.register(t, "NFX-010")
	b := env.register(t, "NFX-011")
	env.book(t, a.ID)

	_, err := env.service.Transition(ctx, env.manager, fleet.TransitionRequest{
		EntityType: model.EntityVehicle,
		EntityID:   b.ID,
		Action:     fleet.ActionFlagForMaintenance,
	})
	require.NoError(t, err)

	vehicles, err := env.service.ListVehicles(ctx, env.driver, ListVehiclesOptions{
		Statuses: []model.VehicleStatus{model.VehicleStatusMaintenance},
	})
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, a.ID, vehicles[0].ID)

	vehicles, err = env.service.ListVehicles(ctx, env.manager, ListVehiclesOptions{
		Statuses: []model.VehicleStatus{model.VehicleStatusMaintenance},
	})
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, b.ID, vehicles[0].ID)

	other := uuid.New()
	bookings, err := env.service.ListBookings(ctx, env.customer, ListBookingsOptions{CustomerID: &other})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	_, err = env.service.ListBookings(ctx, env.driver, ListBookingsOptions{})
	assert.ErrorIs(t, err, fleet.ErrForbidden)

	tickets, err := env.service.ListTickets(ctx, env.manager, ListTicketsOptions{VehicleID: &b.ID})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)

	_, err = env.service.ListTickets(ctx, env.customer, ListTicketsOptions{})
	assert.ErrorIs(t, err, fleet.ErrForbidden)
}
