package service

import (
	"context"

	"github.com/google/uuid"

	"fleetops-service/internal/fleet"
	"fleetops-service/internal/model"
	"fleetops-service/internal/repository"
)

// Store is the persistence collaborator. Commit must apply the whole result
// or nothing and report stale versions as fleet.ErrConflict.
type Store interface {
	Ping(ctx context.Context) error
	Snapshot(ctx context.Context) (model.Snapshot, error)
	Generation(ctx context.Context) (int64, error)
	Commit(ctx context.Context, res fleet.TransitionResult) (fleet.TransitionResult, error)
	ListVehicles(ctx context.Context, filter repository.VehicleFilter) ([]model.Vehicle, error)
	ListBookings(ctx context.Context, filter repository.BookingFilter) ([]model.Booking, error)
	ListTickets(ctx context.Context, filter repository.TicketFilter) ([]model.MaintenanceTicket, error)
	StatusLogs(ctx context.Context, entity model.EntityType, id uuid.UUID) ([]model.StatusLog, error)
}

var (
	_ Store = (*repository.GormStore)(nil)
	_ Store = (*repository.MemoryStore)(nil)
)
