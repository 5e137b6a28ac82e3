package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetops-service/internal/fleet"
	"fleetops-service/internal/model"
)

// MemoryStore keeps fleet entities in process memory. It applies the same
// versioning rules as GormStore and is used by tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu         sync.RWMutex
	vehicles   map[uuid.UUID]model.Vehicle
	bookings   map[uuid.UUID]model.Booking
	tickets    map[uuid.UUID]model.MaintenanceTicket
	logs       []model.StatusLog
	generation int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: make(map[uuid.UUID]model.Vehicle),
		bookings: make(map[uuid.UUID]model.Booking),
		tickets:  make(map[uuid.UUID]model.MaintenanceTicket),
	}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Snapshot(context.Context) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.Snapshot{
		Vehicles: make([]model.Vehicle, 0, len(s.vehicles)),
		Bookings: make([]model.Booking, 0, len(s.bookings)),
		Tickets:  make([]model.MaintenanceTicket, 0, len(s.tickets)),
	}
	for _, v := range s.vehicles {
		snap.Vehicles = append(snap.Vehicles, v)
	}
	for _, b := range s.bookings {
		snap.Bookings = append(snap.Bookings, b)
	}
	for _, t := range s.tickets {
		snap.Tickets = append(snap.Tickets, t)
	}
	sort.Slice(snap.Vehicles, func(i, j int) bool {
		return createdBefore(snap.Vehicles[i].CreatedAt, snap.Vehicles[j].CreatedAt, snap.Vehicles[i].ID, snap.Vehicles[j].ID)
	})
	sort.Slice(snap.Bookings, func(i, j int) bool {
		return createdBefore(snap.Bookings[i].CreatedAt, snap.Bookings[j].CreatedAt, snap.Bookings[i].ID, snap.Bookings[j].ID)
	})
	sort.Slice(snap.Tickets, func(i, j int) bool {
		return createdBefore(snap.Tickets[i].CreatedAt, snap.Tickets[j].CreatedAt, snap.Tickets[i].ID, snap.Tickets[j].ID)
	})
	return snap, nil
}

func (s *MemoryStore) Generation(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation, nil
}

// Commit checks every version in res, read or written, before writing
// anything, so a conflict leaves the store untouched.
func (s *MemoryStore) Commit(_ context.Context, res fleet.TransitionResult) (fleet.TransitionResult, error) {
	if res.Empty() {
		return res, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ref := range res.Reads {
		if err := s.checkRead(ref); err != nil {
			return fleet.TransitionResult{}, err
		}
	}

	for _, v := range res.Vehicles {
		if err := checkVersion(s.vehicles, v.ID, v.Version); err != nil {
			return fleet.TransitionResult{}, fmt.Errorf("vehicle %s: %w", v.ID, err)
		}
		if v.Version == 0 {
			for _, existing := range s.vehicles {
				if strings.EqualFold(existing.VehicleNumber, v.VehicleNumber) {
					return fleet.TransitionResult{}, fmt.Errorf("vehicle number %s: %w", v.VehicleNumber, fleet.ErrConflict)
				}
			}
		}
	}
	for _, b := range res.Bookings {
		if err := checkVersion(s.bookings, b.ID, b.Version); err != nil {
			return fleet.TransitionResult{}, fmt.Errorf("booking %s: %w", b.ID, err)
		}
	}
	for _, t := range res.Tickets {
		if err := checkVersion(s.tickets, t.ID, t.Version); err != nil {
			return fleet.TransitionResult{}, fmt.Errorf("ticket %s: %w", t.ID, err)
		}
	}

	out := fleet.TransitionResult{
		Vehicles: make([]model.Vehicle, 0, len(res.Vehicles)),
		Bookings: make([]model.Booking, 0, len(res.Bookings)),
		Tickets:  make([]model.MaintenanceTicket, 0, len(res.Tickets)),
		Logs:     make([]model.StatusLog, 0, len(res.Logs)),
	}
	for _, v := range res.Vehicles {
		v.Version++
		s.vehicles[v.ID] = v
		out.Vehicles = append(out.Vehicles, v)
	}
	for _, b := range res.Bookings {
		b.Version++
		s.bookings[b.ID] = b
		out.Bookings = append(out.Bookings, b)
	}
	for _, t := range res.Tickets {
		t.Version++
		s.tickets[t.ID] = t
		out.Tickets = append(out.Tickets, t)
	}
	for _, l := range res.Logs {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		s.logs = append(s.logs, l)
		out.Logs = append(out.Logs, l)
	}
	s.generation++
	return out, nil
}

func (s *MemoryStore) checkRead(ref fleet.EntityRef) error {
	var err error
	switch ref.Entity {
	case model.EntityVehicle:
		err = checkVersion(s.vehicles, ref.ID, ref.Version)
	case model.EntityBooking:
		err = checkVersion(s.bookings, ref.ID, ref.Version)
	case model.EntityMaintenance:
		err = checkVersion(s.tickets, ref.ID, ref.Version)
	default:
		return fmt.Errorf("unknown entity type %q", ref.Entity)
	}
	if err != nil {
		return fmt.Errorf("%s %s changed since read: %w", strings.ToLower(string(ref.Entity)), ref.ID, err)
	}
	return nil
}

type versioned interface {
	model.Vehicle | model.Booking | model.MaintenanceTicket
}

func versionOf[T versioned](row T) int64 {
	switch r := any(row).(type) {
	case model.Vehicle:
		return r.Version
	case model.Booking:
		return r.Version
	case model.MaintenanceTicket:
		return r.Version
	}
	return 0
}

func checkVersion[T versioned](rows map[uuid.UUID]T, id uuid.UUID, version int64) error {
	current, ok := rows[id]
	if version == 0 {
		if ok {
			return fleet.ErrConflict
		}
		return nil
	}
	if !ok || versionOf(current) != version {
		return fleet.ErrConflict
	}
	return nil
}

func (s *MemoryStore) ListVehicles(_ context.Context, filter VehicleFilter) ([]model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	out := make([]model.Vehicle, 0)
	for _, v := range s.vehicles {
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, v.Status) {
			continue
		}
		if filter.BodyType != "" && v.BodyType != filter.BodyType {
			continue
		}
		if v.Capacity < filter.MinCapacity {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(v.VehicleNumber), search) &&
			!strings.Contains(strings.ToLower(v.Model), search) &&
			!strings.Contains(strings.ToLower(v.Manufacturer), search) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleNumber < out[j].VehicleNumber })
	return page(out, filter.Offset, filter.Limit), nil
}

func (s *MemoryStore) ListBookings(_ context.Context, filter BookingFilter) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Booking, 0)
	for _, b := range s.bookings {
		if filter.VehicleID != nil && b.VehicleID != *filter.VehicleID {
			continue
		}
		if filter.CustomerID != nil && b.CustomerID != *filter.CustomerID {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, b.Status) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return page(out, filter.Offset, filter.Limit), nil
}

func (s *MemoryStore) ListTickets(_ context.Context, filter TicketFilter) ([]model.MaintenanceTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MaintenanceTicket, 0)
	for _, t := range s.tickets {
		if filter.VehicleID != nil && t.VehicleID != *filter.VehicleID {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, t.Status) {
			continue
		}
		if filter.PredictiveOnly && !t.Predictive {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return page(out, filter.Offset, filter.Limit), nil
}

func (s *MemoryStore) StatusLogs(_ context.Context, entity model.EntityType, id uuid.UUID) ([]model.StatusLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.StatusLog, 0)
	for _, l := range s.logs {
		if l.EntityType == entity && l.EntityID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

func contains[T comparable](items []T, v T) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	if offset > 0 {
		items = items[offset:]
	}
	if l := limitOrDefault(limit); len(items) > l {
		items = items[:l]
	}
	return items
}

func createdBefore(a, b time.Time, aID, bID uuid.UUID) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aID.String() < bID.String()
}
