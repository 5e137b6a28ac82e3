package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	fleetdb "fleetops-service/internal/db"
	"fleetops-service/internal/fleet"
	"fleetops-service/internal/model"
)

// GormStore persists fleet entities in postgres. Updates are compare-and-swap
// on the version column.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Ping(ctx context.Context) error {
	return fleetdb.HealthCheck(ctx, s.db)
}

func (s *GormStore) Snapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("created_at, id").Find(&snap.Vehicles).Error; err != nil {
			return fmt.Errorf("load vehicles: %w", err)
		}
		if err := tx.Order("created_at, id").Find(&snap.Bookings).Error; err != nil {
			return fmt.Errorf("load bookings: %w", err)
		}
		if err := tx.Order("created_at, id").Find(&snap.Tickets).Error; err != nil {
			return fmt.Errorf("load tickets: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

// Generation reads the sequence the migration triggers advance on every
// write to a fleet table.
func (s *GormStore) Generation(ctx context.Context) (int64, error) {
	var gen int64
	if err := s.db.WithContext(ctx).
		Raw("SELECT last_value FROM fleet_generation").
		Scan(&gen).Error; err != nil {
		return 0, err
	}
	return gen, nil
}

// Commit writes every entity of res in one transaction. Entities with
// Version 0 are inserted; the rest are updated only if their stored version
// still matches. The committed result carries the new versions.
func (s *GormStore) Commit(ctx context.Context, res fleet.TransitionResult) (fleet.TransitionResult, error) {
	if res.Empty() {
		return res, nil
	}
	out := fleet.TransitionResult{
		Vehicles: append([]model.Vehicle(nil), res.Vehicles...),
		Bookings: append([]model.Booking(nil), res.Bookings...),
		Tickets:  append([]model.MaintenanceTicket(nil), res.Tickets...),
		Logs:     append([]model.StatusLog(nil), res.Logs...),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVersions(tx, res); err != nil {
			return err
		}
		for i := range out.Vehicles {
			v := &out.Vehicles[i]
			if err := save(tx, v, v.ID, &v.Version, vehicleColumns(*v)); err != nil {
				return fmt.Errorf("vehicle %s: %w", v.ID, err)
			}
		}
		for i := range out.Bookings {
			b := &out.Bookings[i]
			if err := save(tx, b, b.ID, &b.Version, bookingColumns(*b)); err != nil {
				return fmt.Errorf("booking %s: %w", b.ID, err)
			}
		}
		for i := range out.Tickets {
			t := &out.Tickets[i]
			if err := save(tx, t, t.ID, &t.Version, ticketColumns(*t)); err != nil {
				return fmt.Errorf("ticket %s: %w", t.ID, err)
			}
		}
		if len(out.Logs) > 0 {
			if err := tx.Create(&out.Logs).Error; err != nil {
				return fmt.Errorf("status log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isSerializationFailure(err) {
			return fleet.TransitionResult{}, fmt.Errorf("%w: %v", fleet.ErrConflict, err)
		}
		return fleet.TransitionResult{}, err
	}
	return out, nil
}

// lockVersions takes row locks on every existing entity the transition read
// or is about to update and checks each still has the version the decision
// was made on. Locks are taken vehicles first, then bookings, then tickets,
// each by id, so concurrent commits queue instead of deadlocking.
func lockVersions(tx *gorm.DB, res fleet.TransitionResult) error {
	refs := versionRefs(res)
	for _, ref := range refs {
		var versions []int64
		err := tx.Table(tableFor(ref.Entity)).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", ref.ID).
			Pluck("version", &versions).Error
		if err != nil {
			return err
		}
		if len(versions) == 0 || versions[0] != ref.Version {
			return fmt.Errorf("%s %s changed since read: %w", strings.ToLower(string(ref.Entity)), ref.ID, fleet.ErrConflict)
		}
	}
	return nil
}

func versionRefs(res fleet.TransitionResult) []fleet.EntityRef {
	seen := make(map[fleet.EntityRef]struct{})
	refs := make([]fleet.EntityRef, 0, len(res.Reads)+len(res.Vehicles)+len(res.Bookings)+len(res.Tickets))
	add := func(ref fleet.EntityRef) {
		if ref.Version == 0 {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	for _, ref := range res.Reads {
		add(ref)
	}
	for _, v := range res.Vehicles {
		add(fleet.EntityRef{Entity: model.EntityVehicle, ID: v.ID, Version: v.Version})
	}
	for _, b := range res.Bookings {
		add(fleet.EntityRef{Entity: model.EntityBooking, ID: b.ID, Version: b.Version})
	}
	for _, t := range res.Tickets {
		add(fleet.EntityRef{Entity: model.EntityMaintenance, ID: t.ID, Version: t.Version})
	}

	sort.Slice(refs, func(i, j int) bool {
		if ri, rj := lockRank(refs[i].Entity), lockRank(refs[j].Entity); ri != rj {
			return ri < rj
		}
		return bytes.Compare(refs[i].ID[:], refs[j].ID[:]) < 0
	})
	return refs
}

func lockRank(entity model.EntityType) int {
	switch entity {
	case model.EntityVehicle:
		return 0
	case model.EntityBooking:
		return 1
	default:
		return 2
	}
}

func tableFor(entity model.EntityType) string {
	switch entity {
	case model.EntityVehicle:
		return model.Vehicle{}.TableName()
	case model.EntityBooking:
		return model.Booking{}.TableName()
	default:
		return model.MaintenanceTicket{}.TableName()
	}
}

// isSerializationFailure reports postgres aborting one side of a lock cycle
// or a serializable conflict. Both are safe to retry from a fresh snapshot.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func save(tx *gorm.DB, row any, id uuid.UUID, version *int64, columns map[string]interface{}) error {
	if *version == 0 {
		*version = 1
		return tx.Create(row).Error
	}

	columns["version"] = *version + 1
	result := tx.Model(row).
		Where("id = ? AND version = ?", id, *version).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fleet.ErrConflict
	}
	*version++
	return nil
}

func vehicleColumns(v model.Vehicle) map[string]interface{} {
	return map[string]interface{}{
		"energy_level": v.EnergyLevel,
		"latitude":     v.Location.Latitude,
		"longitude":    v.Location.Longitude,
		"health_score": v.HealthScore,
		"status":       v.Status,
		"updated_at":   v.UpdatedAt,
	}
}

func bookingColumns(b model.Booking) map[string]interface{} {
	return map[string]interface{}{
		"total_price":  b.TotalPrice,
		"status":       b.Status,
		"started_at":   b.StartedAt,
		"completed_at": b.CompletedAt,
		"updated_at":   b.UpdatedAt,
	}
}

func ticketColumns(t model.MaintenanceTicket) map[string]interface{} {
	return map[string]interface{}{
		"priority":    t.Priority,
		"status":      t.Status,
		"resolved_at": t.ResolvedAt,
		"updated_at":  t.UpdatedAt,
	}
}

func (s *GormStore) ListVehicles(ctx context.Context, filter VehicleFilter) ([]model.Vehicle, error) {
	query := s.db.WithContext(ctx).Model(&model.Vehicle{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.BodyType != "" {
		query = query.Where("body_type = ?", filter.BodyType)
	}
	if filter.MinCapacity > 0 {
		query = query.Where("capacity >= ?", filter.MinCapacity)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("(vehicle_number ILIKE ? OR model ILIKE ? OR manufacturer ILIKE ?)", search, search, search)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var vehicles []model.Vehicle
	if err := query.
		Limit(limitOrDefault(filter.Limit)).
		Order("vehicle_number").
		Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (s *GormStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	query := s.db.WithContext(ctx).Model(&model.Booking{})
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var bookings []model.Booking
	if err := query.
		Limit(limitOrDefault(filter.Limit)).
		Order("start_time DESC, id").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *GormStore) ListTickets(ctx context.Context, filter TicketFilter) ([]model.MaintenanceTicket, error) {
	query := s.db.WithContext(ctx).Model(&model.MaintenanceTicket{})
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.PredictiveOnly {
		query = query.Where("predictive")
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var tickets []model.MaintenanceTicket
	if err := query.
		Limit(limitOrDefault(filter.Limit)).
		Order("created_at DESC, id").
		Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (s *GormStore) StatusLogs(ctx context.Context, entity model.EntityType, id uuid.UUID) ([]model.StatusLog, error) {
	var logs []model.StatusLog
	if err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entity, id).
		Order("created_at, id").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
