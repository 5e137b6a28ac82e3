package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleetops-service/internal/cache"
	"fleetops-service/internal/fleet"
	"fleetops-service/internal/metrics"
	"fleetops-service/internal/model"
	"fleetops-service/internal/repository"
)

// FleetService runs gateway decisions against fresh snapshots from the store
// and commits their results.
type FleetService struct {
	store   Store
	gateway *fleet.Gateway
	views   *cache.ViewCache
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewFleetService(store Store, gateway *fleet.Gateway, views *cache.ViewCache, m *metrics.Metrics, log zerolog.Logger) *FleetService {
	return &FleetService{
		store:   store,
		gateway: gateway,
		views:   views,
		metrics: m,
		log:     log,
	}
}

func (s *FleetService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *FleetService) Capabilities(principal model.Principal) fleet.Capabilities {
	return s.gateway.Capabilities(principal)
}

// Transition loads the current snapshot, lets the gateway decide and commits
// the result. A concurrent write between load and commit surfaces as
// fleet.ErrConflict; the caller re-reads and retries.
func (s *FleetService) Transition(ctx context.Context, principal model.Principal, req fleet.TransitionRequest) (fleet.TransitionResult, error) {
	started := time.Now()
	req = req.Normalized()

	res, err := s.transition(ctx, principal, req)
	outcome := "ok"
	if err != nil {
		outcome = string(fleet.KindOf(err))
	}
	s.metrics.ObserveTransition(string(req.EntityType), string(req.Action), outcome, time.Since(started))
	return res, err
}

func (s *FleetService) transition(ctx context.Context, principal model.Principal, req fleet.TransitionRequest) (fleet.TransitionResult, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return fleet.TransitionResult{Error: fleet.KindInternal}, err
	}

	res, err := s.gateway.Transition(snap, principal, req)
	if err != nil {
		s.log.Debug().
			Err(err).
			Str("command", req.Command().String()).
			Str("entity_id", req.EntityID.String()).
			Str("role", string(principal.Role)).
			Msg("transition rejected")
		return res, err
	}

	committed, err := s.store.Commit(ctx, res)
	if err != nil {
		err = normalizeError(err)
		kind := fleet.KindOf(err)
		if kind == fleet.KindConflict {
			s.log.Debug().Err(err).Str("command", req.Command().String()).Msg("transition lost a concurrent write")
		}
		return fleet.TransitionResult{Error: kind}, err
	}

	s.log.Info().
		Str("command", req.Command().String()).
		Str("user_id", principal.UserID.String()).
		Str("role", string(principal.Role)).
		Int("vehicles", len(committed.Vehicles)).
		Int("bookings", len(committed.Bookings)).
		Int("tickets", len(committed.Tickets)).
		Msg("transition committed")
	return committed, nil
}

// View computes an aggregation. Results are cached per store generation, so
// any committed write makes earlier entries unreachable.
func (s *FleetService) View(ctx context.Context, principal model.Principal, req fleet.AggregationRequest) (any, error) {
	req.Kind = fleet.AggregationKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))
	scope, err := s.gateway.Authorize(principal, req.Kind)
	if err != nil {
		return nil, err
	}

	var key string
	if s.views != nil {
		gen, err := s.store.Generation(ctx)
		if err != nil {
			return nil, err
		}
		key, err = cache.Key(gen, cacheScope(principal, scope), req)
		if err != nil {
			return nil, err
		}
		if view, ok := s.cachedView(ctx, key, req.Kind); ok {
			s.metrics.ObserveView(string(req.Kind), true)
			return view, nil
		}
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	view, err := s.gateway.Aggregate(snap, principal, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveView(string(req.Kind), false)

	if key != "" {
		if err := s.views.Set(ctx, key, view); err != nil {
			s.log.Warn().Err(err).Str("kind", string(req.Kind)).Msg("failed to cache view")
		}
	}
	return view, nil
}

func (s *FleetService) cachedView(ctx context.Context, key string, kind fleet.AggregationKind) (any, bool) {
	var raw json.RawMessage
	found, err := s.views.Get(ctx, key, &raw)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("view cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}
	view, err := decodeView(kind, raw)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("discarding undecodable cached view")
		return nil, false
	}
	return view, true
}

func decodeView(kind fleet.AggregationKind, data []byte) (any, error) {
	switch kind {
	case fleet.AggregationFleetSummary:
		return decode[fleet.FleetSummary](data)
	case fleet.AggregationAvailableVehicles:
		return decode[[]model.Vehicle](data)
	case fleet.AggregationMaintenanceAlerts:
		return decode[[]model.MaintenanceTicket](data)
	case fleet.AggregationBookingHistory, fleet.AggregationPendingBookings:
		return decode[[]model.Booking](data)
	case fleet.AggregationFleetDistribution:
		return decode[fleet.FleetDistribution](data)
	case fleet.AggregationVehicleAvailability:
		return decode[fleet.VehicleAvailability](data)
	}
	return nil, ErrInvalidInput
}

func decode[T any](data []byte) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// cacheScope separates cache entries whose content depends on the caller.
func cacheScope(principal model.Principal, scope fleet.Scope) string {
	key := string(principal.Role)
	if scope.OwnBookingsOnly {
		key += ":" + principal.UserID.String()
	}
	return key
}

type ListVehiclesOptions struct {
	Statuses    []model.VehicleStatus
	BodyType    model.BodyType
	MinCapacity int
	Search      string
	Limit       int
	Offset      int
}

func (s *FleetService) ListVehicles(ctx context.Context, principal model.Principal, opts ListVehiclesOptions) ([]model.Vehicle, error) {
	scope, err := s.gateway.Authorize(principal, fleet.AggregationAvailableVehicles)
	if err != nil {
		return nil, err
	}
	filter := repository.VehicleFilter{
		Statuses:    opts.Statuses,
		BodyType:    opts.BodyType,
		MinCapacity: opts.MinCapacity,
		Search:      opts.Search,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	}
	if scope.AvailableVehiclesOnly {
		filter.Statuses = []model.VehicleStatus{model.VehicleStatusAvailable}
	}
	vehicles, err := s.store.ListVehicles(ctx, filter)
	return vehicles, normalizeError(err)
}

type ListBookingsOptions struct {
	VehicleID  *uuid.UUID
	CustomerID *uuid.UUID
	Statuses   []model.BookingStatus
	Limit      int
	Offset     int
}

func (s *FleetService) ListBookings(ctx context.Context, principal model.Principal, opts ListBookingsOptions) ([]model.Booking, error) {
	scope, err := s.gateway.Authorize(principal, fleet.AggregationBookingHistory)
	if err != nil {
		return nil, err
	}
	filter := repository.BookingFilter{
		VehicleID:  opts.VehicleID,
		CustomerID: opts.CustomerID,
		Statuses:   opts.Statuses,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	}
	if scope.OwnBookingsOnly {
		own := principal.UserID
		filter.CustomerID = &own
	}
	bookings, err := s.store.ListBookings(ctx, filter)
	return bookings, normalizeError(err)
}

type ListTicketsOptions struct {
	VehicleID      *uuid.UUID
	Statuses       []model.TicketStatus
	PredictiveOnly bool
	Limit          int
	Offset         int
}

func (s *FleetService) ListTickets(ctx context.Context, principal model.Principal, opts ListTicketsOptions) ([]model.MaintenanceTicket, error) {
	if _, err := s.gateway.Authorize(principal, fleet.AggregationMaintenanceAlerts); err != nil {
		return nil, err
	}
	tickets, err := s.store.ListTickets(ctx, repository.TicketFilter{
		VehicleID:      opts.VehicleID,
		Statuses:       opts.Statuses,
		PredictiveOnly: opts.PredictiveOnly,
		Limit:          opts.Limit,
		Offset:         opts.Offset,
	})
	return tickets, normalizeError(err)
}

func (s *FleetService) History(ctx context.Context, principal model.Principal, entity model.EntityType, id uuid.UUID) ([]model.StatusLog, error) {
	if err := s.gateway.AuthorizeAudit(principal); err != nil {
		return nil, err
	}
	if !entity.Valid() {
		return nil, ErrInvalidInput
	}
	logs, err := s.store.StatusLogs(ctx, entity, id)
	return logs, normalizeError(err)
}
