package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleetops-service/internal/fleet"
	"fleetops-service/internal/http/middleware"
	"fleetops-service/internal/model"
	"fleetops-service/internal/service"
)

type Handler struct {
	fleetService *service.FleetService
	log          zerolog.Logger
}

func NewHandler(fleetService *service.FleetService, log zerolog.Logger) *Handler {
	return &Handler{
		fleetService: fleetService,
		log:          log,
	}
}

func (h *Handler) capabilities(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	c.JSON(http.StatusOK, successResponse(h.fleetService.Capabilities(principal)))
}

func (h *Handler) getView(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	filters, err := parseViewFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	req := fleet.AggregationRequest{
		Kind:    fleet.AggregationKind(strings.ToUpper(strings.TrimSpace(c.Param("kind")))),
		Filters: filters,
	}
	view, err := h.fleetService.View(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"kind": req.Kind, "view": view}))
}

// transition accepts a fully described command.
func (h *Handler) transition(c *gin.Context) {
	var req fleet.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	h.runTransition(c, req)
}

func (h *Handler) createVehicle(c *gin.Context) {
	var draft fleet.VehicleDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	h.runTransition(c, fleet.TransitionRequest{
		EntityType: model.EntityVehicle,
		Action:     fleet.ActionRegister,
		Payload:    fleet.Payload{Vehicle: &draft},
	})
}

func (h *Handler) createBooking(c *gin.Context) {
	var draft fleet.BookingDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	h.runTransition(c, fleet.TransitionRequest{
		EntityType: model.EntityBooking,
		Action:     fleet.ActionRequest,
		Payload:    fleet.Payload{Booking: &draft},
	})
}

func (h *Handler) createTicket(c *gin.Context) {
	var draft fleet.TicketDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	h.runTransition(c, fleet.TransitionRequest{
		EntityType: model.EntityMaintenance,
		Action:     fleet.ActionOpen,
		Payload:    fleet.Payload{Ticket: &draft},
	})
}

type actionRequest struct {
	Action          string        `json:"action" binding:"required"`
	ExpectedVersion *int64        `json:"expected_version"`
	Payload         fleet.Payload `json:"payload"`
}

// actOn returns a handler for POST /<entities>/:id/actions.
func (h *Handler) actOn(entity model.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid id"))
			return
		}

		var req actionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}

		h.runTransition(c, fleet.TransitionRequest{
			EntityType:      entity,
			EntityID:        id,
			Action:          fleet.Action(req.Action),
			ExpectedVersion: req.ExpectedVersion,
			Payload:         req.Payload,
		})
	}
}

func (h *Handler) runTransition(c *gin.Context, req fleet.TransitionRequest) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	req = req.Normalized()
	result, err := h.fleetService.Transition(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	status := http.StatusOK
	if req.Command().Creates() {
		status = http.StatusCreated
	}
	c.JSON(status, successResponse(result))
}

func (h *Handler) listVehicles(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts := service.ListVehiclesOptions{
		BodyType: model.BodyType(strings.ToUpper(strings.TrimSpace(c.Query("body_type")))),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	for _, val := range splitCSV(c.Query("status")) {
		opts.Statuses = append(opts.Statuses, model.VehicleStatus(strings.ToUpper(val)))
	}
	if capacity := strings.TrimSpace(c.Query("min_capacity")); capacity != "" {
		v, err := strconv.Atoi(capacity)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("min_capacity must be a non-negative integer"))
			return
		}
		opts.MinCapacity = v
	}
	opts.Limit, opts.Offset = parsePage(c)

	vehicles, err := h.fleetService.ListVehicles(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": vehicles}))
}

func (h *Handler) listBookings(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var opts service.ListBookingsOptions
	var err error
	if opts.VehicleID, err = parseOptionalUUID(c.Query("vehicle_id")); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle_id"))
		return
	}
	if opts.CustomerID, err = parseOptionalUUID(c.Query("customer_id")); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid customer_id"))
		return
	}
	for _, val := range splitCSV(c.Query("status")) {
		opts.Statuses = append(opts.Statuses, model.BookingStatus(strings.ToUpper(val)))
	}
	opts.Limit, opts.Offset = parsePage(c)

	bookings, err := h.fleetService.ListBookings(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": bookings}))
}

func (h *Handler) listTickets(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var opts service.ListTicketsOptions
	var err error
	if opts.VehicleID, err = parseOptionalUUID(c.Query("vehicle_id")); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle_id"))
		return
	}
	for _, val := range splitCSV(c.Query("status")) {
		opts.Statuses = append(opts.Statuses, model.TicketStatus(strings.ToUpper(val)))
	}
	opts.PredictiveOnly, _ = strconv.ParseBool(c.Query("predictive"))
	opts.Limit, opts.Offset = parsePage(c)

	tickets, err := h.fleetService.ListTickets(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": tickets}))
}

func (h *Handler) history(entity model.EntityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.MustPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid id"))
			return
		}

		logs, err := h.fleetService.History(c.Request.Context(), principal, entity, id)
		if err != nil {
			h.handleError(c, err)
			return
		}

		c.JSON(http.StatusOK, successResponse(gin.H{"items": logs}))
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	kind := fleet.KindOf(err)
	switch kind {
	case fleet.KindValidationFailed:
		body := kindErrorResponse(kind, err.Error())
		var verr *fleet.ValidationError
		if errors.As(err, &verr) {
			body["violations"] = verr.Violations
		}
		c.JSON(http.StatusBadRequest, body)
	case fleet.KindForbidden:
		c.JSON(http.StatusForbidden, kindErrorResponse(kind, err.Error()))
	case fleet.KindNotFound:
		c.JSON(http.StatusNotFound, kindErrorResponse(kind, err.Error()))
	case fleet.KindConflict:
		c.JSON(http.StatusConflict, kindErrorResponse(kind, err.Error()))
	case fleet.KindPreconditionFailed, fleet.KindInvalidTransition:
		c.JSON(http.StatusUnprocessableEntity, kindErrorResponse(kind, err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseViewFilters(c *gin.Context) (fleet.AggregationFilters, error) {
	var f fleet.AggregationFilters

	f.Status = model.VehicleStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	f.BodyType = model.BodyType(strings.ToUpper(strings.TrimSpace(c.Query("body_type"))))
	if electric := strings.TrimSpace(c.Query("electric_only")); electric != "" {
		v, err := strconv.ParseBool(electric)
		if err != nil {
			return f, errors.New("invalid electric_only")
		}
		f.ElectricOnly = v
	}
	if capacity := strings.TrimSpace(c.Query("min_capacity")); capacity != "" {
		v, err := strconv.Atoi(capacity)
		if err != nil || v < 0 {
			return f, errors.New("min_capacity must be a non-negative integer")
		}
		f.MinCapacity = v
	}
	lat, lng := strings.TrimSpace(c.Query("near_lat")), strings.TrimSpace(c.Query("near_lng"))
	if lat != "" || lng != "" {
		latV, errLat := strconv.ParseFloat(lat, 64)
		lngV, errLng := strconv.ParseFloat(lng, 64)
		if errLat != nil || errLng != nil {
			return f, errors.New("near_lat and near_lng must both be numbers")
		}
		f.Near = &model.Location{Latitude: latV, Longitude: lngV}
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			f.Limit = v
		}
	}
	customerID, err := parseOptionalUUID(c.Query("customer_id"))
	if err != nil {
		return f, errors.New("invalid customer_id")
	}
	if customerID != nil {
		f.CustomerID = *customerID
	}
	vehicleID, err := parseOptionalUUID(c.Query("vehicle_id"))
	if err != nil {
		return f, errors.New("invalid vehicle_id")
	}
	if vehicleID != nil {
		f.VehicleID = *vehicleID
	}
	if from := strings.TrimSpace(c.Query("from")); from != "" {
		ts, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return f, err
		}
		f.From = ts
	}
	if to := strings.TrimSpace(c.Query("to")); to != "" {
		ts, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return f, err
		}
		f.To = ts
	}
	return f, nil
}

func parsePage(c *gin.Context) (limit, offset int) {
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("limit"))); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("offset"))); err == nil {
		offset = v
	}
	return limit, offset
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}

func kindErrorResponse(kind fleet.ErrorKind, msg string) gin.H {
	return gin.H{"error": msg, "kind": kind, "retryable": kind.Retryable()}
}
