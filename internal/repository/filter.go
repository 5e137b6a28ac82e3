package repository

import (
	"github.com/google/uuid"

	"fleetops-service/internal/model"
)

const defaultListLimit = 200

type VehicleFilter struct {
	Statuses    []model.VehicleStatus
	BodyType    model.BodyType
	MinCapacity int
	Search      string
	Limit       int
	Offset      int
}

type BookingFilter struct {
	VehicleID  *uuid.UUID
	CustomerID *uuid.UUID
	Statuses   []model.BookingStatus
	Limit      int
	Offset     int
}

type TicketFilter struct {
	VehicleID      *uuid.UUID
	Statuses       []model.TicketStatus
	PredictiveOnly bool
	Limit          int
	Offset         int
}

func limitOrDefault(limit int) int {
	if limit > 0 {
		return limit
	}
	return defaultListLimit
}
