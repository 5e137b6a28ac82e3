package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "PENDING"
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusInProgress BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the booking can no longer change.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// HoldsVehicle reports whether a booking in this status reserves its vehicle
// exclusively.
func (s BookingStatus) HoldsVehicle() bool {
	return s == BookingStatusConfirmed || s == BookingStatusInProgress
}

type Booking struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	CustomerID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"customer_id"`
	StartTime   time.Time     `gorm:"not null" json:"start_time"`
	EndTime     time.Time     `gorm:"not null" json:"end_time"`
	TotalPrice  float64       `gorm:"type:numeric(12,2);not null;default:0" json:"total_price"`
	Currency    string        `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status      BookingStatus `gorm:"type:booking_status;not null;default:'PENDING'" json:"status"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Version     int64         `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Overlaps reports whether the booking's scheduled window intersects [from, to].
func (b Booking) Overlaps(from, to time.Time) bool {
	return !b.EndTime.Before(from) && !b.StartTime.After(to)
}
