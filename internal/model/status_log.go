package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EntityType string

const (
	EntityVehicle     EntityType = "VEHICLE"
	EntityBooking     EntityType = "BOOKING"
	EntityMaintenance EntityType = "MAINTENANCE"
)

func (t EntityType) Valid() bool {
	return t == EntityVehicle || t == EntityBooking || t == EntityMaintenance
}

// StatusLog records one status change. OldStatus is empty for created entities.
type StatusLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType EntityType `gorm:"type:varchar(32);not null" json:"entity_type"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null" json:"entity_id"`
	Action     string     `gorm:"type:varchar(64);not null" json:"action"`
	OldStatus  string     `gorm:"type:varchar(32)" json:"old_status"`
	NewStatus  string     `gorm:"type:varchar(32);not null" json:"new_status"`
	ChangedBy  *uuid.UUID `gorm:"type:uuid" json:"changed_by"`
	ActorRole  UserRole   `gorm:"type:varchar(32);not null" json:"actor_role"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (StatusLog) TableName() string {
	return "fleet_status_log"
}

func (l *StatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
