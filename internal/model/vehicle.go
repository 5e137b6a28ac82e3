package model

import (
	"time"

	"github.com/google/uuid"
)

type VehicleStatus string

const (
	VehicleStatusAvailable    VehicleStatus = "AVAILABLE"
	VehicleStatusInUse        VehicleStatus = "IN_USE"
	VehicleStatusMaintenance  VehicleStatus = "MAINTENANCE"
	VehicleStatusOutOfService VehicleStatus = "OUT_OF_SERVICE"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusInUse, VehicleStatusMaintenance, VehicleStatusOutOfService:
		return true
	}
	return false
}

type BodyType string

const (
	BodyTypeSedan BodyType = "SEDAN"
	BodyTypeSUV   BodyType = "SUV"
	BodyTypeVan   BodyType = "VAN"
	BodyTypeTruck BodyType = "TRUCK"
	BodyTypeBus   BodyType = "BUS"
	BodyTypeBike  BodyType = "BIKE"
)

func (t BodyType) Valid() bool {
	switch t {
	case BodyTypeSedan, BodyTypeSUV, BodyTypeVan, BodyTypeTruck, BodyTypeBus, BodyTypeBike:
		return true
	}
	return false
}

type Location struct {
	Latitude  float64 `gorm:"column:latitude" json:"latitude"`
	Longitude float64 `gorm:"column:longitude" json:"longitude"`
}

// Vehicle is a fleet unit. EnergyLevel is battery charge for electric vehicles
// and fuel level otherwise, both as a 0..100 percentage.
type Vehicle struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleNumber string        `gorm:"type:varchar(32);not null;uniqueIndex" json:"vehicle_number"`
	Model         string        `gorm:"type:varchar(64);not null" json:"model"`
	Manufacturer  string        `gorm:"type:varchar(64);not null" json:"manufacturer"`
	BodyType      BodyType      `gorm:"type:vehicle_body_type;not null" json:"body_type"`
	Capacity      int           `gorm:"not null" json:"capacity"`
	IsElectric    bool          `gorm:"not null;default:false" json:"is_electric"`
	EnergyLevel   int           `gorm:"not null" json:"energy_level"`
	Location      Location      `gorm:"embedded" json:"location"`
	HealthScore   int           `gorm:"not null;default:100" json:"health_score"`
	Status        VehicleStatus `gorm:"type:vehicle_status;not null;default:'AVAILABLE'" json:"status"`
	Version       int64         `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

func (v Vehicle) Retired() bool {
	return v.Status == VehicleStatusOutOfService
}
