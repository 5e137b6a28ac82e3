package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FieldViolation describes one invalid field of an entity.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v FieldViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type violations []FieldViolation

func (vs *violations) add(field, msg string) {
	*vs = append(*vs, FieldViolation{Field: field, Message: msg})
}

func ValidateVehicle(v Vehicle) []FieldViolation {
	var vs violations
	if v.ID == uuid.Nil {
		vs.add("id", "is required")
	}
	if strings.TrimSpace(v.VehicleNumber) == "" {
		vs.add("vehicle_number", "is required")
	}
	if strings.TrimSpace(v.Model) == "" {
		vs.add("model", "is required")
	}
	if strings.TrimSpace(v.Manufacturer) == "" {
		vs.add("manufacturer", "is required")
	}
	if !v.BodyType.Valid() {
		vs.add("body_type", fmt.Sprintf("unknown body type %q", v.BodyType))
	}
	if v.Capacity < 1 {
		vs.add("capacity", "must be at least 1")
	}
	if v.EnergyLevel < 0 || v.EnergyLevel > 100 {
		vs.add("energy_level", "must be between 0 and 100")
	}
	if v.HealthScore < 0 || v.HealthScore > 100 {
		vs.add("health_score", "must be between 0 and 100")
	}
	if v.Location.Latitude < -90 || v.Location.Latitude > 90 {
		vs.add("location.latitude", "must be between -90 and 90")
	}
	if v.Location.Longitude < -180 || v.Location.Longitude > 180 {
		vs.add("location.longitude", "must be between -180 and 180")
	}
	if !v.Status.Valid() {
		vs.add("status", fmt.Sprintf("unknown status %q", v.Status))
	}
	return vs
}

func ValidateBooking(b Booking) []FieldViolation {
	var vs violations
	if b.ID == uuid.Nil {
		vs.add("id", "is required")
	}
	if b.VehicleID == uuid.Nil {
		vs.add("vehicle_id", "is required")
	}
	if b.CustomerID == uuid.Nil {
		vs.add("customer_id", "is required")
	}
	if b.StartTime.IsZero() {
		vs.add("start_time", "is required")
	}
	if b.EndTime.IsZero() {
		vs.add("end_time", "is required")
	}
	if !b.StartTime.IsZero() && !b.EndTime.IsZero() && b.EndTime.Before(b.StartTime) {
		vs.add("end_time", "must not be before start_time")
	}
	if b.TotalPrice < 0 {
		vs.add("total_price", "must not be negative")
	}
	if !b.Status.Valid() {
		vs.add("status", fmt.Sprintf("unknown status %q", b.Status))
	}
	return vs
}

func ValidateTicket(t MaintenanceTicket) []FieldViolation {
	var vs violations
	if t.ID == uuid.Nil {
		vs.add("id", "is required")
	}
	if t.VehicleID == uuid.Nil {
		vs.add("vehicle_id", "is required")
	}
	if strings.TrimSpace(t.IssueType) == "" {
		vs.add("issue_type", "is required")
	}
	if !t.Priority.Valid() {
		vs.add("priority", fmt.Sprintf("unknown priority %q", t.Priority))
	}
	if !t.Status.Valid() {
		vs.add("status", fmt.Sprintf("unknown status %q", t.Status))
	}
	return vs
}
