package model

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

func (s TicketStatus) Open() bool {
	return s == TicketStatusPending || s == TicketStatusInProgress
}

type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

func (p TicketPriority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities, CRITICAL highest. Unknown priorities rank 0.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityCritical:
		return 4
	case TicketPriorityHigh:
		return 3
	case TicketPriorityMedium:
		return 2
	case TicketPriorityLow:
		return 1
	}
	return 0
}

type MaintenanceTicket struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	IssueType   string         `gorm:"type:varchar(64);not null" json:"issue_type"`
	Description string         `gorm:"type:text" json:"description"`
	Priority    TicketPriority `gorm:"type:ticket_priority;not null;default:'MEDIUM'" json:"priority"`
	Predictive  bool           `gorm:"not null;default:false" json:"predictive"`
	Status      TicketStatus   `gorm:"type:ticket_status;not null;default:'PENDING'" json:"status"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	Version     int64          `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (MaintenanceTicket) TableName() string {
	return "maintenance_tickets"
}
