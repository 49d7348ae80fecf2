package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTransition = errors.New("invalid task status transition")
	ErrSignatureRequired = errors.New("digital signature is required to complete a task")
	ErrTechnicianMissing = errors.New("technician id is required")
)

// Priority is the urgency of a maintenance task.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Rank orders priorities most urgent first. Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// IsValidPriority checks if a priority is known
func IsValidPriority(p Priority) bool {
	return p.Rank() < 4
}

// PriorityForMileage derives a task priority from the odometer reading.
// Critical is only ever set by hand.
func PriorityForMileage(mileage int) Priority {
	switch {
	case mileage > 50000:
		return PriorityHigh
	case mileage > 30000:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// TaskStatus is the lifecycle state of a maintenance task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusAssigned   TaskStatus = "Assigned"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
	// StatusOverdue is presentation only and is never stored by the scheduler.
	StatusOverdue TaskStatus = "Overdue"
)

// IsActive reports whether the status counts towards a technician's workload.
func (s TaskStatus) IsActive() bool {
	return s == StatusAssigned || s == StatusInProgress
}

// PartUsed is a part consumed while servicing a vehicle.
type PartUsed struct {
	PartName string   `bson:"part_name" json:"part_name" validate:"required"`
	Quantity int      `bson:"quantity" json:"quantity" validate:"gt=0"`
	Cost     *float64 `bson:"cost,omitempty" json:"cost,omitempty" validate:"omitempty,gte=0"`
}

// MaintenanceTask is a unit of service work on a single vehicle.
type MaintenanceTask struct {
	ID                string     `bson:"_id" json:"id"`
	VehicleID         string     `bson:"vehicle_id" json:"vehicle_id" validate:"required"`
	TechnicianID      string     `bson:"technician_id,omitempty" json:"technician_id,omitempty"`
	Title             string     `bson:"title" json:"title" validate:"required"`
	Description       string     `bson:"description" json:"description"`
	Priority          Priority   `bson:"priority" json:"priority" validate:"required,priority"`
	Status            TaskStatus `bson:"status" json:"status"`
	ScheduledDate     time.Time  `bson:"scheduled_date" json:"scheduled_date" validate:"required"`
	CompletedDate     *time.Time `bson:"completed_date,omitempty" json:"completed_date,omitempty"`
	EstimatedDuration float64    `bson:"estimated_duration" json:"estimated_duration" validate:"gte=0"` // in hours
	BeforePhotos      []string   `bson:"before_photos" json:"before_photos"`
	AfterPhotos       []string   `bson:"after_photos" json:"after_photos"`
	PartsUsed         []PartUsed `bson:"parts_used" json:"parts_used"`
	DigitalSignature  string     `bson:"digital_signature,omitempty" json:"digital_signature,omitempty"`
	Notes             string     `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updated_at"`
}

// CompletionReport is the evidence a technician submits when finishing a task.
type CompletionReport struct {
	BeforePhotos     []string   `json:"before_photos"`
	AfterPhotos      []string   `json:"after_photos"`
	PartsUsed        []PartUsed `json:"parts_used" validate:"dive"`
	Notes            string     `json:"notes"`
	DigitalSignature string     `json:"digital_signature"`
}

// IsOverdue reports whether the task is unfinished and past its scheduled date.
func (t *MaintenanceTask) IsOverdue(now time.Time) bool {
	return t.Status != StatusCompleted && t.ScheduledDate.Before(now)
}

// DisplayStatus returns the status shown to users, with Overdue derived from the schedule.
func (t *MaintenanceTask) DisplayStatus(now time.Time) TaskStatus {
	if t.IsOverdue(now) {
		return StatusOverdue
	}
	return t.Status
}

// AssignTo moves a pending task to the given technician.
func (t *MaintenanceTask) AssignTo(technicianID string) error {
	if technicianID == "" {
		return ErrTechnicianMissing
	}
	if t.Status != StatusPending {
		return fmt.Errorf("%w: cannot assign task in status %q", ErrInvalidTransition, t.Status)
	}
	t.TechnicianID = technicianID
	t.Status = StatusAssigned
	return nil
}

// Start marks an assigned task as in progress.
func (t *MaintenanceTask) Start() error {
	if t.Status != StatusAssigned {
		return fmt.Errorf("%w: cannot start task in status %q", ErrInvalidTransition, t.Status)
	}
	t.Status = StatusInProgress
	return nil
}

// Complete records the completion evidence and closes the task.
func (t *MaintenanceTask) Complete(report CompletionReport, now time.Time) error {
	if t.Status != StatusInProgress {
		return fmt.Errorf("%w: cannot complete task in status %q", ErrInvalidTransition, t.Status)
	}
	if strings.TrimSpace(report.DigitalSignature) == "" {
		return ErrSignatureRequired
	}

	completed := now.UTC().Truncate(24 * time.Hour)
	t.Status = StatusCompleted
	t.CompletedDate = &completed
	t.BeforePhotos = nonNil(report.BeforePhotos)
	t.AfterPhotos = nonNil(report.AfterPhotos)
	t.PartsUsed = report.PartsUsed
	if t.PartsUsed == nil {
		t.PartsUsed = []PartUsed{}
	}
	t.Notes = report.Notes
	t.DigitalSignature = report.DigitalSignature
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
