package db

import (
	"context"
	"errors"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ErrNotFound is returned when a lookup by id matches no document.
var ErrNotFound = errors.New("document not found")

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
}

// TechnicianCollection defines the interface for technician data operations.
type TechnicianCollection interface {
	InsertTechnician(ctx context.Context, technician models.Technician) error
	FindTechnicians(ctx context.Context) ([]models.Technician, error)
	FindTechnicianByID(ctx context.Context, id string) (*models.Technician, error)
	// SetActiveTaskCounts refreshes the cached counter on every technician;
	// technicians missing from counts are reset to zero.
	SetActiveTaskCounts(ctx context.Context, counts map[string]int) error
}

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	VehicleID    string
	TechnicianID string
	Status       models.TaskStatus
}

// TaskCollection defines the interface for maintenance task data operations.
type TaskCollection interface {
	InsertTasks(ctx context.Context, tasks []models.MaintenanceTask) error
	FindTasks(ctx context.Context, filter TaskFilter) ([]models.MaintenanceTask, error)
	FindTaskByID(ctx context.Context, id string) (*models.MaintenanceTask, error)
	UpdateTask(ctx context.Context, task models.MaintenanceTask) error
	// UpdateAssignments writes only technician_id and status for each task.
	UpdateAssignments(ctx context.Context, tasks []models.MaintenanceTask) error
	// ActiveTaskCounts counts Assigned and In Progress tasks per technician.
	ActiveTaskCounts(ctx context.Context) (map[string]int, error)
}
