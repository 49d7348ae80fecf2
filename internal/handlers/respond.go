package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/dashboard"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/service"
	"github.com/ukydev/fleet-maintenance/internal/validation"
)

// MaintenanceService is the behaviour the fleet handlers need from the service layer.
type MaintenanceService interface {
	PreviewGeneration(ctx context.Context, force bool) ([]models.MaintenanceTask, error)
	CreateTasks(ctx context.Context, tasks []models.MaintenanceTask) ([]models.MaintenanceTask, error)
	AutoAssign(ctx context.Context) (service.AssignmentSummary, error)
	AssignTask(ctx context.Context, taskID, technicianID string) (*models.MaintenanceTask, error)
	StartTask(ctx context.Context, taskID, technicianID string) (*models.MaintenanceTask, error)
	CompleteTask(ctx context.Context, taskID, technicianID string, report models.CompletionReport) (*models.MaintenanceTask, error)
	ListTasks(ctx context.Context, filter db.TaskFilter) ([]models.MaintenanceTask, error)
	CreateVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) (*models.Vehicle, error)
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	CreateTechnician(ctx context.Context, technician models.Technician) (*models.Technician, error)
	ListTechnicians(ctx context.Context) ([]models.Technician, error)
	Dashboard(ctx context.Context, technicianID string) (dashboard.Summary, error)
}

// decodeJSON reads the whole body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

// writeServiceError maps service and domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *validation.ValidationError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrSignatureRequired), errors.Is(err, models.ErrTechnicianMissing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrVehicleNotFound),
		errors.Is(err, service.ErrTechnicianNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotTaskOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, service.ErrTechnicianAtCapacity),
		errors.Is(err, service.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// technicianScope returns the technician id a request is restricted to, or ""
// for admins. Technician logins without a linked technician record are refused.
func technicianScope(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return "", false
	}
	if claims.Role == models.RoleAdmin {
		return "", true
	}
	if claims.TechnicianID == "" {
		http.Error(w, "No technician profile linked to this account", http.StatusForbidden)
		return "", false
	}
	return claims.TechnicianID, true
}
