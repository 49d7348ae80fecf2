package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// TaskHandler serves maintenance task generation, assignment and the technician workflow.
type TaskHandler struct {
	service MaintenanceService
}

func NewTaskHandler(service MaintenanceService) *TaskHandler {
	return &TaskHandler{service: service}
}

type generateRequest struct {
	Force bool `json:"force"`
}

type createTasksRequest struct {
	Tasks []models.MaintenanceTask `json:"tasks"`
}

type assignRequest struct {
	TechnicianID string `json:"technician_id"`
}

// ListTasks handles GET /api/tasks with optional vehicle_id, technician_id and status filters.
// Technicians are always restricted to their own tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	scope, ok := technicianScope(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := db.TaskFilter{
		VehicleID:    query.Get("vehicle_id"),
		TechnicianID: query.Get("technician_id"),
		Status:       models.TaskStatus(query.Get("status")),
	}
	if scope != "" {
		filter.TechnicianID = scope
	}

	tasks, err := h.service.ListTasks(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Generate handles POST /api/tasks/generate and returns an unsaved preview.
func (h *TaskHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	tasks, err := h.service.PreviewGeneration(r.Context(), req.Force)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTasks handles POST /api/tasks, persisting an accepted preview.
func (h *TaskHandler) CreateTasks(w http.ResponseWriter, r *http.Request) {
	var req createTasksRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.Tasks) == 0 {
		http.Error(w, "At least one task is required", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateTasks(r.Context(), req.Tasks)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// AutoAssign handles POST /api/tasks/assign
func (h *TaskHandler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.AutoAssign(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// AssignTask handles POST /api/tasks/{id}/assign
func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.TechnicianID == "" {
		http.Error(w, "technician_id is required", http.StatusBadRequest)
		return
	}
	task, err := h.service.AssignTask(r.Context(), r.PathValue("id"), req.TechnicianID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// StartTask handles POST /api/tasks/{id}/start
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := technicianScope(w, r)
	if !ok {
		return
	}
	task, err := h.service.StartTask(r.Context(), r.PathValue("id"), scope)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CompleteTask handles POST /api/tasks/{id}/complete with the completion report as body.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	scope, ok := technicianScope(w, r)
	if !ok {
		return
	}
	var report models.CompletionReport
	if err := decodeJSON(r, &report); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	task, err := h.service.CompleteTask(r.Context(), r.PathValue("id"), scope, report)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
