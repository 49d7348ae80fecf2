package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// FleetHandler serves vehicles and technicians.
type FleetHandler struct {
	service MaintenanceService
}

func NewFleetHandler(service MaintenanceService) *FleetHandler {
	return &FleetHandler{service: service}
}

// ListVehicles handles GET /api/vehicles
func (h *FleetHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.service.ListVehicles(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// CreateVehicle handles POST /api/vehicles
func (h *FleetHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var vehicle models.Vehicle
	if err := decodeJSON(r, &vehicle); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateVehicle(r.Context(), vehicle)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateVehicle handles PUT /api/vehicles/{id}
func (h *FleetHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var vehicle models.Vehicle
	if err := decodeJSON(r, &vehicle); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	updated, err := h.service.UpdateVehicle(r.Context(), r.PathValue("id"), vehicle)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ListTechnicians handles GET /api/technicians
func (h *FleetHandler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	technicians, err := h.service.ListTechnicians(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, technicians)
}

// CreateTechnician handles POST /api/technicians
func (h *FleetHandler) CreateTechnician(w http.ResponseWriter, r *http.Request) {
	var technician models.Technician
	if err := decodeJSON(r, &technician); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateTechnician(r.Context(), technician)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Dashboard handles GET /api/dashboard. Technicians only see their own tasks.
func (h *FleetHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	technicianID, ok := technicianScope(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Dashboard(r.Context(), technicianID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
