package handlers

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/fleet-maintenance/internal/dashboard"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/service"
)

// MockMaintenanceService is a mock implementation of MaintenanceService
type MockMaintenanceService struct {
	mock.Mock
}

func (m *MockMaintenanceService) PreviewGeneration(ctx context.Context, force bool) ([]models.MaintenanceTask, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceService) CreateTasks(ctx context.Context, tasks []models.MaintenanceTask) ([]models.MaintenanceTask, error) {
	args := m.Called(ctx, tasks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceService) AutoAssign(ctx context.Context) (service.AssignmentSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.AssignmentSummary), args.Error(1)
}

func (m *MockMaintenanceService) AssignTask(ctx context.Context, taskID, technicianID string) (*models.MaintenanceTask, error) {
	args := m.Called(ctx, taskID, technicianID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceService) StartTask(ctx context.Context, taskID, technicianID string) (*models.MaintenanceTask, error) {
	args := m.Called(ctx, taskID, technicianID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceService) CompleteTask(ctx context.Context, taskID, technicianID string, report models.CompletionReport) (*models.MaintenanceTask, error) {
	args := m.Called(ctx, taskID, technicianID, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceService) ListTasks(ctx context.Context, filter db.TaskFilter) ([]models.MaintenanceTask, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceTask), args.Error(1)
}

func (m *MockMaintenanceService) CreateVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error) {
	args := m.Called(ctx, vehicle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockMaintenanceService) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) (*models.Vehicle, error) {
	args := m.Called(ctx, id, vehicle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockMaintenanceService) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockMaintenanceService) CreateTechnician(ctx context.Context, technician models.Technician) (*models.Technician, error) {
	args := m.Called(ctx, technician)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Technician), args.Error(1)
}

func (m *MockMaintenanceService) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Technician), args.Error(1)
}

func (m *MockMaintenanceService) Dashboard(ctx context.Context, technicianID string) (dashboard.Summary, error) {
	args := m.Called(ctx, technicianID)
	return args.Get(0).(dashboard.Summary), args.Error(1)
}

var (
	adminClaims      = &models.Claims{UserID: "u-admin", Username: "admin", Role: models.RoleAdmin}
	technicianClaims = &models.Claims{UserID: "u-tech", Username: "jmartinez", Role: models.RoleTechnician, TechnicianID: "TECH-001"}
	unlinkedClaims   = &models.Claims{UserID: "u-new", Username: "newhire", Role: models.RoleTechnician}
)

func asUser(req *http.Request, claims *models.Claims) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), claims))
}
