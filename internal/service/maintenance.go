// Package service loads fleet snapshots, runs the scheduling core over them and
// persists the outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/dashboard"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/events"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/scheduler"
	"github.com/ukydev/fleet-maintenance/internal/validation"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrVehicleNotFound      = errors.New("vehicle not found")
	ErrTechnicianNotFound   = errors.New("technician not found")
	ErrNotTaskOwner         = errors.New("task is not assigned to this technician")
	ErrTechnicianAtCapacity = errors.New("technician has no spare capacity")
	ErrAlreadyExists        = errors.New("record already exists")
)

// AssignmentSummary reports the outcome of an auto-assign run.
type AssignmentSummary struct {
	Assigned []models.MaintenanceTask `json:"assigned"`
	// StillPending counts Pending tasks nobody could take.
	StillPending int `json:"still_pending"`
}

// Option customises a MaintenanceService.
type Option func(*MaintenanceService)

// WithClock overrides the reference time source.
func WithClock(now func() time.Time) Option {
	return func(s *MaintenanceService) { s.now = now }
}

// WithGenerator overrides the task generator.
func WithGenerator(g *scheduler.Generator) Option {
	return func(s *MaintenanceService) { s.generator = g }
}

// MaintenanceService coordinates vehicles, technicians and maintenance tasks.
type MaintenanceService struct {
	vehicles    db.VehicleCollection
	technicians db.TechnicianCollection
	tasks       db.TaskCollection
	publisher   events.Publisher
	generator   *scheduler.Generator
	now         func() time.Time

	// mu serialises runs that read a snapshot and write decisions back.
	mu sync.Mutex
}

// New creates a MaintenanceService. A nil publisher disables events.
func New(vehicles db.VehicleCollection, technicians db.TechnicianCollection, tasks db.TaskCollection, publisher events.Publisher, opts ...Option) *MaintenanceService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	s := &MaintenanceService{
		vehicles:    vehicles,
		technicians: technicians,
		tasks:       tasks,
		publisher:   publisher,
		generator:   scheduler.NewGenerator(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PreviewGeneration runs the generator against the current fleet. Nothing is persisted.
func (s *MaintenanceService) PreviewGeneration(ctx context.Context, force bool) ([]models.MaintenanceTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicles, err := s.vehicles.FindVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	existing, err := s.tasks.FindTasks(ctx, db.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	generated := s.generator.Generate(vehicles, existing, s.now(), force)
	metrics.RecordGenerationRun(force)
	log.WithFields(log.Fields{
		"force":     force,
		"vehicles":  len(vehicles),
		"existing":  len(existing),
		"generated": len(generated),
	}).Info("Generated maintenance task preview")
	return generated, nil
}

// CreateTasks persists accepted tasks as Pending and announces them.
func (s *MaintenanceService) CreateTasks(ctx context.Context, tasks []models.MaintenanceTask) ([]models.MaintenanceTask, error) {
	if len(tasks) == 0 {
		return []models.MaintenanceTask{}, nil
	}

	vehicles, err := s.vehicles.FindVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	known := make(map[string]bool, len(vehicles))
	for _, v := range vehicles {
		known[v.ID] = true
	}

	now := s.now()
	accepted := make([]models.MaintenanceTask, 0, len(tasks))
	for _, task := range tasks {
		if err := validation.ValidateStruct(task); err != nil {
			return nil, err
		}
		if !known[task.VehicleID] {
			return nil, fmt.Errorf("%w: %s", ErrVehicleNotFound, task.VehicleID)
		}
		if task.ID == "" {
			task.ID = scheduler.NewTaskID(now)
		}
		task.Status = models.StatusPending
		task.TechnicianID = ""
		task.CompletedDate = nil
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		if task.BeforePhotos == nil {
			task.BeforePhotos = []string{}
		}
		if task.AfterPhotos == nil {
			task.AfterPhotos = []string{}
		}
		if task.PartsUsed == nil {
			task.PartsUsed = []models.PartUsed{}
		}
		accepted = append(accepted, task)
	}

	if err := s.tasks.InsertTasks(ctx, accepted); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		}
		return nil, fmt.Errorf("insert tasks: %w", err)
	}

	metrics.RecordGenerated(accepted)
	for _, task := range accepted {
		s.publish(ctx, events.EventGenerated, task)
	}
	log.WithField("count", len(accepted)).Info("Created maintenance tasks")
	return accepted, nil
}

// AutoAssign hands every Pending task to the best available technician and
// persists only the tasks that changed.
func (s *MaintenanceService) AutoAssign(ctx context.Context) (AssignmentSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return AssignmentSummary{}, err
	}
	tasks, technicians := snap.tasks, snap.technicians

	result := scheduler.AssignTasksToTechnicians(tasks, technicians, snap.vehicles)

	summary := AssignmentSummary{Assigned: []models.MaintenanceTask{}}
	for i := range result {
		if tasks[i].Status == models.StatusPending && result[i].Status == models.StatusAssigned {
			summary.Assigned = append(summary.Assigned, result[i])
		} else if result[i].Status == models.StatusPending {
			summary.StillPending++
		}
	}

	if len(summary.Assigned) > 0 {
		if err := s.tasks.UpdateAssignments(ctx, summary.Assigned); err != nil {
			return AssignmentSummary{}, err
		}
	}
	if err := s.technicians.SetActiveTaskCounts(ctx, scheduler.Workload(result, technicians)); err != nil {
		// The counter is a display cache; the assignment itself already landed.
		log.WithError(err).Warn("Failed to refresh technician task counts")
	}

	metrics.RecordAssigned(metrics.ModeAuto, len(summary.Assigned))
	metrics.SetUnassigned(summary.StillPending)
	for _, task := range summary.Assigned {
		s.publish(ctx, events.EventAssigned, task)
	}
	log.WithFields(log.Fields{
		"assigned":      len(summary.Assigned),
		"still_pending": summary.StillPending,
	}).Info("Auto-assigned maintenance tasks")
	return summary, nil
}

// AssignTask manually assigns a Pending task, respecting the technician's capacity.
func (s *MaintenanceService) AssignTask(ctx context.Context, taskID, technicianID string) (*models.MaintenanceTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	technician, err := s.technicians.FindTechnicianByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTechnicianNotFound, technicianID)
		}
		return nil, err
	}

	active, err := s.tasks.FindTasks(ctx, db.TaskFilter{TechnicianID: technicianID})
	if err != nil {
		return nil, fmt.Errorf("load technician tasks: %w", err)
	}
	workload := scheduler.Workload(active, []models.Technician{*technician})
	if workload[technicianID] >= technician.MaxTasks {
		return nil, fmt.Errorf("%w: %s has %d of %d", ErrTechnicianAtCapacity, technicianID, workload[technicianID], technician.MaxTasks)
	}

	if err := task.AssignTo(technicianID); err != nil {
		return nil, err
	}
	if err := s.tasks.UpdateTask(ctx, *task); err != nil {
		return nil, err
	}
	s.refreshTaskCounts(ctx)

	metrics.RecordAssigned(metrics.ModeManual, 1)
	s.publish(ctx, events.EventAssigned, *task)
	log.WithFields(log.Fields{"task_id": task.ID, "technician_id": technicianID}).Info("Assigned maintenance task")
	return task, nil
}

// StartTask moves an Assigned task to In Progress. An empty technicianID skips the ownership check.
func (s *MaintenanceService) StartTask(ctx context.Context, taskID, technicianID string) (*models.MaintenanceTask, error) {
	task, err := s.findOwnedTask(ctx, taskID, technicianID)
	if err != nil {
		return nil, err
	}
	if err := task.Start(); err != nil {
		return nil, err
	}
	if err := s.tasks.UpdateTask(ctx, *task); err != nil {
		return nil, err
	}

	metrics.RecordStarted()
	s.publish(ctx, events.EventStarted, *task)
	log.WithFields(log.Fields{"task_id": task.ID, "technician_id": task.TechnicianID}).Info("Started maintenance task")
	return task, nil
}

// CompleteTask closes an In Progress task with the technician's evidence and signature.
func (s *MaintenanceService) CompleteTask(ctx context.Context, taskID, technicianID string, report models.CompletionReport) (*models.MaintenanceTask, error) {
	if err := validation.ValidateStruct(report); err != nil {
		return nil, err
	}
	task, err := s.findOwnedTask(ctx, taskID, technicianID)
	if err != nil {
		return nil, err
	}
	if err := task.Complete(report, s.now()); err != nil {
		return nil, err
	}
	if err := s.tasks.UpdateTask(ctx, *task); err != nil {
		return nil, err
	}
	s.refreshTaskCounts(ctx)

	metrics.RecordCompleted()
	s.publish(ctx, events.EventCompleted, *task)
	log.WithFields(log.Fields{
		"task_id":       task.ID,
		"technician_id": task.TechnicianID,
		"parts_used":    len(task.PartsUsed),
	}).Info("Completed maintenance task")
	return task, nil
}

// ListTasks returns tasks matching filter.
func (s *MaintenanceService) ListTasks(ctx context.Context, filter db.TaskFilter) ([]models.MaintenanceTask, error) {
	return s.tasks.FindTasks(ctx, filter)
}

// CreateVehicle validates and stores a vehicle.
func (s *MaintenanceService) CreateVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error) {
	if err := validation.ValidateStruct(vehicle); err != nil {
		return nil, err
	}
	if err := s.vehicles.InsertVehicle(ctx, vehicle); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: vehicle %s", ErrAlreadyExists, vehicle.ID)
		}
		return nil, err
	}
	log.WithFields(log.Fields{"vehicle_id": vehicle.ID, "depot": vehicle.LocationBase}).Info("Created vehicle")
	return &vehicle, nil
}

// UpdateVehicle replaces a vehicle's record, typically after a service or mileage reading.
func (s *MaintenanceService) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) (*models.Vehicle, error) {
	vehicle.ID = id
	if err := validation.ValidateStruct(vehicle); err != nil {
		return nil, err
	}
	existing, err := s.vehicles.FindVehicleByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
		}
		return nil, err
	}
	vehicle.CreatedAt = existing.CreatedAt
	if err := s.vehicles.UpdateVehicle(ctx, id, vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (s *MaintenanceService) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return s.vehicles.FindVehicles(ctx)
}

// CreateTechnician validates and stores a technician with an empty workload.
func (s *MaintenanceService) CreateTechnician(ctx context.Context, technician models.Technician) (*models.Technician, error) {
	if err := validation.ValidateStruct(technician); err != nil {
		return nil, err
	}
	technician.ActiveTaskCount = 0
	if err := s.technicians.InsertTechnician(ctx, technician); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: technician %s", ErrAlreadyExists, technician.ID)
		}
		return nil, err
	}
	log.WithField("technician_id", technician.ID).Info("Created technician")
	return &technician, nil
}

// ListTechnicians returns technicians with ActiveTaskCount derived from the live task list.
func (s *MaintenanceService) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	technicians, err := s.technicians.FindTechnicians(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.tasks.ActiveTaskCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active tasks: %w", err)
	}
	for i := range technicians {
		technicians[i].ActiveTaskCount = counts[technicians[i].ID]
	}
	return technicians, nil
}

// Dashboard computes the overview. A non-empty technicianID narrows it to that technician's tasks.
func (s *MaintenanceService) Dashboard(ctx context.Context, technicianID string) (dashboard.Summary, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return dashboard.Summary{}, err
	}
	vehicles, technicians, tasks := snap.vehicles, snap.technicians, snap.tasks

	if technicianID != "" {
		tasks = dashboard.ForTechnician(tasks, technicianID)
		mine := []models.Technician{}
		for _, tech := range technicians {
			if tech.ID == technicianID {
				mine = append(mine, tech)
			}
		}
		technicians = mine
	}
	return dashboard.Compute(tasks, technicians, vehicles, s.now()), nil
}

type snapshot struct {
	vehicles    []models.Vehicle
	technicians []models.Technician
	tasks       []models.MaintenanceTask
}

// loadSnapshot reads vehicles, technicians and tasks concurrently.
func (s *MaintenanceService) loadSnapshot(ctx context.Context) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vehicles, err := s.vehicles.FindVehicles(gctx)
		if err != nil {
			return fmt.Errorf("load vehicles: %w", err)
		}
		snap.vehicles = vehicles
		return nil
	})
	g.Go(func() error {
		technicians, err := s.technicians.FindTechnicians(gctx)
		if err != nil {
			return fmt.Errorf("load technicians: %w", err)
		}
		snap.technicians = technicians
		return nil
	})
	g.Go(func() error {
		tasks, err := s.tasks.FindTasks(gctx, db.TaskFilter{})
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		snap.tasks = tasks
		return nil
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func (s *MaintenanceService) findTask(ctx context.Context, taskID string) (*models.MaintenanceTask, error) {
	task, err := s.tasks.FindTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return nil, err
	}
	return task, nil
}

func (s *MaintenanceService) findOwnedTask(ctx context.Context, taskID, technicianID string) (*models.MaintenanceTask, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if technicianID != "" && task.TechnicianID != technicianID {
		return nil, fmt.Errorf("%w: %s", ErrNotTaskOwner, taskID)
	}
	return task, nil
}

// refreshTaskCounts rewrites the technician display counters from the task list.
func (s *MaintenanceService) refreshTaskCounts(ctx context.Context) {
	counts, err := s.tasks.ActiveTaskCounts(ctx)
	if err == nil {
		err = s.technicians.SetActiveTaskCounts(ctx, counts)
	}
	if err != nil {
		log.WithError(err).Warn("Failed to refresh technician task counts")
	}
}

func (s *MaintenanceService) publish(ctx context.Context, eventType events.EventType, task models.MaintenanceTask) {
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, task, s.now())); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":   eventType,
			"task_id": task.ID,
		}).Warn("Failed to publish task event")
	}
}
