// Package scheduler holds the maintenance task generation and assignment engine.
// Everything here is pure: inputs are never mutated, nothing is persisted and the
// reference time, id source and randomness are supplied by the caller.
package scheduler

import (
	"math/rand"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

const (
	// Normal generation only looks this far ahead of the reference time.
	generationHorizonDays = 30
	// An existing task scheduled closer than this to the due date counts as a duplicate.
	duplicateWindow = 7 * 24 * time.Hour
	// Forced tasks are spread over the next two weeks.
	forcedSpreadDays = 14
)

type taskTemplate struct {
	Title       string
	Description string
	Duration    float64 // hours
}

var intervalTemplates = map[models.ServiceInterval]taskTemplate{
	models.IntervalWeekly: {
		Title:       "Weekly Safety Inspection",
		Description: "Basic safety check including lights, brakes, and fluid levels",
		Duration:    1,
	},
	models.IntervalBiWeekly: {
		Title:       "Bi-weekly Maintenance Check",
		Description: "Comprehensive inspection of key systems and components",
		Duration:    2,
	},
	models.IntervalMonthly: {
		Title:       "Monthly Service & Maintenance",
		Description: "Full service including oil change, filter replacement, and system diagnostics",
		Duration:    4,
	},
}

var forcedTemplates = []taskTemplate{
	{
		Title:       "Preventive Maintenance Check",
		Description: "General preventive inspection of engine, drivetrain, and fluid levels",
		Duration:    3,
	},
	{
		Title:       "System Diagnostics",
		Description: "Run electronic diagnostics on engine, electrical, and braking systems",
		Duration:    2,
	},
	{
		Title:       "Safety Compliance Inspection",
		Description: "Verify lights, tires, brakes, and safety equipment meet compliance standards",
		Duration:    1,
	},
}

// Generator decides which vehicles need new maintenance tasks. Nil fields
// fall back to the NewGenerator defaults, so the zero value is usable.
type Generator struct {
	NewID IDFunc
	Rand  *rand.Rand
}

// NewGenerator returns a Generator using NewTaskID and a time-seeded random source.
func NewGenerator() *Generator {
	return &Generator{
		NewID: NewTaskID,
		Rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *Generator) withDefaults() *Generator {
	filled := *g
	if filled.NewID == nil {
		filled.NewID = NewTaskID
	}
	if filled.Rand == nil {
		filled.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &filled
}

// GenerateMaintenanceTasks runs a fresh Generator against the wall clock.
func GenerateMaintenanceTasks(vehicles []models.Vehicle, existingTasks []models.MaintenanceTask, forceGenerate bool) []models.MaintenanceTask {
	return NewGenerator().Generate(vehicles, existingTasks, time.Now(), forceGenerate)
}

// Generate returns the tasks needed for vehicles relative to now.
//
// In normal mode a vehicle gets a task when its next due date falls within
// [now, now+30d] and no existing task for it is scheduled within 7 days of that
// date. In force mode every vehicle without a Pending or Assigned task gets a
// randomly templated task somewhere in the next 14 days.
func (g *Generator) Generate(vehicles []models.Vehicle, existingTasks []models.MaintenanceTask, now time.Time, force bool) []models.MaintenanceTask {
	g = g.withDefaults()
	newTasks := []models.MaintenanceTask{}
	horizon := now.AddDate(0, 0, generationHorizonDays)

	for i := range vehicles {
		vehicle := &vehicles[i]

		if force {
			if hasOpenTask(vehicle.ID, existingTasks) {
				continue
			}
			tmpl := forcedTemplates[g.Rand.Intn(len(forcedTemplates))]
			scheduled := now.AddDate(0, 0, g.Rand.Intn(forcedSpreadDays))
			newTasks = append(newTasks, g.newTask(vehicle, tmpl, scheduled, now))
			continue
		}

		due := vehicle.NextDueDate()
		if due.Before(now) || due.After(horizon) {
			continue
		}
		if hasTaskNear(vehicle.ID, due, existingTasks) {
			continue
		}
		tmpl, ok := intervalTemplates[vehicle.ServiceInterval]
		if !ok {
			continue
		}
		newTasks = append(newTasks, g.newTask(vehicle, tmpl, due, now))
	}

	return newTasks
}

func (g *Generator) newTask(vehicle *models.Vehicle, tmpl taskTemplate, scheduled, now time.Time) models.MaintenanceTask {
	return models.MaintenanceTask{
		ID:                g.NewID(now),
		VehicleID:         vehicle.ID,
		Title:             tmpl.Title,
		Description:       tmpl.Description,
		Priority:          models.PriorityForMileage(vehicle.Mileage),
		Status:            models.StatusPending,
		ScheduledDate:     calendarDate(scheduled),
		EstimatedDuration: tmpl.Duration,
		BeforePhotos:      []string{},
		AfterPhotos:       []string{},
		PartsUsed:         []models.PartUsed{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// hasTaskNear reports whether any task for the vehicle, in any status, is
// scheduled strictly less than duplicateWindow away from due.
func hasTaskNear(vehicleID string, due time.Time, tasks []models.MaintenanceTask) bool {
	for i := range tasks {
		if tasks[i].VehicleID != vehicleID {
			continue
		}
		diff := tasks[i].ScheduledDate.Sub(due)
		if diff < 0 {
			diff = -diff
		}
		if diff < duplicateWindow {
			return true
		}
	}
	return false
}

func hasOpenTask(vehicleID string, tasks []models.MaintenanceTask) bool {
	for i := range tasks {
		if tasks[i].VehicleID != vehicleID {
			continue
		}
		if tasks[i].Status == models.StatusPending || tasks[i].Status == models.StatusAssigned {
			return true
		}
	}
	return false
}

// calendarDate drops the time of day, keeping the UTC date.
func calendarDate(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
