// Package dashboard derives the fleet overview shown to admins and technicians.
package dashboard

import (
	"slices"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/scheduler"
)

const (
	upcomingWindow    = 7 * 24 * time.Hour
	recentCompletions = 6
)

// TechnicianLoad is a technician with its live workload.
type TechnicianLoad struct {
	models.Technician
	CurrentTasks       int     `json:"current_tasks"`
	WorkloadPercentage float64 `json:"workload_percentage"`
}

// Summary is the dashboard view over a snapshot of tasks, technicians and vehicles.
type Summary struct {
	TotalTasks      int `json:"total_tasks"`
	OverdueTasks    int `json:"overdue_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	PendingTasks    int `json:"pending_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	// AverageCompletionDays is measured from creation to completion; zero with no completions.
	AverageCompletionDays float64                  `json:"average_completion_days"`
	TechnicianWorkload    []TechnicianLoad         `json:"technician_workload"`
	VehiclesByDepot       map[models.Depot]int     `json:"vehicles_by_depot"`
	UpcomingTasks         []models.MaintenanceTask `json:"upcoming_tasks"`
	RecentCompletions     []models.MaintenanceTask `json:"recent_completions"`
	Overdue               []models.MaintenanceTask `json:"overdue"`
}

// Compute builds the summary as of now. Inputs are not modified.
func Compute(tasks []models.MaintenanceTask, technicians []models.Technician, vehicles []models.Vehicle, now time.Time) Summary {
	summary := Summary{
		TotalTasks:         len(tasks),
		TechnicianWorkload: make([]TechnicianLoad, 0, len(technicians)),
		VehiclesByDepot:    make(map[models.Depot]int),
		UpcomingTasks:      []models.MaintenanceTask{},
		RecentCompletions:  []models.MaintenanceTask{},
		Overdue:            []models.MaintenanceTask{},
	}

	var completionDays float64
	var completionSamples int
	horizon := now.Add(upcomingWindow)

	for _, task := range tasks {
		switch task.Status {
		case models.StatusCompleted:
			summary.CompletedTasks++
			if task.CompletedDate != nil {
				summary.RecentCompletions = append(summary.RecentCompletions, task)
				if !task.CreatedAt.IsZero() {
					completionDays += task.CompletedDate.Sub(task.CreatedAt).Hours() / 24
					completionSamples++
				}
			}
		case models.StatusPending:
			summary.PendingTasks++
		case models.StatusInProgress:
			summary.InProgressTasks++
		}

		if task.IsOverdue(now) {
			summary.OverdueTasks++
			summary.Overdue = append(summary.Overdue, task)
		}
		if task.Status != models.StatusCompleted && !task.ScheduledDate.Before(now) && !task.ScheduledDate.After(horizon) {
			summary.UpcomingTasks = append(summary.UpcomingTasks, task)
		}
	}

	if completionSamples > 0 {
		summary.AverageCompletionDays = completionDays / float64(completionSamples)
	}

	slices.SortStableFunc(summary.UpcomingTasks, func(a, b models.MaintenanceTask) int {
		return a.ScheduledDate.Compare(b.ScheduledDate)
	})
	slices.SortStableFunc(summary.RecentCompletions, func(a, b models.MaintenanceTask) int {
		return b.CompletedDate.Compare(*a.CompletedDate)
	})
	if len(summary.RecentCompletions) > recentCompletions {
		summary.RecentCompletions = summary.RecentCompletions[:recentCompletions]
	}

	workload := scheduler.Workload(tasks, technicians)
	for _, tech := range technicians {
		load := TechnicianLoad{Technician: tech, CurrentTasks: workload[tech.ID]}
		if tech.MaxTasks > 0 {
			load.WorkloadPercentage = float64(load.CurrentTasks) / float64(tech.MaxTasks) * 100
		}
		summary.TechnicianWorkload = append(summary.TechnicianWorkload, load)
	}

	for _, vehicle := range vehicles {
		summary.VehiclesByDepot[vehicle.LocationBase]++
	}

	return summary
}

// ForTechnician narrows tasks to those assigned to one technician, as shown on the technician view.
func ForTechnician(tasks []models.MaintenanceTask, technicianID string) []models.MaintenanceTask {
	mine := []models.MaintenanceTask{}
	for _, task := range tasks {
		if task.TechnicianID == technicianID {
			mine = append(mine, task)
		}
	}
	return mine
}
