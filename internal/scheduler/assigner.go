package scheduler

import (
	"cmp"
	"slices"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Workload counts each technician's Assigned and In Progress tasks.
// Every technician has an entry, zero when idle; tasks for unknown
// technicians are ignored.
func Workload(tasks []models.MaintenanceTask, technicians []models.Technician) map[string]int {
	workload := make(map[string]int, len(technicians))
	for i := range technicians {
		workload[technicians[i].ID] = 0
	}
	for i := range tasks {
		if !tasks[i].Status.IsActive() {
			continue
		}
		if _, ok := workload[tasks[i].TechnicianID]; ok {
			workload[tasks[i].TechnicianID]++
		}
	}
	return workload
}

// AssignTasksToTechnicians greedily hands Pending tasks to technicians.
//
// Tasks are visited most urgent first, then by earliest scheduled date. Each
// goes to the least loaded technician stationed at the vehicle's depot, or the
// least loaded technician anywhere when the depot is saturated. Capacity is
// tracked across the pass, so later tasks see earlier assignments. Tasks whose
// vehicle is unknown, or for which nobody has capacity, stay Pending.
//
// The returned slice is a copy; tasks is not modified.
func AssignTasksToTechnicians(tasks []models.MaintenanceTask, technicians []models.Technician, vehicles []models.Vehicle) []models.MaintenanceTask {
	assigned := slices.Clone(tasks)
	if assigned == nil {
		assigned = []models.MaintenanceTask{}
	}
	workload := Workload(tasks, technicians)

	vehicleByID := make(map[string]*models.Vehicle, len(vehicles))
	for i := range vehicles {
		vehicleByID[vehicles[i].ID] = &vehicles[i]
	}

	pending := make([]int, 0, len(assigned))
	for i := range assigned {
		if assigned[i].Status == models.StatusPending {
			pending = append(pending, i)
		}
	}
	slices.SortStableFunc(pending, func(a, b int) int {
		ta, tb := &assigned[a], &assigned[b]
		if c := cmp.Compare(ta.Priority.Rank(), tb.Priority.Rank()); c != 0 {
			return c
		}
		return ta.ScheduledDate.Compare(tb.ScheduledDate)
	})

	for _, idx := range pending {
		task := &assigned[idx]
		vehicle, ok := vehicleByID[task.VehicleID]
		if !ok {
			continue
		}

		tech := leastLoaded(technicians, workload, func(t *models.Technician) bool {
			return t.CoversDepot(vehicle.LocationBase)
		})
		if tech == nil {
			tech = leastLoaded(technicians, workload, nil)
		}
		if tech == nil {
			continue
		}

		task.TechnicianID = tech.ID
		task.Status = models.StatusAssigned
		workload[tech.ID]++
	}

	return assigned
}

// leastLoaded picks the technician with spare capacity and the lowest workload
// among those accepted by filter. The first one encountered wins a tie.
func leastLoaded(technicians []models.Technician, workload map[string]int, filter func(*models.Technician) bool) *models.Technician {
	var best *models.Technician
	for i := range technicians {
		tech := &technicians[i]
		if workload[tech.ID] >= tech.MaxTasks {
			continue
		}
		if filter != nil && !filter(tech) {
			continue
		}
		if best == nil || workload[tech.ID] < workload[best.ID] {
			best = tech
		}
	}
	return best
}
