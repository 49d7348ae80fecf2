package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Assignment modes
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

var (
	generationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_generation_runs_total",
		Help: "Total number of task generation runs",
	}, []string{"force"})

	tasksGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_tasks_generated_total",
		Help: "Total number of maintenance tasks accepted from generation, by priority",
	}, []string{"priority"})

	tasksAssigned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_tasks_assigned_total",
		Help: "Total number of maintenance tasks assigned to technicians",
	}, []string{"mode"})

	tasksStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_tasks_started_total",
		Help: "Total number of maintenance tasks moved to in progress",
	})

	tasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_tasks_completed_total",
		Help: "Total number of maintenance tasks completed with a signature",
	})

	tasksUnassigned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "maintenance_tasks_unassigned",
		Help: "Pending tasks left without a technician after the last auto-assign run",
	})
)

// RecordGenerationRun counts a generation preview.
func RecordGenerationRun(force bool) {
	generationRuns.WithLabelValues(strconv.FormatBool(force)).Inc()
}

// RecordGenerated counts persisted tasks by priority.
func RecordGenerated(tasks []models.MaintenanceTask) {
	for _, task := range tasks {
		tasksGenerated.WithLabelValues(string(task.Priority)).Inc()
	}
}

// RecordAssigned counts n assignments made in the given mode.
func RecordAssigned(mode string, n int) {
	if n > 0 {
		tasksAssigned.WithLabelValues(mode).Add(float64(n))
	}
}

func RecordStarted() {
	tasksStarted.Inc()
}

func RecordCompleted() {
	tasksCompleted.Inc()
}

// SetUnassigned publishes the number of tasks the last assignment run could not place.
func SetUnassigned(n int) {
	tasksUnassigned.Set(float64(n))
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
