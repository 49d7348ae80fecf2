package models

import "time"

// Technician represents a maintenance technician and the depots they cover.
type Technician struct {
	ID             string  `bson:"_id" json:"id" validate:"required"`
	Name           string  `bson:"name" json:"name" validate:"required"`
	AssignedDepots []Depot `bson:"assigned_depots" json:"assigned_depots" validate:"required,min=1,dive,depot"`
	// ActiveTaskCount is a display cache. Capacity decisions always use the
	// workload derived from the task list.
	ActiveTaskCount int       `bson:"active_task_count" json:"active_task_count"`
	MaxTasks        int       `bson:"max_tasks" json:"max_tasks" validate:"gt=0"`
	Email           string    `bson:"email" json:"email" validate:"omitempty,email"`
	Phone           string    `bson:"phone" json:"phone"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// CoversDepot reports whether the technician is stationed at the given depot.
func (t *Technician) CoversDepot(depot Depot) bool {
	for _, d := range t.AssignedDepots {
		if d == depot {
			return true
		}
	}
	return false
}
