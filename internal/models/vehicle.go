package models

import (
	"time"
)

// VehicleType is the category of a fleet vehicle.
type VehicleType string

const (
	VehicleTruck      VehicleType = "Truck"
	VehicleVan        VehicleType = "Van"
	VehicleCar        VehicleType = "Car"
	VehicleMotorcycle VehicleType = "Motorcycle"
)

// Depot is one of the fixed sites where vehicles are based and technicians are stationed.
type Depot string

const (
	DepotA      Depot = "Depot A"
	DepotB      Depot = "Depot B"
	FieldOffice Depot = "Field Office"
)

// ServiceInterval is how often a vehicle requires maintenance.
type ServiceInterval string

const (
	IntervalWeekly   ServiceInterval = "Weekly"
	IntervalBiWeekly ServiceInterval = "Bi-weekly"
	IntervalMonthly  ServiceInterval = "Monthly"
)

// VehicleStatus is the operational status of a vehicle.
type VehicleStatus string

const (
	VehicleActive       VehicleStatus = "Active"
	VehicleInService    VehicleStatus = "In Service"
	VehicleOutOfService VehicleStatus = "Out of Service"
)

// Vehicle represents a fleet vehicle and its service schedule.
type Vehicle struct {
	ID              string          `bson:"_id" json:"id" validate:"required"`
	Type            VehicleType     `bson:"type" json:"type" validate:"required,vehicle_type"`
	LocationBase    Depot           `bson:"location_base" json:"location_base" validate:"required,depot"`
	Mileage         int             `bson:"mileage" json:"mileage" validate:"gte=0"`
	LastServiceDate time.Time       `bson:"last_service_date" json:"last_service_date" validate:"required"`
	ServiceInterval ServiceInterval `bson:"service_interval" json:"service_interval" validate:"required,service_interval"`
	Status          VehicleStatus   `bson:"status" json:"status" validate:"required,vehicle_status"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}

// IsValidVehicleType checks if a vehicle type is known
func IsValidVehicleType(t VehicleType) bool {
	switch t {
	case VehicleTruck, VehicleVan, VehicleCar, VehicleMotorcycle:
		return true
	default:
		return false
	}
}

// IsValidDepot checks if a depot is one of the fleet's sites
func IsValidDepot(d Depot) bool {
	switch d {
	case DepotA, DepotB, FieldOffice:
		return true
	default:
		return false
	}
}

// IsValidServiceInterval checks if a service interval is known
func IsValidServiceInterval(i ServiceInterval) bool {
	switch i {
	case IntervalWeekly, IntervalBiWeekly, IntervalMonthly:
		return true
	default:
		return false
	}
}

// IsValidVehicleStatus checks if a vehicle status is known
func IsValidVehicleStatus(s VehicleStatus) bool {
	switch s {
	case VehicleActive, VehicleInService, VehicleOutOfService:
		return true
	default:
		return false
	}
}

// NextDueDate returns the date the next service falls due.
// Monthly intervals add one calendar month with normal date rollover,
// so Jan 31 becomes Mar 3 (or Mar 2 in a leap year).
func (v *Vehicle) NextDueDate() time.Time {
	switch v.ServiceInterval {
	case IntervalWeekly:
		return v.LastServiceDate.AddDate(0, 0, 7)
	case IntervalBiWeekly:
		return v.LastServiceDate.AddDate(0, 0, 14)
	case IntervalMonthly:
		return v.LastServiceDate.AddDate(0, 1, 0)
	default:
		return v.LastServiceDate
	}
}
