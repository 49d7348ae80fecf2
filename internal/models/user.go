package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
)

// Actions checked by HasPermission
const (
	ActionViewTasks         = "view_tasks"
	ActionViewVehicles      = "view_vehicles"
	ActionViewTechnicians   = "view_technicians"
	ActionViewDashboard     = "view_dashboard"
	ActionManageVehicles    = "manage_vehicles"
	ActionManageTechnicians = "manage_technicians"
	ActionGenerateTasks     = "generate_tasks"
	ActionAssignTasks       = "assign_tasks"
	ActionWorkTasks         = "work_tasks"
	ActionManageUsers       = "manage_users"
)

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	// TechnicianID links a technician login to its technician record.
	TechnicianID string     `bson:"technician_id,omitempty" json:"technician_id,omitempty"`
	FirstName    string     `bson:"first_name" json:"first_name"`
	LastName     string     `bson:"last_name" json:"last_name"`
	IsActive     bool       `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username     string `json:"username" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         Role   `json:"role" validate:"required,user_role"`
	TechnicianID string `json:"technician_id" validate:"required_if=Role technician"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	TechnicianID string `json:"technician_id,omitempty"`
	Exp          int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleTechnician:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleTechnician:
		return action == ActionViewTasks || action == ActionViewVehicles ||
			action == ActionViewTechnicians || action == ActionViewDashboard ||
			action == ActionWorkTasks
	default:
		return false
	}
}
