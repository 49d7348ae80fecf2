// Package validation wires go-playground/validator with the fleet's domain enums.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Validate is the global validator instance
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("depot", validateDepot)
	_ = Validate.RegisterValidation("vehicle_type", validateVehicleType)
	_ = Validate.RegisterValidation("service_interval", validateServiceInterval)
	_ = Validate.RegisterValidation("vehicle_status", validateVehicleStatus)
	_ = Validate.RegisterValidation("priority", validatePriority)
	_ = Validate.RegisterValidation("user_role", validateUserRole)
}

// ValidationError lists the failing fields of a payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError converts validator errors into a ValidationError
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Namespace()] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return NewValidationError(validationErrors)
	}
	return err
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt", "gte", "min":
		return fmt.Sprintf("must be at least %s", minimum(fe))
	case "depot", "vehicle_type", "service_interval", "vehicle_status", "priority", "user_role":
		return fmt.Sprintf("%q is not a valid %s", fe.Value(), strings.ReplaceAll(fe.Tag(), "_", " "))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func minimum(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		return fe.Param() + " (exclusive)"
	}
	return fe.Param()
}

func validateDepot(fl validator.FieldLevel) bool {
	return models.IsValidDepot(models.Depot(fl.Field().String()))
}

func validateVehicleType(fl validator.FieldLevel) bool {
	return models.IsValidVehicleType(models.VehicleType(fl.Field().String()))
}

func validateServiceInterval(fl validator.FieldLevel) bool {
	return models.IsValidServiceInterval(models.ServiceInterval(fl.Field().String()))
}

func validateVehicleStatus(fl validator.FieldLevel) bool {
	return models.IsValidVehicleStatus(models.VehicleStatus(fl.Field().String()))
}

func validatePriority(fl validator.FieldLevel) bool {
	return models.IsValidPriority(models.Priority(fl.Field().String()))
}

func validateUserRole(fl validator.FieldLevel) bool {
	return models.IsValidRole(models.Role(fl.Field().String()))
}
