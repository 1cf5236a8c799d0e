package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/observability"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

// RoleSuperAdmin may manage every activity.
const RoleSuperAdmin = "superadmin"

// Actor represents the authenticated user performing an action.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// Ref returns the actor id for recorded_by columns, nil for the system.
func (a Actor) Ref() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

// NewValidator builds the payload validator. Field errors are reported with JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

func validatePayload(validate *validator.Validate, payload interface{}) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return apperror.Internal(err, "failed to validate payload")
	}

	details := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		details = append(details, describeFieldError(fieldError))
	}
	return apperror.Validation(details)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid uuid", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lookupError(err error, entity string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity)
	}
	return apperror.Internal(err, "failed to load "+entity)
}

func persistError(err error, entity, message string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		observability.VersionConflicts().WithLabelValues(entity).Inc()
		return apperror.Conflict(entity + " was modified concurrently, reload and retry")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.Conflict(entity + " already exists")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(entity)
	default:
		return apperror.Internal(err, message)
	}
}

func failSpan(span trace.Span, err error, status string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}
