package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/models"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

// EnrollmentService places students into groups. A student belongs to at most one
// group per activity.
type EnrollmentService interface {
	Enroll(ctx context.Context, groupID uuid.UUID, req dto.EnrollStudentRequest, actor Actor) (dto.EnrollmentResponse, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]dto.EnrollmentResponse, error)
	Remove(ctx context.Context, groupID, studentID uuid.UUID, actor Actor) error
}

type enrollmentService struct {
	groups      repository.GroupRepository
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	reports     ReportInvalidator
	audit       AuditRecorder
	logger      zerolog.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repos repository.Repositories, validator *validator.Validate, reports ReportInvalidator, audit AuditRecorder, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		groups:      repos.Groups,
		students:    repos.Students,
		enrollments: repos.Enrollments,
		validator:   validator,
		reports:     reportInvalidatorOrNoop(reports),
		audit:       audit,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, groupID uuid.UUID, req dto.EnrollStudentRequest, actor Actor) (dto.EnrollmentResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return dto.EnrollmentResponse{}, err
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return dto.EnrollmentResponse{}, apperror.InvalidReference("student_id")
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return dto.EnrollmentResponse{}, lookupError(err, "group")
	}
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return dto.EnrollmentResponse{}, lookupError(err, "student")
	}

	existing, err := s.enrollments.GetByActivityStudent(ctx, group.ActivityID, studentID)
	switch {
	case err == nil:
		if existing.GroupID == group.ID {
			return dto.EnrollmentResponse{}, apperror.Conflict("student is already enrolled in this group")
		}
		return dto.EnrollmentResponse{}, apperror.Conflict("student is already enrolled in another group of this activity")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.EnrollmentResponse{}, apperror.Internal(err, "failed to load enrollment")
	}

	enrollment := models.Enrollment{
		ActivityID: group.ActivityID,
		GroupID:    group.ID,
		StudentID:  studentID,
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, persistError(err, "enrollment", "failed to enroll student")
	}
	enrollment.Student = student

	s.reports.Invalidate(ctx, group.ActivityID)
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "group.student_enrolled",
		EntityType: "group",
		EntityID:   group.ID,
		Metadata:   map[string]interface{}{"student_id": studentID.String()},
	})

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]dto.EnrollmentResponse, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, lookupError(err, "group")
	}

	enrollments, err := s.enrollments.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list enrollments")
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}
	return responses, nil
}

// Remove drops the student from the group. Existing session records are kept.
func (s *enrollmentService) Remove(ctx context.Context, groupID, studentID uuid.UUID, actor Actor) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return lookupError(err, "group")
	}

	if err := s.enrollments.Delete(ctx, groupID, studentID); err != nil {
		return persistError(err, "enrollment", "failed to remove student")
	}

	s.reports.Invalidate(ctx, group.ActivityID)
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "group.student_removed",
		EntityType: "group",
		EntityID:   group.ID,
		Metadata:   map[string]interface{}{"student_id": studentID.String()},
	})
	return nil
}
