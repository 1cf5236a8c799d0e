package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/models"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

// StudentService manages the student directory shared by all activities.
type StudentService interface {
	Create(ctx context.Context, req dto.CreateStudentRequest, actor Actor) (dto.StudentResponse, error)
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (dto.StudentResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateStudentRequest, actor Actor) (dto.StudentResponse, error)
}

type studentService struct {
	students  repository.StudentRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	audit     AuditRecorder
	logger    zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, validator *validator.Validate, audit AuditRecorder, logger zerolog.Logger) StudentService {
	return &studentService{
		students:  repo,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		audit:     audit,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Create(ctx context.Context, req dto.CreateStudentRequest, actor Actor) (dto.StudentResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		Name:  s.sanitizer.Sanitize(strings.TrimSpace(req.Name)),
		Phone: strings.TrimSpace(req.Phone),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if student.Name == "" {
		return dto.StudentResponse{}, apperror.Validation([]string{"name is required"})
	}

	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, persistError(err, "student", "failed to create student")
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "student.created",
		EntityType: "student",
		EntityID:   student.ID,
		Metadata:   map[string]interface{}{"name": student.Name, "email": student.Email},
	})

	return dto.NewStudentResponse(student), nil
}

// List searches students by name, email or phone.
func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	students, total, err := s.students.List(ctx, repository.StudentFilter{
		Search:   strings.TrimSpace(req.Search),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.StudentListResponse{}, apperror.Internal(err, "failed to list students")
	}

	items := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewStudentResponse(student))
	}
	return dto.StudentListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *studentService) Get(ctx context.Context, id uuid.UUID) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, lookupError(err, "student")
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateStudentRequest, actor Actor) (dto.StudentResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return dto.StudentResponse{}, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := s.sanitizer.Sanitize(strings.TrimSpace(*req.Name))
		if name == "" {
			return dto.StudentResponse{}, apperror.Validation([]string{"name is required"})
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	student, err := s.students.Update(ctx, id, updates)
	if err != nil {
		return dto.StudentResponse{}, persistError(err, "student", "failed to update student")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "student.updated",
		EntityType: "student",
		EntityID:   student.ID,
		Metadata:   map[string]interface{}{"fields": fields},
	})

	return dto.NewStudentResponse(student), nil
}
