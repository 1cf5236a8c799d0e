package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/grading"
	"github.com/noah-isme/khazandria-api/internal/models"
	"github.com/noah-isme/khazandria-api/internal/observability"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

// SessionService manages dated group sessions and their attendance rosters.
type SessionService interface {
	Create(ctx context.Context, groupID uuid.UUID, req dto.CreateSessionRequest, actor Actor) (dto.SessionResponse, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]dto.SessionResponse, error)
	Get(ctx context.Context, sessionID uuid.UUID) (dto.SessionResponse, error)
	UpdateStudent(ctx context.Context, sessionID, studentID uuid.UUID, req dto.UpdateSessionStudentRequest, actor Actor) (dto.SessionResponse, error)
	Delete(ctx context.Context, sessionID uuid.UUID, actor Actor) error
}

type sessionService struct {
	activities  repository.ActivityRepository
	groups      repository.GroupRepository
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	sessions    repository.SessionRepository
	grades      repository.GlobalGradeRepository
	totals      SessionTotals
	tx          repository.Transactor
	validator   *validator.Validate
	reports     ReportInvalidator
	events      EventPublisher
	audit       AuditRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSessionService constructs the session service.
func NewSessionService(repos repository.Repositories, validator *validator.Validate, reports ReportInvalidator, events EventPublisher, audit AuditRecorder, logger zerolog.Logger) SessionService {
	return &sessionService{
		activities:  repos.Activities,
		groups:      repos.Groups,
		students:    repos.Students,
		enrollments: repos.Enrollments,
		sessions:    repos.Sessions,
		grades:      repos.GlobalGrades,
		totals:      NewSessionTotals(repos.Groups, repos.Sessions),
		tx:          repos.Transactor,
		validator:   validator,
		reports:     reportInvalidatorOrNoop(reports),
		events:      eventPublisherOrNoop(events, logger),
		audit:       audit,
		logger:      logger.With().Str("component", "session_service").Logger(),
		now:         time.Now,
	}
}

// Create opens a session for the group. With InitializeStudents every enrolled
// student gets an absent record carrying the catalog at zero marks.
func (s *sessionService) Create(ctx context.Context, groupID uuid.UUID, req dto.CreateSessionRequest, actor Actor) (dto.SessionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/khazandria-api/internal/service/session")
	ctx, span := tracer.Start(ctx, "session.create")
	span.SetAttributes(
		attribute.String("grading.group_id", groupID.String()),
		attribute.Bool("grading.initialize_students", req.InitializeStudents),
	)
	defer span.End()

	if err := validatePayload(s.validator, req); err != nil {
		return dto.SessionResponse{}, failSpan(span, err, "validation_failed")
	}

	sessionDate, err := dto.ParseDate(req.SessionDate)
	if err != nil {
		return dto.SessionResponse{}, failSpan(span, apperror.Validation([]string{"session_date: " + err.Error()}), "validation_failed")
	}

	group, activity, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return dto.SessionResponse{}, failSpan(span, err, "group_lookup_failed")
	}

	session := models.Session{
		GroupID:     group.ID,
		SessionDate: sessionDate,
		CreatedBy:   actor.ID,
	}

	if req.InitializeStudents {
		enrollments, err := s.enrollments.ListByGroup(ctx, group.ID)
		if err != nil {
			return dto.SessionResponse{}, failSpan(span, apperror.Internal(err, "failed to load enrollments"), "enrollment_lookup_failed")
		}
		session.Students = make([]models.SessionStudent, 0, len(enrollments))
		for _, enrollment := range enrollments {
			session.Students = append(session.Students, models.SessionStudent{
				StudentID:     enrollment.StudentID,
				Present:       false,
				SessionGrades: grading.DefaultSessionEntries(activity.SessionCatalog(), false),
				RecordedBy:    actor.Ref(),
			})
		}
	}

	if err := s.sessions.Create(ctx, &session); err != nil {
		return dto.SessionResponse{}, failSpan(span, persistError(err, "session", "failed to create session"), "session_create_failed")
	}

	created, err := s.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return dto.SessionResponse{}, failSpan(span, lookupError(err, "session"), "session_reload_failed")
	}

	s.reports.Invalidate(ctx, activity.ID)
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "session.created",
		EntityType: "session",
		EntityID:   created.ID,
		Metadata: map[string]interface{}{
			"group_id":     group.ID.String(),
			"session_date": sessionDate.Format("2006-01-02"),
			"roster_size":  len(created.Students),
		},
	})

	return dto.NewSessionResponse(created), nil
}

func (s *sessionService) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]dto.SessionResponse, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, lookupError(err, "group")
	}

	sessions, err := s.sessions.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list sessions")
	}

	responses := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, dto.NewSessionResponse(session))
	}
	return responses, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID uuid.UUID) (dto.SessionResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, lookupError(err, "session")
	}
	return dto.NewSessionResponse(session), nil
}

// UpdateStudent records attendance and marks for one student, inserting the roster
// record when the student has none yet. The student's global grade totals are
// refreshed in the same transaction.
func (s *sessionService) UpdateStudent(ctx context.Context, sessionID, studentID uuid.UUID, req dto.UpdateSessionStudentRequest, actor Actor) (dto.SessionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/khazandria-api/internal/service/session")
	ctx, span := tracer.Start(ctx, "session.update_student")
	span.SetAttributes(
		attribute.String("grading.session_id", sessionID.String()),
		attribute.String("grading.student_id", studentID.String()),
		attribute.String("grading.actor_id", actor.ID.String()),
	)
	defer span.End()

	if err := validatePayload(s.validator, req); err != nil {
		return dto.SessionResponse{}, failSpan(span, err, "validation_failed")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, failSpan(span, lookupError(err, "session"), "session_lookup_failed")
	}
	_, activity, err := s.loadGroup(ctx, session.GroupID)
	if err != nil {
		return dto.SessionResponse{}, failSpan(span, err, "group_lookup_failed")
	}
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return dto.SessionResponse{}, failSpan(span, lookupError(err, "student"), "student_lookup_failed")
	}

	var existing *models.SessionStudent
	if idx := session.FindStudent(studentID); idx >= 0 {
		existing = &session.Students[idx]
	}

	supplied := grading.SessionEntriesFromCatalog(activity.SessionCatalog(), req.Entries())
	transition := newSessionTransition(existing, *req.Present, supplied)
	candidates := transition.candidateEntries(activity.SessionCatalog())
	if result := grading.ValidateSessionGrades(activity, candidates); !result.Valid {
		return dto.SessionResponse{}, failSpan(span, apperror.Validation(result.Errors), "validation_failed")
	}

	entries := transition.settle(candidates)
	marks := grading.ComputeSessionMarks(activity, grading.SessionInput{
		Present:       *req.Present,
		BonusMark:     req.BonusMark,
		SessionGrades: entries,
	})

	record := models.SessionStudent{SessionID: session.ID, StudentID: studentID}
	if existing != nil {
		record = *existing
	}
	record.Present = *req.Present
	record.SessionMark = marks.SessionMark
	record.BonusMark = marks.BonusMark
	record.TotalSessionMark = marks.TotalSessionMark
	record.SessionGrades = entries
	record.RecordedBy = actor.Ref()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if existing != nil {
			if err := s.sessions.UpdateStudent(ctx, &record); err != nil {
				return err
			}
		} else if err := s.sessions.CreateStudent(ctx, &record); err != nil {
			return err
		}
		return syncGlobalTotals(ctx, s.grades, s.totals, s.logger, activity.ID, studentID)
	})
	if err != nil {
		return dto.SessionResponse{}, failSpan(span, persistError(err, "session student", "failed to save attendance"), "session_update_failed")
	}

	span.SetAttributes(
		attribute.String("grading.transition", transition.from.String()+"->"+transition.to.String()),
		attribute.Float64("grading.total_session_mark", record.TotalSessionMark),
	)
	observability.SessionUpdates().WithLabelValues(transition.to.String()).Inc()
	s.reports.Invalidate(ctx, activity.ID)
	s.events.Publish(ctx, GradeEvent{
		Type:             EventSessionUpdated,
		ActivityID:       activity.ID,
		StudentID:        uuidRef(studentID),
		SessionID:        uuidRef(session.ID),
		TotalSessionMark: floatRef(record.TotalSessionMark),
		ActorID:          actor.Ref(),
		OccurredAt:       s.now().UTC(),
	})
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "session.student_updated",
		EntityType: "session",
		EntityID:   session.ID,
		Metadata: map[string]interface{}{
			"student_id":         studentID.String(),
			"present":            record.Present,
			"total_session_mark": record.TotalSessionMark,
		},
	})

	updated, err := s.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return dto.SessionResponse{}, failSpan(span, lookupError(err, "session"), "session_reload_failed")
	}
	return dto.NewSessionResponse(updated), nil
}

// Delete removes the session and its roster, then refreshes the global totals of
// every student who was on it.
func (s *sessionService) Delete(ctx context.Context, sessionID uuid.UUID, actor Actor) error {
	tracer := otel.Tracer("github.com/noah-isme/khazandria-api/internal/service/session")
	ctx, span := tracer.Start(ctx, "session.delete")
	span.SetAttributes(attribute.String("grading.session_id", sessionID.String()))
	defer span.End()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return failSpan(span, lookupError(err, "session"), "session_lookup_failed")
	}
	group, err := s.groups.GetByID(ctx, session.GroupID)
	if err != nil {
		return failSpan(span, lookupError(err, "group"), "group_lookup_failed")
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return err
		}
		for _, record := range session.Students {
			if err := syncGlobalTotals(ctx, s.grades, s.totals, s.logger, group.ActivityID, record.StudentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return failSpan(span, persistError(err, "session", "failed to delete session"), "session_delete_failed")
	}

	s.reports.Invalidate(ctx, group.ActivityID)
	s.events.Publish(ctx, GradeEvent{
		Type:       EventSessionDeleted,
		ActivityID: group.ActivityID,
		SessionID:  uuidRef(session.ID),
		ActorID:    actor.Ref(),
		OccurredAt: s.now().UTC(),
	})
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "session.deleted",
		EntityType: "session",
		EntityID:   session.ID,
		Metadata: map[string]interface{}{
			"group_id":     group.ID.String(),
			"session_date": session.SessionDate.Format("2006-01-02"),
		},
	})
	return nil
}

func (s *sessionService) loadGroup(ctx context.Context, groupID uuid.UUID) (models.Group, models.Activity, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return models.Group{}, models.Activity{}, lookupError(err, "group")
	}
	activity, err := s.activities.GetByID(ctx, group.ActivityID)
	if err != nil {
		return models.Group{}, models.Activity{}, lookupError(err, "activity")
	}
	return group, activity, nil
}
