package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/grading"
	"github.com/noah-isme/khazandria-api/internal/models"
	"github.com/noah-isme/khazandria-api/internal/observability"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

// Repair reasons reported by reconcileGlobalGrade.
const (
	repairCreated      = "created"
	repairCatalog      = "catalog"
	repairSessionTotal = "session_total"
	repairFinalTotal   = "final_total"
)

// GlobalGradeService reads and records a student's activity-wide exam grades.
type GlobalGradeService interface {
	GetOrInit(ctx context.Context, activityID, studentID uuid.UUID) (dto.GlobalGradeResponse, error)
	Upsert(ctx context.Context, activityID, studentID uuid.UUID, req dto.UpsertGlobalGradeRequest, actor Actor) (dto.GlobalGradeResponse, error)
}

type globalGradeService struct {
	activities repository.ActivityRepository
	students   repository.StudentRepository
	grades     repository.GlobalGradeRepository
	totals     SessionTotals
	tx         repository.Transactor
	validator  *validator.Validate
	reports    ReportInvalidator
	events     EventPublisher
	audit      AuditRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

// NewGlobalGradeService constructs the global grade service.
func NewGlobalGradeService(repos repository.Repositories, validator *validator.Validate, reports ReportInvalidator, events EventPublisher, audit AuditRecorder, logger zerolog.Logger) GlobalGradeService {
	return &globalGradeService{
		activities: repos.Activities,
		students:   repos.Students,
		grades:     repos.GlobalGrades,
		totals:     NewSessionTotals(repos.Groups, repos.Sessions),
		tx:         repos.Transactor,
		validator:  validator,
		reports:    reportInvalidatorOrNoop(reports),
		events:     eventPublisherOrNoop(events, logger),
		audit:      audit,
		logger:     logger.With().Str("component", "global_grade_service").Logger(),
		now:        time.Now,
	}
}

// GetOrInit returns the student's global grade, creating it on first read and
// repairing it against the current catalog and session totals.
func (s *globalGradeService) GetOrInit(ctx context.Context, activityID, studentID uuid.UUID) (dto.GlobalGradeResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/khazandria-api/internal/service/global_grade")
	ctx, span := tracer.Start(ctx, "global_grade.get")
	span.SetAttributes(
		attribute.String("grading.activity_id", activityID.String()),
		attribute.String("grading.student_id", studentID.String()),
	)
	defer span.End()

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return dto.GlobalGradeResponse{}, failSpan(span, lookupError(err, "activity"), "activity_lookup_failed")
	}
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return dto.GlobalGradeResponse{}, failSpan(span, lookupError(err, "student"), "student_lookup_failed")
	}

	sessionTotal, err := s.totals.SumStudentSessionTotal(ctx, activityID, studentID)
	if err != nil {
		return dto.GlobalGradeResponse{}, failSpan(span, apperror.Internal(err, "failed to sum session marks"), "session_total_failed")
	}

	grade, err := s.grades.Get(ctx, activityID, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		grade, err = s.initialise(ctx, activity, studentID, sessionTotal)
	}
	if err != nil {
		return dto.GlobalGradeResponse{}, failSpan(span, lookupError(err, "global grade"), "global_grade_lookup_failed")
	}

	repaired, reasons := reconcileGlobalGrade(activity.GlobalCatalog(), grade, sessionTotal)
	if len(reasons) == 0 {
		return dto.NewGlobalGradeResponse(grade), nil
	}

	if err := s.grades.Update(ctx, &repaired); err != nil {
		if !errors.Is(err, repository.ErrVersionConflict) {
			return dto.GlobalGradeResponse{}, failSpan(span, apperror.Internal(err, "failed to repair global grade"), "global_grade_repair_failed")
		}

		// A concurrent writer got there first; serve its row, reconciled in memory.
		observability.VersionConflicts().WithLabelValues("global_grade").Inc()
		fresh, getErr := s.grades.Get(ctx, activityID, studentID)
		if getErr != nil {
			return dto.GlobalGradeResponse{}, failSpan(span, lookupError(getErr, "global grade"), "global_grade_reload_failed")
		}
		repaired, _ = reconcileGlobalGrade(activity.GlobalCatalog(), fresh, sessionTotal)
		s.logger.Debug().Str("global_grade_id", fresh.ID.String()).Msg("global grade repair lost a concurrent update")
		return dto.NewGlobalGradeResponse(repaired), nil
	}

	for _, reason := range reasons {
		observability.GlobalGradeRepairs().WithLabelValues(reason).Inc()
	}
	span.SetAttributes(attribute.StringSlice("grading.repairs", reasons))
	s.reports.Invalidate(ctx, activityID)

	return dto.NewGlobalGradeResponse(repaired), nil
}

// initialise creates the default row. When a concurrent reader created it first the
// stored row is returned instead.
func (s *globalGradeService) initialise(ctx context.Context, activity models.Activity, studentID uuid.UUID, sessionTotal float64) (models.GlobalGrade, error) {
	seed := models.GlobalGrade{
		ActivityID:       activity.ID,
		StudentID:        studentID,
		Grades:           grading.DefaultGlobalEntries(activity.GlobalCatalog()),
		TotalGlobalMark:  0,
		TotalSessionMark: sessionTotal,
		TotalFinalMark:   grading.FinalMark(0, sessionTotal),
	}

	created, err := s.grades.CreateIfAbsent(ctx, &seed)
	if err != nil {
		return models.GlobalGrade{}, err
	}
	if created {
		observability.GlobalGradeRepairs().WithLabelValues(repairCreated).Inc()
		s.logger.Info().
			Str("activity_id", activity.ID.String()).
			Str("student_id", studentID.String()).
			Msg("global grade initialised")
	}

	return s.grades.Get(ctx, activity.ID, studentID)
}

func (s *globalGradeService) Upsert(ctx context.Context, activityID, studentID uuid.UUID, req dto.UpsertGlobalGradeRequest, actor Actor) (dto.GlobalGradeResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/khazandria-api/internal/service/global_grade")
	ctx, span := tracer.Start(ctx, "global_grade.upsert")
	span.SetAttributes(
		attribute.String("grading.activity_id", activityID.String()),
		attribute.String("grading.student_id", studentID.String()),
		attribute.String("grading.actor_id", actor.ID.String()),
	)
	defer span.End()

	if err := validatePayload(s.validator, req); err != nil {
		return dto.GlobalGradeResponse{}, failSpan(span, err, "validation_failed")
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return dto.GlobalGradeResponse{}, failSpan(span, lookupError(err, "activity"), "activity_lookup_failed")
	}
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return dto.GlobalGradeResponse{}, failSpan(span, lookupError(err, "student"), "student_lookup_failed")
	}

	entries := grading.GlobalEntriesFromCatalog(activity.GlobalCatalog(), req.Entries())
	if result := grading.ValidateGlobalGrades(activity, entries); !result.Valid {
		return dto.GlobalGradeResponse{}, failSpan(span, apperror.Validation(result.Errors), "validation_failed")
	}
	entries = grading.ZeroNotTaken(entries)

	var stored models.GlobalGrade
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sessionTotal, err := s.totals.SumStudentSessionTotal(ctx, activityID, studentID)
		if err != nil {
			return err
		}

		globalTotal := grading.ComputeGlobalTotal(entries)
		stored, err = s.grades.Upsert(ctx, &models.GlobalGrade{
			ActivityID:       activityID,
			StudentID:        studentID,
			Grades:           entries,
			TotalGlobalMark:  globalTotal,
			TotalSessionMark: sessionTotal,
			TotalFinalMark:   grading.FinalMark(globalTotal, sessionTotal),
			RecordedBy:       actor.Ref(),
		})
		return err
	})
	if err != nil {
		return dto.GlobalGradeResponse{}, failSpan(span, persistError(err, "global grade", "failed to save global grade"), "global_grade_upsert_failed")
	}

	observability.GlobalGradeWrites().Inc()
	s.reports.Invalidate(ctx, activityID)
	s.events.Publish(ctx, GradeEvent{
		Type:             EventGlobalUpdated,
		ActivityID:       activityID,
		StudentID:        uuidRef(studentID),
		TotalSessionMark: floatRef(stored.TotalSessionMark),
		TotalFinalMark:   floatRef(stored.TotalFinalMark),
		ActorID:          actor.Ref(),
		OccurredAt:       s.now().UTC(),
	})
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "global_grade.upserted",
		EntityType: "global_grade",
		EntityID:   stored.ID,
		Metadata: map[string]interface{}{
			"activity_id":       activityID.String(),
			"student_id":        studentID.String(),
			"total_global_mark": stored.TotalGlobalMark,
			"total_final_mark":  stored.TotalFinalMark,
		},
	})

	return dto.NewGlobalGradeResponse(stored), nil
}

// reconcileGlobalGrade repairs the entries against the catalog and recomputes the
// totals against the current session total. It returns the reasons a write is due;
// none means the stored row is already consistent.
func reconcileGlobalGrade(catalog []models.GradeType, grade models.GlobalGrade, sessionTotal float64) (models.GlobalGrade, []string) {
	var reasons []string

	entries, changed := grading.ReconcileGlobalEntries(catalog, grade.Entries())
	if changed {
		reasons = append(reasons, repairCatalog)
	}
	if !sameMark(grade.TotalSessionMark, sessionTotal) {
		reasons = append(reasons, repairSessionTotal)
	}

	globalTotal := grading.ComputeGlobalTotal(entries)
	finalTotal := grading.FinalMark(globalTotal, sessionTotal)
	if len(reasons) == 0 && !sameMark(grade.TotalFinalMark, finalTotal) {
		reasons = append(reasons, repairFinalTotal)
	}
	if len(reasons) == 0 {
		return grade, nil
	}

	repaired := grade
	repaired.Grades = entries
	repaired.TotalGlobalMark = globalTotal
	repaired.TotalSessionMark = sessionTotal
	repaired.TotalFinalMark = finalTotal
	return repaired, reasons
}

// syncGlobalTotals refreshes the session and final totals of an existing global
// grade row after session marks changed. A missing row is left for the next read
// to create. Losing a version race is tolerated since reads self-heal.
func syncGlobalTotals(ctx context.Context, grades repository.GlobalGradeRepository, totals SessionTotals, logger zerolog.Logger, activityID, studentID uuid.UUID) error {
	grade, err := grades.Get(ctx, activityID, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	sessionTotal, err := totals.SumStudentSessionTotal(ctx, activityID, studentID)
	if err != nil {
		return err
	}

	globalTotal := grading.ComputeGlobalTotal(grade.Entries())
	finalTotal := grading.FinalMark(globalTotal, sessionTotal)
	if sameMark(grade.TotalSessionMark, sessionTotal) && sameMark(grade.TotalFinalMark, finalTotal) {
		return nil
	}

	grade.TotalGlobalMark = globalTotal
	grade.TotalSessionMark = sessionTotal
	grade.TotalFinalMark = finalTotal
	if err := grades.Update(ctx, &grade); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			logger.Warn().
				Str("activity_id", activityID.String()).
				Str("student_id", studentID.String()).
				Msg("global grade sync lost a concurrent update")
			return nil
		}
		return err
	}
	return nil
}

func sameMark(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
