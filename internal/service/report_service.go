package service

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/models"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

const (
	reportStudentSummary   = "student_summary"
	reportGroupPerformance = "group_performance"
)

// ReportService aggregates attendance and marks for students and groups.
type ReportService interface {
	StudentSummary(ctx context.Context, activityID, studentID uuid.UUID, window dto.DateRange) (dto.StudentSummaryResponse, error)
	GroupPerformance(ctx context.Context, groupID uuid.UUID, window dto.DateRange) (dto.GroupPerformanceResponse, error)
}

type reportService struct {
	activities  repository.ActivityRepository
	groups      repository.GroupRepository
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	sessions    repository.SessionRepository
	grades      repository.GlobalGradeRepository
	cache       *ReportCache
	logger      zerolog.Logger
}

// NewReportService constructs the report service. A nil cache disables caching.
func NewReportService(repos repository.Repositories, cache *ReportCache, logger zerolog.Logger) ReportService {
	return &reportService{
		activities:  repos.Activities,
		groups:      repos.Groups,
		students:    repos.Students,
		enrollments: repos.Enrollments,
		sessions:    repos.Sessions,
		grades:      repos.GlobalGrades,
		cache:       cache,
		logger:      logger.With().Str("component", "report_service").Logger(),
	}
}

// attendanceTally accumulates one student's roster lines.
type attendanceTally struct {
	total        int
	present      int
	sessionTotal float64
}

func (t *attendanceTally) add(record models.SessionStudent) {
	t.total++
	if record.Present {
		t.present++
	}
	t.sessionTotal += record.TotalSessionMark
}

func (t attendanceTally) rate() float64 {
	if t.total == 0 {
		return 0
	}
	return math.Round(float64(t.present)/float64(t.total)*100*100) / 100
}

// StudentSummary rolls up the student's sessions across every group of the activity.
// Only sessions whose roster lists the student are counted.
func (s *reportService) StudentSummary(ctx context.Context, activityID, studentID uuid.UUID, window dto.DateRange) (dto.StudentSummaryResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/khazandria-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.student_summary")
	span.SetAttributes(
		attribute.String("report.activity_id", activityID.String()),
		attribute.String("report.student_id", studentID.String()),
		attribute.Bool("report.scoped", !window.IsZero()),
	)
	defer span.End()

	window, err := normalizeWindow(window)
	if err != nil {
		return dto.StudentSummaryResponse{}, failSpan(span, err, "validation_failed")
	}

	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return dto.StudentSummaryResponse{}, failSpan(span, lookupError(err, "activity"), "activity_lookup_failed")
	}
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return dto.StudentSummaryResponse{}, failSpan(span, lookupError(err, "student"), "student_lookup_failed")
	}

	cacheKey, cacheable := s.cache.key(ctx, reportStudentSummary, activityID, studentID, window)
	if cacheable {
		var cached dto.StudentSummaryResponse
		if s.cache.load(ctx, reportStudentSummary, cacheKey, &cached) {
			cached.CacheHit = true
			span.SetAttributes(attribute.Bool("report.cache_hit", true))
			return cached, nil
		}
	}

	groupIDs, err := s.groups.ListIDsByActivity(ctx, activityID)
	if err != nil {
		return dto.StudentSummaryResponse{}, failSpan(span, apperror.Internal(err, "failed to load groups"), "group_lookup_failed")
	}
	sessions, err := s.sessions.ListByGroupIDs(ctx, groupIDs, repositoryWindow(window))
	if err != nil {
		return dto.StudentSummaryResponse{}, failSpan(span, apperror.Internal(err, "failed to load sessions"), "session_lookup_failed")
	}

	var tally attendanceTally
	details := make([]dto.AttendanceDetail, 0, len(sessions))
	for _, session := range sessions {
		idx := session.FindStudent(studentID)
		if idx < 0 {
			continue
		}
		record := session.Students[idx]
		tally.add(record)
		details = append(details, dto.AttendanceDetail{
			SessionID:        session.ID,
			GroupID:          session.GroupID,
			Date:             session.SessionDate,
			Present:          record.Present,
			SessionMark:      record.SessionMark,
			BonusMark:        record.BonusMark,
			TotalSessionMark: record.TotalSessionMark,
		})
	}

	grade, found, err := s.globalGrade(ctx, activityID, studentID)
	if err != nil {
		return dto.StudentSummaryResponse{}, failSpan(span, apperror.Internal(err, "failed to load global grade"), "global_grade_lookup_failed")
	}

	globalEntries := []models.GlobalGradeEntry{}
	if found && len(grade.Entries()) > 0 {
		globalEntries = grade.Entries()
	}

	summary := dto.StudentSummaryResponse{
		ActivityID:        activityID,
		StudentID:         studentID,
		StudentName:       student.Name,
		Range:             window,
		TotalSessions:     tally.total,
		SessionsPresent:   tally.present,
		SessionsAbsent:    tally.total - tally.present,
		AttendanceRate:    tally.rate(),
		TotalSessionMark:  tally.sessionTotal,
		TotalGlobalMark:   grade.TotalGlobalMark,
		TotalFinalMark:    finalMarkFor(window, tally.sessionTotal, grade, found),
		AttendanceDetails: details,
		GlobalGrades:      globalEntries,
	}

	if cacheable {
		s.cache.store(ctx, reportStudentSummary, cacheKey, summary)
	}
	return summary, nil
}

// GroupPerformance ranks the group's enrolled students by final mark.
func (s *reportService) GroupPerformance(ctx context.Context, groupID uuid.UUID, window dto.DateRange) (dto.GroupPerformanceResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/khazandria-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.group_performance")
	span.SetAttributes(
		attribute.String("report.group_id", groupID.String()),
		attribute.Bool("report.scoped", !window.IsZero()),
	)
	defer span.End()

	window, err := normalizeWindow(window)
	if err != nil {
		return dto.GroupPerformanceResponse{}, failSpan(span, err, "validation_failed")
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return dto.GroupPerformanceResponse{}, failSpan(span, lookupError(err, "group"), "group_lookup_failed")
	}

	cacheKey, cacheable := s.cache.key(ctx, reportGroupPerformance, group.ActivityID, group.ID, window)
	if cacheable {
		var cached dto.GroupPerformanceResponse
		if s.cache.load(ctx, reportGroupPerformance, cacheKey, &cached) {
			cached.CacheHit = true
			span.SetAttributes(attribute.Bool("report.cache_hit", true))
			return cached, nil
		}
	}

	enrollments, err := s.enrollments.ListByGroup(ctx, group.ID)
	if err != nil {
		return dto.GroupPerformanceResponse{}, failSpan(span, apperror.Internal(err, "failed to load enrollments"), "enrollment_lookup_failed")
	}
	sessions, err := s.sessions.ListByGroupIDs(ctx, []uuid.UUID{group.ID}, repositoryWindow(window))
	if err != nil {
		return dto.GroupPerformanceResponse{}, failSpan(span, apperror.Internal(err, "failed to load sessions"), "session_lookup_failed")
	}

	studentIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, enrollment := range enrollments {
		studentIDs = append(studentIDs, enrollment.StudentID)
	}
	grades, err := s.grades.ListByStudents(ctx, group.ActivityID, studentIDs)
	if err != nil {
		return dto.GroupPerformanceResponse{}, failSpan(span, apperror.Internal(err, "failed to load global grades"), "global_grade_lookup_failed")
	}
	gradeByStudent := make(map[uuid.UUID]models.GlobalGrade, len(grades))
	for _, grade := range grades {
		gradeByStudent[grade.StudentID] = grade
	}

	ranking := make([]dto.GroupPerformanceEntry, 0, len(enrollments))
	for _, enrollment := range enrollments {
		var tally attendanceTally
		for _, session := range sessions {
			if idx := session.FindStudent(enrollment.StudentID); idx >= 0 {
				tally.add(session.Students[idx])
			}
		}

		grade, found := gradeByStudent[enrollment.StudentID]
		ranking = append(ranking, dto.GroupPerformanceEntry{
			StudentID:        enrollment.StudentID,
			StudentName:      enrollment.Student.Name,
			TotalSessions:    tally.total,
			SessionsPresent:  tally.present,
			SessionsAbsent:   tally.total - tally.present,
			AttendanceRate:   tally.rate(),
			TotalSessionMark: tally.sessionTotal,
			TotalGlobalMark:  grade.TotalGlobalMark,
			TotalFinalMark:   finalMarkFor(window, tally.sessionTotal, grade, found),
		})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].TotalFinalMark != ranking[j].TotalFinalMark {
			return ranking[i].TotalFinalMark > ranking[j].TotalFinalMark
		}
		if ranking[i].StudentName != ranking[j].StudentName {
			return ranking[i].StudentName < ranking[j].StudentName
		}
		return ranking[i].StudentID.String() < ranking[j].StudentID.String()
	})

	response := dto.GroupPerformanceResponse{
		GroupID:    group.ID,
		ActivityID: group.ActivityID,
		Range:      window,
		Ranking:    ranking,
	}

	if cacheable {
		s.cache.store(ctx, reportGroupPerformance, cacheKey, response)
	}
	return response, nil
}

func (s *reportService) globalGrade(ctx context.Context, activityID, studentID uuid.UUID) (models.GlobalGrade, bool, error) {
	grade, err := s.grades.Get(ctx, activityID, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.GlobalGrade{}, false, nil
	}
	if err != nil {
		return models.GlobalGrade{}, false, err
	}
	return grade, true, nil
}

// finalMarkFor applies the reporting policy: a date-scoped report recombines the
// scoped session total with the global mark, an unscoped one serves the stored
// final mark and falls back to the session total when no global grade exists.
func finalMarkFor(window dto.DateRange, sessionTotal float64, grade models.GlobalGrade, found bool) float64 {
	if !window.IsZero() {
		return sessionTotal + grade.TotalGlobalMark
	}
	if found {
		return grade.TotalFinalMark
	}
	return sessionTotal
}

// normalizeWindow extends the end bound to the end of its day and rejects
// inverted ranges.
func normalizeWindow(window dto.DateRange) (dto.DateRange, error) {
	normalized := dto.DateRange{}
	if window.Start != nil {
		start := window.Start.UTC()
		normalized.Start = &start
	}
	if window.End != nil {
		end := dto.EndOfDay(window.End.UTC())
		normalized.End = &end
	}
	if normalized.Start != nil && normalized.End != nil && normalized.Start.After(*normalized.End) {
		return dto.DateRange{}, apperror.Validation([]string{"start must not be after end"})
	}
	return normalized, nil
}

func repositoryWindow(window dto.DateRange) repository.DateRange {
	return repository.DateRange{From: window.Start, To: window.End}
}
