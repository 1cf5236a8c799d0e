package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/handler"
	"github.com/noah-isme/khazandria-api/internal/models"
	"github.com/noah-isme/khazandria-api/internal/service"
)

type stubReportService struct {
	summary     dto.StudentSummaryResponse
	performance dto.GroupPerformanceResponse
	err         error
	calls       int
	window      dto.DateRange
}

func (s *stubReportService) StudentSummary(_ context.Context, activityID, studentID uuid.UUID, window dto.DateRange) (dto.StudentSummaryResponse, error) {
	s.calls++
	s.window = window
	summary := s.summary
	summary.ActivityID, summary.StudentID = activityID, studentID
	return summary, s.err
}

func (s *stubReportService) GroupPerformance(_ context.Context, groupID uuid.UUID, window dto.DateRange) (dto.GroupPerformanceResponse, error) {
	s.calls++
	s.window = window
	report := s.performance
	report.GroupID = groupID
	return report, s.err
}

type stubGlobalGradeService struct {
	grade dto.GlobalGradeResponse
	err   error
	req   dto.UpsertGlobalGradeRequest
	actor service.Actor
}

func (s *stubGlobalGradeService) GetOrInit(_ context.Context, activityID, studentID uuid.UUID) (dto.GlobalGradeResponse, error) {
	grade := s.grade
	grade.ActivityID, grade.StudentID = activityID, studentID
	return grade, s.err
}

func (s *stubGlobalGradeService) Upsert(_ context.Context, activityID, studentID uuid.UUID, req dto.UpsertGlobalGradeRequest, actor service.Actor) (dto.GlobalGradeResponse, error) {
	s.req, s.actor = req, actor
	return s.GetOrInit(context.Background(), activityID, studentID)
}

func reportApp(svc service.ReportService) *fiber.App {
	return newTestApp(admin, handler.NewReportHandler(svc, nil, zerolog.Nop()).Register)
}

func sampleSummary() dto.StudentSummaryResponse {
	return dto.StudentSummaryResponse{
		StudentName:      "Aisha",
		TotalSessions:    2,
		SessionsPresent:  2,
		AttendanceRate:   100,
		TotalSessionMark: 27,
		TotalGlobalMark:  85,
		TotalFinalMark:   112,
		AttendanceDetails: []dto.AttendanceDetail{{
			SessionID:        uuid.New(),
			GroupID:          uuid.New(),
			Date:             time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			Present:          true,
			SessionMark:      14,
			TotalSessionMark: 14,
		}},
		GlobalGrades: []models.GlobalGradeEntry{
			{GradeName: "final", Mark: 85, FullMark: 100, Status: models.GlobalGradeTaken},
		},
	}
}

func TestReportHandlerStudentSummaryContract(t *testing.T) {
	svc := &stubReportService{summary: sampleSummary()}
	path := "/api/v1/reports/activity/" + uuid.NewString() + "/student/" + uuid.NewString() + "/summary"

	resp := doRequest(t, reportApp(svc), http.MethodGet, path, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "false", resp.Header.Get("X-Cache-Hit"))
	requireContract(t, "student_summary", resp)
	require.True(t, svc.window.IsZero())
}

func TestReportHandlerParsesDateRange(t *testing.T) {
	svc := &stubReportService{performance: dto.GroupPerformanceResponse{
		ActivityID: uuid.New(),
		Ranking: []dto.GroupPerformanceEntry{
			{StudentID: uuid.New(), StudentName: "Aisha", TotalSessions: 1, SessionsPresent: 1, AttendanceRate: 100, TotalSessionMark: 13, TotalGlobalMark: 85, TotalFinalMark: 98},
			{StudentID: uuid.New(), StudentName: "Chen", TotalSessions: 1, SessionsAbsent: 1, TotalGlobalMark: 80, TotalFinalMark: 80},
		},
		CacheHit: true,
	}}
	path := "/api/v1/reports/group/" + uuid.NewString() + "/performance?start=2025-02-01&end=2025-02-28T10:00:00Z"

	resp := doRequest(t, reportApp(svc), http.MethodGet, path, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get("X-Cache-Hit"))
	requireContract(t, "group_performance", resp)

	require.NotNil(t, svc.window.Start)
	require.NotNil(t, svc.window.End)
	require.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), *svc.window.Start)
	require.Equal(t, time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC), *svc.window.End)
}

func TestReportHandlerRejectsBadRanges(t *testing.T) {
	svc := &stubReportService{}
	app := reportApp(svc)
	base := "/api/v1/reports/group/" + uuid.NewString() + "/performance"

	resp := doRequest(t, app, http.MethodGet, base+"?start=2025-03-01&end=2025-02-01", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, []string{"start must not be after end"}, readEnvelope(t, resp).Details)

	resp = doRequest(t, app, http.MethodGet, base+"?start=yesterday&end=31/01/2025", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Len(t, readEnvelope(t, resp).Details, 2)

	require.Zero(t, svc.calls)
}

func TestGlobalGradeHandlerSystemRecorder(t *testing.T) {
	svc := &stubGlobalGradeService{grade: dto.GlobalGradeResponse{
		ID: uuid.New(),
		Grades: []models.GlobalGradeEntry{
			{GradeName: "final", Mark: 0, FullMark: 100, Status: models.GlobalGradeNotTaken},
		},
		TotalSessionMark: 18,
		TotalFinalMark:   18,
		RecordedBy:       dto.NewRecordedBy(nil),
	}}
	app := newTestApp(admin, handler.NewGlobalGradeHandler(svc, nil, zerolog.Nop()).Register)
	path := "/api/v1/activities/" + uuid.NewString() + "/students/" + uuid.NewString() + "/global-grades"

	resp := doRequest(t, app, http.MethodGet, path, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	requireContract(t, "global_grade", resp)

	resp = doRequest(t, app, http.MethodPut, path, `{"grades":[{"grade_name":"final","mark":72.5,"full_mark":100,"status":"taken"}]}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, admin, svc.actor)
	require.Equal(t, []dto.GlobalGradePayload{{GradeName: "final", Mark: 72.5, FullMark: 100, Status: "taken"}}, svc.req.Grades)
}
