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
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

type stubSessionService struct {
	session   dto.SessionResponse
	err       error
	calls     int
	groupID   uuid.UUID
	sessionID uuid.UUID
	studentID uuid.UUID
	create    dto.CreateSessionRequest
	update    dto.UpdateSessionStudentRequest
	actor     service.Actor
}

func (s *stubSessionService) Create(_ context.Context, groupID uuid.UUID, req dto.CreateSessionRequest, actor service.Actor) (dto.SessionResponse, error) {
	s.calls++
	s.groupID, s.create, s.actor = groupID, req, actor
	return s.session, s.err
}

func (s *stubSessionService) ListByGroup(_ context.Context, groupID uuid.UUID) ([]dto.SessionResponse, error) {
	s.calls++
	s.groupID = groupID
	return []dto.SessionResponse{s.session}, s.err
}

func (s *stubSessionService) Get(_ context.Context, sessionID uuid.UUID) (dto.SessionResponse, error) {
	s.calls++
	s.sessionID = sessionID
	return s.session, s.err
}

func (s *stubSessionService) UpdateStudent(_ context.Context, sessionID, studentID uuid.UUID, req dto.UpdateSessionStudentRequest, actor service.Actor) (dto.SessionResponse, error) {
	s.calls++
	s.sessionID, s.studentID, s.update, s.actor = sessionID, studentID, req, actor
	return s.session, s.err
}

func (s *stubSessionService) Delete(_ context.Context, sessionID uuid.UUID, actor service.Actor) error {
	s.calls++
	s.sessionID, s.actor = sessionID, actor
	return s.err
}

func sampleSession() dto.SessionResponse {
	studentID := uuid.New()
	recorder := admin.ID
	return dto.SessionResponse{
		ID:          uuid.New(),
		GroupID:     uuid.New(),
		SessionDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		CreatedBy:   admin.ID,
		Students: []dto.SessionStudentResponse{{
			StudentID:        studentID,
			Present:          true,
			SessionMark:      14,
			BonusMark:        2,
			TotalSessionMark: 16,
			SessionGrades: []models.SessionGradeEntry{
				{GradeName: "attendance", Mark: 10, FullMark: 10},
				{GradeName: "participation", Mark: 4, FullMark: 5},
			},
			RecordedBy: dto.NewRecordedBy(&recorder),
			UpdatedAt:  time.Now().UTC(),
		}},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func sessionApp(actor service.Actor, svc service.SessionService) *fiber.App {
	return newTestApp(actor, handler.NewSessionHandler(svc, nil, zerolog.Nop()).Register)
}

func TestSessionHandlerCreate(t *testing.T) {
	svc := &stubSessionService{session: sampleSession()}
	groupID := uuid.New()

	resp := doRequest(t, sessionApp(admin, svc), http.MethodPost, "/api/v1/groups/"+groupID.String()+"/sessions",
		`{"session_date":"2025-01-05","initialize_students":true}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := readEnvelope(t, resp)
	require.True(t, body.Success)
	require.Equal(t, "session created", body.Message)
	require.Equal(t, groupID, svc.groupID)
	require.Equal(t, "2025-01-05", svc.create.SessionDate)
	require.True(t, svc.create.InitializeStudents)
	require.Equal(t, admin, svc.actor)
}

func TestSessionHandlerRejectsMalformedIDs(t *testing.T) {
	svc := &stubSessionService{}
	app := sessionApp(admin, svc)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/groups/42/sessions", `{"session_date":"2025-01-05"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, string(apperror.KindInvalidReference), readEnvelope(t, resp).Code)

	resp = doRequest(t, app, http.MethodPatch, "/api/v1/sessions/"+uuid.NewString()+"/students/nope", `{"present":true}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.calls)
}

func TestSessionHandlerUpdateStudent(t *testing.T) {
	svc := &stubSessionService{session: sampleSession()}
	sessionID := uuid.New()
	studentID := uuid.New()

	resp := doRequest(t, sessionApp(admin, svc), http.MethodPatch,
		"/api/v1/sessions/"+sessionID.String()+"/students/"+studentID.String(),
		`{"present":true,"bonus_mark":2,"session_grades":[{"grade_name":"attendance","mark":10,"full_mark":10}]}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	requireContract(t, "session", resp)

	require.Equal(t, sessionID, svc.sessionID)
	require.Equal(t, studentID, svc.studentID)
	require.NotNil(t, svc.update.Present)
	require.True(t, *svc.update.Present)
	require.Equal(t, 2.0, svc.update.BonusMark)
	require.Len(t, svc.update.SessionGrades, 1)
}

func TestSessionHandlerValidationDetails(t *testing.T) {
	svc := &stubSessionService{err: apperror.Validation([]string{
		"grade quiz: unknown grade type",
		"grade attendance: mark 12 exceeds full mark 10",
	})}

	resp := doRequest(t, sessionApp(admin, svc), http.MethodPatch,
		"/api/v1/sessions/"+uuid.NewString()+"/students/"+uuid.NewString(), `{"present":true}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	requireContract(t, "error", resp)
}

func TestSessionHandlerMapsDomainErrors(t *testing.T) {
	cases := map[int]error{
		fiber.StatusNotFound:            apperror.NotFound("session"),
		fiber.StatusConflict:            apperror.Conflict("session student was modified concurrently, reload and retry"),
		fiber.StatusForbidden:           apperror.Forbidden("you are not an admin of this activity"),
		fiber.StatusInternalServerError: context.DeadlineExceeded,
	}
	for status, err := range cases {
		svc := &stubSessionService{err: err}
		resp := doRequest(t, sessionApp(admin, svc), http.MethodGet, "/api/v1/sessions/"+uuid.NewString(), "")
		require.Equal(t, status, resp.StatusCode)
		require.False(t, readEnvelope(t, resp).Success)
	}
}

func TestSessionHandlerRejectsInvalidJSON(t *testing.T) {
	svc := &stubSessionService{}

	resp := doRequest(t, sessionApp(admin, svc), http.MethodPost, "/api/v1/groups/"+uuid.NewString()+"/sessions", `{"session_date":`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.calls)
}

func TestSessionHandlerDeleteRequiresSuperadmin(t *testing.T) {
	sessionID := uuid.New()

	svc := &stubSessionService{}
	resp := doRequest(t, sessionApp(admin, svc), http.MethodDelete, "/api/v1/sessions/"+sessionID.String(), "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Zero(t, svc.calls)

	resp = doRequest(t, sessionApp(superadmin, svc), http.MethodDelete, "/api/v1/sessions/"+sessionID.String(), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, sessionID, svc.sessionID)
	require.Equal(t, superadmin, svc.actor)
}

func TestSessionHandlerRequiresAuthentication(t *testing.T) {
	svc := &stubSessionService{}

	resp := doRequest(t, sessionApp(anonymous, svc), http.MethodGet, "/api/v1/groups/"+uuid.NewString()+"/sessions", "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, svc.calls)
}
