package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/database"
	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/repository"
)

const (
	gradeAttendance    = "حضور"
	gradeParticipation = "مشاركة"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type testEnv struct {
	repos  repository.Repositories
	redis  *redis.Client
	cache  *ReportCache
	actor  Actor
	admin  Actor
	audit  AuditService
	access AccessService

	activities  ActivityService
	groups      GroupService
	students    StudentService
	enrollments EnrollmentService
	sessions    SessionService
	globals     GlobalGradeService
	reports     ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := testLogger()
	repos := repository.NewRepositories(db)
	validate := NewValidator()
	cache := NewReportCache(client, time.Minute, logger)
	events := NewEventPublisher(client, nil, "grading", logger)
	audit := NewAuditService(repos.AuditLogs, logger)

	return &testEnv{
		repos:       repos,
		redis:       client,
		cache:       cache,
		actor:       Actor{ID: uuid.New(), Role: RoleSuperAdmin},
		admin:       Actor{ID: uuid.New(), Role: "admin"},
		audit:       audit,
		access:      NewAccessService(repos),
		activities:  NewActivityService(repos, validate, cache, audit, logger),
		groups:      NewGroupService(repos, validate, audit, logger),
		students:    NewStudentService(repos.Students, validate, audit, logger),
		enrollments: NewEnrollmentService(repos, validate, cache, audit, logger),
		sessions:    NewSessionService(repos, validate, cache, events, audit, logger),
		globals:     NewGlobalGradeService(repos, validate, cache, events, audit, logger),
		reports:     NewReportService(repos, cache, logger),
	}
}

// seedActivity creates an activity with a two item session catalog, a bonus cap of
// five and a final/project exam catalog. The env admin is its head.
func (e *testEnv) seedActivity(t *testing.T) dto.ActivityResponse {
	t.Helper()
	bonusMax := 5.0
	activity, err := e.activities.Create(context.Background(), dto.CreateActivityRequest{
		Name:            "Tahfidz",
		HeadAdminID:     e.admin.ID.String(),
		SessionBonusMax: &bonusMax,
		SessionGradeTypes: []dto.GradeTypePayload{
			{Name: gradeAttendance, FullMark: 10},
			{Name: gradeParticipation, FullMark: 5},
		},
		GlobalGradeTypes: []dto.GradeTypePayload{
			{Name: "final", FullMark: 100},
			{Name: "project", FullMark: 50},
		},
	}, e.actor)
	require.NoError(t, err)
	return activity
}

func (e *testEnv) seedGroup(t *testing.T, activityID uuid.UUID, name string) dto.GroupResponse {
	t.Helper()
	group, err := e.groups.Create(context.Background(), activityID, dto.CreateGroupRequest{Name: name}, e.actor)
	require.NoError(t, err)
	return group
}

// seedStudent creates a student and enrolls them in the group.
func (e *testEnv) seedStudent(t *testing.T, groupID uuid.UUID, name string) dto.StudentResponse {
	t.Helper()
	ctx := context.Background()
	student, err := e.students.Create(ctx, dto.CreateStudentRequest{Name: name}, e.actor)
	require.NoError(t, err)
	_, err = e.enrollments.Enroll(ctx, groupID, dto.EnrollStudentRequest{StudentID: student.ID.String()}, e.actor)
	require.NoError(t, err)
	return student
}

func (e *testEnv) seedSession(t *testing.T, groupID uuid.UUID, date string) dto.SessionResponse {
	t.Helper()
	session, err := e.sessions.Create(context.Background(), groupID, dto.CreateSessionRequest{
		SessionDate:        date,
		InitializeStudents: true,
	}, e.actor)
	require.NoError(t, err)
	return session
}

func (e *testEnv) mark(t *testing.T, sessionID, studentID uuid.UUID, present bool, bonus float64, grades ...dto.SessionGradePayload) dto.SessionStudentResponse {
	t.Helper()
	session, err := e.sessions.UpdateStudent(context.Background(), sessionID, studentID, dto.UpdateSessionStudentRequest{
		Present:       &present,
		BonusMark:     bonus,
		SessionGrades: grades,
	}, e.actor)
	require.NoError(t, err)
	return rosterEntry(t, session, studentID)
}

func rosterEntry(t *testing.T, session dto.SessionResponse, studentID uuid.UUID) dto.SessionStudentResponse {
	t.Helper()
	for _, record := range session.Students {
		if record.StudentID == studentID {
			return record
		}
	}
	t.Fatalf("student %s not on roster of session %s", studentID, session.ID)
	return dto.SessionStudentResponse{}
}

func sessionGrade(name string, mark, fullMark float64) dto.SessionGradePayload {
	return dto.SessionGradePayload{GradeName: name, Mark: mark, FullMark: fullMark}
}

func globalGrade(name string, mark, fullMark float64, status string) dto.GlobalGradePayload {
	return dto.GlobalGradePayload{GradeName: name, Mark: mark, FullMark: fullMark, Status: status}
}

func day(value string) *time.Time {
	parsed, err := dto.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return &parsed
}
