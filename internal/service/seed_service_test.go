package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

func seedDocumentJSON(headID uuid.UUID, attendanceStudent string) []byte {
	return []byte(fmt.Sprintf(`{
  "activity": {
    "name": "Ramadan Camp",
    "head_admin_id": %q,
    "session_bonus_max": 3,
    "session_grade_types": [
      {"name": "attendance", "full_mark": 10},
      {"name": "participation", "full_mark": 5}
    ],
    "global_grade_types": [{"name": "final", "full_mark": 100}]
  },
  "admins": [%q],
  "groups": [{
    "name": "Halaqah A",
    "labels": ["morning"],
    "students": [{"name": "Aisha"}, {"name": "Bilal", "email": "bilal@example.com"}],
    "sessions": [{
      "date": "2025-01-05",
      "attendance": [
        {"student": %q, "present": true, "bonus_mark": 1, "session_grades": [
          {"grade_name": "attendance", "mark": 10, "full_mark": 10},
          {"grade_name": "participation", "mark": 4, "full_mark": 5}
        ]},
        {"student": "Bilal", "present": false}
      ]
    }]
  }],
  "global_grades": [
    {"student": "Aisha", "grades": [{"grade_name": "final", "mark": 80, "full_mark": 100, "status": "taken"}]}
  ]
}`, headID.String(), uuid.NewString(), attendanceStudent))
}

func newSeedServices(env *testEnv) Services {
	return NewServices(env.repos, Options{Redis: env.redis, EventsChannel: "grading"}, testLogger())
}

func TestSeedServiceLoadsDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	services := newSeedServices(env)
	headID := uuid.New()

	report, err := NewSeedService(services, testLogger()).Seed(ctx, seedDocumentJSON(headID, "aisha"))
	require.NoError(t, err)
	require.Equal(t, 1, report.Groups)
	require.Equal(t, 2, report.Students)
	require.Equal(t, 1, report.Sessions)
	require.Equal(t, 2, report.Attendance)
	require.Equal(t, 1, report.GlobalGrades)

	members, err := services.Activities.ListMembers(ctx, report.ActivityID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	groups, err := services.Groups.ListByActivity(ctx, report.ActivityID, "morning")
	require.NoError(t, err)
	require.Len(t, groups, 1)

	performance, err := services.Reports.GroupPerformance(ctx, groups[0].ID, dto.DateRange{})
	require.NoError(t, err)
	require.Len(t, performance.Ranking, 2)
	require.Equal(t, "Aisha", performance.Ranking[0].StudentName)
	require.Equal(t, 95.0, performance.Ranking[0].TotalFinalMark)
	require.Equal(t, "Bilal", performance.Ranking[1].StudentName)
	require.Zero(t, performance.Ranking[1].TotalFinalMark)
}

func TestParseSeedDocumentReportsSchemaErrors(t *testing.T) {
	_, err := ParseSeedDocument([]byte(`{"activity": {"name": "", "head_admin_id": "nope"}, "groups": []}`))
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	require.NotEmpty(t, appErr.Details)

	_, err = ParseSeedDocument([]byte(`{not json`))
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestParseSeedDocumentRejectsDuplicateStudents(t *testing.T) {
	raw := []byte(fmt.Sprintf(`{
  "activity": {"name": "Camp", "head_admin_id": %q},
  "groups": [
    {"name": "A", "students": [{"name": "Aisha"}]},
    {"name": "B", "students": [{"name": " aisha "}]}
  ]
}`, uuid.NewString()))

	_, err := ParseSeedDocument(raw)
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSeedServiceUnknownStudent(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewSeedService(newSeedServices(env), testLogger()).Seed(context.Background(), seedDocumentJSON(uuid.New(), "Zaid"))
	require.ErrorIs(t, err, apperror.ErrValidation)
}
