package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/models"
)

func TestDefaultGlobalEntries(t *testing.T) {
	entries := DefaultGlobalEntries(testActivity().GlobalCatalog())
	require.Equal(t, []models.GlobalGradeEntry{
		{GradeName: "final", Mark: 0, FullMark: 100, Status: models.GlobalGradeNotTaken},
		{GradeName: "project", Mark: 0, FullMark: 50, Status: models.GlobalGradeNotTaken},
	}, entries)
}

func TestReconcileAppendsNewCatalogEntries(t *testing.T) {
	stored := []models.GlobalGradeEntry{
		{GradeName: "final", Mark: 85, FullMark: 100, Status: models.GlobalGradeTaken},
	}

	reconciled, changed := ReconcileGlobalEntries(testActivity().GlobalCatalog(), stored)
	require.True(t, changed)
	require.Equal(t, []models.GlobalGradeEntry{
		{GradeName: "final", Mark: 85, FullMark: 100, Status: models.GlobalGradeTaken},
		{GradeName: "project", Mark: 0, FullMark: 50, Status: models.GlobalGradeNotTaken},
	}, reconciled)

	again, changedAgain := ReconcileGlobalEntries(testActivity().GlobalCatalog(), reconciled)
	require.False(t, changedAgain)
	require.Equal(t, reconciled, again)
}

func TestReconcileDropsRemovedGradeTypes(t *testing.T) {
	stored := []models.GlobalGradeEntry{
		{GradeName: "midterm", Mark: 30, FullMark: 40, Status: models.GlobalGradeTaken},
		{GradeName: "project", Mark: 45, FullMark: 50, Status: models.GlobalGradeTaken},
		{GradeName: "final", Mark: 0, FullMark: 100, Status: models.GlobalGradeNotTaken},
	}

	reconciled, changed := ReconcileGlobalEntries(testActivity().GlobalCatalog(), stored)
	require.True(t, changed)
	require.Equal(t, []models.GlobalGradeEntry{
		{GradeName: "project", Mark: 45, FullMark: 50, Status: models.GlobalGradeTaken},
		{GradeName: "final", Mark: 0, FullMark: 100, Status: models.GlobalGradeNotTaken},
	}, reconciled)
}

func TestReconcileKeepsMatchingList(t *testing.T) {
	stored := DefaultGlobalEntries(testActivity().GlobalCatalog())
	reconciled, changed := ReconcileGlobalEntries(testActivity().GlobalCatalog(), stored)
	require.False(t, changed)
	require.Equal(t, stored, reconciled)
}

func TestDefaultSessionEntries(t *testing.T) {
	full := DefaultSessionEntries(testActivity().SessionCatalog(), true)
	require.Equal(t, []models.SessionGradeEntry{
		{GradeName: "حضور", Mark: 10, FullMark: 10},
		{GradeName: "مشاركة", Mark: 5, FullMark: 5},
	}, full)

	empty := DefaultSessionEntries(testActivity().SessionCatalog(), false)
	require.Equal(t, 0.0, empty[0].Mark)
	require.Equal(t, 10.0, empty[0].FullMark)
}

func TestEntriesFromCatalogUseCatalogFullMark(t *testing.T) {
	activity := testActivity()

	session := SessionEntriesFromCatalog(activity.SessionCatalog(), []models.SessionGradeEntry{
		{GradeName: activity.SessionGradeTypes[0].Name, Mark: 100, FullMark: 100},
		{GradeName: "unknown", Mark: 1, FullMark: 3},
	})
	require.Equal(t, activity.SessionGradeTypes[0].FullMark, session[0].FullMark)
	require.Equal(t, 100.0, session[0].Mark)
	require.Equal(t, 3.0, session[1].FullMark)
	require.False(t, ValidateSessionGrades(activity, session).Valid)
	require.Nil(t, SessionEntriesFromCatalog(activity.SessionCatalog(), nil))

	global := GlobalEntriesFromCatalog(activity.GlobalCatalog(), []models.GlobalGradeEntry{
		{GradeName: activity.GlobalGradeTypes[0].Name, Mark: 10, FullMark: 999, Status: models.GlobalGradeTaken},
	})
	require.Equal(t, activity.GlobalGradeTypes[0].FullMark, global[0].FullMark)
}

func TestZeroNotTaken(t *testing.T) {
	stored := []models.GlobalGradeEntry{
		{GradeName: "final", Mark: 40, FullMark: 100, Status: models.GlobalGradeNotTaken},
		{GradeName: "project", Mark: 30, FullMark: 50, Status: models.GlobalGradeTaken},
	}

	settled := ZeroNotTaken(stored)
	require.Zero(t, settled[0].Mark)
	require.Equal(t, 30.0, settled[1].Mark)
	require.Equal(t, 40.0, stored[0].Mark)
}
