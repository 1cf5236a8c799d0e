package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/khazandria-api/internal/models"
)

func TestValidateSessionGradesAccumulatesAllErrors(t *testing.T) {
	result := ValidateSessionGrades(testActivity(), []models.SessionGradeEntry{
		{GradeName: "unknown", Mark: 1, FullMark: 5},
		{GradeName: "حضور", Mark: 12, FullMark: 10},
		{GradeName: "مشاركة", Mark: -1, FullMark: 5},
	})

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 3)
	require.Contains(t, result.Errors[0], "not configured")
	require.Contains(t, result.Errors[1], "mark 12 exceeds full mark 10")
	require.Contains(t, result.Errors[2], "cannot be negative")
}

func TestValidateSessionGradesAcceptsBoundaries(t *testing.T) {
	result := ValidateSessionGrades(testActivity(), []models.SessionGradeEntry{
		{GradeName: "حضور", Mark: 10, FullMark: 10},
		{GradeName: "مشاركة", Mark: 0, FullMark: 5},
	})
	require.True(t, result.Valid)
	require.Empty(t, result.Errors)
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	result := ValidateSessionGrades(testActivity(), []models.SessionGradeEntry{
		{GradeName: "حضور", Mark: 1, FullMark: 10},
		{GradeName: "حضور", Mark: 2, FullMark: 10},
	})
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "more than once")
}

func TestValidateGlobalGradesRejectsUnknownStatus(t *testing.T) {
	result := ValidateGlobalGrades(testActivity(), []models.GlobalGradeEntry{
		{GradeName: "final", Mark: 60, FullMark: 100, Status: "pending"},
		{GradeName: "project", Mark: 70, FullMark: 50, Status: models.GlobalGradeTaken},
	})
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	require.Contains(t, result.Errors[0], "mark 70 exceeds full mark 50")
	require.Contains(t, result.Errors[1], `status "pending"`)
}

func TestValidateCatalog(t *testing.T) {
	errs := ValidateCatalog("session grades", []models.GradeType{
		{Name: "a", FullMark: 10},
		{Name: "a", FullMark: 5},
		{Name: "", FullMark: 5},
		{Name: "b", FullMark: -1},
	})
	require.Len(t, errs, 3)
}
