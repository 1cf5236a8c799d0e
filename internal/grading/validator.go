package grading

import (
	"fmt"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// CatalogEntry is any grade entry that must conform to a grade-type catalog.
type CatalogEntry interface {
	GradeFields() (name string, mark, fullMark float64)
}

// Result collects every problem found while checking entries.
type Result struct {
	Valid  bool
	Errors []string
}

// ValidateAgainstCatalog checks each entry against the catalog and accumulates all
// errors instead of stopping at the first one.
func ValidateAgainstCatalog[T CatalogEntry](catalog []models.GradeType, entries []T) Result {
	known := make(map[string]struct{}, len(catalog))
	for _, gradeType := range catalog {
		known[gradeType.Name] = struct{}{}
	}

	errs := make([]string, 0)
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		name, mark, fullMark := entry.GradeFields()

		if _, ok := known[name]; !ok {
			errs = append(errs, fmt.Sprintf("grade %q is not configured for this activity", name))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Sprintf("grade %q is listed more than once", name))
		}
		seen[name] = struct{}{}

		if mark > fullMark {
			errs = append(errs, fmt.Sprintf("mark %s exceeds full mark %s for %q", formatMark(mark), formatMark(fullMark), name))
		}
		if mark < 0 {
			errs = append(errs, fmt.Sprintf("mark cannot be negative for %q", name))
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateSessionGrades checks session entries against the activity's session catalog.
func ValidateSessionGrades(activity models.Activity, entries []models.SessionGradeEntry) Result {
	return ValidateAgainstCatalog(activity.SessionCatalog(), entries)
}

// ValidateGlobalGrades checks exam entries against the activity's global catalog and
// rejects unknown statuses.
func ValidateGlobalGrades(activity models.Activity, entries []models.GlobalGradeEntry) Result {
	result := ValidateAgainstCatalog(activity.GlobalCatalog(), entries)
	for _, entry := range entries {
		if !entry.Status.Valid() {
			result.Errors = append(result.Errors, fmt.Sprintf("status %q is invalid for %q", entry.Status, entry.GradeName))
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateCatalog checks a catalog definition: names present and unique, full marks non-negative.
func ValidateCatalog(label string, catalog []models.GradeType) []string {
	errs := make([]string, 0)
	seen := make(map[string]struct{}, len(catalog))
	for _, gradeType := range catalog {
		if gradeType.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: grade name is required", label))
			continue
		}
		if _, dup := seen[gradeType.Name]; dup {
			errs = append(errs, fmt.Sprintf("%s: grade %q is defined more than once", label, gradeType.Name))
		}
		seen[gradeType.Name] = struct{}{}
		if gradeType.FullMark < 0 {
			errs = append(errs, fmt.Sprintf("%s: full mark must be non-negative for %q", label, gradeType.Name))
		}
	}
	return errs
}

func formatMark(v float64) string {
	return fmt.Sprintf("%g", v)
}
