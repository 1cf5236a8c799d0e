package grading

import "github.com/noah-isme/khazandria-api/internal/models"

// DefaultGlobalEntries builds one not-taken entry per catalog item.
func DefaultGlobalEntries(catalog []models.GradeType) []models.GlobalGradeEntry {
	entries := make([]models.GlobalGradeEntry, 0, len(catalog))
	for _, gradeType := range catalog {
		entries = append(entries, defaultGlobalEntry(gradeType))
	}
	return entries
}

// ReconcileGlobalEntries repairs stored exam entries against the current catalog.
// Stored entries keep their order; entries whose grade type left the catalog (and
// repeated names) are dropped; catalog items with no entry are appended as not taken.
// The flag reports whether the result differs from the stored list.
func ReconcileGlobalEntries(catalog []models.GradeType, stored []models.GlobalGradeEntry) ([]models.GlobalGradeEntry, bool) {
	inCatalog := make(map[string]struct{}, len(catalog))
	for _, gradeType := range catalog {
		inCatalog[gradeType.Name] = struct{}{}
	}

	reconciled := make([]models.GlobalGradeEntry, 0, len(catalog))
	present := make(map[string]struct{}, len(stored))
	for _, entry := range stored {
		if _, ok := inCatalog[entry.GradeName]; !ok {
			continue
		}
		if _, dup := present[entry.GradeName]; dup {
			continue
		}
		present[entry.GradeName] = struct{}{}
		reconciled = append(reconciled, entry)
	}

	for _, gradeType := range catalog {
		if _, ok := present[gradeType.Name]; ok {
			continue
		}
		reconciled = append(reconciled, defaultGlobalEntry(gradeType))
	}

	return reconciled, !sameGlobalEntries(stored, reconciled)
}

// DefaultSessionEntries shapes a session roster entry from the catalog at the given mark policy.
func DefaultSessionEntries(catalog []models.GradeType, fullCredit bool) []models.SessionGradeEntry {
	entries := make([]models.SessionGradeEntry, 0, len(catalog))
	for _, gradeType := range catalog {
		mark := 0.0
		if fullCredit {
			mark = gradeType.FullMark
		}
		entries = append(entries, models.SessionGradeEntry{
			GradeName: gradeType.Name,
			Mark:      mark,
			FullMark:  gradeType.FullMark,
		})
	}
	return entries
}

// SessionEntriesFromCatalog copies the catalog's full mark onto newly supplied
// session entries. Entries naming an unknown grade are left for the validator.
func SessionEntriesFromCatalog(catalog []models.GradeType, entries []models.SessionGradeEntry) []models.SessionGradeEntry {
	if entries == nil {
		return nil
	}
	fullMarks := catalogFullMarks(catalog)
	resolved := make([]models.SessionGradeEntry, len(entries))
	for i, entry := range entries {
		if fullMark, ok := fullMarks[entry.GradeName]; ok {
			entry.FullMark = fullMark
		}
		resolved[i] = entry
	}
	return resolved
}

// GlobalEntriesFromCatalog copies the catalog's full mark onto newly supplied exam entries.
func GlobalEntriesFromCatalog(catalog []models.GradeType, entries []models.GlobalGradeEntry) []models.GlobalGradeEntry {
	if entries == nil {
		return nil
	}
	fullMarks := catalogFullMarks(catalog)
	resolved := make([]models.GlobalGradeEntry, len(entries))
	for i, entry := range entries {
		if fullMark, ok := fullMarks[entry.GradeName]; ok {
			entry.FullMark = fullMark
		}
		resolved[i] = entry
	}
	return resolved
}

// ZeroNotTaken returns a copy of entries where every not-taken exam has mark 0.
func ZeroNotTaken(entries []models.GlobalGradeEntry) []models.GlobalGradeEntry {
	if entries == nil {
		return nil
	}
	settled := make([]models.GlobalGradeEntry, len(entries))
	for i, entry := range entries {
		if !entry.IsTaken() {
			entry.Mark = 0
		}
		settled[i] = entry
	}
	return settled
}

func catalogFullMarks(catalog []models.GradeType) map[string]float64 {
	fullMarks := make(map[string]float64, len(catalog))
	for _, gradeType := range catalog {
		fullMarks[gradeType.Name] = gradeType.FullMark
	}
	return fullMarks
}

func defaultGlobalEntry(gradeType models.GradeType) models.GlobalGradeEntry {
	return models.GlobalGradeEntry{
		GradeName: gradeType.Name,
		Mark:      0,
		FullMark:  gradeType.FullMark,
		Status:    models.GlobalGradeNotTaken,
	}
}

func sameGlobalEntries(a, b []models.GlobalGradeEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
