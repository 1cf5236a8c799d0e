package service

import (
	"github.com/noah-isme/khazandria-api/internal/grading"
	"github.com/noah-isme/khazandria-api/internal/models"
)

type attendanceState int

const (
	stateAbsent attendanceState = iota
	statePresent
)

func (s attendanceState) String() string {
	if s == statePresent {
		return "present"
	}
	return "absent"
}

func stateOf(present bool) attendanceState {
	if present {
		return statePresent
	}
	return stateAbsent
}

// sessionTransition describes an attendance change for one roster record. A
// student without a stored record starts ABSENT.
type sessionTransition struct {
	from     attendanceState
	to       attendanceState
	stored   []models.SessionGradeEntry
	supplied []models.SessionGradeEntry
}

func newSessionTransition(existing *models.SessionStudent, present bool, supplied []models.SessionGradeEntry) sessionTransition {
	transition := sessionTransition{from: stateAbsent, to: stateOf(present), supplied: supplied}
	if existing != nil {
		transition.from = stateOf(existing.Present)
		transition.stored = existing.Grades()
	}
	return transition
}

// candidateEntries picks the entries to validate before marks are computed.
//
//   - Supplied entries always win.
//   - PRESENT to PRESENT keeps the stored entries.
//   - Becoming PRESENT credits full marks, shaped on the stored entries when there
//     are any, otherwise on the catalog.
//   - Becoming or staying ABSENT keeps the stored shape, falling back to the
//     catalog. Marks are zeroed afterwards by settle.
//
// Stored entries whose grade type left the catalog are not carried forward.
func (t sessionTransition) candidateEntries(catalog []models.GradeType) []models.SessionGradeEntry {
	if len(t.supplied) > 0 {
		return cloneSessionEntries(t.supplied)
	}

	stored := entriesInCatalog(catalog, t.stored)

	if t.to == statePresent {
		if t.from == statePresent && len(stored) > 0 {
			return stored
		}
		if len(stored) > 0 {
			for i := range stored {
				stored[i].Mark = stored[i].FullMark
			}
			return stored
		}
		return grading.DefaultSessionEntries(catalog, true)
	}

	if len(stored) > 0 {
		return stored
	}
	return grading.DefaultSessionEntries(catalog, false)
}

// settle applies the absence rule: an absent student keeps the entry shape with
// every mark forced to zero.
func (t sessionTransition) settle(entries []models.SessionGradeEntry) []models.SessionGradeEntry {
	if t.to == statePresent {
		return entries
	}
	zeroed := cloneSessionEntries(entries)
	for i := range zeroed {
		zeroed[i].Mark = 0
	}
	return zeroed
}

func entriesInCatalog(catalog []models.GradeType, entries []models.SessionGradeEntry) []models.SessionGradeEntry {
	known := make(map[string]struct{}, len(catalog))
	for _, gradeType := range catalog {
		known[gradeType.Name] = struct{}{}
	}

	kept := make([]models.SessionGradeEntry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := known[entry.GradeName]; !ok {
			continue
		}
		if _, dup := seen[entry.GradeName]; dup {
			continue
		}
		seen[entry.GradeName] = struct{}{}
		kept = append(kept, entry)
	}
	return kept
}

func cloneSessionEntries(entries []models.SessionGradeEntry) []models.SessionGradeEntry {
	if entries == nil {
		return nil
	}
	return append([]models.SessionGradeEntry(nil), entries...)
}
