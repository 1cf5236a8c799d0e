// Package grading holds the pure rules that turn raw attendance and exam entries
// into session, global and final marks. Nothing here performs I/O.
package grading

import "github.com/noah-isme/khazandria-api/internal/models"

// SessionInput is the raw attendance and grading data for one student in one session.
type SessionInput struct {
	Present       bool
	BonusMark     float64
	SessionGrades []models.SessionGradeEntry
}

// SessionMarks are the derived per-session totals.
type SessionMarks struct {
	SessionMark      float64
	BonusMark        float64
	TotalSessionMark float64
}

// ComputeSessionMarks derives the session mark, clamped bonus and total. An absent
// student, or one without grade entries, scores zero across the board. Entries are
// summed as given; callers validate them first.
func ComputeSessionMarks(activity models.Activity, input SessionInput) SessionMarks {
	if !input.Present || len(input.SessionGrades) == 0 {
		return SessionMarks{}
	}

	var sum float64
	for _, entry := range input.SessionGrades {
		sum += entry.Mark
	}
	sessionMark := max(0, sum)
	bonus := ClampBonus(input.BonusMark, activity.SessionBonusMax)

	return SessionMarks{
		SessionMark:      sessionMark,
		BonusMark:        bonus,
		TotalSessionMark: sessionMark + bonus,
	}
}

// ClampBonus bounds the requested bonus to [0, limit].
func ClampBonus(requested, limit float64) float64 {
	return max(0, min(requested, max(0, limit)))
}

// ComputeGlobalTotal sums the marks of taken exams. Entries that were not taken
// contribute nothing whatever mark they store.
func ComputeGlobalTotal(entries []models.GlobalGradeEntry) float64 {
	var total float64
	for _, entry := range entries {
		if entry.IsTaken() {
			total += entry.Mark
		}
	}
	return total
}

// FinalMark combines the exam total with the cumulative session total.
func FinalMark(globalTotal, sessionTotal float64) float64 {
	return globalTotal + sessionTotal
}
