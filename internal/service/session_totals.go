package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/khazandria-api/internal/repository"
)

// SessionTotals computes a student's cumulative session mark inside an activity.
type SessionTotals interface {
	SumStudentSessionTotal(ctx context.Context, activityID, studentID uuid.UUID) (float64, error)
}

type sessionTotals struct {
	groups   repository.GroupRepository
	sessions repository.SessionRepository
}

// NewSessionTotals constructs the session total aggregator.
func NewSessionTotals(groups repository.GroupRepository, sessions repository.SessionRepository) SessionTotals {
	return &sessionTotals{groups: groups, sessions: sessions}
}

// SumStudentSessionTotal walks every group of the activity and sums the student's
// total session mark over their sessions. Sessions whose roster lacks the student
// contribute nothing.
func (t *sessionTotals) SumStudentSessionTotal(ctx context.Context, activityID, studentID uuid.UUID) (float64, error) {
	groupIDs, err := t.groups.ListIDsByActivity(ctx, activityID)
	if err != nil {
		return 0, err
	}
	return t.sessions.SumStudentTotal(ctx, groupIDs, studentID)
}
