package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/models"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

// AccessService decides whether an actor may work inside an activity and resolves
// groups and sessions to their owning activity.
type AccessService interface {
	Authorize(ctx context.Context, actor Actor, activityID uuid.UUID, requireHead bool) error
	ActivityOfGroup(ctx context.Context, groupID uuid.UUID) (uuid.UUID, error)
	ActivityOfSession(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error)
}

type accessService struct {
	activities  repository.ActivityRepository
	memberships repository.MembershipRepository
	groups      repository.GroupRepository
	sessions    repository.SessionRepository
}

// NewAccessService constructs the access service.
func NewAccessService(repos repository.Repositories) AccessService {
	return &accessService{
		activities:  repos.Activities,
		memberships: repos.Memberships,
		groups:      repos.Groups,
		sessions:    repos.Sessions,
	}
}

// Authorize lets a superadmin through unconditionally. Anyone else needs a
// membership in the activity, and the head role when requireHead is set.
func (s *accessService) Authorize(ctx context.Context, actor Actor, activityID uuid.UUID, requireHead bool) error {
	if actor.Role == RoleSuperAdmin {
		return nil
	}
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return lookupError(err, "activity")
	}

	membership, err := s.memberships.Get(ctx, activityID, actor.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Forbidden("you are not an admin of this activity")
	}
	if err != nil {
		return apperror.Internal(err, "failed to load membership")
	}
	if requireHead && membership.Role != models.MembershipRoleHead {
		return apperror.Forbidden("only the head admin may perform this action")
	}
	return nil
}

func (s *accessService) ActivityOfGroup(ctx context.Context, groupID uuid.UUID) (uuid.UUID, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return uuid.Nil, lookupError(err, "group")
	}
	return group.ActivityID, nil
}

func (s *accessService) ActivityOfSession(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return uuid.Nil, lookupError(err, "session")
	}
	return s.ActivityOfGroup(ctx, session.GroupID)
}
