package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/models"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

// GroupService manages the roster groups of an activity.
type GroupService interface {
	Create(ctx context.Context, activityID uuid.UUID, req dto.CreateGroupRequest, actor Actor) (dto.GroupResponse, error)
	ListByActivity(ctx context.Context, activityID uuid.UUID, label string) ([]dto.GroupResponse, error)
	Get(ctx context.Context, id uuid.UUID) (dto.GroupResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateGroupRequest, actor Actor) (dto.GroupResponse, error)
}

type groupService struct {
	activities repository.ActivityRepository
	groups     repository.GroupRepository
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	audit      AuditRecorder
	logger     zerolog.Logger
}

// NewGroupService constructs the group service.
func NewGroupService(repos repository.Repositories, validator *validator.Validate, audit AuditRecorder, logger zerolog.Logger) GroupService {
	return &groupService{
		activities: repos.Activities,
		groups:     repos.Groups,
		validator:  validator,
		sanitizer:  bluemonday.StrictPolicy(),
		audit:      audit,
		logger:     logger.With().Str("component", "group_service").Logger(),
	}
}

func (s *groupService) Create(ctx context.Context, activityID uuid.UUID, req dto.CreateGroupRequest, actor Actor) (dto.GroupResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return dto.GroupResponse{}, err
	}
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return dto.GroupResponse{}, lookupError(err, "activity")
	}

	name := s.sanitizer.Sanitize(strings.TrimSpace(req.Name))
	if name == "" {
		return dto.GroupResponse{}, apperror.Validation([]string{"name is required"})
	}

	group := models.Group{
		ActivityID: activityID,
		Name:       name,
		Labels:     s.cleanLabels(req.Labels),
	}
	if err := s.groups.Create(ctx, &group); err != nil {
		return dto.GroupResponse{}, persistError(err, "group", "failed to create group")
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "group.created",
		EntityType: "group",
		EntityID:   group.ID,
		Metadata:   map[string]interface{}{"activity_id": activityID.String(), "name": group.Name},
	})

	return s.Get(ctx, group.ID)
}

// ListByActivity returns the activity's groups, optionally only those carrying label.
func (s *groupService) ListByActivity(ctx context.Context, activityID uuid.UUID, label string) ([]dto.GroupResponse, error) {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return nil, lookupError(err, "activity")
	}

	groups, err := s.groups.ListByActivity(ctx, activityID, strings.TrimSpace(label))
	if err != nil {
		return nil, apperror.Internal(err, "failed to list groups")
	}

	responses := make([]dto.GroupResponse, 0, len(groups))
	for _, group := range groups {
		responses = append(responses, dto.NewGroupResponse(group))
	}
	return responses, nil
}

func (s *groupService) Get(ctx context.Context, id uuid.UUID) (dto.GroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return dto.GroupResponse{}, lookupError(err, "group")
	}
	return dto.NewGroupResponse(group), nil
}

func (s *groupService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateGroupRequest, actor Actor) (dto.GroupResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return dto.GroupResponse{}, lookupError(err, "group")
	}

	if req.Name != nil {
		name := s.sanitizer.Sanitize(strings.TrimSpace(*req.Name))
		if name == "" {
			return dto.GroupResponse{}, apperror.Validation([]string{"name is required"})
		}
		group.Name = name
	}
	if req.Labels != nil {
		group.Labels = s.cleanLabels(req.Labels)
	}

	if err := s.groups.Update(ctx, &group); err != nil {
		return dto.GroupResponse{}, persistError(err, "group", "failed to update group")
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "group.updated",
		EntityType: "group",
		EntityID:   group.ID,
	})

	return s.Get(ctx, group.ID)
}

// cleanLabels sanitises labels and drops blanks and duplicates, keeping order.
func (s *groupService) cleanLabels(labels []string) []string {
	cleaned := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		label = s.sanitizer.Sanitize(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		cleaned = append(cleaned, label)
	}
	return cleaned
}
