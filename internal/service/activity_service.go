package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/dto"
	"github.com/noah-isme/khazandria-api/internal/grading"
	"github.com/noah-isme/khazandria-api/internal/models"
	"github.com/noah-isme/khazandria-api/internal/repository"
	"github.com/noah-isme/khazandria-api/pkg/apperror"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ActivityService manages activities, their grade catalogs and admin memberships.
type ActivityService interface {
	Create(ctx context.Context, req dto.CreateActivityRequest, actor Actor) (dto.ActivityResponse, error)
	Get(ctx context.Context, id uuid.UUID) (dto.ActivityResponse, error)
	List(ctx context.Context, req dto.ActivityListRequest, actor Actor) (dto.ActivityListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateActivityRequest, actor Actor) (dto.ActivityResponse, error)
	ReassignHead(ctx context.Context, id uuid.UUID, req dto.ReassignHeadRequest, actor Actor) (dto.ActivityResponse, error)
	ListMembers(ctx context.Context, id uuid.UUID) ([]dto.MembershipResponse, error)
	AddMember(ctx context.Context, id uuid.UUID, req dto.AddMemberRequest, actor Actor) (dto.MembershipResponse, error)
	RemoveMember(ctx context.Context, id, userID uuid.UUID, actor Actor) error
}

type activityService struct {
	activities  repository.ActivityRepository
	memberships repository.MembershipRepository
	tx          repository.Transactor
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	reports     ReportInvalidator
	audit       AuditRecorder
	logger      zerolog.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repos repository.Repositories, validator *validator.Validate, reports ReportInvalidator, audit AuditRecorder, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities:  repos.Activities,
		memberships: repos.Memberships,
		tx:          repos.Transactor,
		validator:   validator,
		sanitizer:   bluemonday.StrictPolicy(),
		reports:     reportInvalidatorOrNoop(reports),
		audit:       audit,
		logger:      logger.With().Str("component", "activity_service").Logger(),
	}
}

// Create stores the activity and grants its head admin a head membership.
func (s *activityService) Create(ctx context.Context, req dto.CreateActivityRequest, actor Actor) (dto.ActivityResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return dto.ActivityResponse{}, err
	}

	name := s.sanitizer.Sanitize(strings.TrimSpace(req.Name))
	if name == "" {
		return dto.ActivityResponse{}, apperror.Validation([]string{"name is required"})
	}
	headID, err := uuid.Parse(req.HeadAdminID)
	if err != nil {
		return dto.ActivityResponse{}, apperror.InvalidReference("head_admin_id")
	}

	bonusMax := float64(models.DefaultSessionBonusMax)
	if req.SessionBonusMax != nil {
		bonusMax = *req.SessionBonusMax
	}

	activity := models.Activity{
		Name:              name,
		HeadAdminID:       headID,
		SessionBonusMax:   bonusMax,
		SessionGradeTypes: s.sanitizeCatalog(dto.CatalogFromPayload(req.SessionGradeTypes)),
		GlobalGradeTypes:  s.sanitizeCatalog(dto.CatalogFromPayload(req.GlobalGradeTypes)),
	}
	if err := validateCatalogs(activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.activities.Create(ctx, &activity); err != nil {
			return err
		}
		return s.memberships.Create(ctx, &models.Membership{
			ActivityID: activity.ID,
			UserID:     headID,
			Role:       models.MembershipRoleHead,
		})
	})
	if err != nil {
		return dto.ActivityResponse{}, persistError(err, "activity", "failed to create activity")
	}

	s.logger.Info().Str("activity_id", activity.ID.String()).Msg("activity created")
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "activity.created",
		EntityType: "activity",
		EntityID:   activity.ID,
		Metadata: map[string]interface{}{
			"name":          activity.Name,
			"head_admin_id": headID.String(),
		},
	})

	return s.Get(ctx, activity.ID)
}

func (s *activityService) Get(ctx context.Context, id uuid.UUID) (dto.ActivityResponse, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, lookupError(err, "activity")
	}
	return dto.NewActivityResponse(activity), nil
}

// List returns every activity to a superadmin and only member activities to
// everyone else.
func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest, actor Actor) (dto.ActivityListResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	filter := repository.ActivityFilter{
		Search:   strings.TrimSpace(req.Search),
		Page:     page,
		PageSize: pageSize,
	}
	if actor.Role != RoleSuperAdmin {
		filter.MemberID = uuidRef(actor.ID)
	}

	activities, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, apperror.Internal(err, "failed to list activities")
	}

	items := make([]dto.ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		items = append(items, dto.NewActivityResponse(activity))
	}
	return dto.ActivityListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

// Update patches the activity. Replacing a catalog does not rewrite stored grades;
// global grades are repaired on their next read.
func (s *activityService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateActivityRequest, actor Actor) (dto.ActivityResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, lookupError(err, "activity")
	}

	changed := make([]string, 0, 4)
	if req.Name != nil {
		name := s.sanitizer.Sanitize(strings.TrimSpace(*req.Name))
		if name == "" {
			return dto.ActivityResponse{}, apperror.Validation([]string{"name is required"})
		}
		activity.Name = name
		changed = append(changed, "name")
	}
	if req.SessionBonusMax != nil {
		activity.SessionBonusMax = *req.SessionBonusMax
		changed = append(changed, "session_bonus_max")
	}
	if req.SessionGradeTypes != nil {
		activity.SessionGradeTypes = s.sanitizeCatalog(dto.CatalogFromPayload(req.SessionGradeTypes))
		changed = append(changed, "session_grade_types")
	}
	if req.GlobalGradeTypes != nil {
		activity.GlobalGradeTypes = s.sanitizeCatalog(dto.CatalogFromPayload(req.GlobalGradeTypes))
		changed = append(changed, "global_grade_types")
	}
	if err := validateCatalogs(activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.activities.Update(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, persistError(err, "activity", "failed to update activity")
	}

	s.reports.Invalidate(ctx, activity.ID)
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "activity.updated",
		EntityType: "activity",
		EntityID:   activity.ID,
		Metadata:   map[string]interface{}{"fields": changed},
	})

	return s.Get(ctx, activity.ID)
}

// ReassignHead moves the head role to another user. The previous head stays on as
// an admin. Activity and memberships change in one transaction.
func (s *activityService) ReassignHead(ctx context.Context, id uuid.UUID, req dto.ReassignHeadRequest, actor Actor) (dto.ActivityResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return dto.ActivityResponse{}, err
	}
	newHead, err := uuid.Parse(req.UserID)
	if err != nil {
		return dto.ActivityResponse{}, apperror.InvalidReference("user_id")
	}

	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, lookupError(err, "activity")
	}
	previousHead := activity.HeadAdminID
	if previousHead == newHead {
		return dto.NewActivityResponse(activity), nil
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		err := s.memberships.SetRole(ctx, activity.ID, previousHead, models.MembershipRoleAdmin)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		_, err = s.memberships.Get(ctx, activity.ID, newHead)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = s.memberships.Create(ctx, &models.Membership{
				ActivityID: activity.ID,
				UserID:     newHead,
				Role:       models.MembershipRoleHead,
			})
		case err == nil:
			err = s.memberships.SetRole(ctx, activity.ID, newHead, models.MembershipRoleHead)
		}
		if err != nil {
			return err
		}

		activity.HeadAdminID = newHead
		return s.activities.Update(ctx, &activity)
	})
	if err != nil {
		return dto.ActivityResponse{}, persistError(err, "activity", "failed to reassign head admin")
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "activity.head_reassigned",
		EntityType: "activity",
		EntityID:   activity.ID,
		Metadata: map[string]interface{}{
			"previous_head_id": previousHead.String(),
			"head_admin_id":    newHead.String(),
		},
	})

	return s.Get(ctx, activity.ID)
}

func (s *activityService) ListMembers(ctx context.Context, id uuid.UUID) ([]dto.MembershipResponse, error) {
	if _, err := s.activities.GetByID(ctx, id); err != nil {
		return nil, lookupError(err, "activity")
	}

	memberships, err := s.memberships.ListByActivity(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list admins")
	}

	responses := make([]dto.MembershipResponse, 0, len(memberships))
	for _, membership := range memberships {
		responses = append(responses, dto.NewMembershipResponse(membership))
	}
	return responses, nil
}

func (s *activityService) AddMember(ctx context.Context, id uuid.UUID, req dto.AddMemberRequest, actor Actor) (dto.MembershipResponse, error) {
	if err := validatePayload(s.validator, req); err != nil {
		return dto.MembershipResponse{}, err
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return dto.MembershipResponse{}, apperror.InvalidReference("user_id")
	}

	if _, err := s.activities.GetByID(ctx, id); err != nil {
		return dto.MembershipResponse{}, lookupError(err, "activity")
	}

	_, err = s.memberships.Get(ctx, id, userID)
	if err == nil {
		return dto.MembershipResponse{}, apperror.Conflict("user is already an admin of this activity")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.MembershipResponse{}, apperror.Internal(err, "failed to load membership")
	}

	membership := models.Membership{ActivityID: id, UserID: userID, Role: models.MembershipRoleAdmin}
	if err := s.memberships.Create(ctx, &membership); err != nil {
		return dto.MembershipResponse{}, persistError(err, "membership", "failed to add admin")
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "activity.admin_added",
		EntityType: "activity",
		EntityID:   id,
		Metadata:   map[string]interface{}{"user_id": userID.String()},
	})

	return dto.NewMembershipResponse(membership), nil
}

// RemoveMember revokes an admin. The head admin can only leave through ReassignHead.
func (s *activityService) RemoveMember(ctx context.Context, id, userID uuid.UUID, actor Actor) error {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return lookupError(err, "activity")
	}
	if activity.HeadAdminID == userID {
		return apperror.Validation([]string{"cannot remove the head admin, reassign the head first"})
	}

	if err := s.memberships.Delete(ctx, id, userID); err != nil {
		return persistError(err, "membership", "failed to remove admin")
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "activity.admin_removed",
		EntityType: "activity",
		EntityID:   id,
		Metadata:   map[string]interface{}{"user_id": userID.String()},
	})
	return nil
}

func (s *activityService) sanitizeCatalog(catalog []models.GradeType) []models.GradeType {
	for i := range catalog {
		catalog[i].Name = s.sanitizer.Sanitize(strings.TrimSpace(catalog[i].Name))
	}
	return catalog
}

func validateCatalogs(activity models.Activity) error {
	details := grading.ValidateCatalog("session_grade_types", activity.SessionCatalog())
	details = append(details, grading.ValidateCatalog("global_grade_types", activity.GlobalCatalog())...)
	if activity.SessionBonusMax < 0 {
		details = append(details, "session_bonus_max must be greater than or equal to 0")
	}
	if len(details) > 0 {
		return apperror.Validation(details)
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
