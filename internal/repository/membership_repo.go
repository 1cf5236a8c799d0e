package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// MembershipRepository persists the users allowed to administer an activity.
type MembershipRepository interface {
	Create(ctx context.Context, membership *models.Membership) error
	Get(ctx context.Context, activityID, userID uuid.UUID) (models.Membership, error)
	ListByActivity(ctx context.Context, activityID uuid.UUID) ([]models.Membership, error)
	SetRole(ctx context.Context, activityID, userID uuid.UUID, role models.MembershipRole) error
	Delete(ctx context.Context, activityID, userID uuid.UUID) error
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository constructs the membership repository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return conn(ctx, r.db).Create(membership).Error
}

func (r *membershipRepository) Get(ctx context.Context, activityID, userID uuid.UUID) (models.Membership, error) {
	var membership models.Membership
	err := conn(ctx, r.db).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		First(&membership).Error
	if err != nil {
		return models.Membership{}, err
	}
	return membership, nil
}

func (r *membershipRepository) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	err := conn(ctx, r.db).
		Where("activity_id = ?", activityID).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (r *membershipRepository) SetRole(ctx context.Context, activityID, userID uuid.UUID, role models.MembershipRole) error {
	result := conn(ctx, r.db).Model(&models.Membership{}).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *membershipRepository) Delete(ctx context.Context, activityID, userID uuid.UUID) error {
	result := conn(ctx, r.db).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		Delete(&models.Membership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
