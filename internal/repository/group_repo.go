package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// GroupRepository persists the groups of an activity.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (models.Group, error)
	ListByActivity(ctx context.Context, activityID uuid.UUID, label string) ([]models.Group, error)
	ListIDsByActivity(ctx context.Context, activityID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, group *models.Group) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository constructs the group repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return conn(ctx, r.db).Create(group).Error
}

func (r *groupRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Group, error) {
	var group models.Group
	if err := conn(ctx, r.db).Where("id = ?", id).First(&group).Error; err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// ListByActivity returns the activity's groups ordered by name. Labels live in a
// JSON column whose query syntax differs per dialect, so the label filter runs here.
func (r *groupRepository) ListByActivity(ctx context.Context, activityID uuid.UUID, label string) ([]models.Group, error) {
	var groups []models.Group
	err := conn(ctx, r.db).
		Where("activity_id = ?", activityID).
		Order("name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}

	if label == "" {
		return groups, nil
	}

	filtered := make([]models.Group, 0, len(groups))
	for _, group := range groups {
		if group.HasLabel(label) {
			filtered = append(filtered, group)
		}
	}
	return filtered, nil
}

func (r *groupRepository) ListIDsByActivity(ctx context.Context, activityID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := conn(ctx, r.db).Model(&models.Group{}).
		Where("activity_id = ?", activityID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *groupRepository) Update(ctx context.Context, group *models.Group) error {
	result := conn(ctx, r.db).Model(&models.Group{}).
		Where("id = ?", group.ID).
		Updates(map[string]interface{}{
			"name":   group.Name,
			"labels": group.Labels,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
