package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	Search   string
	MemberID *uuid.UUID
	Page     int
	PageSize int
}

// ActivityRepository persists activities and their grade catalogs.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id uuid.UUID) (models.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
	Update(ctx context.Context, activity *models.Activity) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return conn(ctx, r.db).Create(activity).Error
}

func (r *activityRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Activity, error) {
	var activity models.Activity
	if err := conn(ctx, r.db).Where("id = ?", id).First(&activity).Error; err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := conn(ctx, r.db).Model(&models.Activity{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if filter.MemberID != nil {
		query = query.Where("id IN (?)", conn(ctx, r.db).Model(&models.Membership{}).Select("activity_id").Where("user_id = ?", *filter.MemberID))
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var activities []models.Activity
	if err := query.Order("created_at DESC").Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	result := conn(ctx, r.db).Model(&models.Activity{}).
		Where("id = ?", activity.ID).
		Updates(map[string]interface{}{
			"name":                activity.Name,
			"head_admin_id":       activity.HeadAdminID,
			"session_bonus_max":   activity.SessionBonusMax,
			"session_grade_types": activity.SessionGradeTypes,
			"global_grade_types":  activity.GlobalGradeTypes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
