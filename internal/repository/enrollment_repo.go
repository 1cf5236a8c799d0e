package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// EnrollmentRepository persists group rosters.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByActivityStudent(ctx context.Context, activityID, studentID uuid.UUID) (models.Enrollment, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Enrollment, error)
	Delete(ctx context.Context, groupID, studentID uuid.UUID) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs the enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(enrollment).Error
}

func (r *enrollmentRepository) GetByActivityStudent(ctx context.Context, activityID, studentID uuid.UUID) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := conn(ctx, r.db).
		Where("activity_id = ? AND student_id = ?", activityID, studentID).
		First(&enrollment).Error
	if err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// ListByGroup returns the roster with each student preloaded.
func (r *enrollmentRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := conn(ctx, r.db).
		Preload("Student").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) Delete(ctx context.Context, groupID, studentID uuid.UUID) error {
	result := conn(ctx, r.db).
		Where("group_id = ? AND student_id = ?", groupID, studentID).
		Delete(&models.Enrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
