package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// GlobalGradeRepository persists per-activity exam grades.
type GlobalGradeRepository interface {
	Get(ctx context.Context, activityID, studentID uuid.UUID) (models.GlobalGrade, error)
	ListByStudents(ctx context.Context, activityID uuid.UUID, studentIDs []uuid.UUID) ([]models.GlobalGrade, error)
	CreateIfAbsent(ctx context.Context, grade *models.GlobalGrade) (bool, error)
	Update(ctx context.Context, grade *models.GlobalGrade) error
	Upsert(ctx context.Context, grade *models.GlobalGrade) (models.GlobalGrade, error)
}

type globalGradeRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGlobalGradeRepository constructs the global grade repository.
func NewGlobalGradeRepository(db *gorm.DB) GlobalGradeRepository {
	return &globalGradeRepository{db: db, now: time.Now}
}

func (r *globalGradeRepository) Get(ctx context.Context, activityID, studentID uuid.UUID) (models.GlobalGrade, error) {
	var grade models.GlobalGrade
	err := conn(ctx, r.db).
		Where("activity_id = ? AND student_id = ?", activityID, studentID).
		First(&grade).Error
	if err != nil {
		return models.GlobalGrade{}, err
	}
	return grade, nil
}

func (r *globalGradeRepository) ListByStudents(ctx context.Context, activityID uuid.UUID, studentIDs []uuid.UUID) ([]models.GlobalGrade, error) {
	if len(studentIDs) == 0 {
		return []models.GlobalGrade{}, nil
	}

	var grades []models.GlobalGrade
	err := conn(ctx, r.db).
		Where("activity_id = ? AND student_id IN ?", activityID, studentIDs).
		Find(&grades).Error
	return grades, err
}

// CreateIfAbsent inserts the row unless one already exists for the
// (activity, student) pair. It reports whether this call created it.
func (r *globalGradeRepository) CreateIfAbsent(ctx context.Context, grade *models.GlobalGrade) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "activity_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(grade)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Update writes the row only if its stored version still matches grade.Version.
func (r *globalGradeRepository) Update(ctx context.Context, grade *models.GlobalGrade) error {
	now := r.now()
	result := conn(ctx, r.db).Model(&models.GlobalGrade{}).
		Where("id = ? AND version = ?", grade.ID, grade.Version).
		Updates(map[string]interface{}{
			"grades":             grade.Grades,
			"total_global_mark":  grade.TotalGlobalMark,
			"total_session_mark": grade.TotalSessionMark,
			"total_final_mark":   grade.TotalFinalMark,
			"recorded_by":        grade.RecordedBy,
			"version":            grade.Version + 1,
			"updated_at":         now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	grade.Version++
	grade.UpdatedAt = now
	return nil
}

// Upsert writes the grade keyed by (activity, student) and returns the stored row.
func (r *globalGradeRepository) Upsert(ctx context.Context, grade *models.GlobalGrade) (models.GlobalGrade, error) {
	updates := clause.AssignmentColumns([]string{
		"grades",
		"total_global_mark",
		"total_session_mark",
		"total_final_mark",
		"recorded_by",
		"updated_at",
	})
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "version"},
		Value:  gorm.Expr("global_grades.version + 1"),
	})

	err := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "activity_id"}, {Name: "student_id"}},
			DoUpdates: updates,
		}).
		Create(grade).Error
	if err != nil {
		return models.GlobalGrade{}, err
	}

	return r.Get(ctx, grade.ActivityID, grade.StudentID)
}
