package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// DateRange bounds session dates inclusively. Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// SessionRepository persists sessions and their student rosters.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (models.Session, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Session, error)
	ListByGroupIDs(ctx context.Context, groupIDs []uuid.UUID, window DateRange) ([]models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CreateStudent(ctx context.Context, record *models.SessionStudent) error
	UpdateStudent(ctx context.Context, record *models.SessionStudent) error
	SumStudentTotal(ctx context.Context, groupIDs []uuid.UUID, studentID uuid.UUID) (float64, error)
}

type sessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSessionRepository constructs the session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db, now: time.Now}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return conn(ctx, r.db).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Session, error) {
	var session models.Session
	err := r.withRoster(conn(ctx, r.db)).Where("id = ?", id).First(&session).Error
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// ListByGroup returns the group's sessions newest first.
func (r *sessionRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := r.withRoster(conn(ctx, r.db)).
		Where("group_id = ?", groupID).
		Order("session_date DESC").
		Find(&sessions).Error
	return sessions, err
}

// ListByGroupIDs returns sessions of the given groups in chronological order.
func (r *sessionRepository) ListByGroupIDs(ctx context.Context, groupIDs []uuid.UUID, window DateRange) ([]models.Session, error) {
	if len(groupIDs) == 0 {
		return []models.Session{}, nil
	}

	query := r.withRoster(conn(ctx, r.db)).Where("group_id IN ?", groupIDs)
	if window.From != nil {
		query = query.Where("session_date >= ?", window.From.UTC())
	}
	if window.To != nil {
		query = query.Where("session_date <= ?", window.To.UTC())
	}

	var sessions []models.Session
	err := query.Order("session_date ASC").Order("created_at ASC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.SessionStudent{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Session{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *sessionRepository) CreateStudent(ctx context.Context, record *models.SessionStudent) error {
	return conn(ctx, r.db).Create(record).Error
}

// UpdateStudent writes the record only if its stored version still matches
// record.Version, then advances the version.
func (r *sessionRepository) UpdateStudent(ctx context.Context, record *models.SessionStudent) error {
	now := r.now()
	result := conn(ctx, r.db).Model(&models.SessionStudent{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]interface{}{
			"present":            record.Present,
			"session_mark":       record.SessionMark,
			"bonus_mark":         record.BonusMark,
			"total_session_mark": record.TotalSessionMark,
			"session_grades":     record.SessionGrades,
			"recorded_by":        record.RecordedBy,
			"version":            record.Version + 1,
			"updated_at":         now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	record.Version++
	record.UpdatedAt = now
	return nil
}

// SumStudentTotal adds up the student's total session marks across every session of
// the given groups. Sessions without a roster entry for the student contribute 0.
func (r *sessionRepository) SumStudentTotal(ctx context.Context, groupIDs []uuid.UUID, studentID uuid.UUID) (float64, error) {
	if len(groupIDs) == 0 {
		return 0, nil
	}

	var total float64
	err := conn(ctx, r.db).Model(&models.SessionStudent{}).
		Select("COALESCE(SUM(session_students.total_session_mark), 0)").
		Joins("JOIN sessions ON sessions.id = session_students.session_id").
		Where("sessions.group_id IN ? AND session_students.student_id = ?", groupIDs, studentID).
		Scan(&total).Error
	return total, err
}

func (r *sessionRepository) withRoster(query *gorm.DB) *gorm.DB {
	return query.Preload("Students", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}
