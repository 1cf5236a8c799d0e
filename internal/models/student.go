package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Student represents a learner enrolled in activity groups.
type Student struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Phone     string    `gorm:"size:32;index" json:"phone,omitempty"`
	Email     string    `gorm:"size:255;index" json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an identifier when missing.
func (s *Student) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Enrollment places a student in one group of an activity.
type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_activity_student" json:"activity_id"`
	GroupID    uuid.UUID `gorm:"type:uuid;not null;index" json:"group_id"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_activity_student;index" json:"student_id"`
	Student    Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate assigns an identifier when missing.
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
