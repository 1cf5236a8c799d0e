package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GlobalGrade materialises a student's exam marks and combined totals inside an activity.
type GlobalGrade struct {
	ID               uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID       uuid.UUID                             `gorm:"type:uuid;not null;uniqueIndex:idx_global_grade_activity_student" json:"activity_id"`
	StudentID        uuid.UUID                             `gorm:"type:uuid;not null;uniqueIndex:idx_global_grade_activity_student;index" json:"student_id"`
	Grades           datatypes.JSONSlice[GlobalGradeEntry] `json:"grades"`
	TotalGlobalMark  float64                               `gorm:"not null;default:0" json:"total_global_mark"`
	TotalSessionMark float64                               `gorm:"not null;default:0" json:"total_session_mark"`
	TotalFinalMark   float64                               `gorm:"not null;default:0" json:"total_final_mark"`
	// RecordedBy is nil when the row was initialised by the system rather than a user.
	RecordedBy *uuid.UUID `gorm:"type:uuid" json:"recorded_by"`
	Version    uint       `gorm:"not null;default:1" json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an identifier when missing.
func (g *GlobalGrade) BeforeCreate(tx *gorm.DB) error {
	ensureID(&g.ID)
	if g.Version == 0 {
		g.Version = 1
	}
	return nil
}

// Entries returns the grade entries as a plain slice.
func (g GlobalGrade) Entries() []GlobalGradeEntry {
	return []GlobalGradeEntry(g.Grades)
}

// InitializedBySystem reports whether no user has edited the row yet.
func (g GlobalGrade) InitializedBySystem() bool {
	return g.RecordedBy == nil
}
