package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session is one dated meeting of a group.
type Session struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_sessions_group_date,priority:1" json:"group_id"`
	SessionDate time.Time        `gorm:"not null;index:idx_sessions_group_date,priority:2" json:"session_date"`
	CreatedBy   uuid.UUID        `gorm:"type:uuid;not null" json:"created_by"`
	Students    []SessionStudent `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"students"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// BeforeCreate assigns an identifier when missing.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// FindStudent returns the roster index of the student or -1.
func (s Session) FindStudent(studentID uuid.UUID) int {
	for i := range s.Students {
		if s.Students[i].StudentID == studentID {
			return i
		}
	}
	return -1
}

// SessionStudent is the attendance and grade record of one student in one session.
type SessionStudent struct {
	ID               uuid.UUID                              `gorm:"type:uuid;primaryKey" json:"-"`
	SessionID        uuid.UUID                              `gorm:"type:uuid;not null;uniqueIndex:idx_session_student" json:"-"`
	StudentID        uuid.UUID                              `gorm:"type:uuid;not null;uniqueIndex:idx_session_student;index" json:"student_id"`
	Present          bool                                   `gorm:"not null;default:false" json:"present"`
	SessionMark      float64                                `gorm:"not null;default:0" json:"session_mark"`
	BonusMark        float64                                `gorm:"not null;default:0" json:"bonus_mark"`
	TotalSessionMark float64                                `gorm:"not null;default:0" json:"total_session_mark"`
	SessionGrades    datatypes.JSONSlice[SessionGradeEntry] `json:"session_grades"`
	RecordedBy       *uuid.UUID                             `gorm:"type:uuid" json:"recorded_by"`
	Version          uint                                   `gorm:"not null;default:1" json:"-"`
	CreatedAt        time.Time                              `json:"-"`
	UpdatedAt        time.Time                              `json:"updated_at"`
}

// BeforeCreate assigns an identifier when missing.
func (s *SessionStudent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}

// Grades returns the entries as a plain slice.
func (s SessionStudent) Grades() []SessionGradeEntry {
	return []SessionGradeEntry(s.SessionGrades)
}
