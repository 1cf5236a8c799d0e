package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultSessionBonusMax is applied when an activity is created without a bonus cap.
const DefaultSessionBonusMax = 5

// Activity is the configuration root owning the grade catalogs.
type Activity struct {
	ID                uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string                         `gorm:"size:255;not null;index" json:"name"`
	HeadAdminID       uuid.UUID                      `gorm:"type:uuid;not null;index" json:"head_admin_id"`
	SessionBonusMax   float64                        `gorm:"not null" json:"session_bonus_max"`
	SessionGradeTypes datatypes.JSONSlice[GradeType] `json:"session_grade_types"`
	GlobalGradeTypes  datatypes.JSONSlice[GradeType] `json:"global_grade_types"`
	CreatedAt         time.Time                      `json:"created_at"`
	UpdatedAt         time.Time                      `json:"updated_at"`
}

// BeforeCreate assigns an identifier when missing.
func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// SessionCatalog returns the per-session grade catalog.
func (a Activity) SessionCatalog() []GradeType {
	return []GradeType(a.SessionGradeTypes)
}

// GlobalCatalog returns the per-activity exam catalog.
func (a Activity) GlobalCatalog() []GradeType {
	return []GradeType(a.GlobalGradeTypes)
}

// MembershipRole is a user's role inside one activity.
type MembershipRole string

const (
	MembershipRoleHead  MembershipRole = "head"
	MembershipRoleAdmin MembershipRole = "admin"
)

// Membership grants a user access to an activity.
type Membership struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_membership_activity_user" json:"activity_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_membership_activity_user;index" json:"user_id"`
	Role       MembershipRole `gorm:"size:16;not null" json:"role"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// BeforeCreate assigns an identifier when missing.
func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
