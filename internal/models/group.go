package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Group is a roster subdivision of an activity.
type Group struct {
	ID         uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityID uuid.UUID                   `gorm:"type:uuid;not null;index" json:"activity_id"`
	Name       string                      `gorm:"size:255;not null" json:"name"`
	Labels     datatypes.JSONSlice[string] `json:"labels"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// BeforeCreate assigns an identifier when missing.
func (g *Group) BeforeCreate(tx *gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

// HasLabel reports whether the group carries the label.
func (g Group) HasLabel(label string) bool {
	for _, l := range g.Labels {
		if l == label {
			return true
		}
	}
	return false
}
