package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event is a conference (or meetup) running a call for papers.
type Event struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Name          string                      `gorm:"size:255;not null" json:"name"`
	Description   string                      `gorm:"type:text" json:"description"`
	EventType     string                      `gorm:"size:64" json:"event_type"`
	Topics        datatypes.JSONSlice[string] `json:"topics"`
	AudienceLevel string                      `gorm:"size:64" json:"audience_level"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	Criteria      []ReviewCriterion           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"criteria"`
}

// ReviewCriterion is one axis submissions are scored against for an event.
type ReviewCriterion struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	EventID     uint    `gorm:"not null;index" json:"event_id"`
	Name        string  `gorm:"size:128;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Weight      float64 `gorm:"default:1" json:"weight"`
	Position    int     `json:"position"`
}
