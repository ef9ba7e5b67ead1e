package models

import (
	"time"

	"gorm.io/datatypes"
)

// Review is one reviewer's assessment of a submission. The AI reviewer owns
// at most one row per submission, enforced by the composite unique index on
// (submission_id, reviewer_id).
type Review struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	SubmissionID   uint                        `gorm:"not null;uniqueIndex:idx_reviews_submission_reviewer" json:"submission_id"`
	ReviewerID     uint                        `gorm:"not null;uniqueIndex:idx_reviews_submission_reviewer" json:"reviewer_id"`
	OverallScore   float64                     `gorm:"not null" json:"overall_score"`
	Recommendation string                      `gorm:"size:32" json:"recommendation"`
	Summary        string                      `gorm:"type:text" json:"summary"`
	CriteriaScores datatypes.JSONMap           `json:"criteria_scores"`
	Strengths      datatypes.JSONSlice[string] `json:"strengths"`
	Weaknesses     datatypes.JSONSlice[string] `json:"weaknesses"`
	Suggestions    datatypes.JSONSlice[string] `json:"suggestions"`
	Confidence     float64                     `json:"confidence"`
	LowConfidence  bool                        `json:"low_confidence"`
	Similar        datatypes.JSON              `json:"similar"`
	Provider       string                      `gorm:"size:32" json:"provider"`
	Model          string                      `gorm:"size:128" json:"model"`
	InputTokens    int                         `json:"input_tokens"`
	OutputTokens   int                         `json:"output_tokens"`
	CostUSD        float64                     `json:"cost_usd"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// ServiceAccount is a provisioned non-human reviewer identity. Reviews written
// by the AI reviewer are matched on this account's id only, never on content.
type ServiceAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Image     string    `gorm:"size:512" json:"image"`
	CreatedAt time.Time `json:"created_at"`
}
