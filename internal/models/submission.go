package models

import "time"

// Submission is a paper proposed to an event's call for papers.
type Submission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     uint      `gorm:"not null;index" json:"event_id"`
	Title       string    `gorm:"size:512;not null" json:"title"`
	Abstract    string    `gorm:"type:text" json:"abstract"`
	SpeakerName string    `gorm:"size:255" json:"speaker_name"`
	Status      string    `gorm:"size:32;not null;default:submitted" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Event       Event     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"event"`
}

const (
	// SubmissionStatusSubmitted indicates the proposal is awaiting review.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusAccepted indicates the proposal was accepted.
	SubmissionStatusAccepted = "accepted"
	// SubmissionStatusRejected indicates the proposal was declined.
	SubmissionStatusRejected = "rejected"
)
