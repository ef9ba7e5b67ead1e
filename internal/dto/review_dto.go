// Package dto defines the request and response payloads of the admin API.
package dto

import (
	"time"

	"github.com/l33tdawg/cfp-directory-plugins/internal/models"
)

// TriggerReviewResponse acknowledges an accepted review request.
type TriggerReviewResponse struct {
	JobID        string `json:"jobId"`
	SubmissionID uint   `json:"submissionId"`
	Status       string `json:"status"`
}

// ReviewResponse is one persisted review row.
type ReviewResponse struct {
	ID             uint           `json:"id"`
	SubmissionID   uint           `json:"submissionId"`
	OverallScore   float64        `json:"overallScore"`
	Recommendation string         `json:"recommendation"`
	Summary        string         `json:"summary"`
	CriteriaScores map[string]any `json:"criteriaScores"`
	Strengths      []string       `json:"strengths"`
	Weaknesses     []string       `json:"weaknesses"`
	Suggestions    []string       `json:"suggestions"`
	Confidence     float64        `json:"confidence"`
	LowConfidence  bool           `json:"lowConfidence"`
	Provider       string         `json:"provider"`
	Model          string         `json:"model"`
	CostUSD        float64        `json:"costUsd"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// NewReviewResponse maps a review row to its API shape.
func NewReviewResponse(review models.Review) ReviewResponse {
	return ReviewResponse{
		ID:             review.ID,
		SubmissionID:   review.SubmissionID,
		OverallScore:   review.OverallScore,
		Recommendation: review.Recommendation,
		Summary:        review.Summary,
		CriteriaScores: review.CriteriaScores,
		Strengths:      review.Strengths,
		Weaknesses:     review.Weaknesses,
		Suggestions:    review.Suggestions,
		Confidence:     review.Confidence,
		LowConfidence:  review.LowConfidence,
		Provider:       review.Provider,
		Model:          review.Model,
		CostUSD:        review.CostUSD,
		CreatedAt:      review.CreatedAt,
		UpdatedAt:      review.UpdatedAt,
	}
}

// JobResponse reports the state of a queued review job.
type JobResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
