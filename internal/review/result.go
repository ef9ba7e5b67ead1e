// Package review contains the AI reviewer core: response parsing and repair,
// sanitization of model output, duplicate detection, and prompt construction.
package review

import "github.com/l33tdawg/cfp-directory-plugins/pkg/ai"

// SimilarSubmission is one duplicate-detection hit. Computed per job run and
// attached to the analysis; never persisted on its own.
type SimilarSubmission struct {
	ID         uint    `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// AnalysisResult is the sanitized outcome of one AI review pass. It is built
// once per job from the raw model text and not mutated afterwards; the raw
// text itself is discarded before anything is persisted.
type AnalysisResult struct {
	CriteriaScores map[string]float64 `json:"criteriaScores"`
	OverallScore   float64            `json:"overallScore"`
	Summary        string             `json:"summary"`
	Recommendation string             `json:"recommendation"`
	Strengths      []string           `json:"strengths"`
	Weaknesses     []string           `json:"weaknesses"`
	Suggestions    []string           `json:"suggestions"`
	Confidence     float64            `json:"confidence"`

	Similar []SimilarSubmission `json:"similar,omitempty"`

	Usage   ai.Usage `json:"usage"`
	CostUSD float64  `json:"costUsd"`

	ParseAttempts int  `json:"parseAttempts"`
	RepairApplied bool `json:"repairApplied"`
}
