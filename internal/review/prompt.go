package review

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var promptPolicy = bluemonday.StrictPolicy()

// CriterionInfo describes one scoring axis shown to the model.
type CriterionInfo struct {
	Name        string
	Description string
}

// PromptInput carries everything the prompt builder needs for one review.
type PromptInput struct {
	EventName     string
	EventType     string
	Description   string
	Topics        []string
	AudienceLevel string
	Criteria      []CriterionInfo

	Title    string
	Abstract string
	Similar  []SimilarSubmission

	// MaxAbstractChars bounds the submission text included in the prompt.
	MaxAbstractChars int
}

// SystemPrompt instructs the model to act as a CFP reviewer and return JSON.
func SystemPrompt() string {
	return "You are an experienced conference programme committee reviewer. " +
		"Assess the submission against the event's review criteria and respond with a single JSON object containing: " +
		"criteriaScores (object mapping each criterion name to a score from 1 to 5), " +
		"overallScore (1-5), summary, recommendation (ACCEPT, REJECT, or NEUTRAL), " +
		"strengths, weaknesses, and suggestions (arrays of strings), " +
		"and confidence (0-1). Respond with JSON only."
}

// RepairPrompt asks the model to fix its own malformed JSON output.
func RepairPrompt() string {
	return "The previous response was not valid JSON. " +
		"Return the same content as a single valid JSON object with no surrounding prose or code fences."
}

// UserPrompt renders the submission and event context. Submission text is
// HTML-stripped and length-capped before it reaches the model.
func UserPrompt(in PromptInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Event\n")
	builder.WriteString(cleanText(in.EventName, 0))
	if in.EventType != "" {
		builder.WriteString(fmt.Sprintf(" (%s)", in.EventType))
	}
	if in.Description != "" {
		builder.WriteString("\n\n## About\n")
		builder.WriteString(cleanText(in.Description, 2000))
	}
	if len(in.Topics) > 0 {
		builder.WriteString("\n\n## Topics\n")
		builder.WriteString(strings.Join(in.Topics, ", "))
	}
	if in.AudienceLevel != "" {
		builder.WriteString("\n\n## Audience\n")
		builder.WriteString(in.AudienceLevel)
	}

	if len(in.Criteria) > 0 {
		builder.WriteString("\n\n## Review Criteria\n")
		for _, criterion := range in.Criteria {
			builder.WriteString("- ")
			builder.WriteString(criterion.Name)
			if criterion.Description != "" {
				builder.WriteString(": ")
				builder.WriteString(cleanText(criterion.Description, 500))
			}
			builder.WriteString("\n")
		}
	}

	builder.WriteString("\n# Submission\n## Title\n")
	builder.WriteString(cleanText(in.Title, 500))
	builder.WriteString("\n\n## Abstract\n")
	builder.WriteString(cleanText(in.Abstract, in.MaxAbstractChars))

	if len(in.Similar) > 0 {
		builder.WriteString("\n\n## Possible Duplicates\n")
		builder.WriteString("Prior submissions to this event with similar text; weigh originality accordingly:\n")
		for _, similar := range in.Similar {
			builder.WriteString(fmt.Sprintf("- %s (similarity %.2f)\n", cleanText(similar.Title, 500), similar.Similarity))
		}
	}

	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

// cleanText strips HTML and caps length. A maxChars of 0 means no cap.
func cleanText(text string, maxChars int) string {
	cleaned := strings.TrimSpace(html.UnescapeString(promptPolicy.Sanitize(text)))
	if maxChars > 0 && len(cleaned) > maxChars {
		cleaned = cleaned[:maxChars]
	}
	return cleaned
}
