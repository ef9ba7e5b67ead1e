package review

import (
	"math"
	"unicode/utf8"
)

const (
	maxStringLength = 10000
	maxListLength   = 20

	defaultOverallScore = 3.0
	defaultConfidence   = 0.8

	// RecommendationNeutral is applied when the model returns no usable
	// recommendation.
	RecommendationNeutral = "NEUTRAL"
)

// reservedKeys are criterion names that must never surface, regardless of how
// they arrived in the payload. They are structural hooks in the ecosystems
// that produce this JSON, and a model echoing injected submission text can be
// coaxed into emitting them.
var reservedKeys = map[string]struct{}{
	"__proto__":   {},
	"prototype":   {},
	"constructor": {},
}

// legacyScoreFields maps flat per-criterion fields from older model prompts
// into named criteria, used only when criteriaScores comes back empty.
var legacyScoreFields = []struct {
	field string
	name  string
}{
	{"contentScore", "Content"},
	{"presentationScore", "Presentation"},
	{"relevanceScore", "Relevance"},
	{"originalityScore", "Originality"},
}

// Sanitize validates, clamps, and caps every field of a parsed model response.
// The input is adversarial: the model was shown submission text chosen by the
// submitter, so every field is treated as hostile until proven otherwise.
// Sanitize is pure and idempotent; a bad field resolves to its documented
// default rather than discarding the rest of an otherwise useful review.
func Sanitize(data map[string]any) AnalysisResult {
	result := AnalysisResult{
		CriteriaScores: sanitizeCriteriaScores(data["criteriaScores"]),
		OverallScore:   sanitizeScore(data["overallScore"], defaultOverallScore),
		Summary:        sanitizeString(data["summary"], ""),
		Recommendation: sanitizeString(data["recommendation"], RecommendationNeutral),
		Strengths:      sanitizeStringList(data["strengths"]),
		Weaknesses:     sanitizeStringList(data["weaknesses"]),
		Suggestions:    sanitizeStringList(data["suggestions"]),
		Confidence:     sanitizeConfidence(data["confidence"]),
	}

	if result.Recommendation == "" {
		result.Recommendation = RecommendationNeutral
	}

	if len(result.CriteriaScores) == 0 {
		for _, legacy := range legacyScoreFields {
			if value, ok := asNumber(data[legacy.field]); ok {
				result.CriteriaScores[legacy.name] = clampScore(value)
			}
		}
	}

	return result
}

// asNumber accepts only real JSON numbers: no strings, no objects, no NaN.
func asNumber(value any) (float64, bool) {
	number, ok := value.(float64)
	if !ok || math.IsNaN(number) {
		return 0, false
	}
	return number, true
}

// clampScore confines a score to [1,5] at one-decimal precision.
func clampScore(value float64) float64 {
	value = math.Min(5, math.Max(1, value))
	return math.Round(value*10) / 10
}

func sanitizeScore(value any, fallback float64) float64 {
	number, ok := asNumber(value)
	if !ok {
		return fallback
	}
	return clampScore(number)
}

func sanitizeConfidence(value any) float64 {
	number, ok := asNumber(value)
	if !ok {
		return defaultConfidence
	}
	return math.Min(1, math.Max(0, number))
}

func sanitizeString(value any, fallback string) string {
	text, ok := value.(string)
	if !ok {
		return fallback
	}
	return capString(text, maxStringLength)
}

// capString limits text to max bytes without splitting a multi-byte rune.
func capString(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}

func sanitizeStringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return []string{}
	}

	result := make([]string, 0, maxListLength)
	for _, item := range items {
		if len(result) == maxListLength {
			break
		}
		text, ok := item.(string)
		if !ok {
			continue
		}
		result = append(result, capString(text, maxStringLength))
	}

	return result
}

func sanitizeCriteriaScores(value any) map[string]float64 {
	scores := make(map[string]float64)

	entries, ok := value.(map[string]any)
	if !ok {
		return scores
	}

	for key, raw := range entries {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		number, ok := asNumber(raw)
		if !ok {
			continue
		}
		scores[key] = clampScore(number)
	}

	return scores
}
