package review

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSanitizeRejectsReservedCriteriaKeys(t *testing.T) {
	data := map[string]any{
		"criteriaScores": map[string]any{
			"__proto__":   4.0,
			"prototype":   4.0,
			"constructor": 4.0,
			"Content":     4.0,
		},
	}

	result := Sanitize(data)
	require.Equal(t, map[string]float64{"Content": 4.0}, result.CriteriaScores)
}

func TestSanitizeScoreDefaults(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  float64
	}{
		{"string", "five", 3.0},
		{"object", map[string]any{}, 3.0},
		{"nil", nil, 3.0},
		{"rounding", 4.37, 4.4},
		{"below range", -2.0, 1.0},
		{"above range", 99.0, 5.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Sanitize(map[string]any{"overallScore": tc.input})
			require.Equal(t, tc.want, result.OverallScore)
		})
	}
}

func TestSanitizeConfidence(t *testing.T) {
	require.Equal(t, 0.8, Sanitize(map[string]any{}).Confidence)
	require.Equal(t, 1.0, Sanitize(map[string]any{"confidence": 3.7}).Confidence)
	require.Equal(t, 0.0, Sanitize(map[string]any{"confidence": -1.0}).Confidence)
	require.Equal(t, 0.42, Sanitize(map[string]any{"confidence": 0.42}).Confidence)
}

func TestSanitizeStringsAndDefaults(t *testing.T) {
	result := Sanitize(map[string]any{
		"summary":        strings.Repeat("a", maxStringLength+50),
		"recommendation": 12.0,
	})

	require.Len(t, result.Summary, maxStringLength)
	require.Equal(t, RecommendationNeutral, result.Recommendation)
}

func TestSanitizeTruncatesOnRuneBoundary(t *testing.T) {
	// Each rune is 3 bytes, so the cap lands mid-rune unless the cut
	// backs up to a boundary.
	long := strings.Repeat("审", maxStringLength/3+10)

	result := Sanitize(map[string]any{
		"summary":   long,
		"strengths": []any{long},
	})

	require.True(t, utf8.ValidString(result.Summary))
	require.LessOrEqual(t, len(result.Summary), maxStringLength)
	require.True(t, utf8.ValidString(result.Strengths[0]))
	require.LessOrEqual(t, len(result.Strengths[0]), maxStringLength)
}

func TestSanitizeListsCapLengthAndDropNonStrings(t *testing.T) {
	items := make([]any, 0, 30)
	for i := 0; i < 15; i++ {
		items = append(items, "strength")
	}
	items = append(items, 42.0, map[string]any{"x": 1}, nil)
	for i := 0; i < 15; i++ {
		items = append(items, "more")
	}

	result := Sanitize(map[string]any{"strengths": items, "weaknesses": "not a list"})
	require.Len(t, result.Strengths, maxListLength)
	for _, item := range result.Strengths {
		require.IsType(t, "", item)
	}
	require.Empty(t, result.Weaknesses)
}

func TestSanitizeLegacyFlatScores(t *testing.T) {
	result := Sanitize(map[string]any{
		"contentScore":      4.0,
		"presentationScore": 3.55,
		"relevanceScore":    "bad",
		"originalityScore":  2.0,
	})

	require.Equal(t, map[string]float64{
		"Content":      4.0,
		"Presentation": 3.6,
		"Originality":  2.0,
	}, result.CriteriaScores)
}

func TestSanitizeLegacyIgnoredWhenCriteriaPresent(t *testing.T) {
	result := Sanitize(map[string]any{
		"criteriaScores": map[string]any{"Depth": 5.0},
		"contentScore":   1.0,
	})
	require.Equal(t, map[string]float64{"Depth": 5.0}, result.CriteriaScores)
}

func TestSanitizeIsIdempotent(t *testing.T) {
	first := Sanitize(map[string]any{
		"criteriaScores": map[string]any{"Content": 4.67, "Relevance": "nope"},
		"overallScore":   4.37,
		"summary":        "solid proposal",
		"recommendation": "ACCEPT",
		"strengths":      []any{"clear", 9.0, "practical"},
		"confidence":     0.9,
	})

	encoded, err := json.Marshal(first)
	require.NoError(t, err)
	var roundTrip map[string]any
	require.NoError(t, json.Unmarshal(encoded, &roundTrip))

	second := Sanitize(roundTrip)
	require.Equal(t, first.CriteriaScores, second.CriteriaScores)
	require.Equal(t, first.OverallScore, second.OverallScore)
	require.Equal(t, first.Summary, second.Summary)
	require.Equal(t, first.Recommendation, second.Recommendation)
	require.Equal(t, first.Strengths, second.Strengths)
	require.Equal(t, first.Confidence, second.Confidence)
}
