package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserPromptStripsHTMLFromSubmissionText(t *testing.T) {
	prompt := UserPrompt(PromptInput{
		EventName:        "GopherCon",
		Title:            `Talk <script>alert("x")</script> Title`,
		Abstract:         "<b>Bold</b> claims about concurrency",
		MaxAbstractChars: 1000,
	})

	require.NotContains(t, prompt, "<script>")
	require.NotContains(t, prompt, "<b>")
	require.Contains(t, prompt, "Bold claims about concurrency")
}

func TestUserPromptCapsAbstractLength(t *testing.T) {
	prompt := UserPrompt(PromptInput{
		EventName:        "GopherCon",
		Title:            "Short",
		Abstract:         strings.Repeat("x", 5000),
		MaxAbstractChars: 300,
	})

	require.NotContains(t, prompt, strings.Repeat("x", 301))
	require.Contains(t, prompt, strings.Repeat("x", 300))
}

func TestUserPromptIncludesCriteriaAndDuplicates(t *testing.T) {
	prompt := UserPrompt(PromptInput{
		EventName:     "GopherCon",
		EventType:     "conference",
		Topics:        []string{"go", "cloud"},
		AudienceLevel: "intermediate",
		Criteria: []CriterionInfo{
			{Name: "Relevance", Description: "Fit for the audience"},
			{Name: "Depth"},
		},
		Title:            "A Talk",
		Abstract:         "About things",
		MaxAbstractChars: 1000,
		Similar: []SimilarSubmission{
			{ID: 4, Title: "A Very Similar Talk", Similarity: 0.87},
		},
	})

	require.Contains(t, prompt, "- Relevance: Fit for the audience")
	require.Contains(t, prompt, "- Depth")
	require.Contains(t, prompt, "go, cloud")
	require.Contains(t, prompt, "A Very Similar Talk (similarity 0.87)")
	require.True(t, strings.HasSuffix(prompt, "Return JSON."))
}

func TestSystemPromptAsksForJSONShape(t *testing.T) {
	prompt := SystemPrompt()
	require.Contains(t, prompt, "criteriaScores")
	require.Contains(t, prompt, "overallScore")
	require.Contains(t, prompt, "confidence")
}
