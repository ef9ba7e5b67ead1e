package review

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindSimilarReturnsMatchesAboveThreshold(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Title: "Introduction to Kubernetes Security", Abstract: "Securing clusters with policies and RBAC"},
		{ID: 2, Title: "Baking Sourdough Bread", Abstract: "Flour, water, salt, and patience"},
		{ID: 3, Title: "Kubernetes Security in Practice", Abstract: "Securing production clusters with RBAC and policies"},
	}

	matches := FindSimilar(
		"Kubernetes Security Deep Dive",
		"Securing clusters with network policies and RBAC",
		candidates,
		0.3,
	)

	require.Len(t, matches, 2)
	ids := []uint{matches[0].ID, matches[1].ID}
	require.ElementsMatch(t, []uint{1, 3}, ids)
	for _, match := range matches {
		require.GreaterOrEqual(t, match.Similarity, 0.3)
		require.LessOrEqual(t, match.Similarity, 1.0)
	}
	// Most similar first.
	require.GreaterOrEqual(t, matches[0].Similarity, matches[1].Similarity)
}

func TestFindSimilarIdenticalTextScoresOne(t *testing.T) {
	candidates := []Candidate{{ID: 9, Title: "Exactly The Same Talk", Abstract: "word for word identical abstract"}}
	matches := FindSimilar("Exactly The Same Talk", "word for word identical abstract", candidates, 0.99)
	require.Len(t, matches, 1)
	require.InDelta(t, 1.0, matches[0].Similarity, 0.001)
}

func TestFindSimilarEmptyInputs(t *testing.T) {
	require.Empty(t, FindSimilar("", "", []Candidate{{ID: 1, Title: "anything", Abstract: "at all"}}, 0.1))
	require.Empty(t, FindSimilar("title", "abstract", nil, 0.1))
}

func TestFindSimilarTiesKeepInputOrder(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Title: "alpha beta", Abstract: ""},
		{ID: 2, Title: "alpha beta", Abstract: ""},
	}
	matches := FindSimilar("alpha beta", "", candidates, 0.5)
	require.Len(t, matches, 2)
	require.Equal(t, uint(1), matches[0].ID)
	require.Equal(t, uint(2), matches[1].ID)
}

func TestSimilarityIsOrderIndependent(t *testing.T) {
	a := tokenize("distributed tracing for microservices")
	b := tokenize("microservices tracing distributed observability")
	require.Equal(t, jaccard(a, b), jaccard(b, a))
}
