package review

import (
	"sort"
	"strings"
	"unicode"
)

// Candidate is a prior submission considered for duplicate detection.
type Candidate struct {
	ID       uint
	Title    string
	Abstract string
}

// FindSimilar returns the candidates whose text similarity to the target
// meets the threshold, most similar first; ties keep input order. The caller
// bounds both the candidate count and the per-abstract length; the detector
// trusts its input and does no truncation of its own.
func FindSimilar(title, abstract string, candidates []Candidate, threshold float64) []SimilarSubmission {
	target := tokenize(title + " " + abstract)

	matches := make([]SimilarSubmission, 0)
	for _, candidate := range candidates {
		score := jaccard(target, tokenize(candidate.Title+" "+candidate.Abstract))
		if score >= threshold {
			matches = append(matches, SimilarSubmission{
				ID:         candidate.ID,
				Title:      candidate.Title,
				Similarity: score,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	return matches
}

// jaccard computes token-set overlap: intersection over union.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(word) < 2 {
			continue
		}
		tokens[word] = struct{}{}
	}
	return tokens
}
