// Package textmatch provides normalized edit-distance similarity and
// best-match selection over small vocabularies.
package textmatch

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Documented thresholds. Category resolution and local parsing tolerate
// looser matches than brand/product correction, where names are short and
// collision-prone.
const (
	CategoryThreshold = 0.6
	LexicalThreshold  = 0.75
)

// Similarity returns an edit-distance similarity in [0,1]:
// 1 - distance/max(len). Comparison is case-insensitive; two empty
// strings are identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// BestMatch returns the candidate most similar to s, provided the
// similarity meets the threshold. Ties keep the earliest candidate.
func BestMatch(s string, candidates []string, threshold float64) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := Similarity(s, c)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore >= threshold && best != "" {
		return best, true
	}
	return "", false
}
