// Package lexical fuzzy-corrects query tokens against the brand and
// product vocabulary extracted from the catalog.
package lexical

import (
	"strings"

	"github.com/kailas-cloud/cartwise/internal/textmatch"
)

// Correct replaces each whitespace token of query with its nearest
// vocabulary entry when the similarity clears the lexical threshold;
// unmatched tokens pass through unchanged. Tokens are re-joined with
// single spaces. Deterministic and pure.
func Correct(query string, vocabulary []string) string {
	words := strings.Fields(strings.ToLower(query))
	for i, word := range words {
		if match, ok := textmatch.BestMatch(word, vocabulary, textmatch.LexicalThreshold); ok {
			words[i] = match
		}
	}
	return strings.Join(words, " ")
}
