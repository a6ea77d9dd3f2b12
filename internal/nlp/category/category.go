// Package category resolves free-form category strings against the
// catalog's known category vocabulary.
package category

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/cartwise/internal/textmatch"
)

// Normalizer maps raw category strings onto known catalog categories via
// exact match, alias expansion, fuzzy match, and substring containment,
// in that order. Pure; safe for concurrent use.
type Normalizer struct {
	known   map[string]struct{}
	ordered []string // deterministic scan order for fuzzy/substring passes
	aliases map[string][]string
}

// New creates a normalizer over the known categories and alias table.
// Categories and alias keys are treated case-insensitively.
func New(known map[string]struct{}, aliases map[string][]string) *Normalizer {
	n := &Normalizer{
		known:   make(map[string]struct{}, len(known)),
		aliases: make(map[string][]string, len(aliases)),
	}
	for cat := range known {
		cat = strings.ToLower(cat)
		n.known[cat] = struct{}{}
		n.ordered = append(n.ordered, cat)
	}
	sort.Strings(n.ordered)
	for key, vals := range aliases {
		n.aliases[strings.ToLower(key)] = vals
	}
	return n
}

// Normalize resolves raw to a known category, or "" when unresolved.
func (n *Normalizer) Normalize(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	// 1. Exact match.
	if _, ok := n.known[raw]; ok {
		return raw
	}

	// 2. Alias table, first alias present in the catalog wins.
	if aliasList, ok := n.aliases[raw]; ok {
		for _, alias := range aliasList {
			alias = strings.ToLower(alias)
			if _, ok := n.known[alias]; ok {
				return alias
			}
		}
	}

	// 3. Fuzzy nearest match.
	if match, ok := textmatch.BestMatch(raw, n.ordered, textmatch.CategoryThreshold); ok {
		return match
	}

	// 4. Bidirectional substring containment.
	for _, cat := range n.ordered {
		if strings.Contains(raw, cat) || strings.Contains(cat, raw) {
			return cat
		}
	}

	return ""
}
