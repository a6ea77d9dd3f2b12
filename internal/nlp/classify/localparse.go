package classify

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/cartwise/internal/domain"
	"github.com/kailas-cloud/cartwise/internal/textmatch"
)

var priceCeilingRe = regexp.MustCompile(`(?i)under\s*(\d+(?:\.\d+)?)`)

// LocalParse derives a structured query from the text alone, with no
// network dependency. Never fails: the zero outcome is a plain product
// search. Category resolution tries, in order, a known-category substring,
// fuzzy n-gram matches against product names, and a plain word-in-name
// containment pass.
func LocalParse(query string, products []domain.Product) domain.StructuredQuery {
	query = strings.ToLower(query)
	parsed := domain.NewStructuredQuery(domain.IntentSearch, "products")

	catSet := make(map[string]struct{})
	var names []string
	for _, p := range products {
		if cat := strings.ToLower(p.Category); cat != "" {
			catSet[cat] = struct{}{}
		}
		names = append(names, strings.ToLower(p.Name))
	}
	// sorted scan order, so ties resolve the same way on every call
	categories := make([]string, 0, len(catSet))
	for cat := range catSet {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		if strings.Contains(query, cat) {
			parsed.Category = cat
			break
		}
	}

	if parsed.Category == "products" {
		if cat, ok := matchProductName(query, names, products); ok {
			parsed.Category = cat
		}
	}

	if m := priceCeilingRe.FindStringSubmatch(query); m != nil {
		if ceiling, err := strconv.ParseFloat(m[1], 64); err == nil {
			parsed.Filters["price"] = ceiling
		}
	}

	return parsed
}

// matchProductName tries contiguous word n-grams from longest to shortest
// against all product names; the first fuzzy hit adopts that product's
// category. With no fuzzy hit, any product whose name contains a query
// word longer than two characters wins.
func matchProductName(query string, names []string, products []domain.Product) (string, bool) {
	words := strings.Fields(query)

	for n := len(words); n > 0; n-- {
		for i := 0; i+n <= len(words); i++ {
			ngram := strings.Join(words[i:i+n], " ")
			matched, ok := textmatch.BestMatch(ngram, names, textmatch.CategoryThreshold)
			if !ok {
				continue
			}
			for _, p := range products {
				if strings.Contains(strings.ToLower(p.Name), matched) {
					return strings.ToLower(p.Category), true
				}
			}
		}
	}

	for _, p := range products {
		name := strings.ToLower(p.Name)
		for _, word := range words {
			if len(word) > 2 && strings.Contains(name, word) {
				return strings.ToLower(p.Category), true
			}
		}
	}

	return "", false
}
